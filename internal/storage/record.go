package storage

import (
	"encoding/binary"
	"fmt"

	"tinydb/internal/sql/types"
)

// Schema is the column list a table's records are serialized against.
// The record format is not self-describing: a caller must already
// know which schema a given record belongs to before it can be
// decoded.
type Schema struct {
	Columns []types.Column
}

// NewSchema builds a Schema from column definitions.
func NewSchema(columns []types.Column) *Schema {
	return &Schema{Columns: columns}
}

// ColumnIndex returns the position of name in the schema, or -1.
func (s *Schema) ColumnIndex(name string) int {
	for i, c := range s.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func (s *Schema) nullBitmapSize() int {
	return (len(s.Columns) + 7) / 8
}

func (s *Schema) varColumnCount() int {
	n := 0
	for _, c := range s.Columns {
		if c.Type.IsVariableLength() {
			n++
		}
	}
	return n
}

// SerializedSize returns the exact number of bytes Serialize(values)
// will produce.
func (s *Schema) SerializedSize(values []types.Value) (int, error) {
	if len(values) != len(s.Columns) {
		return 0, fmt.Errorf("schema has %d columns, got %d values", len(s.Columns), len(values))
	}
	size := s.nullBitmapSize() + s.varColumnCount()*4
	for _, v := range values {
		size += v.SerializedSize()
	}
	return size, nil
}

// Serialize encodes values into the on-record byte layout: null
// bitmap, then the variable-column offset table, then fixed columns
// in schema order, then variable-length payloads.
func (s *Schema) Serialize(values []types.Value) ([]byte, error) {
	size, err := s.SerializedSize(values)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, size)

	nullBitmapSize := s.nullBitmapSize()
	for i, v := range values {
		if v.IsNull() {
			buf[i/8] |= 1 << (i % 8)
		}
	}

	varCount := s.varColumnCount()
	offsetTableStart := nullBitmapSize
	fixedStart := offsetTableStart + varCount*4
	cursor := fixedStart

	// Fixed-length columns first, in schema order.
	for i, v := range values {
		if v.IsNull() || s.Columns[i].Type.IsVariableLength() {
			continue
		}
		switch s.Columns[i].Type {
		case types.Integer:
			binary.LittleEndian.PutUint32(buf[cursor:], uint32(v.Int))
			cursor += 4
		default:
			return nil, fmt.Errorf("unsupported fixed column type %s", s.Columns[i].Type)
		}
	}

	// Variable-length payloads, filling in the offset table as we go.
	varIndex := 0
	for i, v := range values {
		if !s.Columns[i].Type.IsVariableLength() {
			continue
		}
		slot := offsetTableStart + varIndex*4
		varIndex++
		if v.IsNull() {
			binary.LittleEndian.PutUint32(buf[slot:], 0)
			continue
		}
		binary.LittleEndian.PutUint32(buf[slot:], uint32(cursor))
		str, err := v.AsString()
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", s.Columns[i].Name, err)
		}
		binary.LittleEndian.PutUint32(buf[cursor:], uint32(len(str)))
		cursor += 4
		copy(buf[cursor:], str)
		cursor += len(str)
	}

	return buf, nil
}

// Deserialize decodes bytes previously produced by Serialize back
// into typed values.
func (s *Schema) Deserialize(data []byte) ([]types.Value, error) {
	nullBitmapSize := s.nullBitmapSize()
	if len(data) < nullBitmapSize {
		return nil, fmt.Errorf("record too short for null bitmap: %d bytes", len(data))
	}

	isNull := make([]bool, len(s.Columns))
	for i := range s.Columns {
		isNull[i] = data[i/8]&(1<<(i%8)) != 0
	}

	varCount := s.varColumnCount()
	offsetTableStart := nullBitmapSize
	fixedStart := offsetTableStart + varCount*4
	if len(data) < fixedStart {
		return nil, fmt.Errorf("record too short for offset table: %d bytes", len(data))
	}

	values := make([]types.Value, len(s.Columns))
	cursor := fixedStart
	varIndex := 0

	for i, col := range s.Columns {
		if isNull[i] {
			values[i] = types.NewNull(col.Type)
			if col.Type.IsVariableLength() {
				varIndex++
			}
			continue
		}

		if col.Type.IsVariableLength() {
			slot := offsetTableStart + varIndex*4
			varIndex++
			offset := int(binary.LittleEndian.Uint32(data[slot:]))
			if offset+4 > len(data) {
				return nil, fmt.Errorf("column %q: offset out of range", col.Name)
			}
			length := int(binary.LittleEndian.Uint32(data[offset:]))
			start := offset + 4
			if start+length > len(data) {
				return nil, fmt.Errorf("column %q: payload out of range", col.Name)
			}
			values[i] = types.NewString(string(data[start : start+length]))
			continue
		}

		switch col.Type {
		case types.Integer:
			if cursor+4 > len(data) {
				return nil, fmt.Errorf("column %q: record too short", col.Name)
			}
			values[i] = types.NewInt(int32(binary.LittleEndian.Uint32(data[cursor:])))
			cursor += 4
		default:
			return nil, fmt.Errorf("unsupported fixed column type %s", col.Type)
		}
	}

	return values, nil
}
