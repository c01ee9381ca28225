// Package types defines the small set of SQL data types this database
// understands and the typed, nullable value that flows between the
// parser, the executor, and the record codec.
package types

import "fmt"

// ColumnType is the tag for a column's storage type.
type ColumnType uint8

const (
	// Invalid marks a zero-value ColumnType; never a valid schema entry.
	Invalid ColumnType = iota
	// Integer is a signed 32-bit fixed-width column.
	Integer
	// Varchar is a variable-length column with a declared maximum length.
	Varchar
)

// String returns the SQL keyword for the type.
func (t ColumnType) String() string {
	switch t {
	case Integer:
		return "INTEGER"
	case Varchar:
		return "VARCHAR"
	default:
		return "INVALID"
	}
}

// IsVariableLength reports whether values of this type are var-length
// on the record wire format.
func (t ColumnType) IsVariableLength() bool {
	return t == Varchar
}

// FixedSize returns the on-record width of a non-null value of this
// type, or 0 for variable-length types.
func (t ColumnType) FixedSize() int {
	switch t {
	case Integer:
		return 4
	default:
		return 0
	}
}

// Column describes one column of a table schema.
type Column struct {
	Name      string
	Type      ColumnType
	MaxLength int // meaningful for Varchar only
	Nullable  bool
}

// Value is a single typed, possibly-null column value.
//
// Only one of Int/Str is meaningful, selected by Type; a Null value
// carries no payload.
type Value struct {
	Null bool
	Type ColumnType
	Int  int32
	Str  string
}

// NewInt returns a non-null INTEGER value.
func NewInt(v int32) Value {
	return Value{Type: Integer, Int: v}
}

// NewString returns a non-null VARCHAR value.
func NewString(v string) Value {
	return Value{Type: Varchar, Str: v}
}

// NewNull returns a NULL value tagged with the given column type, so
// the codec still knows whether it belongs to an offset slot.
func NewNull(t ColumnType) Value {
	return Value{Null: true, Type: t}
}

// IsNull reports whether the value is SQL NULL.
func (v Value) IsNull() bool {
	return v.Null
}

// AsInt returns the value as an int32. It returns an error if the
// value is null or not an INTEGER.
func (v Value) AsInt() (int32, error) {
	if v.Null {
		return 0, fmt.Errorf("cannot read NULL as INTEGER")
	}
	if v.Type != Integer {
		return 0, fmt.Errorf("value has type %s, not INTEGER", v.Type)
	}
	return v.Int, nil
}

// AsString returns the value as a string. It returns an error if the
// value is null or not a VARCHAR.
func (v Value) AsString() (string, error) {
	if v.Null {
		return "", fmt.Errorf("cannot read NULL as VARCHAR")
	}
	if v.Type != Varchar {
		return "", fmt.Errorf("value has type %s, not VARCHAR", v.Type)
	}
	return v.Str, nil
}

// String renders the value for display in the shell.
func (v Value) String() string {
	if v.Null {
		return "NULL"
	}
	switch v.Type {
	case Integer:
		return fmt.Sprintf("%d", v.Int)
	case Varchar:
		return v.Str
	default:
		return "?"
	}
}

// SerializedSize returns the number of bytes this value contributes
// to a serialized record. Nulls contribute zero payload bytes.
func (v Value) SerializedSize() int {
	if v.Null {
		return 0
	}
	switch v.Type {
	case Integer:
		return 4
	case Varchar:
		return 4 + len(v.Str)
	default:
		return 0
	}
}

// Equal compares two values for the row-equality tests the executor's
// WHERE clause relies on.
func (v Value) Equal(other Value) bool {
	if v.Null || other.Null {
		return false // SQL NULL is never equal to anything, including NULL.
	}
	if v.Type != other.Type {
		return false
	}
	switch v.Type {
	case Integer:
		return v.Int == other.Int
	case Varchar:
		return v.Str == other.Str
	default:
		return false
	}
}
