// Package executor tree-walks the parsed statement forms against the
// catalog and table heaps.
package executor

import (
	"tinydb/internal/catalog"
	"tinydb/internal/dberr"
	"tinydb/internal/sql/parser"
	"tinydb/internal/sql/types"
	"tinydb/internal/storage"
)

// Executor runs parsed statements against a single catalog.
type Executor struct {
	catalog *catalog.Catalog
}

// New creates an Executor bound to cat.
func New(cat *catalog.Catalog) *Executor {
	return &Executor{catalog: cat}
}

// Execute runs stmt and returns its result or a *dberr.Error.
func (e *Executor) Execute(stmt parser.Statement) (*Result, error) {
	switch s := stmt.(type) {
	case *parser.CreateTableStmt:
		return e.execCreateTable(s)
	case *parser.InsertStmt:
		return e.execInsert(s)
	case *parser.SelectStmt:
		return e.execSelect(s)
	case *parser.DeleteStmt:
		return e.execDelete(s)
	case *parser.UpdateStmt:
		return e.execUpdate(s)
	default:
		return nil, dberr.InternalErrorf("unhandled statement type %T", stmt)
	}
}

func (e *Executor) execCreateTable(s *parser.CreateTableStmt) (*Result, error) {
	columns := make([]types.Column, len(s.Columns))
	for i, c := range s.Columns {
		columns[i] = types.Column{Name: c.Name, Type: c.Type, MaxLength: c.MaxLength, Nullable: c.Nullable}
	}
	if _, _, err := e.catalog.CreateTable(s.TableName, columns); err != nil {
		return nil, err
	}
	return &Result{RowsAffected: 0}, nil
}

func (e *Executor) execInsert(s *parser.InsertStmt) (*Result, error) {
	heap, schema, err := e.lookupTable(s.TableName)
	if err != nil {
		return nil, err
	}
	if len(s.Values) != len(schema.Columns) {
		return nil, dberr.Newf(dberr.DatatypeMismatch, "table %q has %d columns, got %d values", s.TableName, len(schema.Columns), len(s.Values))
	}

	values := make([]types.Value, len(schema.Columns))
	for i, col := range schema.Columns {
		v, err := valueFromLiteral(s.Values[i], col, s.TableName)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}

	record, err := schema.Serialize(values)
	if err != nil {
		return nil, dberr.InternalErrorf("serializing row for %q: %v", s.TableName, err)
	}
	if _, ok := heap.Insert(record); !ok {
		return nil, dberr.IOErrorf("cannot insert row into %q: record too large or no space", s.TableName)
	}
	return &Result{RowsAffected: 1}, nil
}

func (e *Executor) execSelect(s *parser.SelectStmt) (*Result, error) {
	heap, schema, err := e.lookupTable(s.TableName)
	if err != nil {
		return nil, err
	}

	columns := make([]string, len(schema.Columns))
	for i, col := range schema.Columns {
		columns[i] = col.Name
	}

	result := &Result{Columns: columns}
	it := heap.Iterator()
	for it.Next() {
		data, ok := it.Record()
		if !ok {
			continue
		}
		row, err := schema.Deserialize(data)
		if err != nil {
			return nil, dberr.InternalErrorf("decoding row from %q: %v", s.TableName, err)
		}
		matched, err := matchesPredicate(schema, row, s.Where)
		if err != nil {
			return nil, err
		}
		if !matched {
			continue
		}
		result.Rows = append(result.Rows, rowToStrings(row))
	}
	return result, nil
}

func (e *Executor) execDelete(s *parser.DeleteStmt) (*Result, error) {
	heap, schema, err := e.lookupTable(s.TableName)
	if err != nil {
		return nil, err
	}

	rids, err := matchingRIDs(heap, schema, s.Where)
	if err != nil {
		return nil, err
	}
	affected := 0
	for _, rid := range rids {
		if heap.Delete(rid) {
			affected++
		}
	}
	return &Result{RowsAffected: affected}, nil
}

func (e *Executor) execUpdate(s *parser.UpdateStmt) (*Result, error) {
	heap, schema, err := e.lookupTable(s.TableName)
	if err != nil {
		return nil, err
	}

	setIndex := schema.ColumnIndex(s.SetColumn)
	if setIndex < 0 {
		return nil, dberr.UndefinedColumnError(s.SetColumn, s.TableName)
	}
	setValue, err := valueFromLiteral(s.SetValue, schema.Columns[setIndex], s.TableName)
	if err != nil {
		return nil, err
	}

	rids, err := matchingRIDs(heap, schema, s.Where)
	if err != nil {
		return nil, err
	}

	affected := 0
	for _, rid := range rids {
		data, ok := heap.Get(rid)
		if !ok {
			continue
		}
		row, err := schema.Deserialize(data)
		if err != nil {
			return nil, dberr.InternalErrorf("decoding row from %q: %v", s.TableName, err)
		}
		row[setIndex] = setValue
		record, err := schema.Serialize(row)
		if err != nil {
			return nil, dberr.InternalErrorf("encoding row for %q: %v", s.TableName, err)
		}
		if _, ok := heap.Update(rid, record); ok {
			affected++
		}
	}
	return &Result{RowsAffected: affected}, nil
}

func (e *Executor) lookupTable(name string) (*storage.TableHeap, *storage.Schema, error) {
	heap, ok := e.catalog.GetTable(name)
	if !ok {
		return nil, nil, dberr.UndefinedTableError(name)
	}
	schema, ok := e.catalog.GetSchema(name)
	if !ok {
		return nil, nil, dberr.UndefinedTableError(name)
	}
	return heap, schema, nil
}

// matchingRIDs scans heap once and returns every RID whose row
// satisfies where (or every RID if where is nil).
func matchingRIDs(heap *storage.TableHeap, schema *storage.Schema, where *parser.Predicate) ([]storage.RID, error) {
	var rids []storage.RID
	it := heap.Iterator()
	for it.Next() {
		rid := it.RID()
		data, ok := it.Record()
		if !ok {
			continue
		}
		row, err := schema.Deserialize(data)
		if err != nil {
			return nil, dberr.InternalErrorf("decoding row: %v", err)
		}
		matched, err := matchesPredicate(schema, row, where)
		if err != nil {
			return nil, err
		}
		if matched {
			rids = append(rids, rid)
		}
	}
	return rids, nil
}

// matchesPredicate evaluates where against row. A nil predicate
// matches every row. A predicate referencing a null column value, or
// comparing against a value of a different type, is false rather than
// an error: three-valued logic collapsed to exclusion.
func matchesPredicate(schema *storage.Schema, row []types.Value, where *parser.Predicate) (bool, error) {
	if where == nil {
		return true, nil
	}
	idx := schema.ColumnIndex(where.Column)
	if idx < 0 {
		return false, dberr.UndefinedColumnError(where.Column, "")
	}
	target, err := literalAsValue(where.Literal, schema.Columns[idx].Type)
	if err != nil {
		return false, nil
	}
	return row[idx].Equal(target), nil
}

func rowToStrings(row []types.Value) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = v.String()
	}
	return out
}

func valueFromLiteral(lit parser.Literal, col types.Column, tableName string) (types.Value, error) {
	if lit.IsNull {
		if !col.Nullable {
			return types.Value{}, dberr.NotNullViolationError(col.Name, tableName)
		}
		return types.NewNull(col.Type), nil
	}
	return literalAsValue(lit, col.Type)
}

func literalAsValue(lit parser.Literal, want types.ColumnType) (types.Value, error) {
	if lit.IsNull {
		return types.NewNull(want), nil
	}
	switch want {
	case types.Integer:
		if !lit.IsInt {
			return types.Value{}, dberr.DatatypeMismatchError("", "INTEGER", "VARCHAR")
		}
		return types.NewInt(lit.Int), nil
	case types.Varchar:
		if lit.IsInt {
			return types.Value{}, dberr.DatatypeMismatchError("", "VARCHAR", "INTEGER")
		}
		return types.NewString(lit.Str), nil
	default:
		return types.Value{}, dberr.InternalErrorf("unsupported column type %s", want)
	}
}
