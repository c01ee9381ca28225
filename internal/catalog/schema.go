package catalog

import (
	"tinydb/internal/sql/types"
	"tinydb/internal/storage"
)

// System table ids, fixed by the on-disk format.
const (
	catalogTablesTableID  int32 = 0
	catalogColumnsTableID int32 = 1
	firstUserTableID      int32 = 2
)

const catalogNameMaxLength = 64

// catalogTablesSchema is the hardcoded layout of __catalog_tables.
// Bootstrap writes its column rows to __catalog_columns, but recovery
// never reads them back and always uses this layout: a catalog that
// needed to read its own schema from disk before it could read
// anything from disk would have no base case.
func catalogTablesSchema() *storage.Schema {
	return storage.NewSchema([]types.Column{
		{Name: "table_id", Type: types.Integer},
		{Name: "table_name", Type: types.Varchar, MaxLength: catalogNameMaxLength},
		{Name: "first_page_id", Type: types.Integer},
	})
}

// catalogColumnsSchema is the hardcoded layout of __catalog_columns.
func catalogColumnsSchema() *storage.Schema {
	return storage.NewSchema([]types.Column{
		{Name: "table_id", Type: types.Integer},
		{Name: "column_name", Type: types.Varchar, MaxLength: catalogNameMaxLength},
		{Name: "column_type", Type: types.Integer},
		{Name: "column_length", Type: types.Integer},
		{Name: "column_index", Type: types.Integer},
	})
}

// tableRow is the decoded form of one __catalog_tables row.
type tableRow struct {
	TableID     int32
	TableName   string
	FirstPageID storage.PageID
}

func decodeTableRow(values []types.Value) (tableRow, error) {
	id, err := values[0].AsInt()
	if err != nil {
		return tableRow{}, err
	}
	name, err := values[1].AsString()
	if err != nil {
		return tableRow{}, err
	}
	firstPage, err := values[2].AsInt()
	if err != nil {
		return tableRow{}, err
	}
	return tableRow{TableID: id, TableName: name, FirstPageID: storage.PageID(firstPage)}, nil
}

func encodeTableRow(row tableRow) []types.Value {
	return []types.Value{
		types.NewInt(row.TableID),
		types.NewString(row.TableName),
		types.NewInt(int32(row.FirstPageID)),
	}
}

// columnRow is the decoded form of one __catalog_columns row.
type columnRow struct {
	TableID      int32
	ColumnName   string
	ColumnType   types.ColumnType
	ColumnLength int32
	ColumnIndex  int32
}

func decodeColumnRow(values []types.Value) (columnRow, error) {
	tableID, err := values[0].AsInt()
	if err != nil {
		return columnRow{}, err
	}
	name, err := values[1].AsString()
	if err != nil {
		return columnRow{}, err
	}
	colType, err := values[2].AsInt()
	if err != nil {
		return columnRow{}, err
	}
	length, err := values[3].AsInt()
	if err != nil {
		return columnRow{}, err
	}
	index, err := values[4].AsInt()
	if err != nil {
		return columnRow{}, err
	}
	return columnRow{
		TableID:      tableID,
		ColumnName:   name,
		ColumnType:   types.ColumnType(colType),
		ColumnLength: length,
		ColumnIndex:  index,
	}, nil
}

func encodeColumnRow(row columnRow) []types.Value {
	return []types.Value{
		types.NewInt(row.TableID),
		types.NewString(row.ColumnName),
		types.NewInt(int32(row.ColumnType)),
		types.NewInt(row.ColumnLength),
		types.NewInt(row.ColumnIndex),
	}
}
