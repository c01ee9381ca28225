// Package catalog persists table metadata in two self-describing
// system tables so that schemas survive a close and reopen of the
// database file.
package catalog

import (
	"fmt"
	"sort"

	"tinydb/internal/dberr"
	"tinydb/internal/log"
	"tinydb/internal/sql/types"
	"tinydb/internal/storage"
)

// Catalog is the in-memory index over the persisted system tables. It
// never outlives the buffer pool and free-space manager it was opened
// with.
type Catalog struct {
	bp  *storage.BufferPool
	fsm *storage.FreeSpaceManager

	catalogTables  *storage.TableHeap
	catalogColumns *storage.TableHeap

	tableIDByName map[string]int32
	heaps         map[int32]*storage.TableHeap
	schemas       map[int32]*storage.Schema
	names         map[int32]string

	nextTableID int32
	logger      log.Logger
}

// Open decides between bootstrap and recovery based on the
// superblock's catalog pointer, and returns a ready-to-use Catalog.
// The caller must have already called fsm.Initialize().
func Open(bp *storage.BufferPool, fsm *storage.FreeSpaceManager) (*Catalog, error) {
	cat := &Catalog{
		bp:            bp,
		fsm:           fsm,
		tableIDByName: make(map[string]int32),
		heaps:         make(map[int32]*storage.TableHeap),
		schemas:       make(map[int32]*storage.Schema),
		names:         make(map[int32]string),
		nextTableID:   firstUserTableID,
		logger:        log.Default().With(log.String("component", "catalog")),
	}

	sbPage := bp.FetchPage(storage.SuperblockPageID)
	if sbPage == nil {
		return nil, dberr.IOErrorf("cannot fetch superblock")
	}
	sb := storage.NewSuperblock(sbPage.Data())
	bootstrapped := sb.IsBootstrapped()
	bp.UnpinPage(storage.SuperblockPageID, false)

	if bootstrapped {
		if err := cat.recover(); err != nil {
			return nil, err
		}
	} else {
		if err := cat.bootstrap(); err != nil {
			return nil, err
		}
	}
	return cat, nil
}

// bootstrap creates __catalog_tables, then __catalog_columns, records
// both in the superblock, and finally inserts the self-describing
// rows. This order matters: the superblock must name the tables heap
// before any recovery attempt can find it.
func (c *Catalog) bootstrap() error {
	tablesFirstPage := c.fsm.AllocatePage()
	if tablesFirstPage == storage.InvalidPageID {
		return dberr.IOErrorf("cannot allocate page for __catalog_tables")
	}
	if !c.initPage(tablesFirstPage) {
		return dberr.IOErrorf("cannot initialize __catalog_tables page %d", tablesFirstPage)
	}

	columnsFirstPage := c.fsm.AllocatePage()
	if columnsFirstPage == storage.InvalidPageID {
		return dberr.IOErrorf("cannot allocate page for __catalog_columns")
	}
	if !c.initPage(columnsFirstPage) {
		return dberr.IOErrorf("cannot initialize __catalog_columns page %d", columnsFirstPage)
	}

	sbPage := c.bp.FetchPage(storage.SuperblockPageID)
	if sbPage == nil {
		return dberr.IOErrorf("cannot fetch superblock")
	}
	storage.NewSuperblock(sbPage.Data()).SetCatalogTablesPageID(tablesFirstPage)
	c.bp.UnpinPage(storage.SuperblockPageID, true)

	c.catalogTables = storage.NewTableHeap(c.bp, c.fsm, tablesFirstPage)
	c.catalogColumns = storage.NewTableHeap(c.bp, c.fsm, columnsFirstPage)
	c.register(catalogTablesTableID, "__catalog_tables", c.catalogTables, catalogTablesSchema())
	c.register(catalogColumnsTableID, "__catalog_columns", c.catalogColumns, catalogColumnsSchema())

	if err := c.insertTableRow(tableRow{TableID: catalogTablesTableID, TableName: "__catalog_tables", FirstPageID: tablesFirstPage}); err != nil {
		return err
	}
	if err := c.insertTableRow(tableRow{TableID: catalogColumnsTableID, TableName: "__catalog_columns", FirstPageID: columnsFirstPage}); err != nil {
		return err
	}
	if err := c.insertColumnRows(catalogTablesTableID, catalogTablesSchema().Columns); err != nil {
		return err
	}
	if err := c.insertColumnRows(catalogColumnsTableID, catalogColumnsSchema().Columns); err != nil {
		return err
	}

	c.logger.Info("bootstrapped catalog", log.Any("catalog_tables_page", tablesFirstPage))
	return nil
}

// recover reads the superblock to find __catalog_tables, scans it once
// to find __catalog_columns, then walks the scanned rows again to
// materialize every user table, restoring each table's schema from its
// column rows sorted by column_index.
func (c *Catalog) recover() error {
	sbPage := c.bp.FetchPage(storage.SuperblockPageID)
	if sbPage == nil {
		return dberr.IOErrorf("cannot fetch superblock")
	}
	tablesFirstPage := storage.NewSuperblock(sbPage.Data()).CatalogTablesPageID()
	c.bp.UnpinPage(storage.SuperblockPageID, false)

	c.catalogTables = storage.NewTableHeap(c.bp, c.fsm, tablesFirstPage)
	c.register(catalogTablesTableID, "__catalog_tables", c.catalogTables, catalogTablesSchema())

	tableRows, err := scanRows(c.catalogTables, catalogTablesSchema(), decodeTableRow)
	if err != nil {
		return fmt.Errorf("recovering __catalog_tables: %w", err)
	}

	var columnsFirstPage storage.PageID = storage.InvalidPageID
	for _, row := range tableRows {
		if row.TableID == catalogColumnsTableID {
			columnsFirstPage = row.FirstPageID
			break
		}
	}
	if columnsFirstPage == storage.InvalidPageID {
		return dberr.InternalErrorf("__catalog_columns missing from __catalog_tables")
	}
	c.catalogColumns = storage.NewTableHeap(c.bp, c.fsm, columnsFirstPage)
	c.register(catalogColumnsTableID, "__catalog_columns", c.catalogColumns, catalogColumnsSchema())

	columnRows, err := scanRows(c.catalogColumns, catalogColumnsSchema(), decodeColumnRow)
	if err != nil {
		return fmt.Errorf("recovering __catalog_columns: %w", err)
	}

	maxTableID := int32(firstUserTableID - 1)
	for _, row := range tableRows {
		if row.TableID < firstUserTableID {
			continue
		}
		cols := columnsForTable(columnRows, row.TableID)
		heap := storage.NewTableHeap(c.bp, c.fsm, row.FirstPageID)
		c.register(row.TableID, row.TableName, heap, storage.NewSchema(cols))
		if row.TableID > maxTableID {
			maxTableID = row.TableID
		}
	}
	c.nextTableID = maxTableID + 1

	c.logger.Info("recovered catalog", log.Any("table_count", len(tableRows)-2))
	return nil
}

// columnsForTable filters rows for tableID and returns columns sorted
// by column_index. Persisted user columns always come back with
// nullable = false: the persisted schema does not retain the
// nullable bit.
func columnsForTable(rows []columnRow, tableID int32) []types.Column {
	var matched []columnRow
	for _, r := range rows {
		if r.TableID == tableID {
			matched = append(matched, r)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ColumnIndex < matched[j].ColumnIndex })

	cols := make([]types.Column, len(matched))
	for i, r := range matched {
		cols[i] = types.Column{
			Name:      r.ColumnName,
			Type:      r.ColumnType,
			MaxLength: int(r.ColumnLength),
			Nullable:  false,
		}
	}
	return cols
}

// CreateTable allocates a table id and first page, persists one row
// in __catalog_tables and one row per column in __catalog_columns,
// and registers the new table in memory only once both writes have
// succeeded. On any persistence failure it deletes the table's
// __catalog_tables row if one was written and deallocates the page;
// column rows already written to __catalog_columns are not removed.
func (c *Catalog) CreateTable(name string, columns []types.Column) (*storage.TableHeap, *storage.Schema, error) {
	if _, exists := c.tableIDByName[name]; exists {
		return nil, nil, dberr.DuplicateTableError(name)
	}

	tableID := c.nextTableID
	firstPage := c.fsm.AllocatePage()
	if firstPage == storage.InvalidPageID {
		return nil, nil, dberr.IOErrorf("cannot allocate first page for table %q", name)
	}
	if !c.initPage(firstPage) {
		c.fsm.DeallocatePage(firstPage)
		return nil, nil, dberr.IOErrorf("cannot initialize first page for table %q", name)
	}

	heap := storage.NewTableHeap(c.bp, c.fsm, firstPage)
	schema := storage.NewSchema(columns)

	if err := c.insertTableRow(tableRow{TableID: tableID, TableName: name, FirstPageID: firstPage}); err != nil {
		c.fsm.DeallocatePage(firstPage)
		return nil, nil, err
	}
	if err := c.insertColumnRows(tableID, columns); err != nil {
		c.rollbackTableRow(tableID)
		c.fsm.DeallocatePage(firstPage)
		return nil, nil, err
	}

	c.nextTableID++
	c.register(tableID, name, heap, schema)
	return heap, schema, nil
}

// GetTable returns the heap for a table name.
func (c *Catalog) GetTable(name string) (*storage.TableHeap, bool) {
	id, ok := c.tableIDByName[name]
	if !ok {
		return nil, false
	}
	heap, ok := c.heaps[id]
	return heap, ok
}

// GetSchema returns the schema for a table name.
func (c *Catalog) GetSchema(name string) (*storage.Schema, bool) {
	id, ok := c.tableIDByName[name]
	if !ok {
		return nil, false
	}
	schema, ok := c.schemas[id]
	return schema, ok
}

func (c *Catalog) register(id int32, name string, heap *storage.TableHeap, schema *storage.Schema) {
	c.tableIDByName[name] = id
	c.heaps[id] = heap
	c.schemas[id] = schema
	c.names[id] = name
}

func (c *Catalog) rollbackTableRow(tableID int32) {
	it := c.catalogTables.Iterator()
	for it.Next() {
		data, ok := it.Record()
		if !ok {
			continue
		}
		values, err := catalogTablesSchema().Deserialize(data)
		if err != nil {
			continue
		}
		row, err := decodeTableRow(values)
		if err != nil {
			continue
		}
		if row.TableID == tableID {
			c.catalogTables.Delete(it.RID())
			return
		}
	}
}

func (c *Catalog) initPage(id storage.PageID) bool {
	page := c.bp.NewPage(id)
	if page == nil {
		return false
	}
	storage.NewSlottedPage(page.Data()).Init()
	c.bp.UnpinPage(id, true)
	return true
}

func (c *Catalog) insertTableRow(row tableRow) error {
	return insertRow(c.catalogTables, catalogTablesSchema(), encodeTableRow(row))
}

func (c *Catalog) insertColumnRows(tableID int32, columns []types.Column) error {
	for i, col := range columns {
		row := columnRow{
			TableID:      tableID,
			ColumnName:   col.Name,
			ColumnType:   col.Type,
			ColumnLength: int32(col.MaxLength),
			ColumnIndex:  int32(i),
		}
		if err := insertRow(c.catalogColumns, catalogColumnsSchema(), encodeColumnRow(row)); err != nil {
			return err
		}
	}
	return nil
}

func insertRow(heap *storage.TableHeap, schema *storage.Schema, values []types.Value) error {
	record, err := schema.Serialize(values)
	if err != nil {
		return dberr.InternalErrorf("serializing catalog row: %v", err)
	}
	if _, ok := heap.Insert(record); !ok {
		return dberr.IOErrorf("cannot persist catalog row")
	}
	return nil
}

func scanRows[T any](heap *storage.TableHeap, schema *storage.Schema, decode func([]types.Value) (T, error)) ([]T, error) {
	var out []T
	it := heap.Iterator()
	for it.Next() {
		data, ok := it.Record()
		if !ok {
			continue
		}
		values, err := schema.Deserialize(data)
		if err != nil {
			return nil, err
		}
		row, err := decode(values)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}
