package executor

import (
	"path/filepath"
	"testing"

	"tinydb/internal/catalog"
	"tinydb/internal/dberr"
	"tinydb/internal/sql/parser"
	"tinydb/internal/storage"
	"tinydb/internal/testutil"
)

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	dir, cleanup := testutil.TempDir(t)
	t.Cleanup(cleanup)
	dm, err := storage.NewDiskManager(filepath.Join(dir, "test.db"))
	testutil.AssertNoError(t, err)
	t.Cleanup(func() { dm.Close() })

	bp := storage.NewBufferPool(dm, 16)
	fsm := storage.NewFreeSpaceManager(bp)
	testutil.AssertTrue(t, fsm.Initialize(), "expected Initialize to succeed")
	cat, err := catalog.Open(bp, fsm)
	testutil.AssertNoError(t, err)
	return New(cat)
}

func run(t *testing.T, e *Executor, sql string) (*Result, error) {
	t.Helper()
	stmt, err := parser.New(sql).Parse()
	if err != nil {
		t.Fatalf("parse %q: %v", sql, err)
	}
	return e.Execute(stmt)
}

func TestExecutorCreateInsertSelect(t *testing.T) {
	e := newTestExecutor(t)

	_, err := run(t, e, "CREATE TABLE widgets (id INTEGER NOT NULL, name VARCHAR(16))")
	testutil.AssertNoError(t, err)

	_, err = run(t, e, "INSERT INTO widgets VALUES (1, 'gear')")
	testutil.AssertNoError(t, err)
	_, err = run(t, e, "INSERT INTO widgets VALUES (2, 'cog')")
	testutil.AssertNoError(t, err)

	result, err := run(t, e, "SELECT * FROM widgets")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, []string{"id", "name"}, result.Columns)
	testutil.AssertEqual(t, 2, len(result.Rows))
}

func TestExecutorSelectWithWhere(t *testing.T) {
	e := newTestExecutor(t)
	run(t, e, "CREATE TABLE widgets (id INTEGER NOT NULL, name VARCHAR(16))")
	run(t, e, "INSERT INTO widgets VALUES (1, 'gear')")
	run(t, e, "INSERT INTO widgets VALUES (2, 'cog')")

	result, err := run(t, e, "SELECT * FROM widgets WHERE id = 2")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, 1, len(result.Rows))
	testutil.AssertEqual(t, "cog", result.Rows[0][1])
}

func TestExecutorDelete(t *testing.T) {
	e := newTestExecutor(t)
	run(t, e, "CREATE TABLE widgets (id INTEGER NOT NULL, name VARCHAR(16))")
	run(t, e, "INSERT INTO widgets VALUES (1, 'gear')")
	run(t, e, "INSERT INTO widgets VALUES (2, 'cog')")

	result, err := run(t, e, "DELETE FROM widgets WHERE id = 1")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, 1, result.RowsAffected)

	result, err = run(t, e, "SELECT * FROM widgets")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, 1, len(result.Rows))
}

func TestExecutorUpdate(t *testing.T) {
	e := newTestExecutor(t)
	run(t, e, "CREATE TABLE widgets (id INTEGER NOT NULL, name VARCHAR(16))")
	run(t, e, "INSERT INTO widgets VALUES (1, 'gear')")

	result, err := run(t, e, "UPDATE widgets SET name = 'sprocket' WHERE id = 1")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, 1, result.RowsAffected)

	result, err = run(t, e, "SELECT * FROM widgets")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, "sprocket", result.Rows[0][1])
}

func TestExecutorSelectFromUndefinedTable(t *testing.T) {
	e := newTestExecutor(t)
	_, err := run(t, e, "SELECT * FROM nope")
	testutil.AssertError(t, err)
	if !dberr.Is(err, dberr.UndefinedTable) {
		t.Fatalf("expected UndefinedTable, got %v", err)
	}
}

func TestExecutorInsertNullIntoNotNullColumn(t *testing.T) {
	e := newTestExecutor(t)
	run(t, e, "CREATE TABLE widgets (id INTEGER NOT NULL)")
	_, err := run(t, e, "INSERT INTO widgets VALUES (NULL)")
	testutil.AssertError(t, err)
	if !dberr.Is(err, dberr.NotNullViolation) {
		t.Fatalf("expected NotNullViolation, got %v", err)
	}
}

func TestExecutorWhereTypeMismatchExcludesRatherThanErrors(t *testing.T) {
	e := newTestExecutor(t)
	run(t, e, "CREATE TABLE widgets (id INTEGER NOT NULL, name VARCHAR(16))")
	run(t, e, "INSERT INTO widgets VALUES (1, 'gear')")

	result, err := run(t, e, "SELECT * FROM widgets WHERE id = 'not-an-int'")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, 0, len(result.Rows))
}

func TestExecutorInsertWrongValueCount(t *testing.T) {
	e := newTestExecutor(t)
	run(t, e, "CREATE TABLE widgets (id INTEGER NOT NULL, name VARCHAR(16))")
	_, err := run(t, e, "INSERT INTO widgets VALUES (1)")
	testutil.AssertError(t, err)
}
