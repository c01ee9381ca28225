package engine

import (
	"testing"

	"tinydb/internal/config"
	"tinydb/internal/sql/executor"
	"tinydb/internal/sql/parser"
	"tinydb/internal/testutil"
)

func testConfig(dir string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.DataDir = dir
	cfg.Storage.BufferPoolFrames = 16
	cfg.Storage.DatabaseFile = "test.db"
	return cfg
}

func TestEngineOpenBootstrapsFreshFile(t *testing.T) {
	dir, cleanup := testutil.TempDir(t)
	defer cleanup()

	eng, err := Open(testConfig(dir))
	testutil.AssertNoError(t, err)
	defer eng.Close()

	_, ok := eng.Catalog.GetTable("__catalog_tables")
	testutil.AssertTrue(t, ok, "expected the catalog to be bootstrapped on open")
}

func exec(t *testing.T, eng *Engine, sql string) *executor.Result {
	t.Helper()
	stmt, err := parser.New(sql).Parse()
	testutil.AssertNoError(t, err)
	result, err := eng.Executor.Execute(stmt)
	testutil.AssertNoError(t, err)
	return result
}

func TestEngineRowsSurviveCloseAndReopen(t *testing.T) {
	dir, cleanup := testutil.TempDir(t)
	defer cleanup()
	cfg := testConfig(dir)

	eng, err := Open(cfg)
	testutil.AssertNoError(t, err)
	exec(t, eng, "CREATE TABLE users (id INTEGER, name VARCHAR(50), age INTEGER NOT NULL)")
	exec(t, eng, "INSERT INTO users VALUES (1, 'Alice', 25)")
	exec(t, eng, "INSERT INTO users VALUES (2, 'Bob', 30)")
	testutil.AssertNoError(t, eng.Close())

	eng2, err := Open(cfg)
	testutil.AssertNoError(t, err)
	defer eng2.Close()

	result := exec(t, eng2, "SELECT * FROM users WHERE id = 2")
	testutil.AssertEqual(t, 1, len(result.Rows))
	testutil.AssertEqual(t, []string{"2", "Bob", "30"}, result.Rows[0])
}

func TestEngineReopenRecoversState(t *testing.T) {
	dir, cleanup := testutil.TempDir(t)
	defer cleanup()
	cfg := testConfig(dir)

	eng, err := Open(cfg)
	testutil.AssertNoError(t, err)
	stmt, err := parser.New("CREATE TABLE widgets (id INTEGER NOT NULL)").Parse()
	testutil.AssertNoError(t, err)
	_, err = eng.Executor.Execute(stmt)
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, eng.Close())

	eng2, err := Open(cfg)
	testutil.AssertNoError(t, err)
	defer eng2.Close()
	_, ok := eng2.Catalog.GetTable("widgets")
	testutil.AssertTrue(t, ok, "expected widgets to survive close and reopen")
}
