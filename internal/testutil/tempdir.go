// Package testutil carries the helpers shared by the storage, catalog,
// and SQL tests: a scratch directory for database files, small
// assertion wrappers, and row fixtures shaped like this engine's
// tables.
package testutil

import (
	"os"
	"testing"
)

// TempDir creates a scratch directory to hold a test's database file
// and returns it alongside its cleanup func. Callers either defer the
// cleanup or hand it to t.Cleanup.
func TempDir(t *testing.T) (string, func()) {
	t.Helper()

	dir, err := os.MkdirTemp("", "tinydb-*")
	if err != nil {
		t.Fatalf("creating scratch dir: %v", err)
	}
	return dir, func() {
		if err := os.RemoveAll(dir); err != nil {
			t.Errorf("removing scratch dir %s: %v", dir, err)
		}
	}
}
