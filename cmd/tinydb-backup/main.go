// Command tinydb-backup exports a database file to a compressed
// snapshot, or restores one from a snapshot, without going through
// the buffer pool or catalog.
package main

import (
	"fmt"
	"os"

	"tinydb/internal/storage"
	"tinydb/internal/storage/backup"
)

func main() {
	if len(os.Args) != 4 {
		fmt.Fprintln(os.Stderr, "usage: tinydb-backup export|import <dbfile> <snapshot>")
		os.Exit(1)
	}

	cmd, dbFile, snapshotFile := os.Args[1], os.Args[2], os.Args[3]

	var err error
	switch cmd {
	case "export":
		err = runExport(dbFile, snapshotFile)
	case "import":
		err = runImport(dbFile, snapshotFile)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q: want export or import\n", cmd)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "tinydb-backup: %v\n", err)
		os.Exit(1)
	}
}

func runExport(dbFile, snapshotFile string) error {
	disk, err := storage.NewDiskManager(dbFile)
	if err != nil {
		return fmt.Errorf("opening %s: %w", dbFile, err)
	}
	defer disk.Close()

	out, err := os.Create(snapshotFile)
	if err != nil {
		return fmt.Errorf("creating %s: %w", snapshotFile, err)
	}
	defer out.Close()

	if err := backup.Export(disk, out); err != nil {
		return fmt.Errorf("exporting %s: %w", dbFile, err)
	}
	return nil
}

func runImport(dbFile, snapshotFile string) error {
	in, err := os.Open(snapshotFile)
	if err != nil {
		return fmt.Errorf("opening %s: %w", snapshotFile, err)
	}
	defer in.Close()

	disk, err := storage.NewDiskManager(dbFile)
	if err != nil {
		return fmt.Errorf("opening %s: %w", dbFile, err)
	}
	defer disk.Close()

	if err := backup.Import(disk, in); err != nil {
		return fmt.Errorf("importing into %s: %w", dbFile, err)
	}
	return nil
}
