// Package engine wires together the storage layers a running database
// needs: a disk manager, a buffer pool over it, a free-space manager,
// and the catalog that sits on top of both. It is the one place that
// knows the order those pieces must be constructed in: the free-space
// manager must be initialized before the catalog ever asks it for a
// page.
package engine

import (
	"fmt"

	"tinydb/internal/catalog"
	"tinydb/internal/config"
	"tinydb/internal/dberr"
	"tinydb/internal/log"
	"tinydb/internal/sql/executor"
	"tinydb/internal/storage"
)

// Engine owns every storage-layer handle for one open database file.
type Engine struct {
	Disk      *storage.DiskManager
	Buffer    *storage.BufferPool
	FreeSpace *storage.FreeSpaceManager
	Catalog   *catalog.Catalog
	Executor  *executor.Executor

	logger log.Logger
}

// Open creates or opens the database file named by cfg, initializes
// the free-space manager, and opens the catalog (bootstrapping it on a
// fresh file, recovering it otherwise). Any failure here is fatal: the
// caller has no partially-open engine to fall back to.
func Open(cfg *config.Config) (*Engine, error) {
	logger := log.Default().With(log.String("component", "engine"))

	dbPath := cfg.GetDatabasePath()
	disk, err := storage.NewDiskManager(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database file %s: %w", dbPath, err)
	}

	bp := storage.NewBufferPool(disk, cfg.Storage.BufferPoolFrames)
	fsm := storage.NewFreeSpaceManager(bp)
	if !fsm.Initialize() {
		disk.Close()
		return nil, dberr.IOErrorf("cannot initialize superblock and free-space map for %s", dbPath)
	}

	cat, err := catalog.Open(bp, fsm)
	if err != nil {
		disk.Close()
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	logger.Info("engine opened", log.String("path", dbPath))
	return &Engine{
		Disk:      disk,
		Buffer:    bp,
		FreeSpace: fsm,
		Catalog:   cat,
		Executor:  executor.New(cat),
		logger:    logger,
	}, nil
}

// Close flushes every resident page to disk and closes the underlying
// file.
func (e *Engine) Close() error {
	e.Buffer.FlushAllPages()
	if err := e.Disk.Close(); err != nil {
		return fmt.Errorf("closing database file: %w", err)
	}
	e.logger.Info("engine closed")
	return nil
}
