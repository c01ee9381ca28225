package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// DiskManager owns the database file handle and performs raw,
// unvalidated byte-offset reads and writes. It knows nothing about
// page allocation, superblocks, or free space; that belongs to
// FreeSpaceManager. Every write is flushed to disk before returning;
// there is no write-behind.
type DiskManager struct {
	mu   sync.Mutex
	file *os.File
}

// NewDiskManager opens (creating if necessary) the database file at path.
func NewDiskManager(path string) (*DiskManager, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open database file %s: %w", path, err)
	}
	return &DiskManager{file: file}, nil
}

// WritePage writes buf (which must be PageSize bytes) at pageID's
// offset, extending the file if necessary, and flushes it to disk.
// I/O failures here are fatal and are surfaced as a panic that the
// shell recovers at its top level.
func (dm *DiskManager) WritePage(id PageID, buf []byte) {
	if len(buf) != PageSize {
		panic(fmt.Sprintf("WritePage: buffer is %d bytes, want %d", len(buf), PageSize))
	}

	dm.mu.Lock()
	defer dm.mu.Unlock()

	offset := int64(id) * PageSize
	if _, err := dm.file.WriteAt(buf, offset); err != nil {
		panic(fatalIOError{fmt.Errorf("write page %d: %w", id, err)})
	}
	if err := dm.file.Sync(); err != nil {
		panic(fatalIOError{fmt.Errorf("sync after writing page %d: %w", id, err)})
	}
}

// ReadPage reads PageSize bytes at pageID's offset into out (which
// must be PageSize bytes). It returns false, without error, when
// fewer than PageSize bytes exist at that offset: the page is beyond
// EOF, which is the soft-failure signal for a nonexistent page. Any
// other I/O error is fatal.
func (dm *DiskManager) ReadPage(id PageID, out []byte) bool {
	if len(out) != PageSize {
		panic(fmt.Sprintf("ReadPage: buffer is %d bytes, want %d", len(out), PageSize))
	}

	dm.mu.Lock()
	defer dm.mu.Unlock()

	offset := int64(id) * PageSize
	n, err := dm.file.ReadAt(out, offset)
	if n == PageSize {
		return true
	}
	if err != nil && !isEOF(err) {
		panic(fatalIOError{fmt.Errorf("read page %d: %w", id, err)})
	}
	return false
}

// SizeInPages returns the file length divided by PageSize.
func (dm *DiskManager) SizeInPages() uint32 {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	info, err := dm.file.Stat()
	if err != nil {
		panic(fatalIOError{fmt.Errorf("stat database file: %w", err)})
	}
	return uint32(info.Size() / PageSize)
}

// Close flushes and closes the underlying file.
func (dm *DiskManager) Close() error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if err := dm.file.Sync(); err != nil {
		return fmt.Errorf("sync before close: %w", err)
	}
	return dm.file.Close()
}

// isEOF reports whether err is io.EOF or io.ErrUnexpectedEOF, the
// documented "page not present" signal, not a fatal error.
func isEOF(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

// fatalIOError wraps an unrecoverable disk error for the panic/recover
// boundary at the shell.
type fatalIOError struct{ error }

// AsFatalIOError reports whether a value recovered from a panic is a
// fatalIOError raised by this package, returning the wrapped error if
// so. Callers at the top-level panic/recover boundary use this to
// distinguish a disk failure from a genuine programming bug, which
// should keep propagating.
func AsFatalIOError(recovered any) (error, bool) {
	f, ok := recovered.(fatalIOError)
	if !ok {
		return nil, false
	}
	return f.error, true
}
