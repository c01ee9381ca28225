// Package backup implements whole-file database backup and restore.
// Each page is LZ4 block-compressed independently and framed with its
// page id and both lengths, so a snapshot can be restored page by
// page without needing the whole file decompressed in memory at once.
package backup

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"

	"tinydb/internal/storage"
)

// frameHeaderSize is the size in bytes of one page's framing header:
// page id, compressed length, uncompressed length, each a uint32.
const frameHeaderSize = 12

// Export streams every page of the file (0 through SizeInPages-1) to
// w, each framed as (page_id, compressed_len, uncompressed_len,
// compressed bytes). It reads pages directly off disk, bypassing the
// buffer pool's pin discipline, since a backup is a point-in-time copy
// of the whole file, not a transaction. It flushes nothing: pages
// still dirty in a buffer pool are exported as they are on disk.
func Export(disk *storage.DiskManager, w io.Writer) error {
	pageCount := disk.SizeInPages()
	if pageCount == 0 {
		return nil
	}

	var raw [storage.PageSize]byte
	dst := make([]byte, lz4.CompressBlockBound(storage.PageSize))
	var header [frameHeaderSize]byte

	for id := uint32(0); id < pageCount; id++ {
		if !disk.ReadPage(storage.PageID(int32(id)), raw[:]) {
			return fmt.Errorf("backup: page %d missing below page count %d", id, pageCount)
		}

		n, err := lz4.CompressBlock(raw[:], dst, nil)
		if err != nil {
			return fmt.Errorf("backup: compressing page %d: %w", id, err)
		}

		payload := dst[:n]
		uncompressedLen := uint32(storage.PageSize)
		if n == 0 {
			// lz4 reports 0 when the input is incompressible; fall
			// back to storing the page verbatim.
			payload = raw[:]
		}

		binary.LittleEndian.PutUint32(header[0:4], id)
		binary.LittleEndian.PutUint32(header[4:8], uint32(len(payload)))
		binary.LittleEndian.PutUint32(header[8:12], uncompressedLen)
		if _, err := w.Write(header[:]); err != nil {
			return fmt.Errorf("backup: writing frame header for page %d: %w", id, err)
		}
		if _, err := w.Write(payload); err != nil {
			return fmt.Errorf("backup: writing page %d: %w", id, err)
		}
	}
	return nil
}

// Import reads frames produced by Export from r and writes each page
// back to disk at its original page id, overwriting those pages of the
// database file. Pages of the file that the snapshot does not contain
// are left as they are.
func Import(disk *storage.DiskManager, r io.Reader) error {
	var header [frameHeaderSize]byte
	var raw [storage.PageSize]byte

	for {
		_, err := io.ReadFull(r, header[:])
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("restore: reading frame header: %w", err)
		}

		id := binary.LittleEndian.Uint32(header[0:4])
		compressedLen := binary.LittleEndian.Uint32(header[4:8])
		uncompressedLen := binary.LittleEndian.Uint32(header[8:12])

		payload := make([]byte, compressedLen)
		if _, err := io.ReadFull(r, payload); err != nil {
			return fmt.Errorf("restore: reading page %d: %w", id, err)
		}

		if compressedLen == uncompressedLen {
			// stored verbatim (incompressible page)
			copy(raw[:], payload)
		} else {
			n, err := lz4.UncompressBlock(payload, raw[:])
			if err != nil {
				return fmt.Errorf("restore: decompressing page %d: %w", id, err)
			}
			if uint32(n) != uncompressedLen {
				return fmt.Errorf("restore: page %d decompressed to %d bytes, want %d", id, n, uncompressedLen)
			}
		}

		disk.WritePage(storage.PageID(int32(id)), raw[:])
	}
}
