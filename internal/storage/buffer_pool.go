package storage

import (
	"sync"

	"tinydb/internal/log"
)

// BufferPool caches PageSize pages from a DiskManager in memory under
// a pin-count and LRU-eviction discipline. Every public method takes
// a single mutex; there are no per-page latches. A caller holding a
// pin owns that page's bytes for as long as it stays pinned, but the
// pool itself is coarse-grained.
type BufferPool struct {
	mu        sync.Mutex
	disk      *DiskManager
	frames    []Page
	freeList  []FrameID
	pageTable map[PageID]FrameID
	lru       *lruTracker
	logger    log.Logger
}

// NewBufferPool creates a pool of numFrames frames backed by disk.
func NewBufferPool(disk *DiskManager, numFrames int) *BufferPool {
	bp := &BufferPool{
		disk:      disk,
		frames:    make([]Page, numFrames),
		freeList:  make([]FrameID, numFrames),
		pageTable: make(map[PageID]FrameID, numFrames),
		lru:       newLRUTracker(numFrames),
		logger:    log.Default().With(log.String("component", "buffer_pool")),
	}
	for i := 0; i < numFrames; i++ {
		bp.frames[i].id = InvalidPageID
		bp.freeList[i] = FrameID(i)
	}
	return bp
}

// FetchPage pins and returns the page for id, reading it from disk if
// it is not already resident. It returns nil if the page does not
// exist on disk, or if the pool is full of pinned pages and cannot
// make room.
func (bp *BufferPool) FetchPage(id PageID) *Page {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if frameID, ok := bp.pageTable[id]; ok {
		frame := &bp.frames[frameID]
		frame.pinCount++
		bp.lru.pin(frameID)
		return frame
	}

	frameID, ok := bp.findFreeFrame()
	if !ok {
		return nil
	}
	frame := &bp.frames[frameID]

	var buf [PageSize]byte
	if !bp.disk.ReadPage(id, buf[:]) {
		frame.reset(InvalidPageID)
		bp.freeList = append(bp.freeList, frameID)
		return nil
	}

	frame.reset(id)
	frame.data = buf
	frame.pinCount = 1
	bp.pageTable[id] = frameID
	bp.lru.pin(frameID)
	return frame
}

// NewPage pins and returns a freshly zeroed frame for id, which the
// caller must have already obtained from the free-space manager.
func (bp *BufferPool) NewPage(id PageID) *Page {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	frameID, ok := bp.findFreeFrame()
	if !ok {
		return nil
	}
	frame := &bp.frames[frameID]
	frame.reset(id)
	frame.pinCount = 1
	bp.pageTable[id] = frameID
	bp.lru.pin(frameID)
	return frame
}

// UnpinPage decrements id's pin count. markDirty is sticky upward: it
// can only set the dirty flag, never clear it. It returns false if
// the page is not resident or already has a zero pin count, which is
// a caller-contract violation, logged but not treated as fatal.
func (bp *BufferPool) UnpinPage(id PageID, markDirty bool) bool {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	frameID, ok := bp.pageTable[id]
	if !ok {
		bp.logger.Warn("unpin of non-resident page", log.Any("page_id", id))
		return false
	}
	frame := &bp.frames[frameID]
	if frame.pinCount == 0 {
		bp.logger.Warn("unpin of page with zero pin count", log.Any("page_id", id))
		return false
	}

	frame.pinCount--
	if markDirty {
		frame.dirty = true
	}
	if frame.pinCount == 0 {
		bp.lru.unpin(frameID)
	}
	return true
}

// FlushPage writes id's bytes to disk if resident, clearing the dirty
// flag. It does not unpin. Returns false if the page is not resident.
func (bp *BufferPool) FlushPage(id PageID) bool {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return bp.flushLocked(id)
}

func (bp *BufferPool) flushLocked(id PageID) bool {
	frameID, ok := bp.pageTable[id]
	if !ok {
		return false
	}
	frame := &bp.frames[frameID]
	bp.disk.WritePage(id, frame.data[:])
	frame.dirty = false
	return true
}

// FlushAllPages writes every resident page to disk, dirty or not, so
// that shutdown never depends on the dirty bit having been set
// correctly by every caller.
func (bp *BufferPool) FlushAllPages() {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	for id := range bp.pageTable {
		bp.flushLocked(id)
	}
}

// DeletePage removes id from the pool and returns its frame to the
// free list. It fails if the page is resident and still pinned.
func (bp *BufferPool) DeletePage(id PageID) bool {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	frameID, ok := bp.pageTable[id]
	if !ok {
		return true
	}
	frame := &bp.frames[frameID]
	if frame.pinCount > 0 {
		return false
	}

	delete(bp.pageTable, id)
	bp.lru.pin(frameID) // no-op if untracked; removes it if it was
	frame.reset(InvalidPageID)
	bp.freeList = append(bp.freeList, frameID)
	return true
}

// findFreeFrame prefers the free list (FIFO); otherwise it asks the
// LRU tracker for a victim, flushing it first if dirty. Must be
// called with bp.mu held.
func (bp *BufferPool) findFreeFrame() (FrameID, bool) {
	if len(bp.freeList) > 0 {
		frameID := bp.freeList[0]
		bp.freeList = bp.freeList[1:]
		return frameID, true
	}

	frameID, ok := bp.lru.victim()
	if !ok {
		return 0, false
	}
	victim := &bp.frames[frameID]
	if victim.dirty {
		bp.disk.WritePage(victim.id, victim.data[:])
	}
	delete(bp.pageTable, victim.id)
	return frameID, true
}
