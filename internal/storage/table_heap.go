package storage

import "fmt"

// RID is a record id: the pair (page_id, slot_num) that identifies a
// row's position. It is stable across unpin/re-fetch cycles and
// across updates that do not force a delete-then-insert.
type RID struct {
	PageID  PageID
	SlotNum int
}

// String renders the RID for diagnostics.
func (r RID) String() string {
	return fmt.Sprintf("(%d,%d)", r.PageID, r.SlotNum)
}

// maxRecordSize is the largest payload a freshly initialized page can
// ever hold: PageSize minus the slotted-page header and one slot
// entry.
const maxRecordSize = PageSize - slottedHeaderSize - slotSize

// TableHeap is an unordered chain of slotted pages belonging to one
// table. It never allocates or evicts pages itself; it asks the
// free-space manager for ids and the buffer pool for frames.
type TableHeap struct {
	bp          *BufferPool
	fsm         *FreeSpaceManager
	firstPageID PageID
}

// NewTableHeap wraps an existing page chain (or an empty one, if
// firstPageID is InvalidPageID).
func NewTableHeap(bp *BufferPool, fsm *FreeSpaceManager, firstPageID PageID) *TableHeap {
	return &TableHeap{bp: bp, fsm: fsm, firstPageID: firstPageID}
}

// FirstPageID returns the chain's head, or InvalidPageID if the table
// has never received a record.
func (h *TableHeap) FirstPageID() PageID {
	return h.firstPageID
}

// Insert walks the page chain looking for room, and appends a new
// page to the chain if none has any. It returns false if record is
// larger than a freshly initialized page can ever hold, or if a page
// cannot be pinned or a new page id cannot be allocated.
func (h *TableHeap) Insert(record []byte) (RID, bool) {
	if len(record) > maxRecordSize {
		return RID{}, false
	}

	var tailID PageID = InvalidPageID
	for pageID := h.firstPageID; pageID != InvalidPageID; {
		page := h.bp.FetchPage(pageID)
		if page == nil {
			return RID{}, false
		}
		sp := NewSlottedPage(page.Data())
		if slotNum, ok := sp.Insert(record); ok {
			h.bp.UnpinPage(pageID, true)
			return RID{PageID: pageID, SlotNum: slotNum}, true
		}
		tailID = pageID
		next := sp.NextPageID()
		h.bp.UnpinPage(pageID, false)
		pageID = next
	}

	newID := h.fsm.AllocatePage()
	if newID == InvalidPageID {
		return RID{}, false
	}
	newPage := h.bp.NewPage(newID)
	if newPage == nil {
		h.fsm.DeallocatePage(newID)
		return RID{}, false
	}
	sp := NewSlottedPage(newPage.Data())
	sp.Init()
	slotNum, ok := sp.Insert(record)
	if !ok {
		h.bp.UnpinPage(newID, false)
		h.fsm.DeallocatePage(newID)
		return RID{}, false
	}
	h.bp.UnpinPage(newID, true)

	if h.firstPageID == InvalidPageID {
		h.firstPageID = newID
	} else {
		tailPage := h.bp.FetchPage(tailID)
		if tailPage == nil {
			return RID{}, false
		}
		NewSlottedPage(tailPage.Data()).SetNextPageID(newID)
		h.bp.UnpinPage(tailID, true)
	}

	return RID{PageID: newID, SlotNum: slotNum}, true
}

// Get reads rid's current bytes, or returns false if rid is out of
// range or tombstoned.
func (h *TableHeap) Get(rid RID) ([]byte, bool) {
	page := h.bp.FetchPage(rid.PageID)
	if page == nil {
		return nil, false
	}
	defer h.bp.UnpinPage(rid.PageID, false)
	return NewSlottedPage(page.Data()).Get(rid.SlotNum)
}

// Delete tombstones rid. The slot number is never reused.
func (h *TableHeap) Delete(rid RID) bool {
	page := h.bp.FetchPage(rid.PageID)
	if page == nil {
		return false
	}
	ok := NewSlottedPage(page.Data()).Delete(rid.SlotNum)
	h.bp.UnpinPage(rid.PageID, ok)
	return ok
}

// Update attempts an in-place rewrite of rid first. If the new record
// doesn't fit in the slot's current footprint and the page has no
// room to relocate it, Update falls back to delete-then-insert,
// producing a new RID on (possibly) a different page; the old RID
// becomes a tombstone.
func (h *TableHeap) Update(rid RID, record []byte) (RID, bool) {
	page := h.bp.FetchPage(rid.PageID)
	if page == nil {
		return RID{}, false
	}
	if NewSlottedPage(page.Data()).Update(rid.SlotNum, record) {
		h.bp.UnpinPage(rid.PageID, true)
		return rid, true
	}
	h.bp.UnpinPage(rid.PageID, false)

	if !h.Delete(rid) {
		return RID{}, false
	}
	return h.Insert(record)
}

// Iterator walks the heap forward, one live record at a time.
type Iterator struct {
	heap    *TableHeap
	pageID  PageID
	slotNum int
	started bool
}

// Iterator returns a fresh forward iterator positioned before the
// first record.
func (h *TableHeap) Iterator() *Iterator {
	return &Iterator{heap: h, pageID: h.firstPageID, slotNum: 0}
}

// End reports whether the iterator has exhausted the chain.
func (it *Iterator) End() bool {
	return it.pageID == InvalidPageID
}

// Next advances past the current record, skipping tombstones and
// following page links, and returns false once the chain is
// exhausted. Each advance step re-pins its page only for the
// duration of the step.
func (it *Iterator) Next() bool {
	if it.started {
		it.slotNum++
	} else {
		it.started = true
	}
	for it.pageID != InvalidPageID {
		page := it.heap.bp.FetchPage(it.pageID)
		if page == nil {
			it.pageID = InvalidPageID
			return false
		}
		sp := NewSlottedPage(page.Data())
		numSlots := sp.NumSlots()

		for it.slotNum < numSlots {
			if _, live := sp.Get(it.slotNum); live {
				it.heap.bp.UnpinPage(it.pageID, false)
				return true
			}
			it.slotNum++
		}

		next := sp.NextPageID()
		it.heap.bp.UnpinPage(it.pageID, false)
		it.pageID = next
		it.slotNum = 0
	}
	return false
}

// RID returns the iterator's current position.
func (it *Iterator) RID() RID {
	return RID{PageID: it.pageID, SlotNum: it.slotNum}
}

// Record materializes the bytes at the iterator's current position by
// re-pinning its page.
func (it *Iterator) Record() ([]byte, bool) {
	return it.heap.Get(it.RID())
}
