package storage

import "encoding/binary"

// Slotted-page header layout: next_page_id, num_slots, and
// free_space_ptr each occupy 4 bytes at the start of the page. The
// slot directory immediately follows, growing upward; the record
// area grows downward from PageSize.
const (
	slottedOffNextPageID   = 0
	slottedOffNumSlots     = 4
	slottedOffFreeSpacePtr = 8
	slottedHeaderSize      = 12
	slotSize               = 8
)

// SlottedPage is a tagged view over a data page's bytes.
type SlottedPage struct {
	buf []byte
}

// NewSlottedPage wraps a pinned data page's byte buffer.
func NewSlottedPage(buf []byte) *SlottedPage {
	return &SlottedPage{buf: buf}
}

// Init writes a fresh header: no next page, no slots, and a record
// area spanning the whole page.
func (sp *SlottedPage) Init() {
	sp.setNextPageID(InvalidPageID)
	sp.setNumSlots(0)
	sp.setFreeSpacePtr(PageSize)
}

func (sp *SlottedPage) NextPageID() PageID {
	return PageID(int32(binary.LittleEndian.Uint32(sp.buf[slottedOffNextPageID:])))
}

func (sp *SlottedPage) setNextPageID(id PageID) {
	binary.LittleEndian.PutUint32(sp.buf[slottedOffNextPageID:], uint32(int32(id)))
}

// SetNextPageID links this page to the next page in the heap chain.
func (sp *SlottedPage) SetNextPageID(id PageID) {
	sp.setNextPageID(id)
}

// NumSlots returns the number of allocated slots, live or tombstoned.
// It only ever grows.
func (sp *SlottedPage) NumSlots() int {
	return int(binary.LittleEndian.Uint32(sp.buf[slottedOffNumSlots:]))
}

func (sp *SlottedPage) setNumSlots(n int) {
	binary.LittleEndian.PutUint32(sp.buf[slottedOffNumSlots:], uint32(n))
}

func (sp *SlottedPage) freeSpacePtr() int {
	return int(binary.LittleEndian.Uint32(sp.buf[slottedOffFreeSpacePtr:]))
}

func (sp *SlottedPage) setFreeSpacePtr(p int) {
	binary.LittleEndian.PutUint32(sp.buf[slottedOffFreeSpacePtr:], uint32(p))
}

func slotOffset(slotNum int) int {
	return slottedHeaderSize + slotNum*slotSize
}

func (sp *SlottedPage) slotAt(slotNum int) (offset, size int) {
	base := slotOffset(slotNum)
	offset = int(binary.LittleEndian.Uint32(sp.buf[base:]))
	size = int(binary.LittleEndian.Uint32(sp.buf[base+4:]))
	return
}

func (sp *SlottedPage) setSlotAt(slotNum, offset, size int) {
	base := slotOffset(slotNum)
	binary.LittleEndian.PutUint32(sp.buf[base:], uint32(offset))
	binary.LittleEndian.PutUint32(sp.buf[base+4:], uint32(size))
}

// freeBytes returns the insertion capacity between the slot
// directory's tail and the record area's head.
func (sp *SlottedPage) freeBytes() int {
	return sp.freeSpacePtr() - slotOffset(sp.NumSlots())
}

// Insert appends record to the page and returns its slot number, or
// false if there is insufficient free space for the record plus a new
// slot entry.
func (sp *SlottedPage) Insert(record []byte) (int, bool) {
	required := len(record) + slotSize
	if sp.freeBytes() < required {
		return 0, false
	}

	slotNum := sp.NumSlots()
	newPtr := sp.freeSpacePtr() - len(record)
	copy(sp.buf[newPtr:newPtr+len(record)], record)
	sp.setSlotAt(slotNum, newPtr, len(record))
	sp.setFreeSpacePtr(newPtr)
	sp.setNumSlots(slotNum + 1)
	return slotNum, true
}

// Get returns a copy of the payload bytes for slotNum, or false if
// slotNum is out of range or tombstoned.
func (sp *SlottedPage) Get(slotNum int) ([]byte, bool) {
	if slotNum < 0 || slotNum >= sp.NumSlots() {
		return nil, false
	}
	offset, size := sp.slotAt(slotNum)
	if size == 0 {
		return nil, false
	}
	out := make([]byte, size)
	copy(out, sp.buf[offset:offset+size])
	return out, true
}

// Delete tombstones slotNum by zeroing its recorded size. Payload
// bytes are left in place as reachable garbage; this page layout
// never compacts.
func (sp *SlottedPage) Delete(slotNum int) bool {
	if slotNum < 0 || slotNum >= sp.NumSlots() {
		return false
	}
	offset, size := sp.slotAt(slotNum)
	if size == 0 {
		return false
	}
	sp.setSlotAt(slotNum, offset, 0)
	return true
}

// Update overwrites slotNum's payload with record. If record fits
// within the existing slot's size, it is rewritten in place and the
// slot shrinks. Otherwise, if there is room to place a fresh copy at
// the record area's head, the slot is repointed there and the old
// bytes become garbage. It fails only when neither applies; the
// table heap is expected to fall back to delete-then-insert.
func (sp *SlottedPage) Update(slotNum int, record []byte) bool {
	if slotNum < 0 || slotNum >= sp.NumSlots() {
		return false
	}
	offset, size := sp.slotAt(slotNum)
	if size == 0 {
		return false
	}

	if len(record) <= size {
		copy(sp.buf[offset:offset+len(record)], record)
		sp.setSlotAt(slotNum, offset, len(record))
		return true
	}

	if sp.freeBytes() < len(record) {
		return false
	}
	newPtr := sp.freeSpacePtr() - len(record)
	copy(sp.buf[newPtr:newPtr+len(record)], record)
	sp.setSlotAt(slotNum, newPtr, len(record))
	sp.setFreeSpacePtr(newPtr)
	return true
}
