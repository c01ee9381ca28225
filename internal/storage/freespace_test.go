package storage

import (
	"path/filepath"
	"testing"

	"tinydb/internal/testutil"
)

func newTestFSM(t *testing.T) *FreeSpaceManager {
	t.Helper()
	dir, cleanup := testutil.TempDir(t)
	t.Cleanup(cleanup)
	dm, err := NewDiskManager(filepath.Join(dir, "test.db"))
	testutil.AssertNoError(t, err)
	t.Cleanup(func() { dm.Close() })

	bp := NewBufferPool(dm, 8)
	fsm := NewFreeSpaceManager(bp)
	testutil.AssertTrue(t, fsm.Initialize(), "expected Initialize to succeed on a fresh file")
	return fsm
}

func TestFreeSpaceManagerInitializeIsIdempotent(t *testing.T) {
	fsm := newTestFSM(t)
	testutil.AssertTrue(t, fsm.Initialize(), "expected a second Initialize call to be a no-op success")
}

func TestFreeSpaceManagerAllocateGrowsPastDataPages(t *testing.T) {
	fsm := newTestFSM(t)

	first := fsm.AllocatePage()
	testutil.AssertEqual(t, PageID(2), first)

	second := fsm.AllocatePage()
	testutil.AssertEqual(t, PageID(3), second)
}

func TestFreeSpaceManagerDeallocateThenAllocateReuses(t *testing.T) {
	fsm := newTestFSM(t)

	first := fsm.AllocatePage()
	fsm.AllocatePage()
	testutil.AssertTrue(t, fsm.DeallocatePage(first), "expected deallocate to succeed")

	reused := fsm.AllocatePage()
	testutil.AssertEqual(t, first, reused)
}

func TestFreeSpaceManagerReusesLowestFreedIDBeforeGrowing(t *testing.T) {
	fsm := newTestFSM(t)

	p1 := fsm.AllocatePage()
	p2 := fsm.AllocatePage()
	p3 := fsm.AllocatePage()
	testutil.AssertEqual(t, PageID(2), p1)
	testutil.AssertEqual(t, PageID(3), p2)
	testutil.AssertEqual(t, PageID(4), p3)

	testutil.AssertTrue(t, fsm.DeallocatePage(p2), "expected deallocate of a data page to succeed")
	testutil.AssertEqual(t, PageID(3), fsm.AllocatePage())
	testutil.AssertEqual(t, PageID(5), fsm.AllocatePage())
}

func TestFreeSpaceManagerRefusesToDeallocateReservedPages(t *testing.T) {
	fsm := newTestFSM(t)
	testutil.AssertFalse(t, fsm.DeallocatePage(SuperblockPageID), "expected superblock page to be protected")
	testutil.AssertFalse(t, fsm.DeallocatePage(FreeSpaceMapPageID), "expected free-space map page to be protected")
}

func TestFreeSpaceManagerIsPageAllocatedTracksState(t *testing.T) {
	fsm := newTestFSM(t)
	id := fsm.AllocatePage()
	testutil.AssertTrue(t, fsm.IsPageAllocated(id), "expected freshly allocated page to be marked allocated")
	fsm.DeallocatePage(id)
	testutil.AssertFalse(t, fsm.IsPageAllocated(id), "expected deallocated page to be marked free")
}

func TestSuperblockSurvivesReopen(t *testing.T) {
	dir, cleanup := testutil.TempDir(t)
	defer cleanup()
	path := filepath.Join(dir, "test.db")

	dm, err := NewDiskManager(path)
	testutil.AssertNoError(t, err)
	bp := NewBufferPool(dm, 8)
	fsm := NewFreeSpaceManager(bp)
	testutil.AssertTrue(t, fsm.Initialize(), "expected Initialize to succeed")
	allocated := fsm.AllocatePage()
	bp.FlushAllPages()
	dm.Close()

	dm2, err := NewDiskManager(path)
	testutil.AssertNoError(t, err)
	defer dm2.Close()
	bp2 := NewBufferPool(dm2, 8)

	page := bp2.FetchPage(SuperblockPageID)
	testutil.AssertTrue(t, page != nil, "expected superblock page to still exist")
	sb := NewSuperblock(page.Data())
	testutil.AssertTrue(t, sb.IsValid(), "expected magic to survive reopen")
	testutil.AssertEqual(t, uint32(allocated)+1, sb.PageCount())
	bp2.UnpinPage(SuperblockPageID, false)
}
