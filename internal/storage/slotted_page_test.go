package storage

import "testing"

func TestSlottedPageInsertGetRoundTrip(t *testing.T) {
	var buf [PageSize]byte
	sp := NewSlottedPage(buf[:])
	sp.Init()

	slot, ok := sp.Insert([]byte("hello"))
	if !ok || slot != 0 {
		t.Fatalf("expected first insert at slot 0, got slot=%d ok=%v", slot, ok)
	}

	got, ok := sp.Get(0)
	if !ok || string(got) != "hello" {
		t.Fatalf("expected to read back %q, got %q (ok=%v)", "hello", got, ok)
	}
}

func TestSlottedPageDeleteTombstones(t *testing.T) {
	var buf [PageSize]byte
	sp := NewSlottedPage(buf[:])
	sp.Init()
	sp.Insert([]byte("a"))

	if !sp.Delete(0) {
		t.Fatal("expected delete to succeed on a live slot")
	}
	if _, ok := sp.Get(0); ok {
		t.Fatal("expected Get to report absent after delete")
	}
	if sp.Delete(0) {
		t.Fatal("expected a second delete on the same slot to fail")
	}
	if sp.NumSlots() != 1 {
		t.Fatalf("expected tombstoning to preserve slot count, got %d", sp.NumSlots())
	}
}

func TestSlottedPageUpdateInPlaceWhenSmaller(t *testing.T) {
	var buf [PageSize]byte
	sp := NewSlottedPage(buf[:])
	sp.Init()
	sp.Insert([]byte("hello world"))

	if !sp.Update(0, []byte("hi")) {
		t.Fatal("expected shrinking update to succeed in place")
	}
	got, _ := sp.Get(0)
	if string(got) != "hi" {
		t.Fatalf("expected %q, got %q", "hi", got)
	}
}

func TestSlottedPageUpdateRelocatesWhenLarger(t *testing.T) {
	var buf [PageSize]byte
	sp := NewSlottedPage(buf[:])
	sp.Init()
	sp.Insert([]byte("a"))
	sp.Insert([]byte("b"))

	if !sp.Update(0, []byte("much longer than a single byte")) {
		t.Fatal("expected growing update with available space to succeed")
	}
	got, _ := sp.Get(0)
	if string(got) != "much longer than a single byte" {
		t.Fatalf("unexpected payload after relocation: %q", got)
	}
	// slot 1 must be untouched
	got1, _ := sp.Get(1)
	if string(got1) != "b" {
		t.Fatalf("expected slot 1 unaffected by slot 0's relocation, got %q", got1)
	}
}

func TestSlottedPageInsertFailsWhenFull(t *testing.T) {
	var buf [PageSize]byte
	sp := NewSlottedPage(buf[:])
	sp.Init()

	big := make([]byte, PageSize)
	if _, ok := sp.Insert(big); ok {
		t.Fatal("expected an oversized insert to fail")
	}
}

func TestSlottedPageAppendOnlySlotDirectory(t *testing.T) {
	var buf [PageSize]byte
	sp := NewSlottedPage(buf[:])
	sp.Init()

	sp.Insert([]byte("x"))
	sp.Delete(0)
	slot, ok := sp.Insert([]byte("y"))
	if !ok || slot != 1 {
		t.Fatalf("expected the next insert to use a fresh slot number 1, got slot=%d", slot)
	}
}
