package containers

import "testing"

func TestArenaInsertGet(t *testing.T) {
	a := NewArena[string]()
	k := a.Insert("hello")
	got, ok := a.Get(k)
	if !ok || got != "hello" {
		t.Fatalf("Get = (%q, %v), want (hello, true)", got, ok)
	}
}

func TestArenaRemoveInvalidatesStaleKey(t *testing.T) {
	a := NewArena[int]()
	k := a.Insert(1)
	if err := a.Remove(k); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok := a.Get(k); ok {
		t.Fatalf("expected stale key lookup to fail")
	}
}

func TestArenaRecyclesSlotsWithNewGeneration(t *testing.T) {
	a := NewArena[int]()
	first := a.Insert(1)
	_ = a.Remove(first)
	second := a.Insert(2)

	if second.Index != first.Index {
		t.Fatalf("expected slot reuse, got different indices %d vs %d", first.Index, second.Index)
	}
	if second.Generation == first.Generation {
		t.Fatalf("expected generation to advance on reuse")
	}
	if _, ok := a.Get(first); ok {
		t.Fatalf("old handle should not resolve to the new occupant")
	}
	if v, ok := a.Get(second); !ok || v != 2 {
		t.Fatalf("Get(second) = (%d, %v), want (2, true)", v, ok)
	}
}

func TestArenaLenTracksOccupancy(t *testing.T) {
	a := NewArena[int]()
	k1 := a.Insert(1)
	a.Insert(2)
	if a.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", a.Len())
	}
	_ = a.Remove(k1)
	if a.Len() != 1 {
		t.Fatalf("Len() after remove = %d, want 1", a.Len())
	}
}
