package containers

import "fmt"

// Key is a generational handle into an Arena: Index identifies the slot,
// Generation distinguishes a slot's current occupant from whatever
// previously lived there. Looking a stale Key up after its slot has been
// reused fails rather than silently returning the wrong value.
type Key struct {
	Index      uint32
	Generation uint32
}

type arenaSlot[T any] struct {
	value      T
	generation uint32
	occupied   bool
}

// Arena is a generational slot arena: a freelist-backed store where removed
// slots are recycled but stale handles to them are detected and rejected.
// This backs VisibilityObject and ViewFrustum storage, where external code
// holds long-lived handles into a world that is mutated from a single
// drain point (see the visibility package's command queue).
type Arena[T any] struct {
	slots []arenaSlot[T]
	free  []uint32
}

func NewArena[T any]() *Arena[T] {
	return &Arena[T]{}
}

// Insert stores value in a free slot (or a newly appended one) and returns
// its handle.
func (a *Arena[T]) Insert(value T) Key {
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		slot := &a.slots[idx]
		slot.value = value
		slot.occupied = true
		return Key{Index: idx, Generation: slot.generation}
	}

	idx := uint32(len(a.slots))
	a.slots = append(a.slots, arenaSlot[T]{value: value, generation: 0, occupied: true})
	return Key{Index: idx, Generation: 0}
}

// Get returns the value for key, or false if key is out of range, stale,
// or already removed.
func (a *Arena[T]) Get(key Key) (T, bool) {
	var zero T
	if int(key.Index) >= len(a.slots) {
		return zero, false
	}
	slot := &a.slots[key.Index]
	if !slot.occupied || slot.generation != key.Generation {
		return zero, false
	}
	return slot.value, true
}

// Set overwrites the value stored at key and reports whether it did; a
// stale or out-of-range key leaves the arena unchanged and returns false.
func (a *Arena[T]) Set(key Key, value T) bool {
	if int(key.Index) >= len(a.slots) {
		return false
	}
	slot := &a.slots[key.Index]
	if !slot.occupied || slot.generation != key.Generation {
		return false
	}
	slot.value = value
	return true
}

// Remove frees key's slot, bumping its generation so existing copies of key
// become stale.
func (a *Arena[T]) Remove(key Key) error {
	if int(key.Index) >= len(a.slots) {
		return fmt.Errorf("containers: arena key index %d out of range", key.Index)
	}
	slot := &a.slots[key.Index]
	if !slot.occupied || slot.generation != key.Generation {
		return fmt.Errorf("containers: arena key %+v is stale", key)
	}
	var zero T
	slot.value = zero
	slot.occupied = false
	slot.generation++
	a.free = append(a.free, key.Index)
	return nil
}

// Len returns the number of currently occupied slots.
func (a *Arena[T]) Len() int {
	return len(a.slots) - len(a.free)
}

// Range calls fn for every occupied slot in index order. fn returning false
// stops iteration early.
func (a *Arena[T]) Range(fn func(key Key, value T) bool) {
	for idx := range a.slots {
		slot := &a.slots[idx]
		if !slot.occupied {
			continue
		}
		if !fn(Key{Index: uint32(idx), Generation: slot.generation}, slot.value) {
			return
		}
	}
}
