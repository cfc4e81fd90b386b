package kernel

import (
	"reflect"
	"testing"
)

func members(t *queueTable, q qid) []TID {
	var out []TID
	t.each(q, func(tid TID) { out = append(out, tid) })
	return out
}

func TestQueueFIFO(t *testing.T) {
	qt := newQueueTable(8, 2)
	for _, tid := range []TID{3, 1, 7} {
		if !qt.push(0, tid) {
			t.Fatalf("push(%d) = false", tid)
		}
	}
	if qt.push(1, 1) {
		t.Fatal("push of a queued tid onto another queue succeeded")
	}
	if got := qt.len(0); got != 3 {
		t.Fatalf("len = %d, want 3", got)
	}
	for _, want := range []TID{3, 1, 7} {
		got, ok := qt.pop(0)
		if !ok || got != want {
			t.Fatalf("pop() = %d, %v, want %d", got, ok, want)
		}
	}
	if _, ok := qt.pop(0); ok {
		t.Fatal("pop() on empty queue succeeded")
	}
	if qt.owner(3) != noQueue {
		t.Fatalf("owner after pop = %d, want none", qt.owner(3))
	}
}

func TestQueueRemove(t *testing.T) {
	qt := newQueueTable(6, 1)
	for tid := TID(0); tid < 5; tid++ {
		qt.push(0, tid)
	}

	if q := qt.remove(2); q != 0 {
		t.Fatalf("remove(2) = %d, want 0", q)
	}
	qt.remove(0)
	qt.remove(4)
	if q := qt.remove(5); q != noQueue {
		t.Fatalf("remove of unqueued tid = %d, want none", q)
	}

	if got, want := members(&qt, 0), []TID{1, 3}; !reflect.DeepEqual(got, want) {
		t.Fatalf("members = %v, want %v", got, want)
	}
	qt.push(0, 4)
	if got, want := members(&qt, 0), []TID{1, 3, 4}; !reflect.DeepEqual(got, want) {
		t.Fatalf("members after push = %v, want %v", got, want)
	}
}

func TestQueueSplice(t *testing.T) {
	qt := newQueueTable(6, 2)
	qt.push(0, 5)
	qt.push(1, 2)
	qt.push(1, 0)

	qt.splice(0, 1)
	if got, want := members(&qt, 0), []TID{5, 2, 0}; !reflect.DeepEqual(got, want) {
		t.Fatalf("members = %v, want %v", got, want)
	}
	if qt.len(1) != 0 || qt.len(0) != 3 {
		t.Fatalf("len = %d/%d, want 3/0", qt.len(0), qt.len(1))
	}
	if qt.owner(0) != 0 {
		t.Fatalf("owner(0) = %d, want 0", qt.owner(0))
	}

	qt.splice(1, 0)
	if got, want := members(&qt, 1), []TID{5, 2, 0}; !reflect.DeepEqual(got, want) {
		t.Fatalf("members after splice into empty = %v, want %v", got, want)
	}
}

func TestReadyQueuePriority(t *testing.T) {
	qt := newQueueTable(8, MaxPriorityLimit)
	r := readyQueue{q: &qt}

	r.push(0, 2)
	r.push(1, 40)
	r.push(2, 2)
	r.push(3, 63)
	r.push(4, 40)
	if r.push(4, 1) {
		t.Fatal("push of a ready tid succeeded twice")
	}
	if !r.remove(3) || r.remove(3) {
		t.Fatal("remove(3) should succeed exactly once")
	}

	var got []TID
	for !r.empty() {
		tid, _ := r.pop()
		got = append(got, tid)
	}
	if want := []TID{1, 4, 0, 2}; !reflect.DeepEqual(got, want) {
		t.Fatalf("dispatch order = %v, want %v", got, want)
	}
}

func TestStackArena(t *testing.T) {
	a := newStackArena(70, 256)
	for i := 0; i < 70; i++ {
		blk, ok := a.alloc()
		if !ok || blk != i {
			t.Fatalf("alloc() = %d, %v, want %d", blk, ok, i)
		}
	}
	if _, ok := a.alloc(); ok {
		t.Fatal("alloc() on full arena succeeded")
	}

	a.free(65)
	a.free(3)
	if a.inUse(3) {
		t.Fatal("inUse(3) after free")
	}
	if blk, _ := a.alloc(); blk != 3 {
		t.Fatalf("alloc() = %d, want lowest free block 3", blk)
	}
	if got := a.allocated(); got != 69 {
		t.Fatalf("allocated() = %d, want 69", got)
	}
	if top := a.top(0); top%16 != 0 {
		t.Fatalf("top(0) = %#x, want 16-byte aligned", top)
	}
}
