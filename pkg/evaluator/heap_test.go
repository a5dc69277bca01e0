package evaluator

import (
	"testing"
)

// newTestHeap returns a heap with no roots installed. Tests that need roots
// swap in their own callback.
func newTestHeap() *Heap {
	h := NewHeap()
	h.SetRootFunc(func(mark func(Value)) {})
	return h
}

func liveCount(h *Heap) int {
	return h.Stats().LiveObjects
}

func TestCollectWithEmptyRootsFreesEverything(t *testing.T) {
	h := newTestHeap()
	h.AllocString("hello")
	h.AllocObject(0)
	h.AllocArray(3)
	h.AllocEnv(nil, true)
	if liveCount(h) != 4 {
		t.Fatalf("expected 4 live objects, got %d", liveCount(h))
	}

	h.Collect()
	if liveCount(h) != 0 {
		t.Errorf("expected 0 live objects after collect, got %d", liveCount(h))
	}
	if h.BytesAllocated() != 0 {
		t.Errorf("expected 0 bytes allocated, got %d", h.BytesAllocated())
	}
}

func TestCollectKeepsRootedValues(t *testing.T) {
	h := NewHeap()
	var roots []Value
	h.SetRootFunc(func(mark func(Value)) {
		for _, v := range roots {
			mark(v)
		}
	})

	kept := h.NewString("kept")
	h.AllocString("dropped")
	roots = append(roots, kept)

	h.Collect()
	if liveCount(h) != 1 {
		t.Errorf("expected 1 live object, got %d", liveCount(h))
	}
	if kept.(String).S.Value != "kept" {
		t.Error("rooted string payload changed")
	}
}

func TestCollectTracesObjectGraph(t *testing.T) {
	h := NewHeap()
	var root Value
	h.SetRootFunc(func(mark func(Value)) {
		if root != nil {
			mark(root)
		}
	})

	obj := h.AllocObject(2)
	inner := h.NewString("inner")
	arr := h.AllocArray(1)
	arr.Elems[0] = inner
	obj.Set("list", Array{A: arr})
	h.AllocString("garbage")
	root = Object{O: obj}

	h.Collect()
	// obj, arr, and inner survive; "garbage" does not.
	if liveCount(h) != 3 {
		t.Errorf("expected 3 live objects, got %d", liveCount(h))
	}
}

func TestCollectHandlesCycles(t *testing.T) {
	h := NewHeap()
	var root Value
	h.SetRootFunc(func(mark func(Value)) {
		if root != nil {
			mark(root)
		}
	})

	a := h.AllocObject(1)
	b := h.AllocObject(1)
	a.Set("other", Object{O: b})
	b.Set("other", Object{O: a})
	root = Object{O: a}

	h.Collect()
	if liveCount(h) != 2 {
		t.Fatalf("expected cycle to survive while rooted, got %d live", liveCount(h))
	}

	// Drop the root: the cycle is garbage despite the mutual references.
	root = nil
	h.Collect()
	if liveCount(h) != 0 {
		t.Errorf("expected unrooted cycle to be reclaimed, got %d live", liveCount(h))
	}
}

func TestCollectTwiceIsIdempotent(t *testing.T) {
	h := NewHeap()
	var root Value
	h.SetRootFunc(func(mark func(Value)) {
		if root != nil {
			mark(root)
		}
	})

	obj := h.AllocObject(1)
	obj.Set("s", h.NewString("x"))
	root = Object{O: obj}
	h.AllocString("trash")

	h.Collect()
	bytesAfterFirst := h.BytesAllocated()
	liveAfterFirst := liveCount(h)

	h.Collect()
	if h.BytesAllocated() != bytesAfterFirst {
		t.Errorf("second collect changed bytes: %d -> %d", bytesAfterFirst, h.BytesAllocated())
	}
	if liveCount(h) != liveAfterFirst {
		t.Errorf("second collect changed live count: %d -> %d", liveAfterFirst, liveCount(h))
	}
}

func TestEnvChainSurvivesCollection(t *testing.T) {
	h := NewHeap()
	var current *Env
	h.SetRootFunc(func(mark func(Value)) {
		markObject(current)
	})

	root := h.AllocEnv(nil, true)
	child := h.AllocEnv(root, false)
	grandchild := h.AllocEnv(child, false)
	root.Define("x", h.NewString("root value"))
	current = grandchild

	h.Collect()
	if liveCount(h) != 4 {
		t.Errorf("expected full parent chain + string to survive, got %d live", liveCount(h))
	}
	if v, ok := grandchild.Get("x"); !ok || v.(String).S.Value != "root value" {
		t.Error("lookup through chain broken after collection")
	}
}

func TestClosureKeepsEnvironmentAlive(t *testing.T) {
	h := NewHeap()
	var root Value
	h.SetRootFunc(func(mark func(Value)) {
		if root != nil {
			mark(root)
		}
	})

	captured := h.AllocEnv(nil, true)
	captured.Define("c", Number{Value: 1})
	fn := Function{Fn: &FuncValue{Name: "f", Closure: captured}}
	holder := h.AllocObject(1)
	holder.Set("fn", fn)
	root = Object{O: holder}

	h.Collect()
	if liveCount(h) != 2 {
		t.Errorf("expected closure env to survive via function value, got %d live", liveCount(h))
	}
}

func TestThresholdTriggersCollection(t *testing.T) {
	h := newTestHeap()
	h.SetThreshold(256)
	for i := 0; i < 100; i++ {
		h.AllocString("some unreferenced garbage string")
	}
	if h.Stats().Collections == 0 {
		t.Error("expected at least one automatic collection")
	}
	// Nothing is rooted, so sweeping must have reclaimed some of the 100.
	if liveCount(h) >= 100 {
		t.Errorf("heap grew to %d objects despite automatic collection", liveCount(h))
	}
}

func TestAllocationThatTripsThresholdSurvives(t *testing.T) {
	h := newTestHeap()
	h.SetThreshold(64)
	// The allocation that crosses the threshold triggers a cycle with empty
	// roots; it must still come back usable.
	s := h.AllocString("this string alone exceeds the tiny threshold for sure")
	if s.Value == "" {
		t.Fatal("payload lost")
	}
	found := false
	for n := h.head; n != nil; n = n.next {
		if n.payload == heapObject(s) {
			found = true
		}
	}
	if !found {
		t.Error("freshly allocated object was swept by its own trigger")
	}
}

func TestThresholdDoublesAfterCollection(t *testing.T) {
	h := newTestHeap()
	var roots []Value
	h.SetRootFunc(func(mark func(Value)) {
		for _, v := range roots {
			mark(v)
		}
	})
	for i := 0; i < 64; i++ {
		roots = append(roots, h.NewString("retained string payload number xx"))
	}
	h.Collect()
	want := 2 * h.BytesAllocated()
	if want < minGCThreshold {
		want = minGCThreshold
	}
	if h.threshold != want {
		t.Errorf("threshold is %d, want %d", h.threshold, want)
	}
}

func TestObjectInsertionOrder(t *testing.T) {
	h := newTestHeap()
	obj := h.AllocObject(0)
	obj.Set("z", Number{Value: 1})
	obj.Set("a", Number{Value: 2})
	obj.Set("m", Number{Value: 3})
	obj.Set("a", Number{Value: 4}) // overwrite keeps position

	keys := obj.Keys()
	want := []string{"z", "a", "m"}
	if len(keys) != len(want) {
		t.Fatalf("got %d keys", len(keys))
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("key %d is %q, want %q", i, keys[i], want[i])
		}
	}
	if v, _ := obj.Get("a"); v.(Number).Value != 4 {
		t.Error("overwrite did not update value")
	}
}

func TestObjectDelete(t *testing.T) {
	h := newTestHeap()
	obj := h.AllocObject(0)
	obj.Set("a", Number{Value: 1})
	obj.Set("b", Number{Value: 2})
	obj.Set("c", Number{Value: 3})

	if !obj.Delete("b") {
		t.Fatal("delete reported missing key")
	}
	if obj.Delete("b") {
		t.Fatal("second delete should report false")
	}
	keys := obj.Keys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "c" {
		t.Errorf("keys after delete are %v", keys)
	}
	if v, ok := obj.Get("c"); !ok || v.(Number).Value != 3 {
		t.Error("index remap broken after delete")
	}
}
