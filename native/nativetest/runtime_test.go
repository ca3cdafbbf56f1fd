package nativetest

import "testing"

func TestRefCountLifecycle(t *testing.T) {
	r := New()
	base := r.LiveObjects()
	s := r.UnicodeFromString("hello")
	if got := r.RefCount(s); got != 1 {
		t.Fatalf("fresh object refcount = %d, want 1", got)
	}
	r.IncRef(s)
	if got := r.RefCount(s); got != 2 {
		t.Fatalf("after incref refcount = %d, want 2", got)
	}
	r.DecRef(s)
	r.DecRef(s)
	if got := r.LiveObjects(); got != base {
		t.Fatalf("live objects after release = %d, want %d", got, base)
	}
}

func TestContainerHoldsReferences(t *testing.T) {
	r := New()
	base := r.LiveObjects()
	list := r.ListNew(0)
	v := r.LongFromInt64(42)
	if status := r.ListAppend(list, v); status != 0 {
		t.Fatalf("ListAppend status = %d", status)
	}
	if got := r.RefCount(v); got != 2 {
		t.Fatalf("appended value refcount = %d, want 2", got)
	}
	r.DecRef(v)
	r.DecRef(list)
	if got := r.LiveObjects(); got != base {
		t.Fatalf("live objects after releasing list = %d, want %d", got, base)
	}
}

func TestTupleSetItemStealsOnFailure(t *testing.T) {
	r := New()
	base := r.LiveObjects()
	tup := r.TupleNew(1)
	v := r.LongFromInt64(7)
	if status := r.TupleSetItem(tup, 5, v); status != -1 {
		t.Fatalf("out-of-range insertion status = %d, want -1", status)
	}
	if r.ErrOccurred() == 0 {
		t.Fatal("failed insertion left no pending exception")
	}
	r.ErrClear()
	r.DecRef(tup)
	if got := r.LiveObjects(); got != base {
		t.Fatalf("stolen value leaked, live objects = %d, want %d", got, base)
	}
}

func TestPendingSlotFetchClears(t *testing.T) {
	r := New()
	r.Raise("KeyError", "missing")
	typ, val, tb := r.ErrFetch()
	if typ == 0 {
		t.Fatal("fetch returned null type")
	}
	if r.ErrOccurred() != 0 {
		t.Fatal("pending slot not cleared by fetch")
	}
	r.ErrRestore(typ, val, tb)
	if r.ErrOccurred() == 0 {
		t.Fatal("restore did not re-arm the pending slot")
	}
	r.ErrClear()
}

func TestGetAttrMissingRaisesAttributeError(t *testing.T) {
	r := New()
	obj := r.NewObject()
	name := r.UnicodeFromString("spam")
	if got := r.ObjectGetAttr(obj, name); got != 0 {
		t.Fatalf("missing attribute returned handle %d", got)
	}
	typ, val, tb := r.ErrFetch()
	s := r.strOf(typ)
	if s != "AttributeError" {
		t.Fatalf("exception type renders as %q, want AttributeError", s)
	}
	r.ErrRestore(typ, val, tb)
	r.ErrClear()
	r.DecRef(name)
	r.DecRef(obj)
}

func TestThreadStateTable(t *testing.T) {
	r := New()
	interp := r.InterpreterNew()
	ts := r.ThreadStateNew(interp)
	prev := r.ThreadStateSwap(ts)
	if prev != 0 {
		t.Fatalf("initial swap returned prior state %d, want 0", prev)
	}
	if r.ThreadStateGet() != ts {
		t.Fatal("current thread state not updated by swap")
	}
	r.ThreadStateDeleteCurrent()
	if r.ThreadStateGet() != 0 {
		t.Fatal("delete-current left a current thread state")
	}
	r.InterpreterClear(interp)
	r.InterpreterDelete(interp)
}
