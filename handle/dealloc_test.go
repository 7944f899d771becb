package handle

import (
	"testing"

	"github.com/wippyai/storage-host/storage"
)

func wrapFresh(t *testing.T, rt *Runtime, typ *Type, size uint64) *Object {
	t.Helper()
	obj, err := NewWithStorage(rt, typ, newTestCore(t, size), storage.DefinitelyUninitialized, false)
	if err != nil {
		t.Fatalf("NewWithStorage failed: %v", err)
	}
	return obj
}

func TestDealloc_FinalizerResurrects(t *testing.T) {
	rt := newTestRuntime(t)
	obs := &recordObserver{}
	rt.Subscribe(obs)

	var rescued *Object
	finalizerRuns := 0
	typ, err := RegisterSubtype(rt, TypeSpec{
		Name: "RescuedStorage",
		Finalizer: func(o *Object) {
			finalizerRuns++
			rescued = o.Retain()
		},
	})
	if err != nil {
		t.Fatalf("RegisterSubtype failed: %v", err)
	}

	obj := wrapFresh(t, rt, typ, 8)
	wr := NewWeakRef(obj, nil)

	obj.Release()

	if finalizerRuns != 1 {
		t.Fatalf("finalizer ran %d times, want 1", finalizerRuns)
	}
	if rescued != obj {
		t.Fatal("finalizer did not capture the object")
	}
	if e := obs.last(t); e.Type != EventResurrected {
		t.Fatalf("event = %s, want resurrected", e.Type)
	}

	// Teardown aborted before clearing anything: the object is fully usable.
	if wr.Get() != obj {
		t.Fatal("weak reference must survive an aborted teardown")
	}
	if obj.Core() == nil {
		t.Fatal("core must survive an aborted teardown")
	}
	if _, err := Length(rt, obj); err != nil {
		t.Fatalf("resurrected object unusable: %v", err)
	}

	// Dropping the rescuing reference destroys it for real; the finalizer
	// must not run a second time.
	rescued.Release()
	if finalizerRuns != 1 {
		t.Fatalf("finalizer ran %d times after resurrection, want 1", finalizerRuns)
	}
	if e := obs.last(t); e.Type != EventDestroyed {
		t.Fatalf("event = %s, want destroyed", e.Type)
	}
	if wr.Get() != nil {
		t.Fatal("weak reference must be cleared by the real teardown")
	}
}

func TestDealloc_DelHookResurrects(t *testing.T) {
	rt := newTestRuntime(t)

	var rescued *Object
	delRuns := 0
	typ, err := RegisterSubtype(rt, TypeSpec{
		Name: "LegacyStorage",
		Del: func(o *Object) {
			delRuns++
			if rescued == nil {
				rescued = o.Retain()
			}
		},
	})
	if err != nil {
		t.Fatalf("RegisterSubtype failed: %v", err)
	}

	obj := wrapFresh(t, rt, typ, 4)
	obj.Release()

	if delRuns != 1 {
		t.Fatalf("del hook ran %d times, want 1", delRuns)
	}
	if rescued != obj {
		t.Fatal("del hook did not capture the object")
	}
	if obj.Core() == nil {
		t.Fatal("core must survive an aborted teardown")
	}

	// Unlike the finalizer, the legacy hook runs again on the next teardown.
	rescued.Release()
	if delRuns != 2 {
		t.Fatalf("del hook ran %d times total, want 2", delRuns)
	}
}

func TestDealloc_HookOrdering(t *testing.T) {
	rt := newTestRuntime(t)

	var order []string
	var lateRef *WeakRef
	typ, err := RegisterSubtype(rt, TypeSpec{
		Name: "OrderedStorage",
		Finalizer: func(o *Object) {
			order = append(order, "finalizer")
		},
		Del: func(o *Object) {
			order = append(order, "del")
			// Weak refs created during hook execution must be cleared
			// without invoking their callbacks.
			lateRef = NewWeakRef(o, func(*WeakRef) {
				order = append(order, "late-callback")
			})
		},
	})
	if err != nil {
		t.Fatalf("RegisterSubtype failed: %v", err)
	}

	obj := wrapFresh(t, rt, typ, 4)
	NewWeakRef(obj, func(*WeakRef) {
		order = append(order, "weak-callback")
	})

	obj.Release()

	want := []string{"finalizer", "weak-callback", "del"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
	if lateRef.Get() != nil {
		t.Fatal("weak ref created during del must still be cleared")
	}
}

func TestDealloc_ClearsSlotsAndDict(t *testing.T) {
	rt := newTestRuntime(t)

	typ, err := RegisterSubtype(rt, TypeSpec{
		Name:  "SlottedStorage",
		Slots: []string{"pin", "tag"},
	})
	if err != nil {
		t.Fatalf("RegisterSubtype failed: %v", err)
	}

	var seen any
	sub, err := RegisterSubtype(rt, TypeSpec{
		Name: "DeepStorage",
		Base: typ,
		Del: func(o *Object) {
			// Slot clearing happens after hooks: the hook still sees state.
			seen = o.Slot(typ, 0)
		},
	})
	if err != nil {
		t.Fatalf("RegisterSubtype failed: %v", err)
	}

	obj := wrapFresh(t, rt, sub, 4)
	obj.SetSlot(typ, 0, "pinned")
	obj.SetAttr("note", 42)

	obj.Release()

	if seen != "pinned" {
		t.Fatalf("del hook saw slot value %v, want pinned", seen)
	}
}

func TestDealloc_TypeRefsFollowInstances(t *testing.T) {
	rt := newTestRuntime(t)

	typ, err := RegisterSubtype(rt, TypeSpec{Name: "CountedStorage"})
	if err != nil {
		t.Fatalf("RegisterSubtype failed: %v", err)
	}
	if typ.Refs() != 1 {
		t.Fatalf("registered type refs = %d, want 1", typ.Refs())
	}

	a := wrapFresh(t, rt, typ, 2)
	b := wrapFresh(t, rt, typ, 2)
	if typ.Refs() != 3 {
		t.Fatalf("type refs with two instances = %d, want 3", typ.Refs())
	}

	a.Release()
	b.Release()
	if typ.Refs() != 1 {
		t.Fatalf("type refs after teardown = %d, want 1", typ.Refs())
	}
}

func TestDealloc_GCBookkeeping(t *testing.T) {
	rt := newTestRuntime(t)

	obj := wrapFresh(t, rt, rt.CanonicalType(), 4)
	if rt.TrackedCount() != 1 {
		t.Fatalf("tracked = %d, want 1", rt.TrackedCount())
	}

	obj.Release()
	if rt.TrackedCount() != 0 {
		t.Fatalf("tracked after teardown = %d, want 0", rt.TrackedCount())
	}
}
