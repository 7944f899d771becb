package handle

import (
	"testing"

	"github.com/wippyai/storage-host/device"
	"github.com/wippyai/storage-host/storage"
)

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	rt := NewRuntime(Config{})
	if err := Init(rt); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if _, err := RegisterDefaultStorage(rt); err != nil {
		t.Fatalf("RegisterDefaultStorage failed: %v", err)
	}
	if err := PostInit(rt); err != nil {
		t.Fatalf("PostInit failed: %v", err)
	}
	return rt
}

func newTestCore(t *testing.T, size uint64) *storage.Core {
	t.Helper()
	c, err := storage.New(size, device.CPU0, device.DefaultCPUAllocator(), true)
	if err != nil {
		t.Fatalf("storage.New failed: %v", err)
	}
	return c
}

type recordObserver struct {
	events []Event
}

func (o *recordObserver) OnHandleEvent(e Event) {
	o.events = append(o.events, e)
}

func (o *recordObserver) last(t *testing.T) Event {
	t.Helper()
	if len(o.events) == 0 {
		t.Fatal("no events recorded")
	}
	return o.events[len(o.events)-1]
}

func TestWrap_IdentityUniqueness(t *testing.T) {
	rt := newTestRuntime(t)
	core := newTestCore(t, 8)

	// Keep a native reference across the wraps so the core survives the
	// handle churn below.
	core.Retain()
	defer core.Release()

	first, err := Wrap(rt, core)
	if err != nil {
		t.Fatalf("Wrap failed: %v", err)
	}
	if first.Type() != rt.CanonicalType() {
		t.Fatalf("wrap target = %s, want %s", first.Type().Name(), CanonicalTypeName)
	}

	for i := 0; i < 5; i++ {
		core.Retain()
		again, err := Wrap(rt, core)
		if err != nil {
			t.Fatalf("Wrap %d failed: %v", i, err)
		}
		if again != first {
			t.Fatalf("Wrap %d returned a different handle", i)
		}
	}

	// One handle-owned reference plus the test's native one, regardless of
	// how many times the core was wrapped.
	if core.UseCount() != 2 {
		t.Fatalf("core use count = %d, want 2", core.UseCount())
	}
	if first.Refs() != 6 {
		t.Fatalf("handle refs = %d, want 6", first.Refs())
	}

	for i := 0; i < 6; i++ {
		first.Release()
	}
}

func TestWrap_RequiresPostInit(t *testing.T) {
	rt := NewRuntime(Config{})
	if err := Init(rt); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	core := newTestCore(t, 4)

	if _, err := Wrap(rt, core); err == nil {
		t.Fatal("expected Wrap before PostInit to fail")
	}
}

func TestWrap_Hermetic(t *testing.T) {
	rt := NewRuntime(Config{Hermetic: true})
	if err := Init(rt); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if _, err := RegisterDefaultStorage(rt); err != nil {
		t.Fatalf("RegisterDefaultStorage failed: %v", err)
	}
	if err := PostInit(rt); err != nil {
		t.Fatalf("PostInit failed: %v", err)
	}

	core := newTestCore(t, 8)
	core.Retain()
	defer core.Release()

	first, err := Wrap(rt, core)
	if err != nil {
		t.Fatalf("Wrap failed: %v", err)
	}

	core.Retain()
	second, err := Wrap(rt, core)
	if err != nil {
		t.Fatalf("second Wrap failed: %v", err)
	}

	if first == second {
		t.Fatal("hermetic wraps must not share identity")
	}
	if _, tagged := core.Slot().Check(rt.Tag()); tagged {
		t.Fatal("hermetic wrap must not touch the identity slot")
	}

	first.Release()
	second.Release()
}

func TestWrap_PreserveAndReclaim(t *testing.T) {
	rt := newTestRuntime(t)
	obs := &recordObserver{}
	rt.Subscribe(obs)

	core := newTestCore(t, 8)
	core.Retain() // the surviving native owner

	obj, err := Wrap(rt, core)
	if err != nil {
		t.Fatalf("Wrap failed: %v", err)
	}

	// Another native owner exists, so releasing the handle preserves it.
	obj.Release()
	if e := obs.last(t); e.Type != EventPreserved {
		t.Fatalf("event = %s, want preserved", e.Type)
	}
	if !core.Slot().Owns() {
		t.Fatal("preserved handle must be owned by the native side")
	}
	if core.UseCount() != 1 {
		t.Fatalf("core use count after preserve = %d, want 1", core.UseCount())
	}
	if obj.Link() != Borrowed {
		t.Fatal("preserved handle must borrow its core")
	}

	// Wrapping again reclaims the parked handle, identity intact.
	core.Retain()
	again, err := Wrap(rt, core)
	if err != nil {
		t.Fatalf("reclaiming Wrap failed: %v", err)
	}
	if again != obj {
		t.Fatal("reclaim must return the parked handle")
	}
	if again.Link() != Owned {
		t.Fatal("reclaimed handle must own its core again")
	}
	if core.Slot().Owns() {
		t.Fatal("reclaimed identity must no longer be natively owned")
	}
	if e := obs.last(t); e.Type != EventReclaimed {
		t.Fatalf("event = %s, want reclaimed", e.Type)
	}

	// Drop the native owner, then the handle: full teardown this time.
	core.Release()
	again.Release()
	if e := obs.last(t); e.Type != EventDestroyed {
		t.Fatalf("event = %s, want destroyed", e.Type)
	}
}

func TestWrap_CoreDeathReleasesParkedHandle(t *testing.T) {
	rt := newTestRuntime(t)
	obs := &recordObserver{}
	rt.Subscribe(obs)

	core := newTestCore(t, 8)
	core.Retain()

	obj, err := Wrap(rt, core)
	if err != nil {
		t.Fatalf("Wrap failed: %v", err)
	}
	obj.Release() // preserved, parked

	// The last native reference dying must release the parked handle too.
	core.Release()
	if e := obs.last(t); e.Type != EventDestroyed {
		t.Fatalf("event = %s, want destroyed", e.Type)
	}
}

func TestNewWithStorage_PreexistingIdentity(t *testing.T) {
	rt := newTestRuntime(t)

	sub, err := RegisterSubtype(rt, TypeSpec{Name: "PinnedStorage"})
	if err != nil {
		t.Fatalf("RegisterSubtype failed: %v", err)
	}

	core := newTestCore(t, 8)
	core.Retain()
	defer core.Release()

	obj, err := Wrap(rt, core) // canonical type identity published
	if err != nil {
		t.Fatalf("Wrap failed: %v", err)
	}
	defer obj.Release()

	// Conflict reported when reuse is not permitted.
	core.Retain()
	if _, err := NewWithStorage(rt, sub, core, storage.MaybeUninitialized, false); err == nil {
		t.Fatal("expected identity conflict")
	}

	// Reuse permitted, but the existing identity's type must be compatible
	// with the requested type. Canonical is not a subtype of PinnedStorage.
	core.Retain()
	if _, err := NewWithStorage(rt, sub, core, storage.MaybeUninitialized, true); err == nil {
		t.Fatal("expected type mismatch")
	}

	// Requesting the base type accepts any storage identity.
	core.Retain()
	same, err := NewWithStorage(rt, rt.BaseType(), core, storage.MaybeUninitialized, true)
	if err != nil {
		t.Fatalf("NewWithStorage with compatible type failed: %v", err)
	}
	if same != obj {
		t.Fatal("reuse must return the existing handle")
	}
	same.Release()
}

func TestNewWithStorage_RejectsForeignType(t *testing.T) {
	rt := newTestRuntime(t)
	other := NewRuntime(Config{})
	if err := Init(other); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	foreign, err := RegisterSubtype(other, TypeSpec{Name: "Foreign"})
	if err != nil {
		t.Fatalf("RegisterSubtype failed: %v", err)
	}

	core := newTestCore(t, 4)
	if _, err := NewWithStorage(rt, foreign, core, storage.DefinitelyUninitialized, false); err == nil {
		t.Fatal("expected foreign type to be rejected")
	}
}
