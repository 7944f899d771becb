package storage

import "testing"

type fakeHost struct {
	released int
}

func (f *fakeHost) Release() { f.released++ }

func TestSlot_CheckUntagged(t *testing.T) {
	var s Slot
	if obj, tagged := s.Check(1); tagged || obj != nil {
		t.Fatal("fresh slot must report untagged")
	}
}

func TestSlot_InitAndCheck(t *testing.T) {
	var s Slot
	host := &fakeHost{}

	winner := s.Init(7, host, DefinitelyUninitialized)
	if winner != any(host) {
		t.Fatal("Init must return the published object")
	}

	obj, tagged := s.Check(7)
	if !tagged || obj != any(host) {
		t.Fatal("Check must return the published object for the same tag")
	}
	if _, tagged := s.Check(8); tagged {
		t.Fatal("Check must not match a different tag")
	}
}

func TestSlot_ClearKeepsTag(t *testing.T) {
	var s Slot
	s.Init(7, &fakeHost{}, DefinitelyUninitialized)
	s.Clear()

	obj, tagged := s.Check(7)
	if !tagged {
		t.Fatal("cleared slot must stay tagged")
	}
	if obj != nil {
		t.Fatal("cleared slot must not hold an object")
	}
}

func TestSlot_MaybeUninitializedLosesRace(t *testing.T) {
	var s Slot
	first := &fakeHost{}
	second := &fakeHost{}
	s.Init(7, first, DefinitelyUninitialized)

	winner := s.Init(7, second, MaybeUninitialized)
	if winner != any(first) {
		t.Fatal("losing a tolerated race must return the existing object")
	}
}

func TestSlot_ConflictPanicsWhenNotTolerated(t *testing.T) {
	var s Slot
	s.Init(7, &fakeHost{}, DefinitelyUninitialized)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on untolerated double init")
		}
	}()
	s.Init(7, &fakeHost{}, DefinitelyUninitialized)
}

func TestSlot_Ownership(t *testing.T) {
	var s Slot
	s.Init(7, &fakeHost{}, DefinitelyUninitialized)

	if s.Owns() {
		t.Fatal("fresh identity must not be natively owned")
	}
	s.SetOwns(true)
	if !s.Owns() {
		t.Fatal("SetOwns(true) must stick")
	}
}

func TestCore_ReleaseReleasesParkedHost(t *testing.T) {
	c := newTestCore(t, 4)
	host := &fakeHost{}
	c.Slot().Init(7, host, DefinitelyUninitialized)
	c.Slot().SetOwns(true)

	c.Release()
	if host.released != 1 {
		t.Fatalf("parked host released %d times, want 1", host.released)
	}
}

func TestCore_ReleaseIgnoresUnownedHost(t *testing.T) {
	c := newTestCore(t, 4)
	host := &fakeHost{}
	c.Slot().Init(7, host, DefinitelyUninitialized)

	c.Release()
	if host.released != 0 {
		t.Fatal("unowned host must not be released by the core")
	}
}
