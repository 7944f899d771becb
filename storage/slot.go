package storage

// InitStatus describes what the wrapping runtime knew about a core's identity
// slot when it decided to allocate a host object for it.
type InitStatus uint8

const (
	// DefinitelyUninitialized: the core had exactly one live reference, so no
	// other owner could race to publish an identity.
	DefinitelyUninitialized InitStatus = iota

	// MaybeUninitialized: other references existed at wrap time, so another
	// owner may publish an identity first. Initialization must tolerate
	// losing that race.
	MaybeUninitialized

	// TaggedByUs: the slot was already tagged by this runtime (its previous
	// host object has been torn down).
	TaggedByUs
)

// Slot associates a core with at most one host object. owns records the
// direction of ownership: true means the native side is keeping the host
// object alive, false means the host object independently owns the core.
//
// Slots are plain state. The handle package mutates them under its runtime's
// exclusivity guarantee; the statuses above encode how the one permitted race
// (publication against a concurrent owner) is resolved.
type Slot struct {
	obj    any
	owns   bool
	tag    uint64
	tagged bool
}

// Check reports the slot's host object for the given runtime tag. tagged is
// false when the slot has never been initialized by this runtime; when tagged
// is true, obj may still be nil if the previous host object was torn down.
func (s *Slot) Check(tag uint64) (obj any, tagged bool) {
	if !s.tagged || s.tag != tag {
		return nil, false
	}
	return s.obj, true
}

// Init publishes obj as the slot's host object and returns the winning
// object. With status MaybeUninitialized a pre-existing identity wins and is
// returned instead of obj; with any other status a pre-existing identity is a
// protocol violation.
func (s *Slot) Init(tag uint64, obj any, status InitStatus) any {
	if s.tagged && s.obj != nil {
		if status == MaybeUninitialized {
			return s.obj
		}
		panic("storage: identity slot already initialized")
	}
	s.tag = tag
	s.tagged = true
	s.obj = obj
	s.owns = false
	return obj
}

// Owns reports whether the native side owns the host object.
func (s *Slot) Owns() bool { return s.owns }

// SetOwns flips the ownership direction.
func (s *Slot) SetOwns(owns bool) { s.owns = owns }

// Clear drops the host object reference but keeps the tag, so a later wrap
// sees TaggedByUs rather than an untouched slot.
func (s *Slot) Clear() {
	s.obj = nil
	s.owns = false
}

// Releaser is implemented by parked host objects so a dying core can release
// the reference it owns.
type Releaser interface {
	Release()
}

// takeOwned returns and clears the host object when the native side owns it.
func (s *Slot) takeOwned() any {
	if !s.owns || s.obj == nil {
		return nil
	}
	s.owns = false
	obj := s.obj
	s.obj = nil
	return obj
}
