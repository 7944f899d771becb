package handle

import (
	"go.uber.org/zap"

	storageerrors "github.com/wippyai/storage-host/errors"
)

// Type describes a host handle type. The base storage type is created by
// Init; everything else is a heap subtype created through RegisterSubtype,
// which installs the teardown protocol as the subtype's destructor. That
// registration step is the moral equivalent of a metaclass: no subtype can
// exist without the hook.
type Type struct {
	name      string
	base      *Type
	finalizer func(*Object)
	del       func(*Object)
	slotNames []string
	heap      bool
	gc        bool
	refs      int64
	dealloc   func(*Runtime, *Object)
}

// TypeSpec describes a subtype to register.
type TypeSpec struct {
	Name string

	// Base defaults to the runtime's storage base type.
	Base *Type

	// Finalizer is the type's finalizer hook. It runs during teardown with
	// the object temporarily alive and may resurrect it by retaining it.
	Finalizer func(*Object)

	// Del is the legacy-style destructor hook, invoked after weak references
	// are cleared. It may also resurrect the object.
	Del func(*Object)

	// Slots names per-instance auxiliary slot storage for this level.
	Slots []string
}

// Name returns the type's name.
func (t *Type) Name() string { return t.name }

// Base returns the immediate supertype, nil for the storage base type.
func (t *Type) Base() *Type { return t.base }

// IsSubtypeOf reports whether t is u or a subtype of u.
func (t *Type) IsSubtypeOf(u *Type) bool {
	for c := t; c != nil; c = c.base {
		if c == u {
			return true
		}
	}
	return false
}

// Refs returns the type object's reference count. Heap subtypes count one
// reference per live instance plus one for the registration itself.
func (t *Type) Refs() int64 { return t.refs }

// SlotCount returns the number of auxiliary slots declared at this level.
func (t *Type) SlotCount() int { return len(t.slotNames) }

// SlotIndex resolves a declared slot name at this level.
func (t *Type) SlotIndex(name string) (int, bool) {
	for i, n := range t.slotNames {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

func (t *Type) clearSlots(o *Object) {
	if s, ok := o.slots[t]; ok {
		for i := range s {
			s[i] = nil
		}
	}
}

// RegisterSubtype creates a handle subtype. Every subtype gets the teardown
// protocol installed as its destructor at creation time; there is no way to
// define a storage subtype that bypasses it.
func RegisterSubtype(rt *Runtime, spec TypeSpec) (*Type, error) {
	if rt.baseType == nil {
		return nil, storageerrors.NotInitialized("storage base type")
	}
	base := spec.Base
	if base == nil {
		base = rt.baseType
	}
	if !base.IsSubtypeOf(rt.baseType) {
		return nil, storageerrors.Wrap(storageerrors.PhaseInit, storageerrors.KindTypeMismatch, nil,
			"creating a storage subclass from a class that does not inherit from the storage base")
	}
	t := &Type{
		name:      spec.Name,
		base:      base,
		finalizer: spec.Finalizer,
		del:       spec.Del,
		slotNames: spec.Slots,
		heap:      true,
		gc:        true,
		refs:      1,
		dealloc:   subclassDealloc,
	}
	rt.log.Debug("registered storage subtype",
		zap.String("type", spec.Name), zap.String("base", base.name))
	return t, nil
}

func newBaseType(name string) *Type {
	return &Type{
		name:    name,
		dealloc: baseDealloc,
	}
}
