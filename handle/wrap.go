package handle

import (
	"go.uber.org/zap"

	storageerrors "github.com/wippyai/storage-host/errors"
	"github.com/wippyai/storage-host/storage"
)

// Wrap returns the host handle for core, never duplicating an identity. It
// takes ownership of the caller's reference to core: on every path the
// reference is either adopted by the returned handle or released.
//
// If the core's identity slot already holds a live handle, that handle is
// returned. When the native side was keeping that handle alive, ownership is
// transferred back: the handle resumes owning the core and the parked
// reference passes to the caller. Otherwise the existing handle is retained.
// With an empty slot a fresh handle of the canonical type is allocated and
// published.
func Wrap(rt *Runtime, core *storage.Core) (*Object, error) {
	if core == nil {
		return nil, storageerrors.NullStorage()
	}
	if rt.canonical == nil {
		core.Release()
		return nil, storageerrors.NotInitialized("canonical storage type")
	}

	if rt.hermetic {
		return NewWithStorage(rt, rt.canonical, core, storage.DefinitelyUninitialized, false)
	}

	slot := core.Slot()
	obj, tagged := slot.Check(rt.tag)
	var status storage.InitStatus
	if tagged {
		if obj != nil {
			h := obj.(*Object)
			if slot.Owns() {
				// Reclaim: the native side was keeping the handle alive.
				// Flip ownership back to the handle; the parked host
				// reference transfers to the caller.
				slot.SetOwns(false)
				h.core = core
				h.link = Owned
				rt.log.Debug("reclaimed parked handle", zap.String("type", h.typ.name))
				rt.notify(Event{
					Type:     EventReclaimed,
					TypeName: h.typ.name,
					Core:     h.CData(),
					Size:     core.Size(),
					Device:   core.Device(),
					CoreRefs: core.UseCount(),
				})
				return h, nil
			}
			// The handle is independently alive; hand out another host
			// reference and drop the caller's core reference.
			h.Retain()
			core.Release()
			rt.notify(Event{
				Type:     EventWrapped,
				TypeName: h.typ.name,
				Core:     h.CData(),
				Size:     core.Size(),
				Device:   core.Device(),
				CoreRefs: core.UseCount(),
			})
			return h, nil
		}
		status = storage.TaggedByUs
	} else {
		if core.UseCount() <= 1 {
			status = storage.DefinitelyUninitialized
		} else {
			status = storage.MaybeUninitialized
		}
	}

	return NewWithStorage(rt, rt.canonical, core, status, false)
}

// NewWithStorage allocates a host handle of typ taking ownership of the
// caller's reference to core. typ must be the storage base type or a
// subtype. If the core already has a host identity, allowPreexisting decides
// whether it is reused (after a type-compatibility check) or reported as a
// conflict. Unless the runtime is hermetic, the new handle is published into
// the core's identity slot with the given status.
func NewWithStorage(rt *Runtime, typ *Type, core *storage.Core, status storage.InitStatus, allowPreexisting bool) (*Object, error) {
	if core == nil {
		return nil, storageerrors.NullStorage()
	}
	if typ == nil || rt.baseType == nil || !typ.IsSubtypeOf(rt.baseType) {
		core.Release()
		return nil, storageerrors.Wrap(storageerrors.PhaseWrap, storageerrors.KindTypeMismatch, nil,
			"creating a storage subclass from a class that does not inherit from the storage base")
	}

	if !rt.hermetic {
		if obj, tagged := core.Slot().Check(rt.tag); tagged && obj != nil {
			existing := obj.(*Object)
			if !allowPreexisting {
				core.Release()
				return nil, storageerrors.IdentityConflict(typ.name, existing.typ.name)
			}
			if !(existing.typ == typ || existing.typ.IsSubtypeOf(typ)) {
				core.Release()
				return nil, storageerrors.TypeMismatch(typ.name, existing.typ.name)
			}
			return Wrap(rt, core)
		}
	}

	o := allocInstance(rt, typ)
	o.core = core
	o.link = Owned

	if !rt.hermetic {
		winner := core.Slot().Init(rt.tag, o, status)
		if winner != any(o) {
			// Lost the publication race tolerated by MaybeUninitialized.
			existing := winner.(*Object)
			freeInstance(rt, o)
			if !allowPreexisting {
				core.Release()
				return nil, storageerrors.IdentityConflict(typ.name, existing.typ.name)
			}
			if !(existing.typ == typ || existing.typ.IsSubtypeOf(typ)) {
				core.Release()
				return nil, storageerrors.TypeMismatch(typ.name, existing.typ.name)
			}
			existing.Retain()
			core.Release()
			return existing, nil
		}
	}

	rt.log.Debug("allocated storage handle",
		zap.String("type", typ.name),
		zap.Uint64("size", core.Size()),
		zap.Stringer("device", core.Device()))
	rt.notify(Event{
		Type:     EventCreated,
		TypeName: typ.name,
		Core:     o.CData(),
		Size:     core.Size(),
		Device:   core.Device(),
		CoreRefs: core.UseCount(),
	})
	return o, nil
}
