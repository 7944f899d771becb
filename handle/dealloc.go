package handle

import "go.uber.org/zap"

// isPreservable reports whether a dying handle can be converted into a
// native-owned parked handle instead of being destroyed. All three must
// hold: the handle owns its core, the core's identity slot points back at
// exactly this handle, and some other owner of the core exists besides the
// handle's own reference.
func isPreservable(rt *Runtime, o *Object) bool {
	if o.core == nil || o.link == Borrowed {
		return false
	}
	obj, tagged := o.core.Slot().Check(rt.tag)
	if !tagged {
		return false
	}
	h, ok := obj.(*Object)
	if !ok || h != o {
		return false
	}
	if o.core.UseCount() <= 1 {
		return false
	}
	return true
}

// tryPreserve flips ownership to the native side: the identity slot starts
// keeping the handle alive (one parked host reference), and the handle's
// link to the core becomes a borrow, dropping its strong reference. The
// surviving owner detected by isPreservable keeps the core alive until the
// handle is reclaimed through Wrap.
func tryPreserve(rt *Runtime, o *Object) bool {
	if !isPreservable(rt, o) {
		return false
	}
	slot := o.core.Slot()
	if slot.Owns() {
		panic("handle: identity slot already owns its host object")
	}
	slot.SetOwns(true)
	o.refs++
	o.link = Borrowed
	o.core.Release()
	return true
}

// subclassDealloc is the destructor installed on every storage subtype. It
// runs when the host-level reference count reaches zero.
//
// Order matters: finalizer before weak-ref clearing (the hook may still want
// weakly-reachable state), the legacy destructor after, a second callback-free
// weak-ref sweep if any hook ran (hooks may have created fresh weak refs to a
// half-destroyed object), then slots, dict, core, instance. A hook that
// retains the object resurrects it and aborts the whole sequence.
func subclassDealloc(rt *Runtime, o *Object) {
	if tryPreserve(rt, o) {
		rt.log.Debug("preserved storage handle", zap.String("type", o.typ.name))
		rt.notify(Event{
			Type:     EventPreserved,
			TypeName: o.typ.name,
			Core:     o.CData(),
			Size:     o.core.Size(),
			Device:   o.core.Device(),
			CoreRefs: o.core.UseCount(),
		})
		return
	}

	typ := o.typ
	if typ.gc && o.tracked {
		rt.untrack(o)
	}

	hasHooks := typ.finalizer != nil || typ.del != nil

	if typ.finalizer != nil && !o.finalized {
		rt.track(o)
		o.finalized = true
		if invokeHook(o, typ.finalizer) {
			rt.notify(resurrectionEvent(o))
			return
		}
		rt.untrack(o)
	}

	clearWeakRefs(o, true)

	if typ.del != nil {
		rt.track(o)
		if invokeHook(o, typ.del) {
			rt.notify(resurrectionEvent(o))
			return
		}
		rt.untrack(o)
	}

	if hasHooks {
		// Hooks may have created new weak refs. Clear them without invoking
		// callbacks: the object's state is already partially destroyed.
		clearWeakRefs(o, false)
	}

	for base := typ; base != rt.baseType; base = base.base {
		if base == nil {
			panic("handle: storage subtype does not descend from the base type")
		}
		base.clearSlots(o)
	}
	o.dict = nil

	destroyed := Event{
		Type:     EventDestroyed,
		TypeName: typ.name,
		Core:     o.CData(),
	}
	if o.core != nil {
		destroyed.Size = o.core.Size()
		destroyed.Device = o.core.Device()
		if obj, tagged := o.core.Slot().Check(rt.tag); tagged {
			if h, ok := obj.(*Object); ok && h == o {
				o.core.Slot().Clear()
			}
		}
		if o.link == Owned {
			o.core.Release()
		}
		o.core = nil
	}

	freeInstance(rt, o)
	rt.log.Debug("destroyed storage handle", zap.String("type", typ.name))
	rt.notify(destroyed)
}

// invokeHook runs a finalizer-style hook with the object temporarily alive
// and reports whether the hook resurrected it by leaving new references
// behind.
func invokeHook(o *Object, hook func(*Object)) bool {
	o.refs = 1
	hook(o)
	o.refs--
	return o.refs > 0
}

func resurrectionEvent(o *Object) Event {
	e := Event{
		Type:     EventResurrected,
		TypeName: o.typ.name,
		Core:     o.CData(),
	}
	if o.core != nil {
		e.Size = o.core.Size()
		e.Device = o.core.Device()
		e.CoreRefs = o.core.UseCount()
	}
	return e
}

// baseDealloc destroys a base-type instance. The base type is never
// instantiated through the public construction paths, but hermetic callers
// may build on it directly; it has no hooks, slots, or dict of its own.
func baseDealloc(rt *Runtime, o *Object) {
	clearWeakRefs(o, true)
	if o.core != nil {
		if obj, tagged := o.core.Slot().Check(rt.tag); tagged {
			if h, ok := obj.(*Object); ok && h == o {
				o.core.Slot().Clear()
			}
		}
		if o.link == Owned {
			o.core.Release()
		}
		o.core = nil
	}
	freeInstance(rt, o)
	rt.notify(Event{Type: EventDestroyed, TypeName: o.typ.name})
}
