package handle

import (
	"unsafe"

	"github.com/wippyai/storage-host/device"
	storageerrors "github.com/wippyai/storage-host/errors"
	"github.com/wippyai/storage-host/storage"
)

// Ownership tags a handle-to-core link.
type Ownership uint8

const (
	// Owned: this handle keeps the core alive via its own reference.
	Owned Ownership = iota

	// Borrowed: some other owner keeps the core alive; the link is a
	// non-owning alias valid only while that owner exists.
	Borrowed
)

// Object is a host handle: the managed-runtime-visible wrapper around a
// storage core. Objects are reference counted at the host level; when the
// count reaches zero the type's destructor runs, which for subtypes is the
// teardown protocol.
type Object struct {
	typ       *Type
	rt        *Runtime
	refs      int64
	core      *storage.Core
	link      Ownership
	weakrefs  []*WeakRef
	dict      map[string]any
	slots     map[*Type][]any
	tracked   bool
	finalized bool
}

// Type returns the object's type.
func (o *Object) Type() *Type { return o.typ }

// Refs returns the host-level reference count.
func (o *Object) Refs() int64 { return o.refs }

// Link reports whether the object owns or borrows its core.
func (o *Object) Link() Ownership { return o.link }

// Core returns the storage core, nil for a null handle.
func (o *Object) Core() *storage.Core { return o.core }

// Retain increments the host-level reference count.
func (o *Object) Retain() *Object {
	o.refs++
	return o
}

// Release decrements the host-level reference count, destroying the object
// when it was the last reference. Destruction of a subtype instance runs the
// teardown protocol, which may preserve or resurrect the object instead.
func (o *Object) Release() {
	o.refs--
	if o.refs == 0 {
		o.typ.dealloc(o.rt, o)
		return
	}
	if o.refs < 0 {
		panic("handle: object released more times than retained")
	}
}

// Device returns the device descriptor of the underlying core.
func (o *Object) Device() (device.Device, error) {
	if o.core == nil {
		return device.Device{}, storageerrors.NullStorage()
	}
	return o.core.Device(), nil
}

// CData returns an opaque native-handle integer identifying the underlying
// core, for interop and debugging.
func (o *Object) CData() uintptr {
	return uintptr(unsafe.Pointer(o.core))
}

// SetAttr stores an extensible attribute on the instance.
func (o *Object) SetAttr(name string, v any) {
	if o.dict == nil {
		o.dict = make(map[string]any)
	}
	o.dict[name] = v
}

// Attr reads an extensible attribute.
func (o *Object) Attr(name string) (any, bool) {
	v, ok := o.dict[name]
	return v, ok
}

// SetSlot stores a value in one of the auxiliary slots declared by level.
func (o *Object) SetSlot(level *Type, index int, v any) {
	o.slots[level][index] = v
}

// Slot reads an auxiliary slot.
func (o *Object) Slot(level *Type, index int) any {
	return o.slots[level][index]
}

// WeakRef is a weak reference to an object. It does not keep the object
// alive; teardown clears it, invoking the callback unless clearing happens
// after a finalizer hook already ran.
type WeakRef struct {
	obj      *Object
	callback func(*WeakRef)
	cleared  bool
}

// NewWeakRef registers a weak reference to o.
func NewWeakRef(o *Object, callback func(*WeakRef)) *WeakRef {
	w := &WeakRef{obj: o, callback: callback}
	o.weakrefs = append(o.weakrefs, w)
	return w
}

// Get returns the referenced object, or nil once cleared.
func (w *WeakRef) Get() *Object {
	if w.cleared {
		return nil
	}
	return w.obj
}

func clearWeakRefs(o *Object, invokeCallbacks bool) {
	refs := o.weakrefs
	o.weakrefs = nil
	for _, w := range refs {
		if w.cleared {
			continue
		}
		w.cleared = true
		w.obj = nil
		if invokeCallbacks && w.callback != nil {
			w.callback(w)
		}
	}
}

// allocInstance builds a fresh instance of typ with one reference.
func allocInstance(rt *Runtime, typ *Type) *Object {
	o := &Object{
		typ:   typ,
		rt:    rt,
		refs:  1,
		slots: make(map[*Type][]any),
	}
	for t := typ; t != nil; t = t.base {
		if len(t.slotNames) > 0 {
			o.slots[t] = make([]any, len(t.slotNames))
		}
	}
	if typ.gc {
		rt.track(o)
	}
	if typ.heap {
		typ.refs++
	}
	return o
}

// freeInstance releases the instance's memory bookkeeping and, for heap
// subtypes, the type object's reference.
func freeInstance(rt *Runtime, o *Object) {
	if o.tracked {
		rt.untrack(o)
	}
	o.slots = nil
	if o.typ.heap {
		o.typ.refs--
	}
}
