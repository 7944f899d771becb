package storage

import (
	"sync/atomic"

	storagehost "github.com/wippyai/storage-host"
	"github.com/wippyai/storage-host/device"
	storageerrors "github.com/wippyai/storage-host/errors"
)

// Core is a reference-counted buffer descriptor. The count starts at 1 for
// the creating reference. When it reaches zero the deleter runs, which for
// fresh cores releases the buffer and for slice views releases the retained
// parent instead.
type Core struct {
	refs      atomic.Int64
	size      uint64
	dev       device.Device
	alloc     storagehost.Allocator
	resizable bool
	data      storagehost.Buffer
	deleter   func()
	slot      Slot
}

// New allocates a core of size bytes from alloc.
func New(size uint64, dev device.Device, alloc storagehost.Allocator, resizable bool) (*Core, error) {
	buf, err := alloc.Allocate(size)
	if err != nil {
		return nil, storageerrors.Allocation(size, err)
	}
	c := &Core{
		size:      size,
		dev:       dev,
		alloc:     alloc,
		resizable: resizable,
		data:      buf,
	}
	c.refs.Store(1)
	return c, nil
}

// Retain increments the reference count and returns c.
func (c *Core) Retain() *Core {
	c.refs.Add(1)
	return c
}

// Release decrements the reference count, destroying the core when it was the
// last reference.
func (c *Core) Release() {
	n := c.refs.Add(-1)
	if n > 0 {
		return
	}
	if n < 0 {
		panic("storage: core released more times than retained")
	}
	// A parked host object owned by the native side dies with the core.
	// This runs under the owning runtime's exclusivity, like all slot use.
	if obj := c.slot.takeOwned(); obj != nil {
		if r, ok := obj.(Releaser); ok {
			r.Release()
		}
	}
	if c.deleter != nil {
		c.deleter()
	} else if c.data != nil {
		c.data.Release()
	}
	c.data = nil
}

// UseCount returns the current reference count.
func (c *Core) UseCount() int64 { return c.refs.Load() }

// Size returns the buffer size in bytes.
func (c *Core) Size() uint64 { return c.size }

// Device returns the device the buffer resides on.
func (c *Core) Device() device.Device { return c.dev }

// Allocator returns the allocator the core was created with.
func (c *Core) Allocator() storagehost.Allocator { return c.alloc }

// Resizable reports whether the buffer may be reallocated. Slice views are
// never resizable.
func (c *Core) Resizable() bool { return c.resizable }

// Slot returns the identity slot. Mutation requires the owning runtime's
// exclusivity.
func (c *Core) Slot() *Slot { return &c.slot }

// Bytes returns the host-addressable backing slice, or nil when the buffer is
// device-resident. Used by construction fast paths.
func (c *Core) Bytes() []byte {
	if c.data == nil {
		return nil
	}
	return c.data.Bytes()
}

// ReadByte reads the byte at off.
func (c *Core) ReadByte(off uint64) (byte, error) {
	if off >= c.size {
		return 0, storageerrors.IndexOutOfRange(int64(off), c.size)
	}
	return c.data.ReadByte(off)
}

// WriteByte writes the byte at off.
func (c *Core) WriteByte(off uint64, value byte) error {
	if off >= c.size {
		return storageerrors.IndexOutOfRange(int64(off), c.size)
	}
	return c.data.WriteByte(off, value)
}

// Slice returns a new core that is a zero-copy view of [start, start+length).
// The view retains c for its lifetime: its deleter releases the parent, so
// the backing buffer survives until both the parent's other owners and the
// view are gone. Deleters reference only ancestors, never descendants, so
// view chains stay acyclic. The view inherits device and allocator and is
// not resizable.
func (c *Core) Slice(start, length uint64) *Core {
	parent := c.Retain()
	v := &Core{
		size:      length,
		dev:       c.dev,
		alloc:     c.alloc,
		resizable: false,
		data:      &viewBuffer{base: c.data, off: start, n: length},
		deleter:   func() { parent.Release() },
	}
	v.refs.Store(1)
	return v
}

// viewBuffer is an offset window over a parent buffer. Releasing the view is
// a no-op; the slice deleter releases the parent core, which frees the real
// buffer once all owners are gone.
type viewBuffer struct {
	base storagehost.Buffer
	off  uint64
	n    uint64
}

func (v *viewBuffer) Bytes() []byte {
	b := v.base.Bytes()
	if b == nil {
		return nil
	}
	return b[v.off : v.off+v.n]
}

func (v *viewBuffer) Len() uint64 { return v.n }

func (v *viewBuffer) ReadByte(off uint64) (byte, error) {
	if off >= v.n {
		return 0, storageerrors.IndexOutOfRange(int64(off), v.n)
	}
	return v.base.ReadByte(v.off + off)
}

func (v *viewBuffer) WriteByte(off uint64, value byte) error {
	if off >= v.n {
		return storageerrors.IndexOutOfRange(int64(off), v.n)
	}
	return v.base.WriteByte(v.off+off, value)
}

func (v *viewBuffer) Release() {}
