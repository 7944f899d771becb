package handle

import (
	storagehost "github.com/wippyai/storage-host"
	"github.com/wippyai/storage-host/device"
	storageerrors "github.com/wippyai/storage-host/errors"
	"github.com/wippyai/storage-host/storage"
)

type newConfig struct {
	alloc    storagehost.Allocator
	dev      *device.Device
	size     uint64
	hasSize  bool
	sequence []any
	hasSeq   bool
}

// Option configures NewStorage.
type Option func(*newConfig)

// WithAllocator supplies an explicit allocator capability. The caller
// accepts responsibility for its validity and lifetime. Mutually exclusive
// with WithDevice.
func WithAllocator(a storagehost.Allocator) Option {
	return func(c *newConfig) { c.alloc = a }
}

// WithDevice selects the device whose default allocator backs the storage.
// Mutually exclusive with WithAllocator.
func WithDevice(d device.Device) Option {
	return func(c *newConfig) { dd := d; c.dev = &dd }
}

// WithSize requests a buffer of n bytes.
func WithSize(n uint64) Option {
	return func(c *newConfig) { c.size = n; c.hasSize = true }
}

// FromSequence populates the storage from byte-convertible elements.
func FromSequence(elems ...any) Option {
	return func(c *newConfig) { c.sequence = elems; c.hasSeq = true }
}

// NewStorage constructs a storage and returns its host handle. typ must be a
// subtype of the storage base type; the base type itself is not directly
// instantiable. The three call shapes are no payload (zero-size resizable
// buffer), WithSize (n bytes), and FromSequence (one byte per element).
func NewStorage(rt *Runtime, typ *Type, opts ...Option) (*Object, error) {
	var cfg newConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if typ == nil || typ == rt.baseType {
		name := "StorageBase"
		if typ != nil {
			name = typ.name
		}
		return nil, storageerrors.AbstractType(name)
	}
	if cfg.hasSize && cfg.hasSeq {
		return nil, storageerrors.ConflictingArguments("size", "sequence")
	}

	alloc, dev, err := device.Resolve(cfg.alloc, cfg.dev)
	if err != nil {
		return nil, err
	}

	size := cfg.size
	if cfg.hasSeq {
		size = uint64(len(cfg.sequence))
	}

	core, err := storage.New(size, dev, alloc, true)
	if err != nil {
		return nil, err
	}

	if cfg.hasSeq {
		if err := populate(core, alloc, cfg.sequence); err != nil {
			core.Release()
			return nil, err
		}
	}

	return NewWithStorage(rt, typ, core, storage.DefinitelyUninitialized, false)
}

// populate writes sequence elements into a fresh core. Host memory from the
// default allocator is written directly; device-resident memory goes through
// the generic byte primitive. A partially-written buffer on error is fine:
// the caller discards the core.
func populate(core *storage.Core, alloc storagehost.Allocator, sequence []any) error {
	direct := alloc == device.DefaultCPUAllocator()
	buf := core.Bytes()
	for i, elem := range sequence {
		value, ok := toByte(elem)
		if !ok {
			return storageerrors.ElementType(i, elem)
		}
		if direct && buf != nil {
			buf[i] = value
			continue
		}
		if err := core.WriteByte(uint64(i), value); err != nil {
			return err
		}
	}
	return nil
}

// toByte converts an integer-typed element to a byte, truncating like the
// native cast does. Non-integer kinds do not convert.
func toByte(v any) (byte, bool) {
	switch n := v.(type) {
	case int:
		return byte(n), true
	case int8:
		return byte(n), true
	case int16:
		return byte(n), true
	case int32:
		return byte(n), true
	case int64:
		return byte(n), true
	case uint:
		return byte(n), true
	case uint8:
		return n, true
	case uint16:
		return byte(n), true
	case uint32:
		return byte(n), true
	case uint64:
		return byte(n), true
	default:
		return 0, false
	}
}
