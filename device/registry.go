package device

import (
	storagehost "github.com/wippyai/storage-host"
	storageerrors "github.com/wippyai/storage-host/errors"
)

// Backend is the contract every device backend must implement.
type Backend interface {
	Name() string
	Kind() Kind

	// Allocator returns the allocator for a device of this backend's kind.
	// Backends may initialize lazily on the first call.
	Allocator(d Device) (storagehost.Allocator, error)

	// SetActive establishes the device context for subsequent allocation.
	SetActive(d Device) error
}

var registry = make(map[Kind]Backend)

// Register adds a backend for its kind. Later registrations replace earlier
// ones, which lets tests install fakes.
func Register(b Backend) {
	registry[b.Kind()] = b
}

// Get returns the backend for a kind.
func Get(k Kind) (Backend, error) {
	b, ok := registry[k]
	if !ok {
		return nil, storageerrors.UnsupportedDevice(k.String())
	}
	return b, nil
}

// Placed is implemented by allocators that know which device their buffers
// live on. Explicit caller-supplied allocators that do not implement it are
// assumed to produce CPU-resident buffers.
type Placed interface {
	Device() Device
}

// Resolve produces the allocator for a construction request. Exactly one of
// alloc and dev may be non-nil; supplying both is an error. With neither, the
// default CPU allocator is used. Resolving a device establishes that device's
// context before returning.
func Resolve(alloc storagehost.Allocator, dev *Device) (storagehost.Allocator, Device, error) {
	if alloc != nil && dev != nil {
		return nil, Device{}, storageerrors.ConflictingArguments("allocator", "device")
	}

	if alloc != nil {
		if p, ok := alloc.(Placed); ok {
			return alloc, p.Device(), nil
		}
		return alloc, CPU0, nil
	}

	if dev != nil {
		b, err := Get(dev.Kind)
		if err != nil {
			return nil, Device{}, err
		}
		if err := b.SetActive(*dev); err != nil {
			return nil, Device{}, err
		}
		a, err := b.Allocator(*dev)
		if err != nil {
			return nil, Device{}, err
		}
		return a, *dev, nil
	}

	return DefaultCPUAllocator(), CPU0, nil
}
