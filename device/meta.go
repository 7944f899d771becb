package device

import (
	storagehost "github.com/wippyai/storage-host"
	storageerrors "github.com/wippyai/storage-host/errors"
)

// metaBuffer carries a size but no data. Virtual devices are used to reason
// about shapes and lifetimes without allocating.
type metaBuffer struct {
	n   uint64
	dev Device
}

func (b *metaBuffer) Bytes() []byte { return nil }

func (b *metaBuffer) Len() uint64 { return b.n }

func (b *metaBuffer) ReadByte(uint64) (byte, error) {
	return 0, storageerrors.Wrap(storageerrors.PhaseAccess, storageerrors.KindUnsupportedDevice,
		nil, "meta storage has no data")
}

func (b *metaBuffer) WriteByte(uint64, byte) error {
	return storageerrors.Wrap(storageerrors.PhaseAccess, storageerrors.KindUnsupportedDevice,
		nil, "meta storage has no data")
}

func (b *metaBuffer) Release() {}

type metaAllocator struct {
	dev Device
}

func (a *metaAllocator) Allocate(n uint64) (storagehost.Buffer, error) {
	return &metaBuffer{n: n, dev: a.dev}, nil
}

func (a *metaAllocator) Device() Device { return a.dev }

type metaBackend struct{}

func (metaBackend) Name() string { return "meta" }

func (metaBackend) Kind() Kind { return Meta }

func (metaBackend) Allocator(d Device) (storagehost.Allocator, error) {
	return &metaAllocator{dev: d}, nil
}

func (metaBackend) SetActive(Device) error { return nil }

func init() {
	Register(metaBackend{})
}
