package device

import (
	storagehost "github.com/wippyai/storage-host"
	storageerrors "github.com/wippyai/storage-host/errors"
)

// hostBuffer is CPU memory backed by a Go byte slice.
type hostBuffer struct {
	buf []byte
	dev Device
}

func (b *hostBuffer) Bytes() []byte { return b.buf }

func (b *hostBuffer) Len() uint64 { return uint64(len(b.buf)) }

func (b *hostBuffer) ReadByte(off uint64) (byte, error) {
	if off >= uint64(len(b.buf)) {
		return 0, storageerrors.IndexOutOfRange(int64(off), uint64(len(b.buf)))
	}
	return b.buf[off], nil
}

func (b *hostBuffer) WriteByte(off uint64, value byte) error {
	if off >= uint64(len(b.buf)) {
		return storageerrors.IndexOutOfRange(int64(off), uint64(len(b.buf)))
	}
	b.buf[off] = value
	return nil
}

func (b *hostBuffer) Release() { b.buf = nil }

type cpuAllocator struct {
	dev Device
}

func (a *cpuAllocator) Allocate(n uint64) (storagehost.Buffer, error) {
	return &hostBuffer{buf: make([]byte, n), dev: a.dev}, nil
}

func (a *cpuAllocator) Device() Device { return a.dev }

var defaultCPU = &cpuAllocator{dev: CPU0}

// DefaultCPUAllocator returns the generic host-memory allocator. Identity
// matters: construction fast paths compare against it.
func DefaultCPUAllocator() storagehost.Allocator {
	return defaultCPU
}

type cpuBackend struct{}

func (cpuBackend) Name() string { return "cpu" }

func (cpuBackend) Kind() Kind { return CPU }

func (cpuBackend) Allocator(d Device) (storagehost.Allocator, error) {
	if d.Index == 0 {
		return defaultCPU, nil
	}
	return &cpuAllocator{dev: d}, nil
}

func (cpuBackend) SetActive(Device) error { return nil }

func init() {
	Register(cpuBackend{})
}
