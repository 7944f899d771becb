package guest

import (
	"context"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	storagehost "github.com/wippyai/storage-host"
	"github.com/wippyai/storage-host/device"
	storageerrors "github.com/wippyai/storage-host/errors"
)

// minModule is a WebAssembly module that declares and exports one linear
// memory (16 pages min, 256 max) and nothing else. Hand-encoded: magic,
// version, memory section, export section.
var minModule = []byte{
	0x00, 0x61, 0x73, 0x6d, // magic
	0x01, 0x00, 0x00, 0x00, // version
	0x05, 0x05, 0x01, // memory section, 1 memory
	0x01, 0x10, 0x80, 0x02, // limits: min 16 pages, max 256 pages
	0x07, 0x0a, 0x01, // export section, 1 export
	0x06, 'm', 'e', 'm', 'o', 'r', 'y', // "memory"
	0x02, 0x00, // memory index 0
}

const pageSize = 65536

// guestMemory is one instantiated linear memory plus a bump allocator over
// it. Guest memory can only grow, never shrink; released regions are not
// reclaimed until the whole backend is closed.
type guestMemory struct {
	mod  api.Module
	mem  api.Memory
	next uint64
}

func (g *guestMemory) alloc(n uint64) (uint64, error) {
	off := g.next
	end := off + n
	have := uint64(g.mem.Size())
	if end > have {
		pages := (end - have + pageSize - 1) / pageSize
		if _, ok := g.mem.Grow(uint32(pages)); !ok {
			return 0, fmt.Errorf("guest memory grow by %d pages refused", pages)
		}
	}
	g.next = end
	return off, nil
}

// guestBuffer is a region of guest linear memory. It is not host-addressable:
// Bytes returns nil and all access goes through the byte primitives.
type guestBuffer struct {
	mem api.Memory
	off uint64
	n   uint64
}

func (b *guestBuffer) Bytes() []byte { return nil }

func (b *guestBuffer) Len() uint64 { return b.n }

func (b *guestBuffer) ReadByte(off uint64) (byte, error) {
	if off >= b.n {
		return 0, storageerrors.IndexOutOfRange(int64(off), b.n)
	}
	v, ok := b.mem.ReadByte(uint32(b.off + off))
	if !ok {
		return 0, storageerrors.Wrap(storageerrors.PhaseAccess, storageerrors.KindIndexOutOfRange,
			nil, fmt.Sprintf("guest memory read at %d out of bounds", b.off+off))
	}
	return v, nil
}

func (b *guestBuffer) WriteByte(off uint64, value byte) error {
	if off >= b.n {
		return storageerrors.IndexOutOfRange(int64(off), b.n)
	}
	if !b.mem.WriteByte(uint32(b.off+off), value) {
		return storageerrors.Wrap(storageerrors.PhaseAccess, storageerrors.KindIndexOutOfRange,
			nil, fmt.Sprintf("guest memory write at %d out of bounds", b.off+off))
	}
	return nil
}

func (b *guestBuffer) Release() {}

type guestAllocator struct {
	backend *guestBackend
	dev     device.Device
}

func (a *guestAllocator) Allocate(n uint64) (storagehost.Buffer, error) {
	g, err := a.backend.memory(a.dev.Index)
	if err != nil {
		return nil, storageerrors.Allocation(n, err)
	}
	off, err := g.alloc(n)
	if err != nil {
		return nil, storageerrors.Allocation(n, err)
	}
	// Fresh pages arrive zeroed; zero explicitly anyway so the Allocator
	// contract does not depend on the bump region never being recycled.
	for i := uint64(0); i < n; i++ {
		g.mem.WriteByte(uint32(off+i), 0)
	}
	return &guestBuffer{mem: g.mem, off: off, n: n}, nil
}

func (a *guestAllocator) Device() device.Device { return a.dev }

// guestBackend instantiates one module per device index, lazily on first use.
type guestBackend struct {
	mu       sync.Mutex
	rt       wazero.Runtime
	compiled wazero.CompiledModule
	mems     map[int]*guestMemory
	active   int
}

func (b *guestBackend) Name() string { return "guest" }

func (b *guestBackend) Kind() device.Kind { return device.Guest }

func (b *guestBackend) Allocator(d device.Device) (storagehost.Allocator, error) {
	return &guestAllocator{backend: b, dev: d}, nil
}

func (b *guestBackend) SetActive(d device.Device) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.active = d.Index
	return nil
}

func (b *guestBackend) memory(index int) (*guestMemory, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ctx := context.Background()
	if b.rt == nil {
		b.rt = wazero.NewRuntime(ctx)
		compiled, err := b.rt.CompileModule(ctx, minModule)
		if err != nil {
			return nil, fmt.Errorf("compile guest memory module: %w", err)
		}
		b.compiled = compiled
		b.mems = make(map[int]*guestMemory)
	}

	if g, ok := b.mems[index]; ok {
		return g, nil
	}

	mod, err := b.rt.InstantiateModule(ctx, b.compiled,
		wazero.NewModuleConfig().WithName(fmt.Sprintf("guest-mem-%d", index)))
	if err != nil {
		return nil, fmt.Errorf("instantiate guest memory %d: %w", index, err)
	}
	mem := mod.ExportedMemory("memory")
	if mem == nil {
		return nil, fmt.Errorf("guest memory %d: no exported memory", index)
	}
	g := &guestMemory{mod: mod, mem: mem}
	b.mems[index] = g
	return g, nil
}

func init() {
	device.Register(&guestBackend{})
}
