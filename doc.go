// Package storagehost provides a reference-counted byte storage abstraction
// shared between Go native code and an embedded managed object runtime.
//
// A storage core is a refcounted buffer descriptor (size, device, allocator,
// raw data with a custom deleter). Host handles are the managed-runtime-visible
// wrappers around cores. The library guarantees at most one live host handle
// per core, transfers ownership safely in both directions across the boundary,
// and survives finalizer resurrection during teardown.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	storagehost/         Root package with core Buffer and Allocator interfaces
//	├── device/          Device descriptors, backend registry, allocator resolver
//	├── device/guest/    WebAssembly linear-memory backend (wazero), the
//	│                    reference non-host-addressable device
//	├── storage/         Storage cores: intrusive refcounts, slicing, identity slots
//	├── handle/          Host handle object system and lifecycle manager
//	├── errors/          Structured error types for debugging
//	└── cmd/inspect/     Interactive TUI for watching live cores and handles
//
// # Quick Start
//
// Create a runtime, construct a storage, and access it:
//
//	rt := handle.NewRuntime(handle.Config{})
//	if err := handle.Init(rt); err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := handle.RegisterDefaultStorage(rt); err != nil {
//	    log.Fatal(err)
//	}
//	if err := handle.PostInit(rt); err != nil {
//	    log.Fatal(err)
//	}
//
//	obj, err := handle.NewStorage(rt, rt.CanonicalType(), handle.FromSequence(1, 2, 3))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	b, _ := handle.GetIndex(rt, obj, -1) // 3
//
// # Ownership Model
//
// Every handle-to-core link is tagged Owned or Borrowed. An owned link keeps
// the core alive; a borrowed link is a non-owning alias valid only while some
// other owner exists. The core's identity slot records the inverse direction:
// whether the native side is keeping the host object alive. Wrap and the
// teardown protocol move links between these states without ever duplicating
// a host identity.
//
// # Thread Safety
//
// Core refcounts are atomic and may be shared with worker goroutines doing
// device compute. The lifecycle protocols (wrap, teardown, identity slots)
// assume exclusive access to the owning Runtime, mirroring a managed
// runtime's interpreter lock; see handle.Runtime for the confinement
// contract. Direct concurrent byte writes through
// one buffer are the caller's responsibility to synchronize.
//
// # Device Memory
//
// Buffers on the default CPU backend are host-addressable byte slices. Guest
// and other accelerator-style backends return buffers whose Bytes() is nil;
// all access goes through ReadByte/WriteByte primitives. Virtual (meta)
// devices carry sizes but no data.
package storagehost
