// Package device maps device descriptors to memory allocators.
//
// A Device names a backend kind plus an index (e.g. guest memory 0). Backends
// register themselves in a process-wide registry; the resolver dispatches a
// construction request (explicit allocator, device, or neither) to the
// allocator that produces buffers resident on that device.
//
// The CPU and meta backends are always registered. Accelerator-style backends
// (device/guest) register themselves from their own package init and may
// initialize lazily on first allocation.
package device
