// Package storage implements reference-counted storage cores.
//
// A Core describes one buffer: size, device, allocator, resizability, and the
// data with its deleter. Cores carry an intrusive atomic reference count so
// they can be shared with worker goroutines doing device compute. Slicing
// produces a zero-copy view whose deleter keeps the parent core alive for as
// long as the view exists.
//
// Each core also carries an identity slot: the at-most-one host object
// associated with it across the managed-runtime boundary, plus the direction
// of ownership between the two. The slot is plain state; the handle package
// mutates it under the runtime's exclusivity guarantee.
package storage
