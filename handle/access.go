package handle

import (
	storageerrors "github.com/wippyai/storage-host/errors"
	"github.com/wippyai/storage-host/storage"
)

// Length returns the total byte size of the handle's storage.
func Length(rt *Runtime, o *Object) (uint64, error) {
	if o.core == nil {
		return 0, storageerrors.NullStorage()
	}
	return o.core.Size(), nil
}

// GetIndex returns the byte at index. Negative indices count from the end.
func GetIndex(rt *Runtime, o *Object, index int64) (byte, error) {
	if o.core == nil {
		return 0, storageerrors.NullStorage()
	}
	off, err := normIndex(index, o.core.Size())
	if err != nil {
		return 0, err
	}
	return o.core.ReadByte(off)
}

// GetSlice returns a new handle over a zero-copy view of [start, stop). Only
// a step of 1 is supported. Bounds follow slice semantics: negative ends
// count from the end and out-of-range ends clamp. The view shares the
// backing buffer and keeps the parent storage alive for its own lifetime.
func GetSlice(rt *Runtime, o *Object, start, stop, step int64) (*Object, error) {
	if o.core == nil {
		return nil, storageerrors.NullStorage()
	}
	if step != 1 {
		return nil, storageerrors.UnsupportedStep(step)
	}
	lo, n := normRange(start, stop, o.core.Size())
	view := o.core.Slice(lo, n)
	return NewWithStorage(rt, o.typ, view, storage.DefinitelyUninitialized, false)
}

// SetIndex writes one byte at index after validating the value converts to a
// byte. Negative indices count from the end.
func SetIndex(rt *Runtime, o *Object, index int64, value any) error {
	if o.core == nil {
		return storageerrors.NullStorage()
	}
	b, ok := toByte(value)
	if !ok {
		return storageerrors.Wrap(storageerrors.PhaseAccess, storageerrors.KindElementType, nil,
			"can only set storage content with int types")
	}
	off, err := normIndex(index, o.core.Size())
	if err != nil {
		return err
	}
	return o.core.WriteByte(off, b)
}

// SetSlice fills [start, stop) with one byte value. Only a step of 1 is
// supported; bounds are validated once before any write, so a rejected call
// leaves the buffer unmodified.
func SetSlice(rt *Runtime, o *Object, start, stop, step int64, value any) error {
	if o.core == nil {
		return storageerrors.NullStorage()
	}
	b, ok := toByte(value)
	if !ok {
		return storageerrors.Wrap(storageerrors.PhaseAccess, storageerrors.KindElementType, nil,
			"can only set storage content with int types")
	}
	if step != 1 {
		return storageerrors.UnsupportedStep(step)
	}
	lo, n := normRange(start, stop, o.core.Size())
	for i := uint64(0); i < n; i++ {
		if err := o.core.WriteByte(lo+i, b); err != nil {
			return err
		}
	}
	return nil
}

// normIndex wraps a possibly-negative index and bounds-checks it. The error
// reports the wrapped index, matching how callers see it after adjustment.
func normIndex(index int64, size uint64) (uint64, error) {
	if index < 0 {
		index += int64(size)
	}
	if index < 0 || index >= int64(size) {
		return 0, storageerrors.IndexOutOfRange(index, size)
	}
	return uint64(index), nil
}

// normRange applies slice semantics for a step of 1: negative ends wrap,
// out-of-range ends clamp, and an inverted range is empty.
func normRange(start, stop int64, size uint64) (lo uint64, n uint64) {
	length := int64(size)
	if start < 0 {
		start += length
	}
	if stop < 0 {
		stop += length
	}
	if start < 0 {
		start = 0
	}
	if start > length {
		start = length
	}
	if stop < 0 {
		stop = 0
	}
	if stop > length {
		stop = length
	}
	if stop < start {
		stop = start
	}
	return uint64(start), uint64(stop - start)
}
