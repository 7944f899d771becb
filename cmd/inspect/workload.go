package main

import (
	"fmt"
	"io"

	"github.com/wippyai/storage-host/device"
	"github.com/wippyai/storage-host/handle"
	"github.com/wippyai/storage-host/storage"
)

// workload is a scripted tour of the handle lifecycle: construction, slicing,
// identity-deduplicated wrapping, preservation, and reclamation. The same
// steps back both the plain runner and the TUI.
type workload struct {
	rt   *handle.Runtime
	dev  device.Device
	size uint64
	out  io.Writer

	sized   *handle.Object
	view    *handle.Object
	core    *storage.Core
	wrapped *handle.Object
}

type step struct {
	name string
	fn   func() error
}

func newWorkload(rt *handle.Runtime, dev device.Device, size uint64, out io.Writer) *workload {
	return &workload{rt: rt, dev: dev, size: size, out: out}
}

func (w *workload) steps() []step {
	return []step{
		{"Construct a sized storage", w.construct},
		{"Slice a zero-copy view", w.slice},
		{"Wrap one native storage twice", w.wrapTwice},
		{"Drop the handle while the native side holds on", w.preserve},
		{"Reclaim the preserved handle", w.reclaim},
		{"Release everything", w.teardown},
	}
}

func (w *workload) construct() error {
	opts := []handle.Option{handle.WithDevice(w.dev), handle.WithSize(w.size)}
	obj, err := handle.NewStorage(w.rt, w.rt.CanonicalType(), opts...)
	if err != nil {
		return err
	}
	w.sized = obj

	if w.dev.Kind != device.Meta {
		for i := uint64(0); i < w.size; i++ {
			if err := handle.SetIndex(w.rt, obj, int64(i), int(i)); err != nil {
				return err
			}
		}
	}
	n, err := handle.Length(w.rt, obj)
	if err != nil {
		return err
	}
	fmt.Fprintf(w.out, "  constructed %d bytes on %s\n", n, w.dev)
	return nil
}

func (w *workload) slice() error {
	view, err := handle.GetSlice(w.rt, w.sized, 1, -1, 1)
	if err != nil {
		return err
	}
	w.view = view
	n, err := handle.Length(w.rt, view)
	if err != nil {
		return err
	}
	fmt.Fprintf(w.out, "  view of %d bytes shares the parent buffer\n", n)
	if w.dev.Kind != device.Meta && n > 0 {
		b, err := handle.GetIndex(w.rt, view, 0)
		if err != nil {
			return err
		}
		fmt.Fprintf(w.out, "  view[0] = %d (parent[1])\n", b)
	}
	return nil
}

func (w *workload) wrapTwice() error {
	alloc, dev, err := device.Resolve(nil, &w.dev)
	if err != nil {
		return err
	}
	core, err := storage.New(w.size, dev, alloc, true)
	if err != nil {
		return err
	}
	// Keep one native reference for the coming preservation demo.
	w.core = core.Retain()

	first, err := handle.Wrap(w.rt, core)
	if err != nil {
		return err
	}
	w.wrapped = first

	core.Retain()
	second, err := handle.Wrap(w.rt, core)
	if err != nil {
		return err
	}
	if second != first {
		second.Release()
		return fmt.Errorf("expected both wraps to resolve to one handle")
	}
	second.Release()
	fmt.Fprintf(w.out, "  both wraps resolved to one handle (host refs=%d, native refs=%d)\n",
		first.Refs(), core.UseCount())
	return nil
}

func (w *workload) preserve() error {
	before := w.core.UseCount()
	w.wrapped.Release()
	w.wrapped = nil
	fmt.Fprintf(w.out, "  handle parked on the native side (native refs %d -> %d)\n",
		before, w.core.UseCount())
	return nil
}

func (w *workload) reclaim() error {
	w.core.Retain()
	obj, err := handle.Wrap(w.rt, w.core)
	if err != nil {
		return err
	}
	w.wrapped = obj
	fmt.Fprintf(w.out, "  wrap returned the parked handle (host refs=%d)\n", obj.Refs())
	return nil
}

func (w *workload) teardown() error {
	if w.wrapped != nil {
		w.wrapped.Release()
		w.wrapped = nil
	}
	if w.core != nil {
		w.core.Release()
		w.core = nil
	}
	if w.view != nil {
		w.view.Release()
		w.view = nil
	}
	if w.sized != nil {
		w.sized.Release()
		w.sized = nil
	}
	return nil
}
