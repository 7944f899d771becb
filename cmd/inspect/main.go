package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/storage-host/device"
	_ "github.com/wippyai/storage-host/device/guest"
	"github.com/wippyai/storage-host/handle"
)

func main() {
	var (
		devName     = flag.String("device", "cpu", "Device backend to exercise (cpu, guest, meta)")
		size        = flag.Uint64("size", 16, "Byte size for the demo storages")
		hermetic    = flag.Bool("hermetic", false, "Disable identity deduplication")
		verbose     = flag.Bool("v", false, "Verbose runtime logging")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	dev, err := parseDevice(*devName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		log, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		handle.SetLogger(log)
		defer log.Sync()
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode requires a terminal")
			os.Exit(1)
		}
		if err := runInteractive(dev, *size, *hermetic); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(dev, *size, *hermetic); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parseDevice(name string) (device.Device, error) {
	switch name {
	case "cpu":
		return device.CPU0, nil
	case "guest":
		return device.Device{Kind: device.Guest}, nil
	case "meta":
		return device.Device{Kind: device.Meta}, nil
	}
	return device.Device{}, fmt.Errorf("unknown device %q (want cpu, guest, or meta)", name)
}

// printObserver logs every handle lifecycle event to stdout.
type printObserver struct{}

func (printObserver) OnHandleEvent(e handle.Event) {
	fmt.Printf("  [%s] type=%s core=0x%x size=%d device=%s refs=%d\n",
		e.Type, e.TypeName, e.Core, e.Size, e.Device, e.CoreRefs)
}

func run(dev device.Device, size uint64, hermetic bool) error {
	rt, err := newRuntime(hermetic)
	if err != nil {
		return err
	}
	rt.Subscribe(printObserver{})

	fmt.Printf("Storage handle runtime (hermetic=%v, device=%s)\n", hermetic, dev)

	w := newWorkload(rt, dev, size, os.Stdout)
	for _, s := range w.steps() {
		fmt.Printf("\n%s\n", s.name)
		if err := s.fn(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}

	fmt.Printf("\nDone. Live handles tracked: %d\n", rt.TrackedCount())
	return nil
}

func newRuntime(hermetic bool) (*handle.Runtime, error) {
	rt := handle.NewRuntime(handle.Config{Hermetic: hermetic})
	if err := handle.Init(rt); err != nil {
		return nil, err
	}
	if _, err := handle.RegisterDefaultStorage(rt); err != nil {
		return nil, err
	}
	if err := handle.PostInit(rt); err != nil {
		return nil, err
	}
	return rt, nil
}
