package device

import "fmt"

// Kind identifies the kind of memory a backend manages.
type Kind uint8

const (
	CPU Kind = iota
	Guest
	Meta
)

func (k Kind) String() string {
	switch k {
	case CPU:
		return "cpu"
	case Guest:
		return "guest"
	case Meta:
		return "meta"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Device identifies a specific device (e.g. guest memory 0).
type Device struct {
	Kind  Kind
	Index int
}

func (d Device) String() string {
	return fmt.Sprintf("%s:%d", d.Kind, d.Index)
}

// CPU0 is the default CPU device.
var CPU0 = Device{Kind: CPU, Index: 0}
