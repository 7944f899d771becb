package handle

import "github.com/wippyai/storage-host/device"

// Event types for handle lifecycle notifications.
type EventType uint8

const (
	EventCreated EventType = iota
	EventWrapped
	EventPreserved
	EventReclaimed
	EventResurrected
	EventDestroyed
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventWrapped:
		return "wrapped"
	case EventPreserved:
		return "preserved"
	case EventReclaimed:
		return "reclaimed"
	case EventResurrected:
		return "resurrected"
	case EventDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Event describes one handle lifecycle transition.
type Event struct {
	Type     EventType
	TypeName string
	Core     uintptr
	Size     uint64
	Device   device.Device
	CoreRefs int64
}

// Observer receives notifications about handle lifecycle events.
type Observer interface {
	OnHandleEvent(Event)
}
