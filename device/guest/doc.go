// Package guest provides a storage backend whose buffers live in WebAssembly
// linear memory.
//
// It is the reference non-host-addressable device: guestBuffer.Bytes returns
// nil, so every byte access goes through the ReadByte/WriteByte primitives,
// exactly as it would for an accelerator whose memory the host cannot map.
// The backend registers itself for device.Guest on import:
//
//	import _ "github.com/wippyai/storage-host/device/guest"
//
// Each device index gets its own instantiated module. Instantiation happens
// lazily on the first allocation from that index, so importing the package
// costs nothing until a guest device is actually used.
package guest
