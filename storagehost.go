package storagehost

// Buffer is a region of device-resident memory.
//
// Bytes returns the host-addressable backing slice, or nil when the memory
// lives on a device the host cannot address directly (guest linear memory,
// virtual devices). All byte access must then go through ReadByte/WriteByte.
type Buffer interface {
	// Bytes returns the backing slice, or nil for non-host-addressable memory.
	Bytes() []byte

	// Len returns the buffer size in bytes.
	Len() uint64

	// ReadByte reads one byte at off.
	ReadByte(off uint64) (byte, error)

	// WriteByte writes one byte at off.
	WriteByte(off uint64, value byte) error

	// Release returns the memory to its allocator. The buffer is invalid
	// afterwards.
	Release()
}

// Allocator produces device-resident buffers.
type Allocator interface {
	// Allocate returns a zeroed buffer of n bytes.
	Allocate(n uint64) (Buffer, error)
}
