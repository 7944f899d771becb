// Package errors provides structured error types for the storage-host library.
//
// Errors are categorized by Phase (where in the storage lifecycle the error
// occurred) and Kind (error category). The Error type carries the offending
// value, the host type name involved, and a cause chain.
//
// Use convenience constructors for common patterns:
//
//	err := errors.IndexOutOfRange(12, 8)
//	err := errors.ConflictingArguments("allocator", "device")
//
// Match against Kind prototypes with errors.Is:
//
//	if errors.Is(err, storageerrors.ErrIndexOutOfRange) { ... }
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
