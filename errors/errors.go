package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in the storage lifecycle the error occurred
type Phase string

const (
	PhaseConstruct Phase = "construct" // storage construction
	PhaseWrap      Phase = "wrap"      // identity resolution
	PhaseTeardown  Phase = "teardown"  // handle destruction
	PhaseAccess    Phase = "access"    // indexed byte access
	PhaseDevice    Phase = "device"    // allocator resolution
	PhaseInit      Phase = "init"      // module registration
)

// Kind categorizes the error
type Kind string

const (
	KindAbstractType         Kind = "abstract_type"
	KindConflictingArguments Kind = "conflicting_arguments"
	KindUnsupportedDevice    Kind = "unsupported_device"
	KindTypeMismatch         Kind = "type_mismatch"
	KindIdentityConflict     Kind = "identity_conflict"
	KindNullStorage          Kind = "null_storage"
	KindIndexOutOfRange      Kind = "index_out_of_range"
	KindUnsupportedStep      Kind = "unsupported_step"
	KindElementType          Kind = "element_type"
	KindAllocation           Kind = "allocation"
	KindNotInitialized       Kind = "not_initialized"
)

// Error is the structured error type used throughout the library
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Type   string
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Type != "" {
		b.WriteString(": type ")
		b.WriteString(e.Type)
	}

	if e.Detail != "" {
		if e.Type != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. A target with an empty Phase
// matches on Kind alone, so callers can compare against the Kind prototypes
// below with errors.Is.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		if t.Phase == "" {
			return e.Kind == t.Kind
		}
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Kind prototypes for errors.Is matching.
var (
	ErrAbstractType         = &Error{Kind: KindAbstractType}
	ErrConflictingArguments = &Error{Kind: KindConflictingArguments}
	ErrUnsupportedDevice    = &Error{Kind: KindUnsupportedDevice}
	ErrTypeMismatch         = &Error{Kind: KindTypeMismatch}
	ErrIdentityConflict     = &Error{Kind: KindIdentityConflict}
	ErrNullStorage          = &Error{Kind: KindNullStorage}
	ErrIndexOutOfRange      = &Error{Kind: KindIndexOutOfRange}
	ErrUnsupportedStep      = &Error{Kind: KindUnsupportedStep}
	ErrElementType          = &Error{Kind: KindElementType}
	ErrAllocation           = &Error{Kind: KindAllocation}
	ErrNotInitialized       = &Error{Kind: KindNotInitialized}
)

// Convenience constructors for common error patterns

// AbstractType reports direct instantiation of the non-instantiable base type
func AbstractType(typeName string) *Error {
	return &Error{
		Phase:  PhaseConstruct,
		Kind:   KindAbstractType,
		Type:   typeName,
		Detail: "cannot directly construct the storage base type; subclass it and construct that",
	}
}

// ConflictingArguments reports mutually exclusive construction parameters
func ConflictingArguments(a, b string) *Error {
	return &Error{
		Phase:  PhaseConstruct,
		Kind:   KindConflictingArguments,
		Detail: fmt.Sprintf("only one or neither of %q or %q can be given, but not both", a, b),
	}
}

// UnsupportedDevice reports a device kind with no known allocator
func UnsupportedDevice(kind string) *Error {
	return &Error{
		Phase:  PhaseDevice,
		Kind:   KindUnsupportedDevice,
		Detail: fmt.Sprintf("storage device not recognized: %s", kind),
		Value:  kind,
	}
}

// TypeMismatch reports an incompatible preexisting identity type
func TypeMismatch(requested, actual string) *Error {
	return &Error{
		Phase: PhaseWrap,
		Kind:  KindTypeMismatch,
		Type:  requested,
		Detail: fmt.Sprintf(
			"storage is already associated to a host object of type %s which is not a subtype of the requested type", actual),
	}
}

// IdentityConflict reports a lost identity-publication race with reuse disallowed
func IdentityConflict(requested, existing string) *Error {
	return &Error{
		Phase: PhaseWrap,
		Kind:  KindIdentityConflict,
		Type:  requested,
		Detail: fmt.Sprintf(
			"raw storage is already associated to a host object of type %s", existing),
	}
}

// NullStorage reports an operation on a handle with no native storage
func NullStorage() *Error {
	return &Error{
		Phase:  PhaseAccess,
		Kind:   KindNullStorage,
		Detail: "got a null storage",
	}
}

// IndexOutOfRange reports an out-of-bounds byte index
func IndexOutOfRange(index int64, size uint64) *Error {
	return &Error{
		Phase:  PhaseAccess,
		Kind:   KindIndexOutOfRange,
		Detail: fmt.Sprintf("index %d out of range for storage of size %d", index, size),
		Value:  index,
	}
}

// UnsupportedStep reports a slice step other than 1
func UnsupportedStep(step int64) *Error {
	return &Error{
		Phase:  PhaseAccess,
		Kind:   KindUnsupportedStep,
		Detail: fmt.Sprintf("trying to slice with a step of %d, but only a step of 1 is supported", step),
		Value:  step,
	}
}

// ElementType reports a sequence element that cannot convert to a byte
func ElementType(index int, value any) *Error {
	return &Error{
		Phase:  PhaseConstruct,
		Kind:   KindElementType,
		Detail: fmt.Sprintf("element %d was of type %T instead of int", index, value),
		Value:  value,
	}
}

// Allocation reports a failed buffer allocation
func Allocation(n uint64, cause error) *Error {
	return &Error{
		Phase:  PhaseDevice,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes", n),
		Cause:  cause,
	}
}

// NotInitialized reports a missing component at post-init
func NotInitialized(what string) *Error {
	return &Error{
		Phase:  PhaseInit,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", what),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
