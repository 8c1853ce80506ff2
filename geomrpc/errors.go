package geomrpc

import "errors"

// ErrInvalidInput is a sentinel for use with errors.Is to check whether
// any error in a chain is an *InvalidInputError.
var ErrInvalidInput = &InvalidInputError{}

// InvalidInputError reports a negative numeric argument to a geometry
// operation.
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string {
	return e.Message
}

// Is supports errors.Is by matching any *InvalidInputError target.
func (e *InvalidInputError) Is(target error) bool {
	_, ok := target.(*InvalidInputError)
	return ok
}

// ProtocolError reports a malformed or unsupported request on the wire
// transport.
type ProtocolError struct {
	Message string
}

func (e *ProtocolError) Error() string {
	return e.Message
}

// Is supports errors.Is by matching any *ProtocolError target.
func (e *ProtocolError) Is(target error) bool {
	_, ok := target.(*ProtocolError)
	return ok
}

// ErrorCode is the boundary surface's error taxonomy. It is produced at
// the translation edge (Boundary methods, wire error batches) and never
// stored.
type ErrorCode int32

const (
	// CodeSuccess reports a completed operation.
	CodeSuccess ErrorCode = iota
	// CodeNegativeInput reports a negative numeric argument.
	CodeNegativeInput
	// CodeOther reports any unexpected internal fault.
	CodeOther
)

// String returns a short token for the code, for diagnostics.
func (c ErrorCode) String() string {
	switch c {
	case CodeSuccess:
		return "success"
	case CodeNegativeInput:
		return "negative_input"
	case CodeOther:
		return "other"
	default:
		return "unknown"
	}
}

// ErrorCodeFor maps an internal error into the boundary taxonomy.
// Unknown faults default to CodeOther.
func ErrorCodeFor(err error) ErrorCode {
	if err == nil {
		return CodeSuccess
	}
	if errors.Is(err, ErrInvalidInput) {
		return CodeNegativeInput
	}
	return CodeOther
}
