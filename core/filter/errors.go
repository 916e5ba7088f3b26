package filter

import (
	"errors"
	"fmt"
)

// Validation and compilation failures. Every error returned by this package
// wraps exactly one of them inside a *FieldError.
var (
	ErrUnknownField     = errors.New("unknown field")
	ErrArity            = errors.New("wrong number of entries")
	ErrOperatorMismatch = errors.New("operator not permitted")
	ErrTypeMismatch     = errors.New("value type mismatch")
	ErrValueAssignment  = errors.New("invalid value assignment")
	ErrUserValidation   = errors.New("user validation failed")
	ErrMalformedGroup   = errors.New("malformed entry group")
)

// FieldError reports a failure attributed to a single filter field.
type FieldError struct {
	Field  string
	Err    error  // one of the package sentinels
	Reason string // human readable detail
	Cause  error  // underlying error, e.g. from a user validator
}

func (e *FieldError) Error() string {
	msg := fmt.Sprintf("filter field %q: %v", e.Field, e.Err)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes both the sentinel and the cause to errors.Is and errors.As.
func (e *FieldError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func newFieldError(field string, sentinel error, format string, args ...any) *FieldError {
	return &FieldError{Field: field, Err: sentinel, Reason: fmt.Sprintf(format, args...)}
}
