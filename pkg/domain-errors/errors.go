// Package domainerrors provides coded errors for the domain layer.
//
// Services return these so transports can translate outcomes into protocol
// responses without string matching. Infrastructure facts (not found,
// conflict at the store level) use pkg/platform/sentinel instead; services
// translate sentinels into coded errors at the boundary.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for transport mapping and retry policy.
type Code string

const (
	// CodeValidation marks request-shaped input that fails business validation.
	CodeValidation Code = "validation_error"
	// CodeInvalidInput marks malformed primitive input (bad UUID, unknown enum).
	CodeInvalidInput Code = "invalid_input"
	// CodeBadRequest marks structurally broken requests (undecodable body).
	CodeBadRequest Code = "bad_request"
	// CodeUnauthorized marks missing or invalid authentication.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden marks an authenticated actor lacking capability.
	CodeForbidden Code = "forbidden"
	// CodeNotFound marks a missing domain entity.
	CodeNotFound Code = "not_found"
	// CodeConflict marks a state conflict (duplicate name, concurrent update).
	CodeConflict Code = "conflict"
	// CodeInvariantViolation marks an illegal state transition or broken
	// aggregate invariant.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeTimeout marks an operation that exceeded its deadline.
	CodeTimeout Code = "timeout"
	// CodeInternal marks infrastructure failures the caller cannot correct.
	CodeInternal Code = "internal_error"
)

// Error is a coded domain error. It wraps an optional cause so errors.Is and
// errors.As keep working through the chain.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New constructs a coded error with no cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf constructs a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause.
// Wrapping nil returns nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var domainErr *Error
	for errors.As(err, &domainErr) {
		if domainErr.Code == code {
			return true
		}
		err = domainErr.cause
		domainErr = nil
	}
	return false
}

// CodeOf returns the outermost code in the chain, or CodeInternal when the
// error carries no code.
func CodeOf(err error) Code {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeInternal
}

// MessageOf returns the outermost coded message, or empty when uncoded.
func MessageOf(err error) string {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return ""
}
