// Package domainerrors provides coded errors for the service layer.
//
// Services construct these directly (validation, permission, not-found) or by
// wrapping infrastructure errors so transport code can translate a code into
// an HTTP status without inspecting error strings.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error.
type Code string

const (
	// CodeValidation marks client-correctable input failures. Errors with
	// this code carry the full list of violated rule messages.
	CodeValidation Code = "validation"

	// CodeUnauthorized marks requests without a valid identity.
	CodeUnauthorized Code = "unauthorized"

	// CodeForbidden marks operations the actor's role does not permit.
	// Deliberately carries no field-level detail.
	CodeForbidden Code = "forbidden"

	// CodeNotFound marks unresolvable entity references. The same code is
	// used for malformed and absent ids so responses do not leak existence.
	CodeNotFound Code = "not_found"

	// CodeConflict marks uniqueness and state-transition conflicts.
	CodeConflict Code = "conflict"

	// CodeBadRequest marks malformed requests caught before rule evaluation.
	CodeBadRequest Code = "bad_request"

	// CodeStorage marks failures of the storage collaborator. Surfaced to
	// callers as a generic retryable error, never with collaborator detail.
	CodeStorage Code = "storage"

	// CodeInvariantViolation marks broken model invariants. These indicate
	// programming errors and map to internal server errors.
	CodeInvariantViolation Code = "invariant_violation"

	// CodeInternal is the fallback for everything else.
	CodeInternal Code = "internal"
)

// Error is a coded domain error. Violations is populated only for
// CodeValidation errors and lists every violated rule message.
type Error struct {
	Code       Code
	Message    string
	Violations []string
	cause      error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error with a human-readable message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// NewValidation creates a validation error carrying every violated rule
// message so a caller can surface all failures in one round trip.
func NewValidation(message string, violations []string) *Error {
	return &Error{Code: CodeValidation, Message: message, Violations: violations}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for
// uncoded errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ViolationsOf returns the violated rule messages carried by err, if any.
func ViolationsOf(err error) []string {
	var de *Error
	if errors.As(err, &de) {
		return de.Violations
	}
	return nil
}

// ToHTTPStatus maps a code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeStorage, CodeInvariantViolation, CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
