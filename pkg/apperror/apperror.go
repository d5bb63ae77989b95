package apperror

import (
	"errors"
	"fmt"
)

// Error is a stable, machine-readable error kind plus a human-readable reason.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

// New creates an error with the given stable code and message
func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an error with the given stable code and formatted message
func Newf(code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Common billing error kinds
var (
	ErrNoApplicableTariff     = New("NO_APPLICABLE_TARIFF", "No tariff version is effective for the requested period")
	ErrInvalidReading         = New("INVALID_READING", "Current reading is lower than the previous reading")
	ErrIllegalTransition      = New("ILLEGAL_TRANSITION", "Requested bill status transition is not allowed")
	ErrPermissionDenied       = New("PERMISSION_DENIED", "Actor does not hold the required capability")
	ErrNotFound               = New("NOT_FOUND", "Resource not found")
	ErrConsistencyViolation   = New("CONSISTENCY_VIOLATION", "Recycle bin entry and source row are out of sync")
	ErrConcurrentModification = New("CONCURRENT_MODIFICATION", "Resource was modified by another process")
)

// CodeOf returns the stable code carried by err, unwrapping as needed.
// Returns "INTERNAL" for errors without a code.
func CodeOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return "INTERNAL"
}

// Is reports whether err carries the same code as target
func Is(err error, target *Error) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == target.Code
	}
	return false
}
