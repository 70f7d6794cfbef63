package apperrors

import (
	"errors"
	"net/http"
)

// Error is a request-scoped error carrying the HTTP status it maps to.
// The message is surfaced verbatim to the caller.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Validation reports a bad request (file type, size, request shape).
func Validation(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message}
}

// NotFound reports a missing listing.
func NotFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Message: message}
}

// Forbidden reports a non-owner mutation attempt. The contract fixes
// this to 401, not 403.
func Forbidden(message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: message}
}

// StatusOf extracts the HTTP status for an error; anything that is not
// an *Error maps to 500.
func StatusOf(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// MessageOf returns the caller-facing message for an error. Unhandled
// errors get a generic message so internals never leak.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "Internal Server Error"
}
