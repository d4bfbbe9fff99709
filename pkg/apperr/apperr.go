package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// This type represents a failure with an http-like severity, so the boundary
// layer can map it to a response code without inspecting the message.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func New(status int, format string, args ...any) *Error {
	return &Error{Status: status, Message: fmt.Sprintf(format, args...)}
}

// An unknown application, platform or asset.
func NotFound(format string, args ...any) *Error {
	return New(http.StatusNotFound, format, args...)
}

// A private repository without a usable credential.
func Unauthorized(format string, args ...any) *Error {
	return New(http.StatusUnauthorized, format, args...)
}

// An upstream api call that failed or returned unusable data.
func Upstream(format string, args ...any) *Error {
	return New(http.StatusInternalServerError, format, args...)
}

// Malformed client input, like an invalid version string.
func Invalid(format string, args ...any) *Error {
	return New(http.StatusBadRequest, format, args...)
}

// Upstream content that is present but unusable, like a RELEASES manifest
// without any package references.
func ContentInvalid(format string, args ...any) *Error {
	return New(http.StatusUnprocessableEntity, format, args...)
}

// Gets the status for the given error, defaulting to 500 for errors that
// carry no status.
func StatusOf(err error) int {
	var appError *Error
	if errors.As(err, &appError) {
		return appError.Status
	}
	return http.StatusInternalServerError
}

// Checks if the error carries the given status.
func HasStatus(err error, status int) bool {
	return StatusOf(err) == status
}
