package errors

import (
	"context"
	"errors"
	"net/http"

	"gorm.io/gorm"
)

// Error is an API-facing error carrying the HTTP status it should map to.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

// Map converts repo/infra errors into API errors with an HTTP status.
// Keeps handlers clean by centralizing the mapping.
func Map(err error) *Error {
	if err == nil {
		return nil
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &Error{Status: http.StatusNotFound, Message: "record not found"}

	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Status: http.StatusGatewayTimeout, Message: "request timed out"}

	case errors.Is(err, context.Canceled):
		return &Error{Status: http.StatusRequestTimeout, Message: "request was canceled"}

	default:
		// fallback → bubble up error message for debugging
		return &Error{Status: http.StatusInternalServerError, Message: err.Error()}
	}
}

// InvalidArgument creates a 400 error. Use in services for bad input.
func InvalidArgument(msg string) error {
	return &Error{Status: http.StatusBadRequest, Message: msg}
}

// NotFound creates a 404 error.
func NotFound(msg string) error {
	return &Error{Status: http.StatusNotFound, Message: msg}
}

// Unauthorized creates a 401 error.
func Unauthorized(msg string) error {
	return &Error{Status: http.StatusUnauthorized, Message: msg}
}

// AlreadyExists creates a 409 error.
func AlreadyExists(msg string) error {
	return &Error{Status: http.StatusConflict, Message: msg}
}
