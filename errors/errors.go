package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is the API error type carried from the service layer to handlers.
type Error struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

var (
	ErrBadRequest          = New("bad request", http.StatusBadRequest)
	ErrUnauthorized        = New("unauthorized", http.StatusUnauthorized)
	ErrForbidden           = New("forbidden", http.StatusForbidden)
	ErrNotFound            = New("not found", http.StatusNotFound)
	ErrConflict            = New("conflict", http.StatusConflict)
	ErrInternalServerError = New("internal server error", http.StatusInternalServerError)
)

// New creates a new Error with the given message and status code
func New(message string, status int) *Error {
	return &Error{
		Message: message,
		Status:  status,
	}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// Is matches errors by status so wrapped sentinels compare correctly
func (e *Error) Is(target error) bool {
	var apiErr *Error
	if !errors.As(target, &apiErr) {
		return false
	}
	return e.Status == apiErr.Status
}

// StatusOf extracts the HTTP status from err, defaulting to 500
// for anything that is not an *Error.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return http.StatusInternalServerError
}
