package api

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized covers rejected credentials and 401 responses that
	// survived the refresh-and-retry path. When a caller sees it, the
	// stored session has already been cleared.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnavailable is a transport-level failure: connection refused,
	// DNS error, broken response body.
	ErrUnavailable = errors.New("server unavailable")

	// ErrTimeout means the request exceeded its deadline. Kept distinct
	// from ErrUnavailable so callers can tell a slow server from a dead one.
	ErrTimeout = errors.New("request timeout")

	// ErrValidation marks client-side validation failures; no request was
	// sent to the server.
	ErrValidation = errors.New("validation error")
)

// ServerError is a non-2xx response carrying a structured error body.
// Message is whatever the backend put in its "error" (or "message") field
// and is surfaced to the user verbatim.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server error (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server error (%d)", e.Status)
}
