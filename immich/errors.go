package immich

import (
	"errors"
	"fmt"
)

// Common errors returned by the Immich client.
var (
	// ErrMissingConfig indicates the connection is not configured yet.
	// This is a mode, not a failure: callers use it to drive setup flows.
	ErrMissingConfig = errors.New("missing configuration")

	// ErrBadURL indicates the request URL could not be built, usually
	// because the configured base URL is malformed.
	ErrBadURL = errors.New("broken url (possibly wrong configuration)")

	// ErrBadResponse indicates the server reply had no usable HTTP envelope.
	ErrBadResponse = errors.New("bad response")

	// ErrUnauthorized indicates a 401 that survived the one re-auth retry.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnknown is a catch-all for failures outside the taxonomy.
	ErrUnknown = errors.New("unknown error")
)

// StatusError represents a non-401 HTTP error status.
type StatusError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("http error code %d", e.StatusCode)
}

// IsNotFound checks if the error indicates a missing resource.
func (e *StatusError) IsNotFound() bool {
	return e.StatusCode == 404
}

// IsServerError checks if the error came from the server side.
func (e *StatusError) IsServerError() bool {
	return e.StatusCode >= 500
}

// DecodeError represents a structural JSON decoding failure. It keeps the
// offending field path and type expectation so schema drift between Immich
// versions can be diagnosed from the message alone.
type DecodeError struct {
	Field  string
	Detail string
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("unexpected json response: field %q: %s", e.Field, e.Detail)
	}
	return fmt.Sprintf("unexpected json response: %s", e.Detail)
}
