// Package common defines shared constants and sentinel errors used across
// the Notex client layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// ErrNotFound means the requested item does not exist in the active
	// backing store. It is an expected outcome, not a failure.
	ErrNotFound = errors.New("not found")

	// ErrUnauthenticated means a data operation was attempted while the
	// session has no active mode (neither guest nor authenticated).
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrUnauthorized is an explicit 401/403 rejection from the API.
	// This is the only error class that may force a session reset.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnavailable covers connectivity failures, timeouts and 5xx
	// responses. Eligible for bounded retry; never drops the session.
	ErrUnavailable = errors.New("server unavailable")

	// ErrValidation is a non-auth 4xx rejection. The server message is
	// surfaced verbatim and the request is never retried.
	ErrValidation = errors.New("validation error")
)
