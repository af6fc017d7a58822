package client

import (
	"fmt"
	"net/http"

	"github.com/nixixoo/Notex/internal/common"
)

// APIError carries the HTTP status and the server-provided message of a
// failed request. It unwraps to one of the common sentinel errors so that
// callers can classify it with errors.Is.
type APIError struct {
	Status  int
	Message string

	sentinel error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error %d", e.Status)
}

func (e *APIError) Unwrap() error { return e.sentinel }

// newAPIError maps an HTTP status onto the error taxonomy.
func newAPIError(status int, message string) *APIError {
	var sentinel error
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		sentinel = common.ErrUnauthorized
	case status == http.StatusNotFound:
		sentinel = common.ErrNotFound
	case status >= 400 && status < 500:
		sentinel = common.ErrValidation
	default:
		sentinel = common.ErrUnavailable
	}
	return &APIError{Status: status, Message: message, sentinel: sentinel}
}
