package heretohelp

import (
	"fmt"
	"net/http"
)

// APIError is an application-level error reported by the backend itself,
// carried as an in-band {"Error": ...} payload. Transport-level failures
// (network errors, malformed responses, HTTP error statuses without an
// in-band message) surface as plain wrapped errors instead.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("backend error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend error: %s", e.Message)
}

// AuthFailure reports whether the error was an authentication rejection.
// Auth failures are surfaced separately for operator visibility but are
// handled with the same continue-and-record policy as other failures.
func (e *APIError) AuthFailure() bool {
	return e.StatusCode == http.StatusForbidden
}
