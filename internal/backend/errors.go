package backend

import (
	"errors"
	"fmt"
)

// ErrUnexpectedResponse is returned when a response body cannot be decoded.
var ErrUnexpectedResponse = errors.New("unexpected backend response")

// APIError is an application-level rejection from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend rejected request: status %d", e.Status)
	}
	return fmt.Sprintf("backend rejected request: status %d: %s", e.Status, e.Message)
}

// AsAPIError returns the APIError wrapped in err, if any.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
