package engine

import (
	"fmt"
	"net/http"

	"github.com/containerd/errdefs"
)

// APIError is a non-2xx answer from the engine. It unwraps to the errdefs
// class matching its HTTP status so callers can test with errdefs.IsNotFound
// and friends.
type APIError struct {
	Status  int
	Message string
	Reason  string
}

func (e *APIError) Error() string {
	if e.Reason != "" && e.Reason != e.Message {
		return fmt.Sprintf("engine API error: %s: %s", e.Message, e.Reason)
	}
	return fmt.Sprintf("engine API error: %s", e.Message)
}

// Unwrap returns the errdefs class for the status code.
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusNotFound:
		return errdefs.ErrNotFound
	case e.Status == http.StatusConflict:
		return errdefs.ErrConflict
	case e.Status == http.StatusBadRequest:
		return errdefs.ErrInvalidArgument
	case e.Status == http.StatusUnauthorized:
		return errdefs.ErrUnauthenticated
	case e.Status == http.StatusForbidden:
		return errdefs.ErrPermissionDenied
	case e.Status == http.StatusNotImplemented:
		return errdefs.ErrNotImplemented
	case e.Status == http.StatusServiceUnavailable:
		return errdefs.ErrUnavailable
	case e.Status >= 500:
		return errdefs.ErrInternal
	default:
		return errdefs.ErrUnknown
	}
}
