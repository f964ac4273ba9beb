package upstream

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a failed upstream call that produced a status or timed out.
type Error struct {
	Endpoint string
	Status   int
	Body     string
	Timeout  bool
	Err      error
}

func (e *Error) Error() string {
	if e.Timeout {
		return fmt.Sprintf("upstream %s: timed out", e.Endpoint)
	}
	if e.Status == 0 {
		return fmt.Sprintf("upstream %s: %v", e.Endpoint, e.Err)
	}
	if e.Body != "" {
		return fmt.Sprintf("upstream %s: status %d: %s", e.Endpoint, e.Status, e.Body)
	}
	return fmt.Sprintf("upstream %s: status %d", e.Endpoint, e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound reports whether the upstream answered 404.
func (e *Error) NotFound() bool { return e.Status == http.StatusNotFound }

// ClientSide reports a 4xx answer other than 404.
func (e *Error) ClientSide() bool {
	return e.Status >= 400 && e.Status < 500 && e.Status != http.StatusNotFound
}

// AsError extracts an *Error from err.
func AsError(err error) (*Error, bool) {
	var ue *Error
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}
