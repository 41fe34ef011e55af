package canvas

import (
	"fmt"
	"time"
)

// ErrStatus indicates Canvas answered with a non-2xx status.
type ErrStatus struct {
	StatusCode int
	Body       string

	// RetryAfter is the server's requested wait for 429/503, if any.
	RetryAfter time.Duration
}

func (e *ErrStatus) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("canvas: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("canvas: HTTP %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether the request may succeed if retried.
func (e *ErrStatus) Temporary() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// ErrUnavailable indicates Canvas could not be reached.
type ErrUnavailable struct {
	Err error
}

func (e *ErrUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("canvas unavailable: %v", e.Err)
	}
	return "canvas unavailable"
}

func (e *ErrUnavailable) Unwrap() error { return e.Err }
