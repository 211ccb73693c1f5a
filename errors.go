package mcp

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoEndpoint is returned when a request is attempted before the server has
// announced its message endpoint on the event stream.
var ErrNoEndpoint = errors.New("no message endpoint discovered")

// ErrClientClosed is returned when an operation is attempted on a closed client.
var ErrClientClosed = errors.New("client is closed")

// ConnectionTimeoutError indicates that no endpoint frame arrived on the event
// stream within the connect window. The session is unusable; callers may retry
// Connect or give up.
type ConnectionTimeoutError struct {
	URL     string
	Timeout time.Duration
}

func (e *ConnectionTimeoutError) Error() string {
	return fmt.Sprintf("no endpoint received from %s within %s", e.URL, e.Timeout)
}

// RequestTimeoutError indicates that a specific request got no matching response
// in time. The request may be retried; the session itself is still usable.
type RequestTimeoutError struct {
	Method  string
	ID      RequestID
	Timeout time.Duration
}

func (e *RequestTimeoutError) Error() string {
	return fmt.Sprintf("timed out waiting for response to %s (id %d) after %s", e.Method, e.ID, e.Timeout)
}

// TransportError indicates that an outbound POST failed at the HTTP layer,
// either with a transport-level error or a non-2xx status.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("post to %s failed: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("post to %s failed: unexpected status code %d", e.URL, e.StatusCode)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
