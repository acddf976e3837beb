package apiclient

import (
	"errors"
	"fmt"
	"strings"
)

// Kind tells reads apart from writes in HTTPError.
type Kind string

const (
	KindFetching Kind = "fetching"
	KindMutation Kind = "mutation"
)

// NetworkError means the request never produced an HTTP response: the API
// was unreachable, the connection dropped or the call timed out.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("villa api: %s: network: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError is a response with a 4xx or 5xx status.
type HTTPError struct {
	Op       string
	Status   int
	Kind     Kind
	Details  string
	Messages []string
}

func (e *HTTPError) Error() string {
	msg := e.Details
	if len(e.Messages) > 0 {
		msg = strings.Join(e.Messages, "; ")
	}
	return fmt.Sprintf("villa api: %s: status %d: %s", e.Op, e.Status, msg)
}

// IsNetwork reports whether err carries a NetworkError.
func IsNetwork(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// StatusOf returns the HTTP status carried by err, if any.
func StatusOf(err error) (int, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status, true
	}
	return 0, false
}
