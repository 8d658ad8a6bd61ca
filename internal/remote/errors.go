package remote

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is returned when the server rejects the credential.
// It must never be retried as a plain network failure; the session layer
// has to re-authenticate first.
var ErrUnauthorized = errors.New("unauthorized")

// TransportError wraps connectivity and decoding failures. Recoverable by
// retry; the local cache stays valid.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError is a non-401 HTTP error response.
type StatusError struct {
	Op   string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: server returned status %d", e.Op, e.Code)
}
