package api

import (
	"errors"
	"fmt"
)

// ErrInvalidURL indicates the client was constructed with an unusable
// base URL. Construction is the only place this can surface.
var ErrInvalidURL = errors.New("invalid usage API URL")

// HTTPError is a non-2xx response from the usage API.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("usage request failed (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("usage request failed (status %d)", e.StatusCode)
}

// NetworkError wraps a transport-level failure.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("usage request failed: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DecodeError wraps a failure to parse the usage response body.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to parse usage response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
