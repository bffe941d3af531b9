// internal/gateway/errors.go
package gateway

import "fmt"

// NetworkError indicates a transport-level failure (connection refused,
// DNS, timeout) talking to the marketplace backend
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ServerError indicates the marketplace backend answered with a non-2xx
// status
type ServerError struct {
	Op         string
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error during %s: status %d", e.Op, e.StatusCode)
}

// DecodeError indicates the marketplace backend answered 2xx but the
// body could not be decoded
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed response during %s: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
