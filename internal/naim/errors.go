package naim

import "fmt"

// UnreachableError indicates a network-level failure: connection refused,
// dial timeout, or a request cancelled by its deadline.
type UnreachableError struct {
	Endpoint string
	Err      error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("naim device unreachable: %s: %v", e.Endpoint, e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// MalformedResponseError indicates the device answered with a body that is
// not JSON or is missing the expected shape.
type MalformedResponseError struct {
	Endpoint string
	Err      error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("naim malformed response: %s: %v", e.Endpoint, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// RejectedError indicates the device refused an operation with HTTP 4xx/5xx,
// e.g. a transport command unsupported by the active source.
type RejectedError struct {
	Endpoint   string
	StatusCode int
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("naim rejected request: %s: http %d", e.Endpoint, e.StatusCode)
}
