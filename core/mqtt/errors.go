package mqtt

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned by session operations attempted without a live connection.
	ErrNotConnected = errors.New("mqtt: session not connected")
	// ErrConnectTimeout is returned when the broker does not answer CONNECT in time.
	ErrConnectTimeout = errors.New("mqtt: connect timed out")
	// ErrPublishTimeout is returned when a publish is not flushed in time.
	ErrPublishTimeout = errors.New("mqtt: publish timed out")
	// ErrInvalidSettings wraps every Settings.Validate failure.
	ErrInvalidSettings = errors.New("mqtt: invalid settings")
)

// ConnectError carries the broker CONNACK return code of a rejected
// connection attempt. Code is zero when the attempt failed before the broker
// answered (DNS, TCP, timeout).
type ConnectError struct {
	Code byte
	Err  error
}

func (e *ConnectError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("mqtt: connect refused (code %d)", e.Code)
	}
	return fmt.Sprintf("mqtt: connect failed (code %d): %v", e.Code, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// FailureCode extracts the broker failure code from err, or -1 when err does
// not come from a connection attempt.
func FailureCode(err error) int {
	var ce *ConnectError
	if errors.As(err, &ce) {
		return int(ce.Code)
	}
	return -1
}
