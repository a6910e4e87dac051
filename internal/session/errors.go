package session

import (
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
)

// ErrNotConnected is returned when a command is sent without a connection.
var ErrNotConnected = errors.New("not connected")

// TransportError describes a failure of the connection to the controller.
type TransportError struct {
	// Op is the failed operation: "dial", "read" or "write".
	Op string
	// Addr is the controller URL.
	Addr string
	Err  error
	// Retryable is false for failures a reconnect cannot fix, such as a
	// rejected handshake.
	Retryable bool
}

// Error implements the error interface
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *TransportError) Unwrap() error {
	return e.Err
}

// newTransportError wraps err and decides whether retrying makes sense.
func newTransportError(op, addr string, err error) *TransportError {
	return &TransportError{
		Op:        op,
		Addr:      addr,
		Err:       err,
		Retryable: !errors.Is(err, websocket.ErrBadHandshake),
	}
}

// IsRetryable reports whether err is a transport failure worth retrying.
// Errors that are not transport errors are considered retryable.
func IsRetryable(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}
	return true
}
