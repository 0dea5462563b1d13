package conn

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by Receive once the peer has closed the connection,
// and by Send after Close.
var ErrClosed = errors.New("connection closed")

var ErrBadEndpoint = errors.New("bad endpoint")

// ConnectError means no connection was established: the endpoint was unreachable,
// malformed, or the handshake was rejected.
type ConnectError struct {
	Endpoint   string
	StatusCode int // HTTP status of a rejected handshake, 0 otherwise
	Err        error
}

func (e *ConnectError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("connect %s: handshake rejected with status %d: %v", e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("connect %s: %v", e.Endpoint, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

type SendError struct {
	Err error
}

func (e *SendError) Error() string { return "send: " + e.Err.Error() }

func (e *SendError) Unwrap() error { return e.Err }

type ReceiveError struct {
	Err error
}

func (e *ReceiveError) Error() string { return "receive: " + e.Err.Error() }

func (e *ReceiveError) Unwrap() error { return e.Err }
