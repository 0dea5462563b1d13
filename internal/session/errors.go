package session

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfOrder           = errors.New("out-of-order message")
	ErrUnexpectedMessage    = errors.New("unexpected client-bound message")
	ErrUnexpectedDisconnect = errors.New("unexpected disconnect")
	ErrNotOpen              = errors.New("connection not open")
	ErrAlreadyOpen          = errors.New("connection already open")
	ErrSessionOver          = errors.New("session already terminated")
)

// ProtocolError is a trigger the session refused in State. Cause is the transport
// error behind an unexpected disconnect, if any.
type ProtocolError struct {
	State   State
	Trigger Trigger
	Err     error
	Cause   error
}

func (e *ProtocolError) Error() string {
	msg := fmt.Sprintf("protocol error: %v", e.Err)
	if e.Trigger != "" && e.Trigger != TriggerDisconnect {
		msg += fmt.Sprintf(" (%s)", e.Trigger)
	}
	msg += " in state " + e.State.String()
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ProtocolError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}
