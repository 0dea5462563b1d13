package session

import (
	"fmt"

	"github.com/DoyleJ11/chessmate-smoke/internal/wire"
)

type Event interface{ isEvent() }

// Opened is fed once the connection is established.
type Opened struct{}

type Received struct {
	Msg wire.Message
}

// Lost reports a peer close or transport failure. Err is the cause.
type Lost struct {
	Err error
}

func (Opened) isEvent()   {}
func (Received) isEvent() {}
func (Lost) isEvent()     {}

func TriggerOf(ev Event) Trigger {
	switch e := ev.(type) {
	case Opened:
		return TriggerOpen
	case Lost:
		return TriggerDisconnect
	case Received:
		if _, unknown := e.Msg.(wire.Unknown); unknown || e.Msg == nil {
			return TriggerUnknown
		}
		return Trigger(e.Msg.Kind())
	default:
		panic(fmt.Sprintf("session: unsupported event %T", ev))
	}
}

// Apply looks up ev in Table and returns the effects to carry out together with
// the next session. On error the returned session is s, unless the error is an
// unexpected disconnect, which always moves to an abnormal Terminated.
func Apply(s Session, ev Event) ([]Effect, Session, error) {
	trigger := TriggerOf(ev)
	rule, ok := Table[s.State][trigger]
	if !ok {
		return nil, s, &ProtocolError{State: s.State, Trigger: trigger, Err: fmt.Errorf("no rule for %s", trigger)}
	}

	if rule.Err != nil {
		perr := &ProtocolError{State: s.State, Trigger: trigger, Err: rule.Err}
		if d, ok := ev.(Lost); ok {
			perr.Cause = d.Err
		}
		if rule.To == s.State {
			return nil, s, perr
		}
		next := s.clone()
		next.State = rule.To
		next.Abnormal = true
		return nil, next, perr
	}

	next := s.clone()
	next.State = rule.To

	if r, ok := ev.(Received); ok {
		switch m := r.Msg.(type) {
		case wire.Start:
			next.OpponentID = m.OpponentID
			next.Color = m.Color
		case wire.OpponentMove:
			next.OpponentMoves = append(next.OpponentMoves, m)
		case wire.GameOver:
			next.Result = m.Outcome()
		}
	}

	return rule.Effects, next, nil
}
