package session

import (
	"slices"

	"github.com/DoyleJ11/chessmate-smoke/internal/wire"
)

type State int

const (
	Disconnected State = iota
	AwaitingMatch
	InSession
	Terminated
)

var AllStates = []State{Disconnected, AwaitingMatch, InSession, Terminated}

func (s State) String() string {
	switch s {
	case Disconnected:
		return "Disconnected"
	case AwaitingMatch:
		return "AwaitingMatch"
	case InSession:
		return "InSession"
	case Terminated:
		return "Terminated"
	default:
		return "State(?)"
	}
}

// Session is everything one client run knows about its game.
// OpponentID is set exactly when State is InSession or Terminated after a start.
type Session struct {
	State         State
	PlayerID      string
	OpponentID    string
	Color         string
	OpponentMoves []wire.OpponentMove
	MoveSent      *wire.Move
	Result        string
	Abnormal      bool
}

func New(playerID string) Session {
	return Session{State: Disconnected, PlayerID: playerID}
}

// Label renders the state the way transcripts show it.
func (s Session) Label() string {
	if s.State == Terminated && s.Abnormal {
		return "Terminated (abnormal)"
	}
	return s.State.String()
}

func (s Session) clone() Session {
	s.OpponentMoves = slices.Clone(s.OpponentMoves)
	if s.MoveSent != nil {
		m := *s.MoveSent
		s.MoveSent = &m
	}
	return s
}
