package wire

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

type Kind string

const (
	KindJoin         Kind = "join"
	KindStart        Kind = "start"
	KindMove         Kind = "move"
	KindOpponentMove Kind = "opponentMove"
	KindGameOver     Kind = "gameOver"
)

// Known reports whether k is one of the kinds the codec validates field by field.
func (k Kind) Known() bool {
	switch k {
	case KindJoin, KindStart, KindMove, KindOpponentMove, KindGameOver:
		return true
	}
	return false
}

// Message is one decoded envelope. The set of implementations is closed to this package.
type Message interface {
	Kind() Kind
	isMessage()
}

// Client -> Server
type Join struct {
	PlayerID string
}

// Server -> Client. Color is optional and only set by servers that assign sides.
type Start struct {
	OpponentID string
	Color      string
}

// Client -> Server
type Move struct {
	X, Y int
}

// Server -> Client, mirrors Move.
type OpponentMove struct {
	X, Y int
}

// GameOver ends the session. Result and Winner are the two shapes servers use to
// report the end of a game; any other fields are kept verbatim in Extra.
type GameOver struct {
	Result string
	Winner string
	Reason string
	Extra  map[string]json.RawMessage
}

// Unknown carries any envelope whose type the codec does not recognize.
type Unknown struct {
	Type   string
	Fields map[string]json.RawMessage
}

func (Join) Kind() Kind         { return KindJoin }
func (Start) Kind() Kind        { return KindStart }
func (Move) Kind() Kind         { return KindMove }
func (OpponentMove) Kind() Kind { return KindOpponentMove }
func (GameOver) Kind() Kind     { return KindGameOver }
func (u Unknown) Kind() Kind    { return Kind(u.Type) }

func (Join) isMessage()         {}
func (Start) isMessage()        {}
func (Move) isMessage()         {}
func (OpponentMove) isMessage() {}
func (GameOver) isMessage()     {}
func (Unknown) isMessage()      {}

// Outcome is the single string a finished game is summarized by.
func (g GameOver) Outcome() string {
	switch {
	case g.Result != "":
		return g.Result
	case g.Winner != "":
		return g.Winner
	default:
		return g.Reason
	}
}

func (m Join) String() string { return fmt.Sprintf("join{playerId=%s}", m.PlayerID) }
func (m Move) String() string { return fmt.Sprintf("move{x=%d y=%d}", m.X, m.Y) }
func (m Start) String() string {
	if m.Color == "" {
		return fmt.Sprintf("start{opponentId=%s}", m.OpponentID)
	}
	return fmt.Sprintf("start{opponentId=%s color=%s}", m.OpponentID, m.Color)
}
func (m OpponentMove) String() string { return fmt.Sprintf("opponentMove{x=%d y=%d}", m.X, m.Y) }

func (m GameOver) String() string {
	var parts []string
	if m.Result != "" {
		parts = append(parts, "result="+m.Result)
	}
	if m.Winner != "" {
		parts = append(parts, "winner="+m.Winner)
	}
	if m.Reason != "" {
		parts = append(parts, "reason="+m.Reason)
	}
	parts = append(parts, rawFields(m.Extra)...)
	return "gameOver{" + strings.Join(parts, " ") + "}"
}

func (m Unknown) String() string {
	return m.Type + "{" + strings.Join(rawFields(m.Fields), " ") + "}"
}

func rawFields(fields map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+string(fields[k]))
	}
	return out
}
