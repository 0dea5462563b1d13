package session

import "github.com/DoyleJ11/chessmate-smoke/internal/wire"

type Trigger string

const (
	TriggerOpen         Trigger = "open"
	TriggerDisconnect   Trigger = "disconnect"
	TriggerJoin         Trigger = Trigger(wire.KindJoin)
	TriggerStart        Trigger = Trigger(wire.KindStart)
	TriggerMove         Trigger = Trigger(wire.KindMove)
	TriggerOpponentMove Trigger = Trigger(wire.KindOpponentMove)
	TriggerGameOver     Trigger = Trigger(wire.KindGameOver)
	TriggerUnknown      Trigger = "unknown"
)

var AllTriggers = []Trigger{
	TriggerOpen, TriggerDisconnect,
	TriggerJoin, TriggerStart, TriggerMove, TriggerOpponentMove, TriggerGameOver,
	TriggerUnknown,
}

type Effect string

const (
	EffectSendJoin  Effect = "sendJoin"
	EffectSendMove  Effect = "sendMove"
	EffectIgnore    Effect = "ignore"
	EffectCloseConn Effect = "closeConn"
)

// Rule is one cell of the table. A rule with Err rejects the trigger; the state
// only changes if To differs from the row's state.
type Rule struct {
	To      State
	Effects []Effect
	Err     error
}

func reject(at State, err error) Rule { return Rule{To: at, Err: err} }

func dropped() Rule { return Rule{To: Terminated, Err: ErrUnexpectedDisconnect} }

// Table covers every state and trigger.
var Table = map[State]map[Trigger]Rule{
	Disconnected: {
		TriggerOpen:         {To: AwaitingMatch, Effects: []Effect{EffectSendJoin}},
		TriggerDisconnect:   dropped(),
		TriggerJoin:         reject(Disconnected, ErrNotOpen),
		TriggerStart:        reject(Disconnected, ErrNotOpen),
		TriggerMove:         reject(Disconnected, ErrNotOpen),
		TriggerOpponentMove: reject(Disconnected, ErrNotOpen),
		TriggerGameOver:     reject(Disconnected, ErrNotOpen),
		TriggerUnknown:      reject(Disconnected, ErrNotOpen),
	},
	AwaitingMatch: {
		TriggerOpen:         reject(AwaitingMatch, ErrAlreadyOpen),
		TriggerDisconnect:   dropped(),
		TriggerJoin:         reject(AwaitingMatch, ErrUnexpectedMessage),
		TriggerStart:        {To: InSession, Effects: []Effect{EffectSendMove}},
		TriggerMove:         reject(AwaitingMatch, ErrUnexpectedMessage),
		TriggerOpponentMove: reject(AwaitingMatch, ErrOutOfOrder),
		TriggerGameOver:     reject(AwaitingMatch, ErrOutOfOrder),
		TriggerUnknown:      {To: AwaitingMatch, Effects: []Effect{EffectIgnore}},
	},
	InSession: {
		TriggerOpen:         reject(InSession, ErrAlreadyOpen),
		TriggerDisconnect:   dropped(),
		TriggerJoin:         reject(InSession, ErrUnexpectedMessage),
		TriggerStart:        reject(InSession, ErrOutOfOrder),
		TriggerMove:         reject(InSession, ErrUnexpectedMessage),
		TriggerOpponentMove: {To: InSession},
		TriggerGameOver:     {To: Terminated, Effects: []Effect{EffectCloseConn}},
		TriggerUnknown:      {To: InSession, Effects: []Effect{EffectIgnore}},
	},
	Terminated: {
		TriggerOpen:         reject(Terminated, ErrSessionOver),
		TriggerDisconnect:   reject(Terminated, ErrSessionOver),
		TriggerJoin:         reject(Terminated, ErrSessionOver),
		TriggerStart:        reject(Terminated, ErrSessionOver),
		TriggerMove:         reject(Terminated, ErrSessionOver),
		TriggerOpponentMove: reject(Terminated, ErrSessionOver),
		TriggerGameOver:     reject(Terminated, ErrSessionOver),
		TriggerUnknown:      reject(Terminated, ErrSessionOver),
	},
}
