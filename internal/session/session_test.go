package session

import (
	"errors"
	"testing"

	"github.com/DoyleJ11/chessmate-smoke/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(state State) Session {
	s := New("test123")
	s.State = state
	if state >= InSession {
		s.OpponentID = "bob"
	}
	return s
}

func TestTable_IsTotal(t *testing.T) {
	for _, state := range AllStates {
		row, ok := Table[state]
		require.True(t, ok, "missing row for %s", state)
		for _, trigger := range AllTriggers {
			_, ok := row[trigger]
			assert.True(t, ok, "missing rule for %s on %s", state, trigger)
		}
	}
}

func TestTable_AwaitingMatchLeftOnlyByStart(t *testing.T) {
	for trigger, rule := range Table[AwaitingMatch] {
		if rule.Err != nil || rule.To == AwaitingMatch {
			continue
		}
		if trigger != TriggerStart {
			t.Fatalf("AwaitingMatch exits to %s on %s", rule.To, trigger)
		}
	}
}

func TestTable_InSessionEnteredOnlyFromAwaitingMatchByStart(t *testing.T) {
	for from, row := range Table {
		for trigger, rule := range row {
			if rule.To != InSession || rule.Err != nil || from == InSession {
				continue
			}
			if from != AwaitingMatch || trigger != TriggerStart {
				t.Fatalf("InSession entered from %s on %s", from, trigger)
			}
		}
	}
}

func TestApply_Transitions(t *testing.T) {
	cases := []struct {
		name        string
		setup       Session
		ev          Event
		wantState   State
		wantEffects []Effect
		wantErr     error
	}{
		{
			name:        "open sends join",
			setup:       at(Disconnected),
			ev:          Opened{},
			wantState:   AwaitingMatch,
			wantEffects: []Effect{EffectSendJoin},
		},
		{
			name:        "start sends move",
			setup:       at(AwaitingMatch),
			ev:          Received{Msg: wire.Start{OpponentID: "bob"}},
			wantState:   InSession,
			wantEffects: []Effect{EffectSendMove},
		},
		{
			name:      "opponent move needs no reply",
			setup:     at(InSession),
			ev:        Received{Msg: wire.OpponentMove{X: 3, Y: 4}},
			wantState: InSession,
		},
		{
			name:        "game over closes",
			setup:       at(InSession),
			ev:          Received{Msg: wire.GameOver{Result: "win"}},
			wantState:   Terminated,
			wantEffects: []Effect{EffectCloseConn},
		},
		{
			name:        "unknown ignored while waiting",
			setup:       at(AwaitingMatch),
			ev:          Received{Msg: wire.Unknown{Type: "queued"}},
			wantState:   AwaitingMatch,
			wantEffects: []Effect{EffectIgnore},
		},
		{
			name:        "unknown ignored in session",
			setup:       at(InSession),
			ev:          Received{Msg: wire.Unknown{Type: "chat"}},
			wantState:   InSession,
			wantEffects: []Effect{EffectIgnore},
		},
		{
			name:      "second start is out of order",
			setup:     at(InSession),
			ev:        Received{Msg: wire.Start{OpponentID: "carol"}},
			wantState: InSession,
			wantErr:   ErrOutOfOrder,
		},
		{
			name:      "opponent move before start is out of order",
			setup:     at(AwaitingMatch),
			ev:        Received{Msg: wire.OpponentMove{X: 1, Y: 1}},
			wantState: AwaitingMatch,
			wantErr:   ErrOutOfOrder,
		},
		{
			name:      "game over before start is out of order",
			setup:     at(AwaitingMatch),
			ev:        Received{Msg: wire.GameOver{Winner: "you"}},
			wantState: AwaitingMatch,
			wantErr:   ErrOutOfOrder,
		},
		{
			name:      "server echoing a move",
			setup:     at(InSession),
			ev:        Received{Msg: wire.Move{X: 1, Y: 2}},
			wantState: InSession,
			wantErr:   ErrUnexpectedMessage,
		},
		{
			name:      "disconnect while waiting",
			setup:     at(AwaitingMatch),
			ev:        Lost{Err: errors.New("eof")},
			wantState: Terminated,
			wantErr:   ErrUnexpectedDisconnect,
		},
		{
			name:      "disconnect in session",
			setup:     at(InSession),
			ev:        Lost{},
			wantState: Terminated,
			wantErr:   ErrUnexpectedDisconnect,
		},
		{
			name:      "nothing after terminated",
			setup:     at(Terminated),
			ev:        Received{Msg: wire.OpponentMove{}},
			wantState: Terminated,
			wantErr:   ErrSessionOver,
		},
		{
			name:      "message before open",
			setup:     at(Disconnected),
			ev:        Received{Msg: wire.Start{OpponentID: "bob"}},
			wantState: Disconnected,
			wantErr:   ErrNotOpen,
		},
		{
			name:      "open twice",
			setup:     at(AwaitingMatch),
			ev:        Opened{},
			wantState: AwaitingMatch,
			wantErr:   ErrAlreadyOpen,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			effects, next, err := Apply(tc.setup, tc.ev)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				var perr *ProtocolError
				require.ErrorAs(t, err, &perr)
				assert.Equal(t, tc.setup.State, perr.State)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tc.wantState, next.State)
			assert.Equal(t, tc.wantEffects, effects)
		})
	}
}

func TestApply_RecordsSessionFacts(t *testing.T) {
	s := at(AwaitingMatch)
	s.OpponentID = ""

	_, s, err := Apply(s, Received{Msg: wire.Start{OpponentID: "bob", Color: "black"}})
	require.NoError(t, err)
	assert.Equal(t, "bob", s.OpponentID)
	assert.Equal(t, "black", s.Color)

	before := s
	_, s, err = Apply(s, Received{Msg: wire.OpponentMove{X: 3, Y: 4}})
	require.NoError(t, err)
	assert.Equal(t, []wire.OpponentMove{{X: 3, Y: 4}}, s.OpponentMoves)
	assert.Empty(t, before.OpponentMoves, "Apply must not mutate its input")

	_, s, err = Apply(s, Received{Msg: wire.GameOver{Winner: "you"}})
	require.NoError(t, err)
	assert.Equal(t, "you", s.Result)
	assert.False(t, s.Abnormal)
}

func TestApply_DisconnectIsAbnormal(t *testing.T) {
	cause := errors.New("connection reset")
	_, s, err := Apply(at(AwaitingMatch), Lost{Err: cause})

	assert.ErrorIs(t, err, ErrUnexpectedDisconnect)
	assert.ErrorIs(t, err, cause)
	assert.True(t, s.Abnormal)
	assert.Equal(t, "Terminated (abnormal)", s.Label())
	assert.Equal(t, "protocol error: unexpected disconnect in state AwaitingMatch: connection reset", err.Error())
}

func TestProtocolError_Message(t *testing.T) {
	_, _, err := Apply(at(InSession), Received{Msg: wire.Start{OpponentID: "bob"}})
	assert.Equal(t, "protocol error: out-of-order message (start) in state InSession", err.Error())
}

func TestTriggerOf_UnknownNeverMasquerades(t *testing.T) {
	assert.Equal(t, TriggerUnknown, TriggerOf(Received{Msg: wire.Unknown{Type: "start"}}))
	assert.Equal(t, TriggerStart, TriggerOf(Received{Msg: wire.Start{}}))
}
