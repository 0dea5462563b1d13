package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/DoyleJ11/chessmate-smoke/internal/wire"
	"go.uber.org/zap"
)

// Transport is the connection the machine talks over. Receive must block until a
// frame, a close, or an error, and must honor ctx.
type Transport interface {
	Send(ctx context.Context, data []byte) error
	Receive(ctx context.Context) ([]byte, error)
	Close() error
}

// MovePolicy picks the move sent in reply to start. It sees the session as it is
// right after the start was applied.
type MovePolicy func(s Session) wire.Move

type StepKind string

const (
	StepTransition StepKind = "transition"
	StepSent       StepKind = "sent"
	StepReceived   StepKind = "received"
	StepRecorded   StepKind = "recorded"
	StepIgnored    StepKind = "ignored"
	StepFailed     StepKind = "failed"
)

// Step is one observable thing the machine did.
type Step struct {
	Kind  StepKind
	From  Session
	To    Session
	Event Event
	Msg   wire.Message
	Err   error
}

type Machine struct {
	transport Transport
	policy    MovePolicy
	log       *zap.Logger
	observe   func(Step)
	session   Session
}

type Option func(*Machine)

func WithLogger(l *zap.Logger) Option {
	return func(m *Machine) {
		if l != nil {
			m.log = l
		}
	}
}

// WithObserver registers fn to receive every Step in order.
func WithObserver(fn func(Step)) Option {
	return func(m *Machine) {
		if fn != nil {
			m.observe = fn
		}
	}
}

var ErrNoPolicy = errors.New("no move policy")

func NewMachine(t Transport, playerID string, policy MovePolicy, opts ...Option) *Machine {
	m := &Machine{
		transport: t,
		policy:    policy,
		log:       zap.NewNop(),
		observe:   func(Step) {},
		session:   New(playerID),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With(zap.String("player", playerID))
	return m
}

func (m *Machine) Session() Session { return m.session.clone() }

// Run assumes the transport is already open. It returns when the session
// terminates or on the first error; the transport is closed only on a normal
// game over, so callers should still Close it.
func (m *Machine) Run(ctx context.Context) (Session, error) {
	if err := m.apply(ctx, Opened{}); err != nil {
		return m.Session(), err
	}

	for m.session.State != Terminated {
		data, err := m.transport.Receive(ctx)
		if err != nil {
			err = m.apply(ctx, Lost{Err: err})
			return m.Session(), err
		}

		msg, err := wire.Decode(data)
		if err != nil {
			m.fail(err)
			return m.Session(), err
		}
		m.observe(Step{Kind: StepReceived, From: m.Session(), To: m.Session(), Msg: msg})
		m.log.Debug("received", zap.Stringer("state", m.session.State), zap.Any("msg", msg))

		if err := m.apply(ctx, Received{Msg: msg}); err != nil {
			return m.Session(), err
		}
	}
	return m.Session(), nil
}

func (m *Machine) apply(ctx context.Context, ev Event) error {
	effects, next, err := Apply(m.session, ev)
	prev := m.session
	m.session = next
	if prev.State != next.State {
		m.observe(Step{Kind: StepTransition, From: prev.clone(), To: next.clone(), Event: ev})
		m.log.Info("transition", zap.String("from", prev.Label()), zap.String("to", next.Label()))
	}
	if err != nil {
		m.fail(err)
		return err
	}

	if r, ok := ev.(Received); ok {
		if om, ok := r.Msg.(wire.OpponentMove); ok {
			m.observe(Step{Kind: StepRecorded, From: prev.clone(), To: next.clone(), Msg: om})
		}
	}

	for _, eff := range effects {
		if err := m.perform(ctx, eff, ev); err != nil {
			return err
		}
	}
	return nil
}

func (m *Machine) perform(ctx context.Context, eff Effect, ev Event) error {
	switch eff {
	case EffectSendJoin:
		return m.send(ctx, wire.Join{PlayerID: m.session.PlayerID})

	case EffectSendMove:
		if m.session.State != InSession {
			err := &ProtocolError{State: m.session.State, Trigger: TriggerOf(ev), Err: ErrOutOfOrder}
			m.fail(err)
			return err
		}
		if m.policy == nil {
			m.fail(ErrNoPolicy)
			return ErrNoPolicy
		}
		mv := m.policy(m.Session())
		if err := m.send(ctx, mv); err != nil {
			return err
		}
		m.session.MoveSent = &mv
		return nil

	case EffectIgnore:
		var msg wire.Message
		if r, ok := ev.(Received); ok {
			msg = r.Msg
		}
		m.log.Warn("ignoring message", zap.Stringer("state", m.session.State), zap.Any("msg", msg))
		m.observe(Step{Kind: StepIgnored, From: m.Session(), To: m.Session(), Msg: msg})
		return nil

	case EffectCloseConn:
		if err := m.transport.Close(); err != nil {
			m.log.Warn("close after game over", zap.Error(err))
		}
		return nil

	default:
		return fmt.Errorf("session: unknown effect %q", eff)
	}
}

// send failures end the session the same way a dropped connection does.
func (m *Machine) send(ctx context.Context, msg wire.Message) error {
	data, err := wire.Encode(msg)
	if err != nil {
		m.fail(err)
		return err
	}
	if err := m.transport.Send(ctx, data); err != nil {
		return m.apply(ctx, Lost{Err: err})
	}
	m.observe(Step{Kind: StepSent, From: m.Session(), To: m.Session(), Msg: msg})
	m.log.Debug("sent", zap.Stringer("state", m.session.State), zap.Any("msg", msg))
	return nil
}

func (m *Machine) fail(err error) {
	m.observe(Step{Kind: StepFailed, From: m.Session(), To: m.Session(), Err: err})
	m.log.Error("session failed", zap.String("state", m.session.Label()), zap.Error(err))
}
