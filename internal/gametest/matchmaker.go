package gametest

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/DoyleJ11/chessmate-smoke/internal/wire"
	"github.com/coder/websocket"
	"go.uber.org/zap"
)

type mmMsg interface{ isMatchmakerMsg() }

type joined struct {
	p        *player
	playerID string
}

type moved struct {
	p    *player
	move wire.Move
}

type left struct{ p *player }

// Shutdown stops the matchmaker loop.
type Shutdown struct{}

// Stats is a consistent view of the matchmaker, for tests.
type Stats struct {
	Waiting  int
	Playing  int
	Finished int
}

type getStats struct{ reply chan Stats }

func (joined) isMatchmakerMsg()   {}
func (moved) isMatchmakerMsg()    {}
func (left) isMatchmakerMsg()     {}
func (Shutdown) isMatchmakerMsg() {}
func (getStats) isMatchmakerMsg() {}

type player struct {
	connID   string
	playerID string
	out      chan []byte
	opponent *player
	moves    int
}

// Matchmaker pairs clients in arrival order, relays each move to the opponent as
// opponentMove, and ends a game with a draw once MovesPerGame moves were made.
// A player leaving mid-game hands the opponent gameOver{winner:"you"}.
type Matchmaker struct {
	inbox        chan mmMsg
	waiting      *player
	playing      map[*player]struct{}
	finished     int
	movesPerGame int
	log          *zap.Logger
	ctx          context.Context
	cancel       context.CancelFunc

	// conns numbers accepted connections for log correlation; touched outside the loop.
	conns atomic.Uint64
}

type MatchmakerOption func(*Matchmaker)

// WithMovesPerGame sets how many moves, counted over both players, end a game.
func WithMovesPerGame(n int) MatchmakerOption {
	return func(m *Matchmaker) {
		if n > 0 {
			m.movesPerGame = n
		}
	}
}

func WithLogger(l *zap.Logger) MatchmakerOption {
	return func(m *Matchmaker) {
		if l != nil {
			m.log = l
		}
	}
}

func NewMatchmaker(parent context.Context, opts ...MatchmakerOption) *Matchmaker {
	ctx, cancel := context.WithCancel(parent)
	m := &Matchmaker{
		inbox:        make(chan mmMsg, 64),
		playing:      make(map[*player]struct{}),
		movesPerGame: 2,
		log:          zap.NewNop(),
		ctx:          ctx,
		cancel:       cancel,
	}
	for _, opt := range opts {
		opt(m)
	}
	go m.loop()
	return m
}

// Close stops the loop. Connections still open are left to their handlers.
func (m *Matchmaker) Close() { m.post(Shutdown{}) }

// Handler serves /game and /healthz.
func (m *Matchmaker) Handler() http.Handler { return routes(m.ServeWS) }

func (m *Matchmaker) Stats() Stats {
	reply := make(chan Stats, 1)
	select {
	case m.inbox <- getStats{reply: reply}:
	case <-m.ctx.Done():
		return Stats{}
	}
	select {
	case s := <-reply:
		return s
	case <-m.ctx.Done():
		return Stats{}
	}
}

func (m *Matchmaker) post(msg mmMsg) {
	select {
	case m.inbox <- msg:
	case <-m.ctx.Done():
	}
}

func (m *Matchmaker) loop() {
	for {
		select {
		case <-m.ctx.Done():
			return

		case msg := <-m.inbox:
			switch msg := msg.(type) {
			case joined:
				m.join(msg.p, msg.playerID)

			case moved:
				m.move(msg.p, msg.move)

			case left:
				m.leave(msg.p)

			case getStats:
				msg.reply <- Stats{
					Waiting:  boolInt(m.waiting != nil),
					Playing:  len(m.playing),
					Finished: m.finished,
				}

			case Shutdown:
				m.cancel()
				return
			}
		}
	}
}

func (m *Matchmaker) join(p *player, playerID string) {
	if p.opponent != nil || m.waiting == p {
		return
	}
	p.playerID = playerID
	if m.waiting == nil {
		m.waiting = p
		m.log.Debug("waiting", zap.String("player", playerID))
		return
	}

	opp := m.waiting
	m.waiting = nil
	p.opponent, opp.opponent = opp, p
	m.playing[p] = struct{}{}
	m.playing[opp] = struct{}{}

	m.deliver(p, wire.Start{OpponentID: opp.playerID, Color: "black"})
	m.deliver(opp, wire.Start{OpponentID: p.playerID, Color: "white"})
	m.log.Debug("matched", zap.String("white", opp.playerID), zap.String("black", p.playerID))
}

func (m *Matchmaker) move(p *player, mv wire.Move) {
	opp := p.opponent
	if opp == nil {
		return
	}
	m.deliver(opp, wire.OpponentMove(mv))
	p.moves++
	if p.moves+opp.moves >= m.movesPerGame {
		m.deliver(p, wire.GameOver{Result: "draw"})
		m.deliver(opp, wire.GameOver{Result: "draw"})
		m.end(p, opp)
	}
}

func (m *Matchmaker) leave(p *player) {
	if m.waiting == p {
		m.waiting = nil
	}
	if opp := p.opponent; opp != nil {
		m.deliver(opp, wire.GameOver{Winner: "you", Reason: "opponent left"})
		m.end(p, opp)
	}
}

func (m *Matchmaker) end(a, b *player) {
	a.opponent, b.opponent = nil, nil
	delete(m.playing, a)
	delete(m.playing, b)
	m.finished++
}

// deliver never blocks the loop; a client that stopped reading loses frames.
func (m *Matchmaker) deliver(p *player, msg wire.Message) {
	data, err := wire.Encode(msg)
	if err != nil {
		m.log.Error("encode", zap.Error(err))
		return
	}
	select {
	case p.out <- data:
	default:
		m.log.Warn("dropping frame for slow client", zap.String("player", p.playerID))
	}
}

// ServeWS handles one client connection for its whole lifetime.
func (m *Matchmaker) ServeWS(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer c.CloseNow()

	p := &player{connID: fmt.Sprintf("c%d", m.conns.Add(1)), out: make(chan []byte, 8)}
	defer m.post(left{p: p})

	writeCtx, writeCancel := context.WithCancel(r.Context())
	defer writeCancel()
	go func() {
		for {
			select {
			case <-writeCtx.Done():
				return
			case data := <-p.out:
				ctx, cancel := context.WithTimeout(writeCtx, 3*time.Second)
				_ = c.Write(ctx, websocket.MessageText, data)
				cancel()
			}
		}
	}()

	for {
		_, data, err := c.Read(r.Context())
		if err != nil {
			return
		}
		msg, err := wire.Decode(data)
		if err != nil {
			m.log.Warn("bad frame", zap.String("conn", p.connID), zap.Error(err))
			continue
		}
		switch msg := msg.(type) {
		case wire.Join:
			m.post(joined{p: p, playerID: msg.PlayerID})
		case wire.Move:
			m.post(moved{p: p, move: msg})
		}
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
