package gametest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/DoyleJ11/chessmate-smoke/internal/wire"
	"github.com/coder/websocket"
)

const expectTimeout = 2 * time.Second

type stepKind int

const (
	stepSend stepKind = iota + 1
	stepExpect
	stepHangup
	stepClose
)

// Step is one action of a scripted server.
type Step struct {
	kind  stepKind
	frame string
	want  wire.Kind
}

// Send writes frame verbatim, so malformed payloads can be scripted too.
func Send(frame string) Step { return Step{kind: stepSend, frame: frame} }

// Expect waits for the client's next frame and checks its type.
func Expect(kind wire.Kind) Step { return Step{kind: stepExpect, want: kind} }

// Hangup drops the connection without a close handshake.
func Hangup() Step { return Step{kind: stepHangup} }

// CloseNormal closes the connection with a normal close frame.
func CloseNormal() Step { return Step{kind: stepClose} }

// Script serves the same steps to every connection and records what clients sent.
type Script struct {
	srv   *httptest.Server
	steps []Step

	mu       sync.Mutex
	received []string
	errs     []error
	done     chan struct{}
}

func NewScript(steps ...Step) *Script {
	s := &Script{steps: steps, done: make(chan struct{}, 16)}
	s.srv = httptest.NewServer(routes(s.serve))
	return s
}

func (s *Script) Endpoint() string { return WebSocketURL(s.srv) }

func (s *Script) Close() { s.srv.Close() }

// Received returns the raw frames clients sent, in arrival order.
func (s *Script) Received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.received...)
}

// Errors returns script violations such as an unexpected frame type.
func (s *Script) Errors() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]error(nil), s.errs...)
}

// Wait blocks until one connection has been fully served or the timeout elapses.
func (s *Script) Wait(timeout time.Duration) bool {
	select {
	case <-s.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (s *Script) record(frame []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received = append(s.received, string(frame))
}

func (s *Script) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
}

func (s *Script) serve(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer func() { s.done <- struct{}{} }()
	defer c.CloseNow()

	ctx := r.Context()
	for i, step := range s.steps {
		switch step.kind {
		case stepSend:
			if err := c.Write(ctx, websocket.MessageText, []byte(step.frame)); err != nil {
				s.fail(fmt.Errorf("step %d: write: %w", i, err))
				return
			}

		case stepExpect:
			rctx, cancel := context.WithTimeout(ctx, expectTimeout)
			_, data, err := c.Read(rctx)
			cancel()
			if err != nil {
				s.fail(fmt.Errorf("step %d: expected %s: %w", i, step.want, err))
				return
			}
			s.record(data)
			m, err := wire.Decode(data)
			if err != nil {
				s.fail(fmt.Errorf("step %d: %w", i, err))
				return
			}
			if m.Kind() != step.want {
				s.fail(fmt.Errorf("step %d: expected %s, got %s", i, step.want, m.Kind()))
				return
			}

		case stepHangup:
			return

		case stepClose:
			_ = c.Close(websocket.StatusNormalClosure, "script done")
			return
		}
	}

	// Drain until the client hangs up so late frames are still recorded.
	for {
		rctx, cancel := context.WithTimeout(ctx, expectTimeout)
		_, data, err := c.Read(rctx)
		cancel()
		if err != nil {
			return
		}
		s.record(data)
	}
}
