package conn

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/coder/websocket"
	"go.uber.org/zap"
)

// Conn is a single client connection to the game server.
// Send and Receive may not be called concurrently with themselves; Close may be
// called from anywhere, any number of times.
type Conn struct {
	ws  *websocket.Conn
	log *zap.Logger

	peerClosed atomic.Bool
	closed     atomic.Bool
	closeOnce  sync.Once
	closeErr   error
}

type options struct {
	log        *zap.Logger
	httpClient *http.Client
	header     http.Header
	readLimit  int64
}

type Option func(*options)

func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

func WithHeader(h http.Header) Option {
	return func(o *options) { o.header = h }
}

// WithReadLimit caps the size of a single inbound frame. Zero keeps the library default.
func WithReadLimit(n int64) Option {
	return func(o *options) { o.readLimit = n }
}

// Open dials endpoint and completes the WebSocket handshake. It never retries.
func Open(ctx context.Context, endpoint string, opts ...Option) (*Conn, error) {
	o := options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, &ConnectError{Endpoint: endpoint, Err: fmt.Errorf("%w: %v", ErrBadEndpoint, err)}
	}
	switch u.Scheme {
	case "ws", "wss", "http", "https":
	default:
		return nil, &ConnectError{Endpoint: endpoint, Err: fmt.Errorf("%w: unsupported scheme %q", ErrBadEndpoint, u.Scheme)}
	}
	if u.Host == "" {
		return nil, &ConnectError{Endpoint: endpoint, Err: fmt.Errorf("%w: missing host", ErrBadEndpoint)}
	}

	ws, resp, err := websocket.Dial(ctx, endpoint, &websocket.DialOptions{
		HTTPClient: o.httpClient,
		HTTPHeader: o.header,
	})
	if err != nil {
		ce := &ConnectError{Endpoint: endpoint, Err: err}
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			ce.StatusCode = resp.StatusCode
		}
		return nil, ce
	}
	if o.readLimit > 0 {
		ws.SetReadLimit(o.readLimit)
	}

	log := o.log.With(zap.String("endpoint", endpoint))
	log.Debug("connected")
	return &Conn{ws: ws, log: log}, nil
}

// Send writes data as one text frame.
func (c *Conn) Send(ctx context.Context, data []byte) error {
	if c.closed.Load() {
		return &SendError{Err: ErrClosed}
	}
	if err := c.ws.Write(ctx, websocket.MessageText, data); err != nil {
		return &SendError{Err: err}
	}
	c.log.Debug("frame sent", zap.ByteString("frame", data))
	return nil
}

// Receive blocks until the next frame arrives, the peer closes, ctx ends, or the
// transport fails. A clean peer close is reported as ErrClosed.
func (c *Conn) Receive(ctx context.Context) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	_, data, err := c.ws.Read(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			c.peerClosed.Store(true) // the library tears the connection down on cancellation
			return nil, &ReceiveError{Err: ctxErr}
		}
		c.peerClosed.Store(true)
		switch websocket.CloseStatus(err) {
		case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			c.log.Debug("peer closed", zap.Error(err))
			return nil, ErrClosed
		}
		if c.closed.Load() || errors.Is(err, net.ErrClosed) {
			return nil, ErrClosed
		}
		return nil, &ReceiveError{Err: err}
	}
	c.log.Debug("frame received", zap.ByteString("frame", data))
	return data, nil
}

// Close ends the connection. Only the first call does any work; closing a
// connection the peer already dropped is not an error.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		if c.peerClosed.Load() {
			_ = c.ws.CloseNow()
			return
		}
		err := c.ws.Close(websocket.StatusNormalClosure, "bye")
		switch {
		case err == nil,
			errors.Is(err, net.ErrClosed),
			websocket.CloseStatus(err) == websocket.StatusNormalClosure,
			websocket.CloseStatus(err) == websocket.StatusGoingAway:
		default:
			c.closeErr = err
		}
		c.log.Debug("closed", zap.Error(err))
	})
	return c.closeErr
}
