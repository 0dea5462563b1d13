package driver

import (
	"context"
	"errors"
	"time"

	"github.com/DoyleJ11/chessmate-smoke/internal/conn"
	"github.com/DoyleJ11/chessmate-smoke/internal/session"
	"github.com/DoyleJ11/chessmate-smoke/internal/transcript"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNoEndpoint = errors.New("no endpoint configured")
	ErrNoPlayer   = errors.New("no player id configured")
	ErrNoPolicy   = errors.New("no move policy configured")
)

// DialFunc opens the transport a run talks over.
type DialFunc func(ctx context.Context, endpoint string) (session.Transport, error)

type Options struct {
	Endpoint   string
	PlayerID   string
	MovePolicy session.MovePolicy

	// Timeout bounds the whole run. Zero means only ctx bounds it.
	Timeout time.Duration

	Logger *zap.Logger

	// Dial defaults to conn.Open.
	Dial DialFunc
}

func (o Options) validate() error {
	switch {
	case o.Endpoint == "":
		return ErrNoEndpoint
	case o.PlayerID == "":
		return ErrNoPlayer
	case o.MovePolicy == nil:
		return ErrNoPolicy
	}
	return nil
}

// Run plays one session against opts.Endpoint. It never retries.
func Run(ctx context.Context, opts Options) (out Outcome) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("player", opts.PlayerID))

	tr := transcript.New(opts.PlayerID)
	started := time.Now()
	s := session.New(opts.PlayerID)
	defer func() {
		out.Endpoint = opts.Endpoint
		out.Transcript = tr
		out.Started = started
		out.Finished = time.Now()
		tr.Note(transcript.KindOutcome, out.Session.Label(), out.String())
		if out.Completed {
			log.Info("run completed", zap.String("result", out.Result), zap.Duration("took", out.Duration()))
		} else {
			log.Error("run failed", zap.String("state", out.Session.Label()), zap.Error(out.Err))
		}
	}()

	if err := opts.validate(); err != nil {
		tr.Note(transcript.KindError, s.Label(), err.Error())
		return failed(s, err)
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	dial := opts.Dial
	if dial == nil {
		dial = func(ctx context.Context, endpoint string) (session.Transport, error) {
			return conn.Open(ctx, endpoint, conn.WithLogger(log))
		}
	}

	tr.Note(transcript.KindConnect, s.Label(), opts.Endpoint)
	t, err := dial(ctx, opts.Endpoint)
	if err != nil {
		tr.Note(transcript.KindError, s.Label(), err.Error())
		return failed(s, err)
	}

	m := session.NewMachine(t, opts.PlayerID, opts.MovePolicy,
		session.WithLogger(log),
		session.WithObserver(tr.Observe),
	)
	s, err = m.Run(ctx)

	closeErr := t.Close()
	if err != nil {
		return failed(s, multierr.Append(err, closeErr))
	}
	if closeErr != nil {
		log.Warn("close", zap.Error(closeErr))
	}
	return completed(s)
}

// RunAll runs every opts concurrently, each with its own connection and session.
// The first failed run cancels the others, since paired clients would otherwise
// wait forever for an opponent that is gone.
func RunAll(ctx context.Context, opts []Options) []Outcome {
	outcomes := make([]Outcome, len(opts))
	g, gctx := errgroup.WithContext(ctx)
	for i, o := range opts {
		g.Go(func() error {
			outcomes[i] = Run(gctx, o)
			return outcomes[i].Err
		})
	}
	_ = g.Wait()
	return outcomes
}
