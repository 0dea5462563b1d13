package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/DoyleJ11/chessmate-smoke/internal/config"
	"github.com/DoyleJ11/chessmate-smoke/internal/driver"
	"github.com/DoyleJ11/chessmate-smoke/internal/store"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	exitCompleted = 0
	exitFailed    = 1
	exitUsage     = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Getenv, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, getenv func(string) string, stdout, stderr io.Writer) int {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	cfg, err := config.Load("smoke", args, getenv, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitCompleted
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	policy, err := driver.ParseMovePolicy(cfg.Move)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	log := newLogger(cfg.LogLevel, stderr)
	defer log.Sync() //nolint:errcheck

	opts := make([]driver.Options, 0, cfg.Clients)
	for _, id := range cfg.PlayerIDs() {
		opts = append(opts, driver.Options{
			Endpoint:   cfg.Endpoint,
			PlayerID:   id,
			MovePolicy: policy,
			Timeout:    cfg.Timeout,
			Logger:     log,
		})
	}

	var outcomes []driver.Outcome
	if len(opts) == 1 {
		outcomes = []driver.Outcome{driver.Run(ctx, opts[0])}
	} else {
		outcomes = driver.RunAll(ctx, opts)
	}

	code := exitCompleted
	for _, o := range outcomes {
		if o.Transcript != nil {
			if _, err := o.Transcript.WriteTo(stdout); err != nil {
				log.Warn("write transcript", zap.Error(err))
			}
		}
		fmt.Fprintf(stdout, "[%s] %s\n", o.Session.PlayerID, o)
		if !o.Completed {
			code = exitFailed
		}
	}

	if cfg.DatabaseURL != "" {
		if err := record(ctx, cfg.DatabaseURL, log, outcomes); err != nil {
			// History is best effort; the run verdict stands.
			log.Error("record runs", zap.Error(err))
		}
	}
	return code
}

func record(ctx context.Context, dsn string, log *zap.Logger, outcomes []driver.Outcome) (err error) {
	st, err := store.Open(dsn, log)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, st.Close()) }()

	runs, err := st.Save(ctx, outcomes...)
	if err != nil {
		return err
	}
	log.Info("runs recorded", zap.Int("count", len(runs)))
	return nil
}

func newLogger(level zapcore.Level, w io.Writer) *zap.Logger {
	enc := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(zapcore.AddSync(w)), level)
	return zap.New(core)
}
