package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

const (
	DefaultEndpoint = "ws://localhost:8080/game"
	DefaultPlayerID = "test123"
	DefaultMove     = "1,2"
	DefaultTimeout  = 30 * time.Second
)

const (
	EnvEndpoint    = "CHESSMATE_ENDPOINT"
	EnvPlayerID    = "CHESSMATE_PLAYER_ID"
	EnvMove        = "CHESSMATE_MOVE"
	EnvTimeout     = "CHESSMATE_TIMEOUT"
	EnvClients     = "CHESSMATE_CLIENTS"
	EnvDatabaseURL = "CHESSMATE_DATABASE_URL"
	EnvLogLevel    = "CHESSMATE_LOG_LEVEL"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Endpoint    string
	PlayerID    string
	Move        string
	Timeout     time.Duration
	Clients     int
	DatabaseURL string
	LogLevel    zapcore.Level
}

// LoadDotEnv reads the given .env files into the process environment without
// overriding variables that are already set. Missing files are not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load builds a Config from env defaults overridden by args.
func Load(name string, args []string, getenv func(string) string, stderr io.Writer) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	def := Config{
		Endpoint:    envOr(getenv, EnvEndpoint, DefaultEndpoint),
		PlayerID:    envOr(getenv, EnvPlayerID, DefaultPlayerID),
		Move:        envOr(getenv, EnvMove, DefaultMove),
		Timeout:     DefaultTimeout,
		Clients:     1,
		DatabaseURL: getenv(EnvDatabaseURL),
		LogLevel:    zapcore.InfoLevel,
	}

	if v := getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s=%q: %v", ErrInvalid, EnvTimeout, v, err)
		}
		def.Timeout = d
	}
	if v := getenv(EnvClients); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s=%q: %v", ErrInvalid, EnvClients, v, err)
		}
		def.Clients = n
	}
	if v := getenv(EnvLogLevel); v != "" {
		if err := def.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("%w: %s=%q: %v", ErrInvalid, EnvLogLevel, v, err)
		}
	}

	cfg := def
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	if stderr != nil {
		fs.SetOutput(stderr)
	}
	fs.StringVar(&cfg.Endpoint, "endpoint", def.Endpoint, "game server WebSocket endpoint ($"+EnvEndpoint+")")
	fs.StringVar(&cfg.PlayerID, "player", def.PlayerID, "player id sent with join ($"+EnvPlayerID+")")
	fs.StringVar(&cfg.Move, "move", def.Move, `move policy: "x,y", "random" or "random:<size>" ($`+EnvMove+")")
	fs.DurationVar(&cfg.Timeout, "timeout", def.Timeout, "deadline for the whole run, 0 for none ($"+EnvTimeout+")")
	fs.IntVar(&cfg.Clients, "clients", def.Clients, "number of concurrent clients ($"+EnvClients+")")
	fs.StringVar(&cfg.DatabaseURL, "db", def.DatabaseURL, "Postgres DSN for recording runs, empty to skip ($"+EnvDatabaseURL+")")
	fs.TextVar(&cfg.LogLevel, "log-level", def.LogLevel, "debug, info, warn or error ($"+EnvLogLevel+")")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case c.Endpoint == "":
		return fmt.Errorf("%w: endpoint is empty", ErrInvalid)
	case c.PlayerID == "":
		return fmt.Errorf("%w: player id is empty", ErrInvalid)
	case c.Clients < 1:
		return fmt.Errorf("%w: clients must be at least 1, got %d", ErrInvalid, c.Clients)
	case c.Timeout < 0:
		return fmt.Errorf("%w: negative timeout", ErrInvalid)
	}
	if c.DatabaseURL != "" {
		if _, err := pgx.ParseConfig(c.DatabaseURL); err != nil {
			return fmt.Errorf("%w: database url: %v", ErrInvalid, err)
		}
	}
	return nil
}

// PlayerIDs names each concurrent client. A single client keeps the configured id.
func (c Config) PlayerIDs() []string {
	if c.Clients <= 1 {
		return []string{c.PlayerID}
	}
	ids := make([]string, c.Clients)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s-%d", c.PlayerID, i+1)
	}
	return ids
}

func envOr(getenv func(string) string, key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}
