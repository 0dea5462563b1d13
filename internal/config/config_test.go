package config

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("smoke", nil, env(nil), io.Discard)
	require.NoError(t, err)

	assert.Equal(t, Config{
		Endpoint: DefaultEndpoint,
		PlayerID: DefaultPlayerID,
		Move:     DefaultMove,
		Timeout:  DefaultTimeout,
		Clients:  1,
		LogLevel: zapcore.InfoLevel,
	}, cfg)
}

func TestLoad_EnvThenFlags(t *testing.T) {
	e := env(map[string]string{
		EnvEndpoint:    "ws://game.example:9000/game",
		EnvPlayerID:    "from-env",
		EnvTimeout:     "5s",
		EnvClients:     "2",
		EnvLogLevel:    "debug",
		EnvDatabaseURL: "postgres://localhost/smoke",
	})

	cfg, err := Load("smoke", []string{"-player", "from-flag", "-move", "random"}, e, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, "ws://game.example:9000/game", cfg.Endpoint)
	assert.Equal(t, "from-flag", cfg.PlayerID)
	assert.Equal(t, "random", cfg.Move)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 2, cfg.Clients)
	assert.Equal(t, zapcore.DebugLevel, cfg.LogLevel)
	assert.Equal(t, "postgres://localhost/smoke", cfg.DatabaseURL)
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{"bad timeout env", map[string]string{EnvTimeout: "soon"}, nil},
		{"bad clients env", map[string]string{EnvClients: "two"}, nil},
		{"bad log level", map[string]string{EnvLogLevel: "loud"}, nil},
		{"zero clients", nil, []string{"-clients", "0"}},
		{"empty player", nil, []string{"-player", ""}},
		{"unknown flag", nil, []string{"-nope"}},
		{"bad database url", nil, []string{"-db", "postgres://smoke@localhost:notaport/smoke"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load("smoke", tc.args, env(tc.env), io.Discard)
			assert.Error(t, err)
			if len(tc.args) > 0 && tc.args[0] == "-db" {
				assert.ErrorIs(t, err, ErrInvalid)
			}
		})
	}
}

func TestPlayerIDs(t *testing.T) {
	assert.Equal(t, []string{"p"}, Config{PlayerID: "p", Clients: 1}.PlayerIDs())
	assert.Equal(t, []string{"p-1", "p-2"}, Config{PlayerID: "p", Clients: 2}.PlayerIDs())
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte(EnvPlayerID+"=dotenv-player\n"), 0o600))

	t.Setenv(EnvPlayerID, "")
	os.Unsetenv(EnvPlayerID)
	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "dotenv-player", os.Getenv(EnvPlayerID))
}
