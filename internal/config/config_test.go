package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PLATES_AUTH_JWT_SECRET", "s3cret")

	cfg, err := Load(nil)
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:8080", cfg.Server.Addr)
	require.Equal(t, 10*time.Second, cfg.ShutdownTimeout())
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "data/plates.db", cfg.Database.Path)
	require.Equal(t, 5, cfg.Database.MaxRetries)
	require.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	require.Equal(t, time.Hour, cfg.TokenTTL())
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, "text", cfg.Log.Format)
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: 127.0.0.1:9000
database:
  driver: postgres
  dsn: postgres://plates@localhost/plates
auth:
  jwt_secret: from-file
  token_ttl_minutes: 15
log:
  format: json
`), 0o600))

	t.Setenv("PLATES_AUTH_JWT_SECRET", "from-env")
	t.Setenv("PLATES_LOG_LEVEL", "DEBUG")

	cfg, err := Load([]string{"--config", path, "--addr", ":7000"})
	require.NoError(t, err)
	require.Equal(t, ":7000", cfg.Server.Addr)
	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "postgres://plates@localhost/plates", cfg.Database.DSN)
	require.Equal(t, "from-env", cfg.Auth.JWTSecret)
	require.Equal(t, 15*time.Minute, cfg.TokenTTL())
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "json", cfg.Log.Format)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{
			name: "missing secret",
			env:  map[string]string{"PLATES_AUTH_JWT_SECRET": ""},
		},
		{
			name: "unknown driver",
			env:  map[string]string{"PLATES_AUTH_JWT_SECRET": "x", "PLATES_DATABASE_DRIVER": "oracle"},
		},
		{
			name: "postgres without dsn",
			env:  map[string]string{"PLATES_AUTH_JWT_SECRET": "x", "PLATES_DATABASE_DRIVER": "postgres"},
		},
		{
			name: "negative retries",
			env:  map[string]string{"PLATES_AUTH_JWT_SECRET": "x", "PLATES_DATABASE_MAX_RETRIES": "-1"},
		},
		{
			name: "bad log format",
			env:  map[string]string{"PLATES_AUTH_JWT_SECRET": "x", "PLATES_LOG_FORMAT": "xml"},
		},
		{
			name: "unknown flag",
			env:  map[string]string{"PLATES_AUTH_JWT_SECRET": "x"},
			args: []string{"--port", "80"},
		},
		{
			name: "missing config file",
			env:  map[string]string{"PLATES_AUTH_JWT_SECRET": "x"},
			args: []string{"--config", "/nonexistent/plates.yaml"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load(tc.args)
			require.Error(t, err)
		})
	}
}
