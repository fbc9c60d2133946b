package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseAppliesDefaults(t *testing.T) {
	c, err := Parse([]byte("environment: test\n"))
	require.NoError(t, err)

	require.Equal(t, 8080, c.Server.Port)
	require.Equal(t, "https://api.coingecko.com/api/v3", c.Upstream.BaseURL)
	require.Equal(t, 15*time.Second, c.Upstream.Timeout)
	require.Equal(t, 3, c.Upstream.MaxAttempts)
	require.Equal(t, time.Second, c.Upstream.BackoffBase)
	require.Equal(t, "/default.png", c.Upstream.DefaultLogo)
	require.Equal(t, BackendMemory, c.Watchlist.Backend)
	require.Equal(t, 1, c.Watchlist.ReconcileConcurrency)
	require.Equal(t, 10*time.Second, c.Watchlist.LockTTL)
	require.Equal(t, 5*time.Second, c.Watchlist.LockWait)
	require.Equal(t, "info", c.Logger.Level)
	require.Equal(t, -1, c.Kafka.RequiredAcks)
	require.False(t, c.Kafka.Enabled)
}

func TestParseOverridesDefaults(t *testing.T) {
	c, err := Parse([]byte(`
environment: production
upstream:
  timeout: 5s
  max_attempts: 5
watchlist:
  backend: redis
  reconcile_concurrency: 4
`))
	require.NoError(t, err)
	require.Equal(t, 5*time.Second, c.Upstream.Timeout)
	require.Equal(t, 5, c.Upstream.MaxAttempts)
	require.Equal(t, BackendRedis, c.Watchlist.Backend)
	require.Equal(t, 4, c.Watchlist.ReconcileConcurrency)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown backend", "watchlist:\n  backend: sqlite\n", "watchlist.backend"},
		{"zero attempts", "upstream:\n  max_attempts: 0\n", "upstream.max_attempts"},
		{"kafka without brokers", "kafka:\n  enabled: true\n", "kafka.brokers"},
		{"bad port", "server:\n  port: 70000\n", "server.port"},
		{"zero concurrency", "watchlist:\n  reconcile_concurrency: 0\n", "reconcile_concurrency"},
		{"lock wait not below ttl", "watchlist:\n  lock_ttl: 2s\n  lock_wait: 2s\n", "watchlist.lock_wait"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadWithEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("environment: test\n"), 0o644))

	t.Setenv("NO_DOTENV", "1")
	t.Setenv("COINGECKO_API_KEY", "demo")
	t.Setenv("WATCHLIST_BACKEND", "layered")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")

	c, err := LoadWithEnv(path)
	require.NoError(t, err)
	require.Equal(t, "demo", c.Upstream.APIKey)
	require.Equal(t, BackendLayered, c.Watchlist.Backend)
	require.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	require.True(t, c.Kafka.Enabled)
	require.Equal(t, 9090, c.Server.Port)
	require.Equal(t, "debug", c.Logger.Level)
}

func TestLoadWithEnvRejectsBadPort(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("environment: test\n"), 0o644))
	t.Setenv("NO_DOTENV", "1")
	t.Setenv("PORT", "http")

	_, err := LoadWithEnv(path)
	require.Error(t, err)
}

func TestLoadSampleConfig(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "config", "config.yaml"))
	require.NoError(t, err)
	require.Equal(t, "development", c.Environment)
	require.Equal(t, 0.5, c.Upstream.RateLimit.RefillPerSec)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
