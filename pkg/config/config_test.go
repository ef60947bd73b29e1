package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envVars = []string{
	"APP_ENV", "LOG_LEVEL", "LOG_FORMAT",
	"CANVAS_HISTORY_LIMIT", "CANVAS_FILE_ROOT", "CANVAS_JOURNAL_ENABLED",
	"DATABASE_DRIVER", "DATABASE_URL", "SQLITE_PATH",
	"CANVAS_EVENTS_ENABLED", "RABBITMQ_URL",
	"CANVAS_BREAKER_THRESHOLD", "CANVAS_BREAKER_TIMEOUT",
	"CANVAS_OUTBOX_ENABLED", "CANVAS_OUTBOX_POLL_INTERVAL",
	"CANVAS_OUTBOX_MAX_RETRIES", "CANVAS_OUTBOX_RETENTION",
	"MCP_ADDR", "MCP_AUTH_TOKEN",
}

// clearEnv blanks every variable Load reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range envVars {
		t.Setenv(v, "")
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.LogFormat)
	assert.Equal(t, 100, cfg.HistoryLimit)
	assert.False(t, cfg.JournalEnabled)
	assert.Equal(t, "", cfg.DatabaseDriver)
	assert.False(t, cfg.EventsEnabled)
	assert.Equal(t, 5, cfg.BreakerThreshold)
	assert.Equal(t, 30*time.Second, cfg.BreakerTimeout)
	assert.False(t, cfg.OutboxEnabled)
	assert.Equal(t, 100*time.Millisecond, cfg.OutboxPollInterval)
	assert.Equal(t, 5, cfg.OutboxMaxRetries)
	assert.Equal(t, 7*24*time.Hour, cfg.OutboxRetention)
	assert.Equal(t, "127.0.0.1:8082", cfg.MCPAddr)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("CANVAS_HISTORY_LIMIT", "25")
	t.Setenv("CANVAS_FILE_ROOT", "/srv/canvas")
	t.Setenv("CANVAS_JOURNAL_ENABLED", "true")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://canvas@localhost:5432/canvas")
	t.Setenv("CANVAS_BREAKER_TIMEOUT", "5s")
	t.Setenv("MCP_AUTH_TOKEN", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 25, cfg.HistoryLimit)
	assert.Equal(t, "/srv/canvas", cfg.FileRoot)
	assert.True(t, cfg.JournalEnabled)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, "postgres://canvas@localhost:5432/canvas", cfg.DatabaseURL)
	assert.Equal(t, 5*time.Second, cfg.BreakerTimeout)
	assert.Equal(t, "secret", cfg.MCPAuthToken)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("CANVAS_HISTORY_LIMIT", "many")
	t.Setenv("CANVAS_JOURNAL_ENABLED", "maybe")
	t.Setenv("CANVAS_BREAKER_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.HistoryLimit)
	assert.False(t, cfg.JournalEnabled)
	assert.Equal(t, 30*time.Second, cfg.BreakerTimeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "negative history", mutate: func(c *Config) { c.HistoryLimit = -1 }},
		{name: "unknown driver", mutate: func(c *Config) { c.DatabaseDriver = "mysql" }},
		{name: "zero breaker threshold", mutate: func(c *Config) { c.BreakerThreshold = 0 }},
		{name: "outbox without journal", mutate: func(c *Config) { c.OutboxEnabled, c.EventsEnabled = true, true }},
		{name: "outbox without events", mutate: func(c *Config) { c.OutboxEnabled, c.JournalEnabled = true, true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{HistoryLimit: 10, BreakerThreshold: 1}
			require.NoError(t, cfg.Validate())
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
