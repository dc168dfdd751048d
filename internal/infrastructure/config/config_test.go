package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Server config
	assert.Equal(t, "3001", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)

	// Kernel config
	assert.Equal(t, time.Second, cfg.Kernel.ActivityInterval)
	assert.Equal(t, 3*time.Second, cfg.Kernel.WatchdogInterval)
	assert.Equal(t, 5*time.Second, cfg.Kernel.HeartbeatStaleness)
	assert.Equal(t, 2*time.Second, cfg.Kernel.RestartDelay)
	assert.Equal(t, 50, cfg.Kernel.MessageCapacity)
	assert.Equal(t, 100, cfg.Kernel.EventCapacity)
	assert.Equal(t, 10, cfg.Kernel.ArtifactCapacity)
	assert.Empty(t, cfg.Kernel.SeedFile)

	// Stream config
	assert.Equal(t, time.Second, cfg.Stream.BroadcastInterval)

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	// Rate limit config
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 200, cfg.RateLimit.Burst)
	assert.True(t, cfg.RateLimit.Enabled)

	assert.NoError(t, cfg.Validate())
}

func TestLoadMatchesDefault(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"PORT":                "9000",
		"HOST":                "127.0.0.1",
		"ACTIVITY_INTERVAL":   "500ms",
		"WATCHDOG_INTERVAL":   "2s",
		"HEARTBEAT_STALENESS": "10s",
		"RESTART_DELAY":       "1s",
		"CAPTURE_INTERVAL":    "1m",
		"CAPTURE_WARMUP":      "0s",
		"MESSAGE_CAPACITY":    "20",
		"EVENT_CAPACITY":      "40",
		"ARTIFACT_CAPACITY":   "5",
		"SEED_FILE":           "/etc/atlas/seeds.yaml",
		"BROADCAST_INTERVAL":  "250ms",
		"LOG_LEVEL":           "debug",
		"LOG_DEV":             "true",
		"RATE_LIMIT_RPS":      "500",
		"RATE_LIMIT_BURST":    "1000",
		"RATE_LIMIT_ENABLED":  "false",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 500*time.Millisecond, cfg.Kernel.ActivityInterval)
	assert.Equal(t, 2*time.Second, cfg.Kernel.WatchdogInterval)
	assert.Equal(t, 10*time.Second, cfg.Kernel.HeartbeatStaleness)
	assert.Equal(t, time.Second, cfg.Kernel.RestartDelay)
	assert.Equal(t, time.Minute, cfg.Kernel.CaptureInterval)
	assert.Equal(t, time.Duration(0), cfg.Kernel.CaptureWarmup)
	assert.Equal(t, 20, cfg.Kernel.MessageCapacity)
	assert.Equal(t, 40, cfg.Kernel.EventCapacity)
	assert.Equal(t, 5, cfg.Kernel.ArtifactCapacity)
	assert.Equal(t, "/etc/atlas/seeds.yaml", cfg.Kernel.SeedFile)
	assert.Equal(t, 250*time.Millisecond, cfg.Stream.BroadcastInterval)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, 500, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 1000, cfg.RateLimit.Burst)
	assert.False(t, cfg.RateLimit.Enabled)

	assert.NoError(t, cfg.Validate())
}

func TestLoadRejectsMalformedDuration(t *testing.T) {
	t.Setenv("WATCHDOG_INTERVAL", "soon")

	_, err := Load()
	assert.Error(t, err)

	// LoadOrDefault falls back rather than failing
	cfg := LoadOrDefault()
	assert.Equal(t, 3*time.Second, cfg.Kernel.WatchdogInterval)
}

func TestServerConfig(t *testing.T) {
	tests := []struct {
		name     string
		port     string
		host     string
		wantPort string
		wantHost string
	}{
		{
			name:     "default values",
			wantPort: "3001",
			wantHost: "0.0.0.0",
		},
		{
			name:     "custom port",
			port:     "9000",
			wantPort: "9000",
			wantHost: "0.0.0.0",
		},
		{
			name:     "custom host",
			host:     "localhost",
			wantPort: "3001",
			wantHost: "localhost",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Unsetenv("PORT")
			os.Unsetenv("HOST")
			if tt.port != "" {
				t.Setenv("PORT", tt.port)
			}
			if tt.host != "" {
				t.Setenv("HOST", tt.host)
			}

			cfg := LoadOrDefault()

			assert.Equal(t, tt.wantPort, cfg.Server.Port)
			assert.Equal(t, tt.wantHost, cfg.Server.Host)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero activity interval", func(c *Config) { c.Kernel.ActivityInterval = 0 }},
		{"negative watchdog", func(c *Config) { c.Kernel.WatchdogInterval = -time.Second }},
		{"zero staleness", func(c *Config) { c.Kernel.HeartbeatStaleness = 0 }},
		{"zero restart delay", func(c *Config) { c.Kernel.RestartDelay = 0 }},
		{"zero broadcast", func(c *Config) { c.Stream.BroadcastInterval = 0 }},
		{"negative warmup", func(c *Config) { c.Kernel.CaptureWarmup = -time.Second }},
		{"zero message capacity", func(c *Config) { c.Kernel.MessageCapacity = 0 }},
		{"zero artifact capacity", func(c *Config) { c.Kernel.ArtifactCapacity = 0 }},
		{"empty port", func(c *Config) { c.Server.Port = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}
