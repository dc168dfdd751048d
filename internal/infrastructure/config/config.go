package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// ErrInvalidConfig is returned by Validate
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Kernel    KernelConfig
	Stream    StreamConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"3001"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// KernelConfig holds simulation timing and retention.
type KernelConfig struct {
	ActivityInterval   time.Duration `envconfig:"ACTIVITY_INTERVAL" default:"1s"`
	WatchdogInterval   time.Duration `envconfig:"WATCHDOG_INTERVAL" default:"3s"`
	HeartbeatStaleness time.Duration `envconfig:"HEARTBEAT_STALENESS" default:"5s"`
	RestartDelay       time.Duration `envconfig:"RESTART_DELAY" default:"2s"`
	CaptureInterval    time.Duration `envconfig:"CAPTURE_INTERVAL" default:"10s"`
	CaptureWarmup      time.Duration `envconfig:"CAPTURE_WARMUP" default:"5s"`
	MessageCapacity    int           `envconfig:"MESSAGE_CAPACITY" default:"50"`
	EventCapacity      int           `envconfig:"EVENT_CAPACITY" default:"100"`
	ArtifactCapacity   int           `envconfig:"ARTIFACT_CAPACITY" default:"10"`
	SeedFile           string        `envconfig:"SEED_FILE"`
}

// StreamConfig holds push channel configuration.
type StreamConfig struct {
	BroadcastInterval time.Duration `envconfig:"BROADCAST_INTERVAL" default:"1s"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "3001",
			Host: "0.0.0.0",
		},
		Kernel: KernelConfig{
			ActivityInterval:   time.Second,
			WatchdogInterval:   3 * time.Second,
			HeartbeatStaleness: 5 * time.Second,
			RestartDelay:       2 * time.Second,
			CaptureInterval:    10 * time.Second,
			CaptureWarmup:      5 * time.Second,
			MessageCapacity:    50,
			EventCapacity:      100,
			ArtifactCapacity:   10,
		},
		Stream: StreamConfig{
			BroadcastInterval: time.Second,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}

// Validate rejects settings the kernel cannot run with.
func (c *Config) Validate() error {
	intervals := []struct {
		name  string
		value time.Duration
	}{
		{"ACTIVITY_INTERVAL", c.Kernel.ActivityInterval},
		{"WATCHDOG_INTERVAL", c.Kernel.WatchdogInterval},
		{"HEARTBEAT_STALENESS", c.Kernel.HeartbeatStaleness},
		{"RESTART_DELAY", c.Kernel.RestartDelay},
		{"CAPTURE_INTERVAL", c.Kernel.CaptureInterval},
		{"BROADCAST_INTERVAL", c.Stream.BroadcastInterval},
	}
	for _, iv := range intervals {
		if iv.value <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %s", ErrInvalidConfig, iv.name, iv.value)
		}
	}
	if c.Kernel.CaptureWarmup < 0 {
		return fmt.Errorf("%w: CAPTURE_WARMUP must not be negative", ErrInvalidConfig)
	}

	capacities := []struct {
		name  string
		value int
	}{
		{"MESSAGE_CAPACITY", c.Kernel.MessageCapacity},
		{"EVENT_CAPACITY", c.Kernel.EventCapacity},
		{"ARTIFACT_CAPACITY", c.Kernel.ArtifactCapacity},
	}
	for _, cp := range capacities {
		if cp.value < 1 {
			return fmt.Errorf("%w: %s must be at least 1, got %d", ErrInvalidConfig, cp.name, cp.value)
		}
	}

	if c.Server.Port == "" {
		return fmt.Errorf("%w: PORT is empty", ErrInvalidConfig)
	}
	return nil
}
