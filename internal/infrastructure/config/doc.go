// Package config provides 12-factor configuration management for the
// AtlasOS kernel server.
//
// Configuration is loaded from environment variables with defaults. CLI flags
// can override the server address and log format.
//
// Configuration Sections:
//   - Server: HTTP listen address
//   - Kernel: tick cadences, restart timing, log capacities, seed file
//   - Stream: snapshot push interval
//   - Logging: log level and output format
//   - RateLimit: per-IP rate limiting
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	if err := cfg.Validate(); err != nil {
//		log.Fatal(err)
//	}
//
// Environment Variables:
//   - PORT, HOST
//   - ACTIVITY_INTERVAL, WATCHDOG_INTERVAL, HEARTBEAT_STALENESS, RESTART_DELAY
//   - CAPTURE_INTERVAL, CAPTURE_WARMUP
//   - MESSAGE_CAPACITY, EVENT_CAPACITY, ARTIFACT_CAPACITY, SEED_FILE
//   - BROADCAST_INTERVAL
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
