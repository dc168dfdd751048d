// Package main is the entry point for the AtlasOS microkernel simulator.
//
// The server runs the simulated kernel (scheduler, IPC hub, recovery
// agent, camera hardware) and exposes it to dashboards:
//   - WebSocket snapshot stream with failure/restart commands
//   - REST query interface
//   - Prometheus metrics
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Production mode
//	./server -port 3001
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
//	# Custom process table
//	./server -seeds processes.yaml
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
