// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: colored console output for humans
//
// Components receive a named child logger (scheduler, ipc, recovery,
// hardware, session, ws, http) and log with typed fields such as
// zap.Uint32("pid", ...) and zap.String("process", ...).
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("Server starting", zap.String("port", "3001"))
//	sched := scheduler.New(logger.Component("scheduler"))
package logging
