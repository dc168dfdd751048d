/*
Package monitoring provides Prometheus metrics for the kernel.

# Overview

Each Metrics value owns a private registry, so several kernels (or tests)
can coexist in one process without duplicate registration panics.

# Features

- HTTP request metrics (latency, status)
- Process table gauges (by status, ready queue length)
- Crash and restart counters, restarts in flight
- IPC message, event and artifact counters
- Push channel metrics (connections, snapshots sent and dropped, commands)
- Uptime

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	metrics.IncCrash("watchdog")
	metrics.IncRestart("automatic")
*/
package monitoring
