// Package server wires the kernel, the snapshot broadcaster and the gin
// router into one runnable HTTP server.
//
// Routes:
//
//	GET /             banner, or the snapshot stream on upgrade
//	GET /stream       WebSocket snapshot stream and command channel
//	GET /health       health check
//	GET /api/...      query interface
//	GET /metrics      Prometheus exposition
//
// Run binds before starting the kernel, so a bind failure leaves nothing
// running and is returned to the caller.
package server
