// Package ws serves the live snapshot stream over WebSocket.
//
// Each connection attaches one observer to the session broadcaster. Outbound
// frames are STATE_UPDATE envelopes; inbound frames are control commands
// (SIMULATE_FAILURE, RESTART_PROCESS). Malformed or unknown frames are logged
// and ignored, and the connection stays open.
//
// A connection holds at most one undelivered snapshot. When the client reads
// slower than the push interval, a newer snapshot replaces the pending one
// and the replaced one is counted as dropped.
//
// Example Usage:
//
//	handler := ws.NewHandler(broadcaster, logger).WithMetrics(metrics)
//	router.GET("/stream", handler.HandleConnection)
package ws
