// Package http exposes the kernel over a read-mostly HTTP API.
//
// Endpoints:
//   - GET /              banner, or the snapshot stream on a WebSocket upgrade
//   - GET /health        liveness with observer and process counts
//   - GET /api/status    status summary
//   - GET /api/state     full snapshot
//   - GET /api/processes process table and ready queue
//   - GET /api/schedule  process at the head of the ready queue
//   - GET /api/events    recent events (?limit=)
//   - GET /api/messages  recent IPC messages (?limit=)
//   - GET /api/artifacts recent artifacts (?limit=)
//   - GET /api/metrics   counter snapshot as JSON
package http
