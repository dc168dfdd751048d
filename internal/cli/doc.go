// Package cli implements atlasctl, a cobra command tree over a small
// kernel client.
//
// Queries go over HTTP through resty, paced by a token bucket limiter and
// guarded by a circuit breaker so a dead server fails fast. Commands are
// single frames written to the /stream socket, the same channel
// dashboards use.
//
// Command Structure:
//
//	atlasctl
//	├── status                 system summary
//	├── snapshot               process table, memory, events
//	│   ├── --watch, -w
//	│   ├── --interval, -i
//	│   └── --json
//	├── fail <process>         inject a crash
//	└── restart <process>      manual restart
package cli
