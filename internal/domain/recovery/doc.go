/*
Package recovery implements the watchdog that detects stalled processes and
brings crashed ones back.

Each watchdog tick walks the process table once:

  - a Running process whose heartbeat is older than the staleness threshold
    is marked Crashed and a warning event is logged
  - a Crashed process starts a restart sequence: a warning event, a RESTART
    message to the process, and a deferred completion that sets it Running

A process has at most one restart in flight. Completions are cancelled by
Stop, Forget and ForceRestart, and a completion that fires only applies if
the process still exists and is still Crashed. Stop and Forget wait for a
completion that is already writing. Every revival is one scheduler update
(Running, fresh heartbeat, restart count), so a concurrent watchdog pass never
sees a Running process with its pre-crash heartbeat.

The agent also owns the kernel event log.
*/
package recovery
