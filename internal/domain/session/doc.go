// Package session composes kernel state into snapshots and pushes them to
// attached observers.
//
// Components:
//   - Broadcaster: snapshot composition, observer lifecycle, command dispatch
//   - Observer: one attached sink with its own periodic push task
//   - Command: the closed set of inbound control commands
//
// An observer receives one snapshot as soon as it attaches and then one per
// interval until it is detached. Detach is idempotent; once it returns the
// sink is never called again.
//
// Example Usage:
//
//	b := session.NewBroadcaster(session.SourcesFromKernel(k), session.DefaultConfig(), logger)
//	obs := b.Attach(ctx, sink)
//	defer obs.Detach()
//
//	cmd, err := session.ParseCommand(frame)
//	if err == nil {
//		b.Apply(cmd)
//	}
package session
