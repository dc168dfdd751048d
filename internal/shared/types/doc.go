// Package types provides shared data structures for the AtlasOS kernel.
//
// This package defines the records exchanged between the kernel components
// and pushed to observers, ensuring every component speaks the same shapes.
//
// Core Types:
//   - Process: Entry in the process table
//   - IPCMessage: Message recorded by the IPC hub
//   - Event: Operator-visible narration logged by the recovery agent
//   - Artifact: Evidence captured by a hardware interrupt
//
// Snapshot Types:
//   - Snapshot: Point-in-time aggregate pushed to observers
//   - MMUStats: Synthetic paging figures
//   - Envelope: Outbound push-channel frame
//   - StatusSummary: Synchronous status query result
//
// Example Usage:
//
//	p := types.Process{
//	    PID:      1,
//	    Name:     "flight_control",
//	    Priority: types.PriorityP1,
//	    Status:   types.StatusRunning,
//	}
package types
