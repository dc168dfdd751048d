package types

import "time"

// Priority ranks a process for the ready queue
type Priority string

const (
	PriorityP1 Priority = "P1" // Critical - flight control
	PriorityP2 Priority = "P2" // High - navigation AI, comms
	PriorityP3 Priority = "P3" // Medium - drivers and servers
	PriorityP4 Priority = "P4" // Low - science apps
)

// Weight returns the ordering rank of the priority (P1 highest).
// Unknown priorities weigh zero and sort last.
func (p Priority) Weight() int {
	switch p {
	case PriorityP1:
		return 4
	case PriorityP2:
		return 3
	case PriorityP3:
		return 2
	case PriorityP4:
		return 1
	default:
		return 0
	}
}

// Valid reports whether p is one of the four known priorities
func (p Priority) Valid() bool {
	return p.Weight() > 0
}

// Status represents process lifecycle states
type Status string

const (
	StatusRunning Status = "Running"
	StatusWaiting Status = "Waiting"
	StatusBlocked Status = "Blocked"
	StatusCrashed Status = "Crashed"
)

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusRunning, StatusWaiting, StatusBlocked, StatusCrashed:
		return true
	}
	return false
}

// Process represents one entry of the simulated process table
type Process struct {
	PID           uint32    `json:"pid" yaml:"-"`
	Name          string    `json:"name" yaml:"name"`
	Priority      Priority  `json:"priority" yaml:"priority"`
	Status        Status    `json:"status" yaml:"status"`
	CPULoad       float64   `json:"cpu" yaml:"-"`
	StartedAt     time.Time `json:"startTime" yaml:"-"`
	LastHeartbeat time.Time `json:"lastHeartbeat" yaml:"-"`
	Restarts      int       `json:"restarts" yaml:"-"`
}
