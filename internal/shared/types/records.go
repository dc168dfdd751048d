package types

import "time"

// IPCMessage is a message recorded by the IPC hub. Immutable once created.
type IPCMessage struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Source      string    `json:"source"`
	Destination string    `json:"destination"`
	Type        string    `json:"type"`
	Payload     any       `json:"payload,omitempty"`
}

// Severity classifies an event for operators
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Event is an operator-visible narration entry
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"type"`
}

// Artifact is the evidence captured by a hardware interrupt (e.g. an image)
type Artifact struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description"`
	Label       string    `json:"label,omitempty"`
	URL         string    `json:"url,omitempty"`
}

// IRQPayload is carried by interrupt messages published on the hub
type IRQPayload struct {
	Artifact Artifact `json:"image"`
}

// RestartPayload is carried by RESTART and PROCESS_CRASHED messages
type RestartPayload struct {
	PID uint32 `json:"pid"`
}
