package types

// EnvelopeStateUpdate is the only outbound push-channel frame type
const EnvelopeStateUpdate = "STATE_UPDATE"

// MMUStats holds synthetic paging figures
type MMUStats struct {
	UsedPages  int `json:"usedPages"`
	TotalPages int `json:"totalPages"`
	PageFaults int `json:"pageFaults"`
}

// Snapshot is a point-in-time aggregate of the kernel state
type Snapshot struct {
	Processes []Process    `json:"processes"`
	Messages  []IPCMessage `json:"ipcMessages"`
	Events    []Event      `json:"events"`
	Artifacts []Artifact   `json:"cometImages"`
	MMU       *MMUStats    `json:"mmu,omitempty"`
	Uptime    int64        `json:"uptime"`
	TotalCPU  float64      `json:"totalCpu"`
}

// Envelope wraps a snapshot for the push channel
type Envelope struct {
	Type string   `json:"type"`
	Data Snapshot `json:"data"`
}

// StatusSummary is the synchronous status query result
type StatusSummary struct {
	Status       string  `json:"status"`
	Uptime       int64   `json:"uptime"`
	ProcessCount int     `json:"processCount"`
	TotalCPU     float64 `json:"totalCpu"`
	AverageCPU   float64 `json:"averageCpu"`
	Crashed      int     `json:"crashed"`
}
