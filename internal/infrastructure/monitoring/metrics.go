package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics.
// All recording methods are safe on a nil receiver, so components built
// without metrics need no guards at call sites.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Process table metrics
	Processes        *prometheus.GaugeVec
	ReadyQueueLen    prometheus.Gauge
	Crashes          *prometheus.CounterVec
	Restarts         *prometheus.CounterVec
	RestartsInFlight prometheus.Gauge

	// Log metrics
	IPCMessages *prometheus.CounterVec
	Events      *prometheus.CounterVec
	Artifacts   prometheus.Counter

	// Push channel metrics
	WSConnections    prometheus.Gauge
	SnapshotsSent    prometheus.Counter
	SnapshotsDropped prometheus.Counter
	CommandsTotal    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	mu       sync.Mutex
	snapshot MetricsSnapshot
}

// MetricsSnapshot holds current counter values for the JSON API
type MetricsSnapshot struct {
	TotalRequests     int64 `json:"total_requests"`
	TotalErrors       int64 `json:"total_errors"`
	ActiveConnections int64 `json:"active_connections"`
	SnapshotsSent     int64 `json:"snapshots_sent"`
	SnapshotsDropped  int64 `json:"snapshots_dropped"`
	Crashes           int64 `json:"crashes"`
	Restarts          int64 `json:"restarts"`
}

// NewMetrics creates a metrics collector on its own registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "atlas_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "atlas_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"method", "path"},
		),

		Processes: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "atlas_processes",
				Help: "Number of processes by status",
			},
			[]string{"status"},
		),
		ReadyQueueLen: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "atlas_ready_queue_length",
				Help: "Number of pids in the ready queue",
			},
		),
		Crashes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "atlas_process_crashes_total",
				Help: "Total number of process crashes by cause",
			},
			[]string{"cause"},
		),
		Restarts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "atlas_process_restarts_total",
				Help: "Total number of completed restarts by mode",
			},
			[]string{"mode"},
		),
		RestartsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "atlas_restarts_in_flight",
				Help: "Number of deferred restarts awaiting completion",
			},
		),

		IPCMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "atlas_ipc_messages_total",
				Help: "Total number of IPC messages by type",
			},
			[]string{"type"},
		),
		Events: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "atlas_events_total",
				Help: "Total number of logged events by severity",
			},
			[]string{"severity"},
		),
		Artifacts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "atlas_artifacts_captured_total",
				Help: "Total number of hardware artifacts captured",
			},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "atlas_ws_connections",
				Help: "Number of connected observers",
			},
		),
		SnapshotsSent: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "atlas_snapshots_sent_total",
				Help: "Total number of snapshots handed to observers",
			},
		),
		SnapshotsDropped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "atlas_snapshots_dropped_total",
				Help: "Total number of stale snapshots replaced before delivery",
			},
		),
		CommandsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "atlas_commands_total",
				Help: "Total number of inbound commands by type and outcome",
			},
			[]string{"type", "outcome"},
		),

		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "atlas_uptime_seconds",
				Help: "Kernel uptime in seconds",
			},
		),
	}

	return m
}

// Handler exposes the registry in Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RefreshUptime sets the uptime gauge from the collector start time
func (m *Metrics) RefreshUptime() {
	if m == nil {
		return
	}
	m.Uptime.Set(time.Since(m.startTime).Seconds())
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// SetProcessCounts replaces the per-status process gauges
func (m *Metrics) SetProcessCounts(byStatus map[string]int, ready int) {
	if m == nil {
		return
	}
	m.Processes.Reset()
	for status, n := range byStatus {
		m.Processes.WithLabelValues(status).Set(float64(n))
	}
	m.ReadyQueueLen.Set(float64(ready))
}

// IncCrash records a crash with its cause (watchdog, simulated)
func (m *Metrics) IncCrash(cause string) {
	if m == nil {
		return
	}
	m.Crashes.WithLabelValues(cause).Inc()
	m.mu.Lock()
	m.snapshot.Crashes++
	m.mu.Unlock()
}

// IncRestart records a completed restart with its mode (automatic, manual)
func (m *Metrics) IncRestart(mode string) {
	if m == nil {
		return
	}
	m.Restarts.WithLabelValues(mode).Inc()
	m.mu.Lock()
	m.snapshot.Restarts++
	m.mu.Unlock()
}

// SetRestartsInFlight sets the pending restart gauge
func (m *Metrics) SetRestartsInFlight(n int) {
	if m == nil {
		return
	}
	m.RestartsInFlight.Set(float64(n))
}

// IncIPCMessage records a message sent through the hub
func (m *Metrics) IncIPCMessage(msgType string) {
	if m == nil {
		return
	}
	m.IPCMessages.WithLabelValues(msgType).Inc()
}

// IncEvent records a logged event
func (m *Metrics) IncEvent(severity string) {
	if m == nil {
		return
	}
	m.Events.WithLabelValues(severity).Inc()
}

// IncArtifact records a hardware capture
func (m *Metrics) IncArtifact() {
	if m == nil {
		return
	}
	m.Artifacts.Inc()
}

// IncWSConnections increments connected observers
func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements connected observers
func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}

// IncSnapshotSent records a snapshot handed to an observer
func (m *Metrics) IncSnapshotSent() {
	if m == nil {
		return
	}
	m.SnapshotsSent.Inc()
	m.mu.Lock()
	m.snapshot.SnapshotsSent++
	m.mu.Unlock()
}

// IncSnapshotDropped records a stale snapshot replaced before delivery
func (m *Metrics) IncSnapshotDropped() {
	if m == nil {
		return
	}
	m.SnapshotsDropped.Inc()
	m.mu.Lock()
	m.snapshot.SnapshotsDropped++
	m.mu.Unlock()
}

// RecordCommand records an inbound command outcome
func (m *Metrics) RecordCommand(cmdType, outcome string) {
	if m == nil {
		return
	}
	m.CommandsTotal.WithLabelValues(cmdType, outcome).Inc()
}

// Snapshot returns a copy of the tracked counter values
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot
}
