package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/GriffinCanCode/AtlasOS/backend/internal/domain/kernel"
	"github.com/GriffinCanCode/AtlasOS/backend/internal/domain/recovery"
	"github.com/GriffinCanCode/AtlasOS/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AtlasOS/backend/internal/infrastructure/task"
	"github.com/GriffinCanCode/AtlasOS/backend/internal/shared/id"
	"github.com/GriffinCanCode/AtlasOS/backend/internal/shared/types"
)

// ProcessTable is the scheduler surface the broadcaster reads and mutates
type ProcessTable interface {
	All() []types.Process
	FindByName(name string) (types.Process, bool)
	UpdateStatus(pid uint32, status types.Status) bool
}

// MessageBus is the IPC surface the broadcaster reads and sends on
type MessageBus interface {
	Recent(limit int) []types.IPCMessage
	Send(source, destination, msgType string, payload any) types.IPCMessage
}

// Recovery is the recovery agent surface
type Recovery interface {
	RecentEvents(limit int) []types.Event
	LogEvent(message string, severity types.Severity) types.Event
	ForceRestart(pid uint32) bool
}

// ArtifactLog exposes captured artifacts
type ArtifactLog interface {
	RecentArtifacts(limit int) []types.Artifact
}

// PageMonitor samples paging figures
type PageMonitor interface {
	Sample(processes []types.Process) types.MMUStats
}

// Sources are the read and control paths into the kernel
type Sources struct {
	Processes ProcessTable
	Bus       MessageBus
	Recovery  Recovery
	Artifacts ArtifactLog
	MMU       PageMonitor
	Uptime    func() time.Duration
}

// SourcesFromKernel wires Sources to a kernel's components
func SourcesFromKernel(k *kernel.Kernel) Sources {
	return Sources{
		Processes: k.Scheduler,
		Bus:       k.IPC,
		Recovery:  k.Recovery,
		Artifacts: k.Hardware,
		MMU:       k.MMU,
		Uptime:    k.Uptime,
	}
}

// Config holds push cadence and snapshot window sizes
type Config struct {
	Interval      time.Duration
	MessageLimit  int
	EventLimit    int
	ArtifactLimit int
}

// DefaultConfig returns the standard snapshot settings
func DefaultConfig() Config {
	return Config{
		Interval:      time.Second,
		MessageLimit:  10,
		EventLimit:    20,
		ArtifactLimit: 6,
	}
}

// Sink receives pushed snapshots. Deliver must not block for long.
type Sink interface {
	Deliver(env types.Envelope)
}

// Broadcaster composes snapshots and serves observers
type Broadcaster struct {
	src     Sources
	cfg     Config
	logger  *zap.Logger
	metrics *monitoring.Metrics

	mu        sync.RWMutex
	observers map[id.ObserverID]*Observer // Protected by mu
}

// NewBroadcaster creates a broadcaster over src
func NewBroadcaster(src Sources, cfg Config, logger *zap.Logger) *Broadcaster {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broadcaster{
		src:       src,
		cfg:       cfg,
		logger:    logger,
		observers: make(map[id.ObserverID]*Observer),
	}
}

// WithMetrics adds metrics tracking to the broadcaster
func (b *Broadcaster) WithMetrics(metrics *monitoring.Metrics) *Broadcaster {
	b.metrics = metrics
	return b
}

// Snapshot composes the current kernel state
func (b *Broadcaster) Snapshot() types.Snapshot {
	procs := b.src.Processes.All()
	mmu := b.src.MMU.Sample(procs)

	return types.Snapshot{
		Processes: procs,
		Messages:  b.src.Bus.Recent(b.cfg.MessageLimit),
		Events:    b.src.Recovery.RecentEvents(b.cfg.EventLimit),
		Artifacts: b.src.Artifacts.RecentArtifacts(b.cfg.ArtifactLimit),
		MMU:       &mmu,
		Uptime:    int64(b.src.Uptime() / time.Second),
		TotalCPU:  floats.Sum(loads(procs)),
	}
}

// Envelope wraps a fresh snapshot for the push channel
func (b *Broadcaster) Envelope() types.Envelope {
	return types.Envelope{Type: types.EnvelopeStateUpdate, Data: b.Snapshot()}
}

// Status summarizes the kernel for synchronous queries
func (b *Broadcaster) Status() types.StatusSummary {
	procs := b.src.Processes.All()
	cpu := loads(procs)

	crashed := 0
	for _, p := range procs {
		if p.Status == types.StatusCrashed {
			crashed++
		}
	}

	avg := 0.0
	if len(cpu) > 0 {
		avg = stat.Mean(cpu, nil)
	}

	return types.StatusSummary{
		Status:       "online",
		Uptime:       int64(b.src.Uptime() / time.Second),
		ProcessCount: len(procs),
		TotalCPU:     floats.Sum(cpu),
		AverageCPU:   avg,
		Crashed:      crashed,
	}
}

// Attach delivers a snapshot to sink immediately and then on every interval
// until the returned observer is detached or ctx is cancelled.
func (b *Broadcaster) Attach(ctx context.Context, sink Sink) *Observer {
	obs := &Observer{
		id:          id.NewObserverID(),
		broadcaster: b,
	}

	sink.Deliver(b.Envelope())
	obs.handle = task.Every(ctx, b.cfg.Interval, func() {
		sink.Deliver(b.Envelope())
	})

	b.mu.Lock()
	b.observers[obs.id] = obs
	count := len(b.observers)
	b.mu.Unlock()

	b.logger.Info("Dashboard connected",
		zap.String("observer_id", obs.id.String()),
		zap.Int("observers", count),
	)

	return obs
}

// ObserverCount returns the number of attached observers
func (b *Broadcaster) ObserverCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.observers)
}

// Apply executes a command. It reports false when the named process does
// not exist, which is otherwise a silent no-op.
func (b *Broadcaster) Apply(cmd Command) bool {
	p, ok := b.src.Processes.FindByName(cmd.Target())
	if !ok {
		b.metrics.RecordCommand(cmd.Type(), "ignored")
		b.logger.Debug("Command for unknown process",
			zap.String("type", cmd.Type()),
			zap.String("process", cmd.Target()),
		)
		return false
	}

	switch cmd.(type) {
	case SimulateFailure:
		b.src.Processes.UpdateStatus(p.PID, types.StatusCrashed)
		b.metrics.IncCrash("simulated")
		b.src.Recovery.LogEvent(fmt.Sprintf("SIMULATION: %s crashed!", p.Name), types.SeverityError)
		b.src.Bus.Send(kernel.Name, recovery.Name, kernel.MsgProcessCrashed, types.RestartPayload{PID: p.PID})
	case RestartProcess:
		b.src.Recovery.ForceRestart(p.PID)
	}

	b.metrics.RecordCommand(cmd.Type(), "applied")
	b.logger.Info("Command applied",
		zap.String("type", cmd.Type()),
		zap.Uint32("pid", p.PID),
		zap.String("process", p.Name),
	)
	return true
}

func (b *Broadcaster) detach(obs *Observer) {
	b.mu.Lock()
	delete(b.observers, obs.id)
	count := len(b.observers)
	b.mu.Unlock()

	b.logger.Info("Observer detached",
		zap.String("observer_id", obs.id.String()),
		zap.Int("observers", count),
	)
}

// Observer is one attached snapshot consumer
type Observer struct {
	id          id.ObserverID
	broadcaster *Broadcaster
	handle      *task.Handle
	once        sync.Once
}

// ID returns the observer identifier
func (o *Observer) ID() id.ObserverID {
	return o.id
}

// Detach stops the push task exactly once. After it returns the sink
// receives nothing further.
func (o *Observer) Detach() {
	o.once.Do(func() {
		o.handle.Cancel()
		o.broadcaster.detach(o)
	})
}

func loads(procs []types.Process) []float64 {
	out := make([]float64, len(procs))
	for i, p := range procs {
		out[i] = p.CPULoad
	}
	return out
}
