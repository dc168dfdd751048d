package recovery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AtlasOS/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AtlasOS/backend/internal/infrastructure/task"
	"github.com/GriffinCanCode/AtlasOS/backend/internal/shared/ring"
	"github.com/GriffinCanCode/AtlasOS/backend/internal/shared/types"
)

// Name is the agent's address on the message bus
const Name = "recovery_agent"

// MsgRestart is sent to a process when its restart begins
const MsgRestart = "RESTART"

// ProcessTable is the part of the scheduler the agent drives
type ProcessTable interface {
	Process(pid uint32) (types.Process, bool)
	All() []types.Process
	UpdateStatus(pid uint32, status types.Status) bool
	Revive(pid uint32) (types.Process, bool)
	ReviveCrashed(pid uint32) (types.Process, bool)
}

// Bus sends messages on behalf of the agent
type Bus interface {
	Send(source, destination, msgType string, payload any) types.IPCMessage
}

// Config holds agent timing and retention
type Config struct {
	WatchdogInterval time.Duration
	Staleness        time.Duration
	RestartDelay     time.Duration
	EventCapacity    int
}

// DefaultConfig returns the standard watchdog settings
func DefaultConfig() Config {
	return Config{
		WatchdogInterval: 3 * time.Second,
		Staleness:        5 * time.Second,
		RestartDelay:     2 * time.Second,
		EventCapacity:    100,
	}
}

// restart is one in-flight restart; compared by identity
type restart struct {
	cancel context.CancelFunc
	handle *task.Handle
}

func (r *restart) stop() {
	r.cancel()
	r.handle.Cancel()
}

// Agent watches process heartbeats and restarts crashed processes
type Agent struct {
	cfg     Config
	table   ProcessTable
	bus     Bus
	events  *ring.Log[types.Event]
	now     func() time.Time
	logger  *zap.Logger
	metrics *monitoring.Metrics

	mu       sync.Mutex
	ctx      context.Context
	watchdog *task.Handle
	inflight map[uint32]*restart // Protected by mu
}

// NewAgent creates a recovery agent over table and bus
func NewAgent(cfg Config, table ProcessTable, bus Bus, logger *zap.Logger) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{
		cfg:      cfg,
		table:    table,
		bus:      bus,
		events:   ring.New[types.Event](cfg.EventCapacity),
		now:      time.Now,
		logger:   logger,
		ctx:      context.Background(),
		inflight: make(map[uint32]*restart),
	}
}

// WithMetrics adds metrics tracking to the agent
func (a *Agent) WithMetrics(metrics *monitoring.Metrics) *Agent {
	a.metrics = metrics
	return a
}

// Start begins the watchdog. Restarts started afterwards are bound to ctx.
func (a *Agent) Start(ctx context.Context) {
	a.mu.Lock()
	if a.watchdog != nil {
		a.mu.Unlock()
		return
	}
	a.ctx = ctx
	a.watchdog = task.Every(ctx, a.cfg.WatchdogInterval, a.Check)
	a.mu.Unlock()

	a.LogEvent("Recovery agent started", types.SeveritySuccess)
}

// Stop cancels the watchdog and every pending restart completion. A
// completion already writing to the table finishes before Stop returns.
func (a *Agent) Stop() {
	a.mu.Lock()
	watchdog := a.watchdog
	a.watchdog = nil
	a.ctx = context.Background()
	a.mu.Unlock()

	// A pass in progress may still start restarts until Cancel returns
	watchdog.Cancel()

	a.mu.Lock()
	pending := make([]*restart, 0, len(a.inflight))
	for pid, r := range a.inflight {
		pending = append(pending, r)
		delete(a.inflight, pid)
	}
	a.mu.Unlock()

	for _, r := range pending {
		r.stop()
	}
	a.metrics.SetRestartsInFlight(0)
}

// Check runs one watchdog pass over the process table
func (a *Agent) Check() {
	now := a.now()

	for _, p := range a.table.All() {
		switch {
		case p.Status == types.StatusCrashed:
			a.Restart(p.PID)
		case p.Status == types.StatusRunning && now.Sub(p.LastHeartbeat) > a.cfg.Staleness:
			if !a.table.UpdateStatus(p.PID, types.StatusCrashed) {
				continue
			}
			a.metrics.IncCrash("watchdog")
			a.logger.Warn("Heartbeat lost",
				zap.Uint32("pid", p.PID),
				zap.String("process", p.Name),
				zap.Duration("silence", now.Sub(p.LastHeartbeat)),
			)
			a.LogEvent(fmt.Sprintf("%s not responding - marked as crashed", p.Name), types.SeverityWarning)
		}
	}
}

// Restart begins the restart sequence for a Crashed process. It reports
// false when the process is unknown, not Crashed, or already restarting.
func (a *Agent) Restart(pid uint32) bool {
	p, ok := a.table.Process(pid)
	if !ok || p.Status != types.StatusCrashed {
		return false
	}

	a.mu.Lock()
	if _, busy := a.inflight[pid]; busy {
		a.mu.Unlock()
		return false
	}
	rctx, cancel := context.WithCancel(a.ctx)
	r := &restart{cancel: cancel}
	a.inflight[pid] = r
	r.handle = task.After(rctx, a.cfg.RestartDelay, func() { a.complete(pid, r) })
	inflight := len(a.inflight)
	a.mu.Unlock()

	a.metrics.SetRestartsInFlight(inflight)
	a.LogEvent(fmt.Sprintf("Restarting %s...", p.Name), types.SeverityWarning)
	a.bus.Send(Name, p.Name, MsgRestart, types.RestartPayload{PID: pid})

	return true
}

// complete finishes a deferred restart if it is still the current one.
// The entry stays in flight until the table write lands, so Stop and Forget
// wait for it through the task handle.
func (a *Agent) complete(pid uint32, r *restart) {
	a.mu.Lock()
	current := a.inflight[pid] == r
	a.mu.Unlock()
	if !current {
		return
	}

	if p, ok := a.table.ReviveCrashed(pid); ok {
		a.revived(p)
		a.metrics.IncRestart("watchdog")
		a.LogEvent(fmt.Sprintf("%s restarted successfully", p.Name), types.SeveritySuccess)
	} else {
		a.logger.Debug("Restart completion skipped", zap.Uint32("pid", pid))
	}

	a.mu.Lock()
	if a.inflight[pid] == r {
		delete(a.inflight, pid)
	}
	inflight := len(a.inflight)
	a.mu.Unlock()

	r.cancel()
	a.metrics.SetRestartsInFlight(inflight)
}

// ForceRestart sets a process Running immediately, cancelling any restart
// already in flight for it.
func (a *Agent) ForceRestart(pid uint32) bool {
	if _, ok := a.table.Process(pid); !ok {
		return false
	}

	a.Forget(pid)
	p, ok := a.table.Revive(pid)
	if !ok {
		return false
	}
	a.revived(p)
	a.metrics.IncRestart("manual")
	a.LogEvent(fmt.Sprintf("%s restarted manually", p.Name), types.SeveritySuccess)

	return true
}

// Forget cancels any in-flight restart for pid
func (a *Agent) Forget(pid uint32) {
	a.mu.Lock()
	r, ok := a.inflight[pid]
	delete(a.inflight, pid)
	inflight := len(a.inflight)
	a.mu.Unlock()

	if !ok {
		return
	}
	r.stop()
	a.metrics.SetRestartsInFlight(inflight)
}

// Restarting reports whether pid has a restart in flight
func (a *Agent) Restarting(pid uint32) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.inflight[pid]
	return ok
}

func (a *Agent) revived(p types.Process) {
	a.logger.Info("Process revived",
		zap.Uint32("pid", p.PID),
		zap.String("process", p.Name),
		zap.Int("restarts", p.Restarts),
	)
}

// LogEvent appends an operator event and mirrors it to the logger
func (a *Agent) LogEvent(message string, severity types.Severity) types.Event {
	ev := types.Event{
		Timestamp: a.now(),
		Message:   message,
		Severity:  severity,
	}
	a.events.Append(ev)
	a.metrics.IncEvent(string(severity))

	fields := []zap.Field{zap.String("severity", string(severity))}
	switch severity {
	case types.SeverityError:
		a.logger.Error(message, fields...)
	case types.SeverityWarning:
		a.logger.Warn(message, fields...)
	default:
		a.logger.Info(message, fields...)
	}

	return ev
}

// RecentEvents returns up to limit of the newest events, oldest first
func (a *Agent) RecentEvents(limit int) []types.Event {
	return a.events.Recent(limit)
}
