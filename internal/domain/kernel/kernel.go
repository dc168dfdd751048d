package kernel

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AtlasOS/backend/internal/domain/hardware"
	"github.com/GriffinCanCode/AtlasOS/backend/internal/domain/ipc"
	"github.com/GriffinCanCode/AtlasOS/backend/internal/domain/mmu"
	"github.com/GriffinCanCode/AtlasOS/backend/internal/domain/recovery"
	"github.com/GriffinCanCode/AtlasOS/backend/internal/domain/scheduler"
	"github.com/GriffinCanCode/AtlasOS/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AtlasOS/backend/internal/shared/types"
)

// Name is the kernel's own bus address
const Name = "kernel"

// Bus message types originated by the kernel
const (
	MsgInit           = "INIT"
	MsgProcessCrashed = "PROCESS_CRASHED"
	MsgShutdown       = "SHUTDOWN"
)

// Options configures a Kernel
type Options struct {
	ActivityInterval time.Duration
	MessageCapacity  int
	Recovery         recovery.Config
	Hardware         hardware.Config
	Seeds            []Seed
}

// DefaultOptions returns the standard kernel settings
func DefaultOptions() Options {
	return Options{
		ActivityInterval: time.Second,
		MessageCapacity:  50,
		Recovery:         recovery.DefaultConfig(),
		Hardware:         hardware.DefaultConfig(),
		Seeds:            DefaultSeeds(),
	}
}

// Kernel is the composition root of the simulation
type Kernel struct {
	Scheduler *scheduler.Scheduler
	IPC       *ipc.Hub
	Recovery  *recovery.Agent
	Hardware  *hardware.Simulator
	MMU       *mmu.Monitor

	activity  *scheduler.Activity
	startedAt time.Time
	logger    *zap.Logger
	metrics   *monitoring.Metrics

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
}

// New builds and seeds a kernel. It does not start any periodic work.
func New(opts Options, logger *zap.Logger, metrics *monitoring.Metrics) (*Kernel, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := validateSeeds(opts.Seeds); err != nil {
		return nil, err
	}

	sched := scheduler.New(logger.Named("scheduler")).WithMetrics(metrics)
	hub := ipc.NewHub(opts.MessageCapacity, logger.Named("ipc")).WithMetrics(metrics)
	agent := recovery.NewAgent(opts.Recovery, sched, hub, logger.Named("recovery")).WithMetrics(metrics)
	hw := hardware.NewSimulator(opts.Hardware, hub, agent, logger.Named("hardware")).WithMetrics(metrics)

	k := &Kernel{
		Scheduler: sched,
		IPC:       hub,
		Recovery:  agent,
		Hardware:  hw,
		MMU:       mmu.NewMonitor(),
		activity:  scheduler.NewActivity(sched, opts.ActivityInterval),
		startedAt: time.Now(),
		logger:    logger,
		metrics:   metrics,
	}

	k.subscribe()

	for _, s := range opts.Seeds {
		status := s.Status
		if status == "" {
			status = types.StatusRunning
		}
		sched.CreateProcessWithStatus(s.Name, s.Priority, status)
	}

	logger.Info("Kernel assembled", zap.Int("processes", len(opts.Seeds)))
	return k, nil
}

// subscribe wires the in-kernel bus handlers
func (k *Kernel) subscribe() {
	// The camera driver acknowledges each interrupt, which counts as a heartbeat
	k.IPC.Subscribe(hardware.Driver, func(msg types.IPCMessage) {
		if msg.Type != hardware.MsgImageCaptured {
			return
		}
		if p, ok := k.Scheduler.FindByName(hardware.Driver); ok && p.Status == types.StatusRunning {
			k.Scheduler.UpdateHeartbeat(p.PID)
		}
	})

	k.IPC.Subscribe(recovery.Name, func(msg types.IPCMessage) {
		switch msg.Type {
		case MsgProcessCrashed:
			if payload, ok := msg.Payload.(types.RestartPayload); ok {
				k.logger.Debug("Crash reported to recovery agent", zap.Uint32("pid", payload.PID))
			}
		case MsgShutdown:
			k.logger.Debug("Recovery agent notified of shutdown")
		}
	})
}

// Start launches the activity tick, the watchdog and the camera
func (k *Kernel) Start(ctx context.Context) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.running {
		return
	}
	ctx, k.cancel = context.WithCancel(ctx)
	k.running = true

	k.activity.Start(ctx)
	k.Recovery.Start(ctx)
	k.Hardware.Start(ctx)

	k.Recovery.LogEvent("AtlasOS microkernel initialized", types.SeveritySuccess)
	k.Recovery.LogEvent("Mission 3I/ATLAS - system online", types.SeveritySuccess)

	for _, dest := range []string{"flight_control", "nav_ai"} {
		k.IPC.Send(Name, dest, MsgInit, nil)
	}

	k.logger.Info("Kernel started")
}

// Stop cancels every periodic and deferred task, then broadcasts a shutdown
// notice to every subscriber on the bus
func (k *Kernel) Stop() {
	k.mu.Lock()
	defer k.mu.Unlock()

	if !k.running {
		return
	}
	k.running = false

	k.Hardware.Stop()
	k.Recovery.Stop()
	k.activity.Stop()
	k.cancel()

	notified := k.IPC.Broadcast(Name, MsgShutdown, nil)

	k.logger.Info("Kernel stopped", zap.Int("notified", len(notified)))
}

// Uptime returns the time since the kernel was built
func (k *Kernel) Uptime() time.Duration {
	return time.Since(k.startedAt)
}

// RemoveProcess cancels any restart for pid and deletes it
func (k *Kernel) RemoveProcess(pid uint32) bool {
	k.Recovery.Forget(pid)
	return k.Scheduler.RemoveProcess(pid)
}
