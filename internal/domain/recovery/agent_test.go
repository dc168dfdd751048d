package recovery

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AtlasOS/backend/internal/domain/ipc"
	"github.com/GriffinCanCode/AtlasOS/backend/internal/domain/scheduler"
	"github.com/GriffinCanCode/AtlasOS/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AtlasOS/backend/internal/shared/types"
)

type fixture struct {
	sched *scheduler.Scheduler
	hub   *ipc.Hub
	agent *Agent
}

func newFixture(t *testing.T, delay time.Duration) *fixture {
	t.Helper()
	sched := scheduler.New(nil)
	hub := ipc.NewHub(50, nil)
	cfg := DefaultConfig()
	cfg.RestartDelay = delay
	agent := NewAgent(cfg, sched, hub, nil)
	t.Cleanup(agent.Stop)
	return &fixture{sched: sched, hub: hub, agent: agent}
}

func (f *fixture) messages(msgType string) []types.IPCMessage {
	var out []types.IPCMessage
	for _, m := range f.hub.Recent(0) {
		if m.Type == msgType {
			out = append(out, m)
		}
	}
	return out
}

func (f *fixture) hasEvent(message string, severity types.Severity) bool {
	for _, ev := range f.agent.RecentEvents(0) {
		if ev.Message == message && ev.Severity == severity {
			return true
		}
	}
	return false
}

// hookedTable runs hooks around the scheduler writes the agent makes.
// Writes issued from inside a hook pass straight through.
type hookedTable struct {
	*scheduler.Scheduler
	before func()
	after  func()
	busy   atomic.Bool
}

func (h *hookedTable) around(write func()) {
	if !h.busy.CompareAndSwap(false, true) {
		write()
		return
	}
	defer h.busy.Store(false)

	if h.before != nil {
		h.before()
	}
	write()
	if h.after != nil {
		h.after()
	}
}

func (h *hookedTable) UpdateStatus(pid uint32, status types.Status) (ok bool) {
	h.around(func() { ok = h.Scheduler.UpdateStatus(pid, status) })
	return ok
}

func (h *hookedTable) Revive(pid uint32) (p types.Process, ok bool) {
	h.around(func() { p, ok = h.Scheduler.Revive(pid) })
	return p, ok
}

func (h *hookedTable) ReviveCrashed(pid uint32) (p types.Process, ok bool) {
	h.around(func() { p, ok = h.Scheduler.ReviveCrashed(pid) })
	return p, ok
}

func TestCheckMarksStaleProcessCrashed(t *testing.T) {
	f := newFixture(t, time.Hour)
	nav := f.sched.CreateProcess("nav_ai", types.PriorityP2)
	waiting := f.sched.CreateProcessWithStatus("analyzer", types.PriorityP4, types.StatusWaiting)

	f.agent.now = func() time.Time { return time.Now().Add(10 * time.Second) }
	f.agent.Check()

	p, _ := f.sched.Process(nav.PID)
	assert.Equal(t, types.StatusCrashed, p.Status)
	assert.NotContains(t, f.sched.ReadyQueue(), nav.PID)
	assert.True(t, f.hasEvent("nav_ai not responding - marked as crashed", types.SeverityWarning))

	w, _ := f.sched.Process(waiting.PID)
	assert.Equal(t, types.StatusWaiting, w.Status)

	// Restart starts on the next pass, not the one that crashed it
	assert.Empty(t, f.messages(MsgRestart))
}

func TestCheckLeavesFreshProcessesAlone(t *testing.T) {
	f := newFixture(t, time.Hour)
	p := f.sched.CreateProcess("flight_control", types.PriorityP1)

	f.agent.Check()

	got, _ := f.sched.Process(p.PID)
	assert.Equal(t, types.StatusRunning, got.Status)
	assert.Empty(t, f.agent.RecentEvents(0))
}

func TestRestartSequence(t *testing.T) {
	f := newFixture(t, 10*time.Millisecond)
	p := f.sched.CreateProcess("nav_ai", types.PriorityP2)
	f.sched.UpdateStatus(p.PID, types.StatusCrashed)

	trigger := time.Now()
	f.agent.Check()

	assert.True(t, f.hasEvent("Restarting nav_ai...", types.SeverityWarning))
	restarts := f.messages(MsgRestart)
	require.Len(t, restarts, 1)
	assert.Equal(t, Name, restarts[0].Source)
	assert.Equal(t, "nav_ai", restarts[0].Destination)
	assert.Equal(t, types.RestartPayload{PID: p.PID}, restarts[0].Payload)

	require.Eventually(t, func() bool {
		got, _ := f.sched.Process(p.PID)
		return got.Status == types.StatusRunning
	}, time.Second, 5*time.Millisecond)

	got, _ := f.sched.Process(p.PID)
	assert.Equal(t, 1, got.Restarts)
	assert.False(t, got.LastHeartbeat.Before(trigger))
	assert.Contains(t, f.sched.ReadyQueue(), p.PID)
	assert.True(t, f.hasEvent("nav_ai restarted successfully", types.SeveritySuccess))
	assert.False(t, f.agent.Restarting(p.PID))
}

func TestRestartIsIdempotentWhileInFlight(t *testing.T) {
	f := newFixture(t, time.Hour)
	p := f.sched.CreateProcess("driver_npu", types.PriorityP3)
	f.sched.UpdateStatus(p.PID, types.StatusCrashed)

	assert.True(t, f.agent.Restart(p.PID))
	assert.False(t, f.agent.Restart(p.PID))
	f.agent.Check()
	f.agent.Check()

	assert.Len(t, f.messages(MsgRestart), 1)
	assert.True(t, f.agent.Restarting(p.PID))
}

func TestRestartRejectsUnknownOrHealthy(t *testing.T) {
	f := newFixture(t, time.Hour)
	p := f.sched.CreateProcess("dsn_comms", types.PriorityP2)

	assert.False(t, f.agent.Restart(p.PID))
	assert.False(t, f.agent.Restart(404))
	assert.Empty(t, f.messages(MsgRestart))
}

func TestStopCancelsPendingCompletion(t *testing.T) {
	f := newFixture(t, 30*time.Millisecond)
	p := f.sched.CreateProcess("file_server", types.PriorityP3)
	f.sched.UpdateStatus(p.PID, types.StatusCrashed)

	require.True(t, f.agent.Restart(p.PID))
	f.agent.Stop()
	time.Sleep(80 * time.Millisecond)

	got, _ := f.sched.Process(p.PID)
	assert.Equal(t, types.StatusCrashed, got.Status)
	assert.Equal(t, 0, got.Restarts)
	assert.False(t, f.agent.Restarting(p.PID))
}

func TestCompletionSkippedForRemovedProcess(t *testing.T) {
	f := newFixture(t, 10*time.Millisecond)
	p := f.sched.CreateProcess("device_server", types.PriorityP3)
	f.sched.UpdateStatus(p.PID, types.StatusCrashed)

	require.True(t, f.agent.Restart(p.PID))
	f.sched.RemoveProcess(p.PID)

	require.Eventually(t, func() bool {
		return !f.agent.Restarting(p.PID)
	}, time.Second, 5*time.Millisecond)

	_, ok := f.sched.Process(p.PID)
	assert.False(t, ok)
	assert.False(t, f.hasEvent("device_server restarted successfully", types.SeveritySuccess))
}

func TestCompletionSkippedWhenNoLongerCrashed(t *testing.T) {
	f := newFixture(t, 10*time.Millisecond)
	p := f.sched.CreateProcess("memory_server", types.PriorityP3)
	f.sched.UpdateStatus(p.PID, types.StatusCrashed)

	require.True(t, f.agent.Restart(p.PID))
	f.sched.UpdateStatus(p.PID, types.StatusBlocked)

	require.Eventually(t, func() bool {
		return !f.agent.Restarting(p.PID)
	}, time.Second, 5*time.Millisecond)

	got, _ := f.sched.Process(p.PID)
	assert.Equal(t, types.StatusBlocked, got.Status)
	assert.Equal(t, 0, got.Restarts)
}

func TestForgetCancelsRestart(t *testing.T) {
	f := newFixture(t, 20*time.Millisecond)
	p := f.sched.CreateProcess("driver_camera", types.PriorityP3)
	f.sched.UpdateStatus(p.PID, types.StatusCrashed)

	require.True(t, f.agent.Restart(p.PID))
	f.agent.Forget(p.PID)
	time.Sleep(50 * time.Millisecond)

	got, _ := f.sched.Process(p.PID)
	assert.Equal(t, types.StatusCrashed, got.Status)

	// A fresh restart may begin once the old one is gone
	assert.True(t, f.agent.Restart(p.PID))
}

func TestForceRestart(t *testing.T) {
	m := monitoring.NewMetrics()
	f := newFixture(t, 20*time.Millisecond)
	f.agent.WithMetrics(m)
	p := f.sched.CreateProcess("nav_ai", types.PriorityP2)
	f.sched.UpdateStatus(p.PID, types.StatusCrashed)
	require.True(t, f.agent.Restart(p.PID))

	trigger := time.Now()
	require.True(t, f.agent.ForceRestart(p.PID))

	got, _ := f.sched.Process(p.PID)
	assert.Equal(t, types.StatusRunning, got.Status)
	assert.Equal(t, 1, got.Restarts)
	assert.False(t, got.LastHeartbeat.Before(trigger))
	assert.False(t, f.agent.Restarting(p.PID))
	assert.True(t, f.hasEvent("nav_ai restarted manually", types.SeveritySuccess))

	// The cancelled completion must not count a second restart
	time.Sleep(50 * time.Millisecond)
	got, _ = f.sched.Process(p.PID)
	assert.Equal(t, 1, got.Restarts)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Restarts.WithLabelValues("manual")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Restarts.WithLabelValues("watchdog")))

	assert.False(t, f.agent.ForceRestart(404))
}

func TestRevivedProcessSurvivesImmediateCheck(t *testing.T) {
	tests := []struct {
		name   string
		revive func(t *testing.T, agent *Agent, pid uint32)
	}{
		{
			name: "manual",
			revive: func(t *testing.T, agent *Agent, pid uint32) {
				require.True(t, agent.ForceRestart(pid))
			},
		},
		{
			name: "watchdog",
			revive: func(t *testing.T, agent *Agent, pid uint32) {
				require.True(t, agent.Restart(pid))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sched := scheduler.New(nil)
			table := &hookedTable{Scheduler: sched}
			agent := NewAgent(Config{
				WatchdogInterval: time.Hour,
				Staleness:        20 * time.Millisecond,
				RestartDelay:     5 * time.Millisecond,
				EventCapacity:    100,
			}, table, ipc.NewHub(50, nil), nil)
			t.Cleanup(agent.Stop)

			// Every write the agent makes is followed by a watchdog pass
			table.after = agent.Check

			p := sched.CreateProcess("nav_ai", types.PriorityP2)
			time.Sleep(40 * time.Millisecond)
			require.True(t, sched.UpdateStatus(p.PID, types.StatusCrashed))

			trigger := time.Now()
			tt.revive(t, agent, p.PID)

			require.Eventually(t, func() bool {
				return !agent.Restarting(p.PID)
			}, time.Second, 5*time.Millisecond)

			got, _ := sched.Process(p.PID)
			assert.Equal(t, types.StatusRunning, got.Status)
			assert.Equal(t, 1, got.Restarts)
			assert.False(t, got.LastHeartbeat.Before(trigger))
			assert.Contains(t, sched.ReadyQueue(), p.PID)
			for _, ev := range agent.RecentEvents(0) {
				assert.NotEqual(t, "nav_ai not responding - marked as crashed", ev.Message)
			}
		})
	}
}

func TestStopWaitsForCompletionInProgress(t *testing.T) {
	sched := scheduler.New(nil)
	entered := make(chan struct{})
	release := make(chan struct{})
	var wrote atomic.Bool
	table := &hookedTable{
		Scheduler: sched,
		before: func() {
			close(entered)
			<-release
		},
		after: func() { wrote.Store(true) },
	}
	cfg := DefaultConfig()
	cfg.RestartDelay = time.Millisecond
	agent := NewAgent(cfg, table, ipc.NewHub(50, nil), nil)

	p := sched.CreateProcess("file_server", types.PriorityP3)
	require.True(t, sched.UpdateStatus(p.PID, types.StatusCrashed))
	require.True(t, agent.Restart(p.PID))

	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("restart completion never reached the table")
	}

	stopped := make(chan struct{})
	go func() {
		agent.Stop()
		close(stopped)
	}()

	assert.Never(t, func() bool {
		select {
		case <-stopped:
			return true
		default:
			return false
		}
	}, 30*time.Millisecond, 5*time.Millisecond)

	close(release)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}

	assert.True(t, wrote.Load())
	got, _ := sched.Process(p.PID)
	assert.Equal(t, types.StatusRunning, got.Status)
	assert.Equal(t, 1, got.Restarts)
	assert.False(t, agent.Restarting(p.PID))
}

func TestEventLogIsBounded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EventCapacity = 3
	agent := NewAgent(cfg, scheduler.New(nil), ipc.NewHub(1, nil), nil)

	for i := 0; i < 5; i++ {
		agent.LogEvent(fmt.Sprintf("event %d", i), types.SeverityInfo)
	}

	events := agent.RecentEvents(20)
	require.Len(t, events, 3)
	assert.Equal(t, "event 2", events[0].Message)
	assert.Equal(t, "event 4", events[2].Message)

	assert.Len(t, agent.RecentEvents(2), 2)
}

func TestWatchdogLoop(t *testing.T) {
	sched := scheduler.New(nil)
	hub := ipc.NewHub(50, nil)
	agent := NewAgent(Config{
		WatchdogInterval: 5 * time.Millisecond,
		Staleness:        20 * time.Millisecond,
		RestartDelay:     5 * time.Millisecond,
		EventCapacity:    100,
	}, sched, hub, nil)
	p := sched.CreateProcess("flight_control", types.PriorityP1)

	agent.Start(context.Background())
	defer agent.Stop()

	require.Eventually(t, func() bool {
		got, _ := sched.Process(p.PID)
		return got.Restarts >= 1
	}, 2*time.Second, 5*time.Millisecond)

	events := agent.RecentEvents(0)
	require.NotEmpty(t, events)
	assert.Equal(t, "Recovery agent started", events[0].Message)
}
