package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/GriffinCanCode/AtlasOS/backend/internal/infrastructure/task"
)

// Activity drives SimulateActivity on a fixed cadence
type Activity struct {
	sched    *Scheduler
	interval time.Duration

	mu     sync.Mutex
	handle *task.Handle
}

// NewActivity creates an activity driver for s
func NewActivity(s *Scheduler, interval time.Duration) *Activity {
	return &Activity{sched: s, interval: interval}
}

// Start begins ticking. Calling Start on a running driver is a no-op.
func (a *Activity) Start(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.handle != nil {
		return
	}
	a.handle = task.Every(ctx, a.interval, a.sched.SimulateActivity)
}

// Stop cancels the tick and waits for a running tick to finish
func (a *Activity) Stop() {
	a.mu.Lock()
	h := a.handle
	a.handle = nil
	a.mu.Unlock()

	h.Cancel()
}
