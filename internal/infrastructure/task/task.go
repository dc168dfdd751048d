// Package task runs periodic and deferred work behind cancellation handles.
//
// Every periodic tick and one-shot deferred action in the kernel goes through
// this package instead of bare goroutines, so that stopping a component is a
// single Cancel call with a hard guarantee: once Cancel returns, the task
// function is not running and will never run again.
//
// Example Usage:
//
//	h := task.Every(ctx, time.Second, scheduler.SimulateActivity)
//	defer h.Cancel()
//
//	done := task.After(ctx, 2*time.Second, completeRestart)
//	done.Cancel() // completeRestart will not run
package task

import (
	"context"
	"sync"
	"time"
)

// Handle controls a scheduled task
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func newHandle(ctx context.Context) (*Handle, context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	cctx, cancel := context.WithCancel(ctx)
	return &Handle{cancel: cancel, done: make(chan struct{})}, cctx
}

// Cancel stops the task and waits for an in-progress run to return.
// It is safe to call more than once and from multiple goroutines, but
// must not be called from inside the task's own function.
func (h *Handle) Cancel() {
	if h == nil {
		return
	}
	h.once.Do(h.cancel)
	<-h.done
}

// Done is closed once the task has finished for good
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Every runs fn on each interval tick until ctx is cancelled or the
// handle is cancelled. The first run happens one interval after start.
func Every(ctx context.Context, interval time.Duration, fn func()) *Handle {
	h, cctx := newHandle(ctx)

	go func() {
		defer close(h.done)
		defer h.cancel()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-cctx.Done():
				return
			case <-ticker.C:
				// A tick and a cancel can be ready together
				if cctx.Err() != nil {
					return
				}
				fn()
			}
		}
	}()

	return h
}

// After runs fn once after delay unless cancelled first
func After(ctx context.Context, delay time.Duration, fn func()) *Handle {
	h, cctx := newHandle(ctx)

	go func() {
		defer close(h.done)
		defer h.cancel()

		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-cctx.Done():
			return
		case <-timer.C:
			if cctx.Err() != nil {
				return
			}
			fn()
		}
	}()

	return h
}
