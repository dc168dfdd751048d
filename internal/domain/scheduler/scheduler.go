// Package scheduler owns the simulated process table and its ready queue.
//
// The ready queue holds exactly the pids whose process is not Crashed, sorted
// by descending priority weight (P1 > P2 > P3 > P4). Processes of equal
// priority keep their creation order, including after a crashed process
// recovers and is reinserted.
//
// Schedule never dequeues: it reports what would run next. There is no real
// execution; CPU load and heartbeats are synthetic and driven by
// SimulateActivity.
package scheduler

import (
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AtlasOS/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AtlasOS/backend/internal/shared/types"
)

const (
	minLoad     = 5.0
	maxLoad     = 50.0
	loadJitter  = 10.0
	initialSpan = 30
)

// Scheduler manages the process table and ready queue
type Scheduler struct {
	mu        sync.RWMutex
	processes map[uint32]*types.Process // Protected by mu
	order     []uint32                  // Creation order, protected by mu
	ready     []uint32                  // Protected by mu
	nextPID   uint32
	current   uint32
	scheduled uint64

	rng     *rand.Rand
	now     func() time.Time
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// Stats contains scheduler statistics
type Stats struct {
	TotalProcesses int            `json:"total_processes"`
	ReadyQueue     int            `json:"ready_queue"`
	ByStatus       map[string]int `json:"by_status"`
	CurrentPID     uint32         `json:"current_pid"`
	TotalScheduled uint64         `json:"total_scheduled"`
}

// New creates an empty scheduler. The first pid assigned is 1.
func New(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		processes: make(map[uint32]*types.Process),
		nextPID:   1,
		rng:       rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15)),
		now:       time.Now,
		logger:    logger,
	}
}

// WithMetrics adds metrics tracking to the scheduler
func (s *Scheduler) WithMetrics(metrics *monitoring.Metrics) *Scheduler {
	s.metrics = metrics
	return s
}

// WithRand replaces the load generator, for deterministic tests
func (s *Scheduler) WithRand(rng *rand.Rand) *Scheduler {
	s.rng = rng
	return s
}

// CreateProcess adds a Running process and places it in the ready queue
func (s *Scheduler) CreateProcess(name string, priority types.Priority) types.Process {
	return s.CreateProcessWithStatus(name, priority, types.StatusRunning)
}

// CreateProcessWithStatus adds a process with an explicit initial status.
// A process created Crashed is kept out of the ready queue.
func (s *Scheduler) CreateProcessWithStatus(name string, priority types.Priority, status types.Status) types.Process {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	p := &types.Process{
		PID:           s.nextPID,
		Name:          name,
		Priority:      priority,
		Status:        status,
		CPULoad:       minLoad + float64(s.rng.IntN(initialSpan)),
		StartedAt:     now,
		LastHeartbeat: now,
	}
	s.nextPID++

	s.processes[p.PID] = p
	s.order = append(s.order, p.PID)
	if status != types.StatusCrashed {
		s.enqueue(p.PID)
	}
	s.publish()

	s.logger.Debug("Process created",
		zap.Uint32("pid", p.PID),
		zap.String("process", name),
		zap.String("priority", string(priority)),
	)

	return *p
}

// Schedule returns the head of the ready queue without removing it
func (s *Scheduler) Schedule() (types.Process, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.ready) == 0 {
		return types.Process{}, false
	}

	pid := s.ready[0]
	s.current = pid
	s.scheduled++
	return *s.processes[pid], true
}

// UpdateStatus sets the status of pid and reports whether it exists.
// Crashed leaves the ready queue; leaving Crashed rejoins it.
func (s *Scheduler) UpdateStatus(pid uint32, status types.Status) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.processes[pid]
	if !ok {
		return false
	}

	prev := p.Status
	p.Status = status

	switch {
	case status == types.StatusCrashed:
		s.dequeue(pid)
	case prev == types.StatusCrashed:
		s.enqueue(pid)
	}
	s.publish()

	return true
}

// UpdateHeartbeat refreshes the heartbeat of pid and reports whether it exists
func (s *Scheduler) UpdateHeartbeat(pid uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.processes[pid]
	if !ok {
		return false
	}
	s.touch(p)
	return true
}

// Revive sets pid Running, refreshes its heartbeat and counts one restart
// in a single update. It reports false when pid is unknown.
func (s *Scheduler) Revive(pid uint32) (types.Process, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.processes[pid]
	if !ok {
		return types.Process{}, false
	}
	s.revive(p)
	return *p, true
}

// ReviveCrashed is Revive for a process that is still Crashed. Any other
// status is left untouched and reported as false.
func (s *Scheduler) ReviveCrashed(pid uint32) (types.Process, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.processes[pid]
	if !ok || p.Status != types.StatusCrashed {
		return types.Process{}, false
	}
	s.revive(p)
	return *p, true
}

// Process returns a copy of the process with the given pid
func (s *Scheduler) Process(pid uint32) (types.Process, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.processes[pid]
	if !ok {
		return types.Process{}, false
	}
	return *p, true
}

// FindByName returns the earliest created process with the given name
func (s *Scheduler) FindByName(name string) (types.Process, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, pid := range s.order {
		if p := s.processes[pid]; p.Name == name {
			return *p, true
		}
	}
	return types.Process{}, false
}

// All returns copies of every process in creation order
func (s *Scheduler) All() []types.Process {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Process, 0, len(s.order))
	for _, pid := range s.order {
		out = append(out, *s.processes[pid])
	}
	return out
}

// ReadyQueue returns the ready queue pids, head first
func (s *Scheduler) ReadyQueue() []uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]uint32, len(s.ready))
	copy(out, s.ready)
	return out
}

// RemoveProcess deletes pid from the table and the ready queue
func (s *Scheduler) RemoveProcess(pid uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.processes[pid]; !ok {
		return false
	}

	delete(s.processes, pid)
	s.dequeue(pid)
	for i, p := range s.order {
		if p == pid {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.current == pid {
		s.current = 0
	}
	s.publish()

	return true
}

// SimulateActivity jitters the load of every Running process within
// [5, 50] and refreshes its heartbeat.
func (s *Scheduler) SimulateActivity() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, pid := range s.order {
		p := s.processes[pid]
		if p.Status != types.StatusRunning {
			continue
		}
		load := p.CPULoad + (s.rng.Float64()-0.5)*loadJitter
		p.CPULoad = min(maxLoad, max(minLoad, load))
		s.touch(p)
	}
}

// Stats returns scheduler statistics
func (s *Scheduler) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byStatus := make(map[string]int)
	for _, p := range s.processes {
		byStatus[string(p.Status)]++
	}

	return Stats{
		TotalProcesses: len(s.processes),
		ReadyQueue:     len(s.ready),
		ByStatus:       byStatus,
		CurrentPID:     s.current,
		TotalScheduled: s.scheduled,
	}
}

// touch sets the heartbeat to now without ever moving it backwards (must hold lock)
func (s *Scheduler) touch(p *types.Process) {
	if now := s.now(); now.After(p.LastHeartbeat) {
		p.LastHeartbeat = now
	}
}

// revive applies a restart to p (must hold lock)
func (s *Scheduler) revive(p *types.Process) {
	if p.Status == types.StatusCrashed {
		s.enqueue(p.PID)
	}
	p.Status = types.StatusRunning
	s.touch(p)
	p.Restarts++
	s.publish()
}

// enqueue inserts pid and restores ordering (must hold lock)
func (s *Scheduler) enqueue(pid uint32) {
	for _, p := range s.ready {
		if p == pid {
			return
		}
	}
	s.ready = append(s.ready, pid)
	s.sortReady()
}

// dequeue removes pid from the ready queue (must hold lock)
func (s *Scheduler) dequeue(pid uint32) {
	for i, p := range s.ready {
		if p == pid {
			s.ready = append(s.ready[:i], s.ready[i+1:]...)
			return
		}
	}
}

// sortReady orders by descending weight, then by pid. Pids are assigned
// in creation order, so ties keep insertion order (must hold lock).
func (s *Scheduler) sortReady() {
	sort.SliceStable(s.ready, func(i, j int) bool {
		a, b := s.processes[s.ready[i]], s.processes[s.ready[j]]
		wa, wb := a.Priority.Weight(), b.Priority.Weight()
		if wa != wb {
			return wa > wb
		}
		return a.PID < b.PID
	})
}

// publish pushes table gauges to metrics (must hold lock)
func (s *Scheduler) publish() {
	if s.metrics == nil {
		return
	}
	byStatus := make(map[string]int)
	for _, p := range s.processes {
		byStatus[string(p.Status)]++
	}
	s.metrics.SetProcessCounts(byStatus, len(s.ready))
}
