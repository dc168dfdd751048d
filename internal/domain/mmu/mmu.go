// Package mmu produces synthetic paging figures for the snapshot.
package mmu

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/GriffinCanCode/AtlasOS/backend/internal/shared/types"
)

// TotalPages is the size of the simulated physical memory in pages
const TotalPages = 256

const (
	basePages     = 4
	pagesPerLoad  = 0.4
	maxPageFaults = 5
)

// Monitor derives page usage from the process table
type Monitor struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewMonitor creates a monitor seeded from the clock
func NewMonitor() *Monitor {
	return NewMonitorWithRand(rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x2545f4914f6cdd1d)))
}

// NewMonitorWithRand creates a monitor with a fixed fault generator
func NewMonitorWithRand(rng *rand.Rand) *Monitor {
	return &Monitor{rng: rng}
}

// Sample computes paging stats. Every live process holds a few pages
// plus pages proportional to its CPU load; crashed processes hold none.
func (m *Monitor) Sample(processes []types.Process) types.MMUStats {
	used := 0
	for _, p := range processes {
		if p.Status == types.StatusCrashed {
			continue
		}
		used += basePages + int(p.CPULoad*pagesPerLoad)
	}

	m.mu.Lock()
	faults := m.rng.IntN(maxPageFaults)
	m.mu.Unlock()

	return types.MMUStats{
		UsedPages:  min(used, TotalPages),
		TotalPages: TotalPages,
		PageFaults: faults,
	}
}
