// Package ring provides fixed-capacity, oldest-evicted logs.
//
// A Log keeps entries in insertion order (oldest to newest). Appending past
// capacity evicts the oldest entry first. The backing store is a growable
// ring buffer from github.com/eapache/queue, capped by the Log itself.
//
// Example Usage:
//
//	events := ring.New[types.Event](100)
//	events.Append(ev)
//	recent := events.Recent(20) // oldest first
package ring

import (
	"sync"

	"github.com/eapache/queue"
)

// Log is a bounded FIFO history safe for concurrent use
type Log[T any] struct {
	mu       sync.RWMutex
	q        *queue.Queue
	capacity int
	evicted  uint64
}

// New creates a log holding at most capacity entries.
// A non-positive capacity is treated as 1.
func New[T any](capacity int) *Log[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Log[T]{
		q:        queue.New(),
		capacity: capacity,
	}
}

// Append adds v as the newest entry and reports whether the oldest
// entry was evicted to make room.
func (l *Log[T]) Append(v T) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.q.Add(v)
	if l.q.Length() <= l.capacity {
		return false
	}
	l.q.Remove()
	l.evicted++
	return true
}

// Recent returns up to limit newest entries, ordered oldest first.
// A non-positive limit returns every entry.
func (l *Log[T]) Recent(limit int) []T {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := l.q.Length()
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]T, 0, limit)
	for i := n - limit; i < n; i++ {
		out = append(out, l.q.Get(i).(T))
	}
	return out
}

// Len returns the number of stored entries
func (l *Log[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.q.Length()
}

// Cap returns the configured capacity
func (l *Log[T]) Cap() int {
	return l.capacity
}

// Evicted returns how many entries were dropped since creation
func (l *Log[T]) Evicted() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.evicted
}
