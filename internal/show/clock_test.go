package show

import (
	"sync"
	"time"
)

// ManualClock implements Clock for tests. Sleep advances time instantly and
// every Now call moves time forward by Step, which stands in for the work
// done between two readings.
type ManualClock struct {
	mu     sync.Mutex
	now    time.Time
	Step   time.Duration
	sleeps []time.Duration
}

func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (m *ManualClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(m.Step)
	return m.now
}

func (m *ManualClock) Sleep(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sleeps = append(m.sleeps, d)
	m.now = m.now.Add(d)
}

// Sleeps returns every duration passed to Sleep so far.
func (m *ManualClock) Sleeps() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.sleeps...)
}
