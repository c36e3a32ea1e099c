package connection

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Monitor tracks recency of inbound traffic and declares staleness. It is
// active only between Start and Stop; the Manager starts it when the
// connection becomes ready and stops it on any close.
type Monitor struct {
	clock     clock.Clock
	interval  time.Duration
	threshold time.Duration
	onStale   func()

	mu      sync.Mutex
	last    time.Time
	timer   *clock.Timer
	running bool
}

// NewMonitor creates a stopped Monitor. onStale is invoked at most once per
// Start whenever inbound silence exceeds the threshold.
func NewMonitor(c clock.Clock, interval, threshold time.Duration, onStale func()) *Monitor {
	return &Monitor{
		clock:     c,
		interval:  interval,
		threshold: threshold,
		onStale:   onStale,
	}
}

// Start begins periodic staleness checks. The silence window restarts now.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}
	m.running = true
	m.last = m.clock.Now()
	m.scheduleLocked()
}

// Stop cancels the pending check. Idempotent.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.running = false
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// Touch records inbound traffic. Any frame counts as liveness, not just
// designated heartbeat frames.
func (m *Monitor) Touch() {
	m.mu.Lock()
	m.last = m.clock.Now()
	m.mu.Unlock()
}

// LastMessageAt returns when the last inbound frame was recorded.
func (m *Monitor) LastMessageAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

func (m *Monitor) scheduleLocked() {
	m.timer = m.clock.AfterFunc(m.interval, m.check)
}

func (m *Monitor) check() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	silence := m.clock.Now().Sub(m.last)
	if silence > m.threshold {
		m.running = false
		m.timer = nil
		m.mu.Unlock()
		// Invoked without the lock held: onStale closes the socket, which
		// re-enters the manager.
		m.onStale()
		return
	}
	m.scheduleLocked()
	m.mu.Unlock()
}
