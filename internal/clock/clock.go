// Package clock provides the hardware time source the transport reads.
package clock

import (
	"sync"
	"time"
)

// Source is a monotonic clock reporting seconds.
type Source interface {
	Now() float64
}

type systemClock struct {
	start time.Time
}

// System returns a Source backed by the monotonic wall clock, measured from
// the moment System was called.
func System() Source {
	return &systemClock{start: time.Now()}
}

func (c *systemClock) Now() float64 {
	return time.Since(c.start).Seconds()
}

// Manual is a Source that only moves when told to.
type Manual struct {
	mu  sync.Mutex
	now float64
}

// NewManual returns a Manual clock reading start.
func NewManual(start float64) *Manual {
	return &Manual{now: start}
}

// Now returns the current reading.
func (m *Manual) Now() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward by seconds. Negative values are ignored.
func (m *Manual) Advance(seconds float64) {
	if seconds <= 0 {
		return
	}
	m.mu.Lock()
	m.now += seconds
	m.mu.Unlock()
}

// Set moves the clock to an absolute reading. Readings earlier than the
// current one are ignored so the clock stays monotonic.
func (m *Manual) Set(seconds float64) {
	m.mu.Lock()
	if seconds > m.now {
		m.now = seconds
	}
	m.mu.Unlock()
}
