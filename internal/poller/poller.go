// Package poller samples the transport once per frame, publishes the
// position and enforces loop wrap and end of track.
package poller

import (
	"context"
	"math"
	"time"
)

// DefaultInterval is roughly one display frame.
const DefaultInterval = 16 * time.Millisecond

// Looper decides whether a position has run past the loop end.
type Looper interface {
	Wrap(pos float64) (float64, bool)
}

// Target is the transport surface a poller drives. Calls happen on the
// ticking goroutine; the target serializes them with its other mutations.
type Target interface {
	Position() float64
	Duration() float64
	IsPlaying() bool
	Looper() Looper
	// Relocate seeks while playing, re-anchoring both voices.
	Relocate(t float64)
	// Finish performs the natural end-of-track transition.
	Finish()
	Publish(pos float64)
}

// Frame is the result of one tick.
type Frame struct {
	Position float64
	Playing  bool
	Wrapped  bool
	Ended    bool
}

// Poller runs the per-frame rules against a target.
type Poller struct {
	target Target
}

// New returns a poller for target.
func New(target Target) *Poller {
	return &Poller{target: target}
}

// Tick samples the transport once.
func (p *Poller) Tick() Frame {
	t := p.target
	pos := clamp(t.Position(), t.Duration())

	if !t.IsPlaying() {
		t.Publish(pos)
		return Frame{Position: pos}
	}

	if l := t.Looper(); l != nil {
		if to, ok := l.Wrap(pos); ok {
			t.Relocate(to)
			t.Publish(to)
			return Frame{Position: to, Playing: true, Wrapped: true}
		}
	}

	if d := t.Duration(); d > 0 && pos >= d {
		t.Finish()
		t.Publish(0)
		return Frame{Position: 0, Ended: true}
	}

	t.Publish(pos)
	return Frame{Position: pos, Playing: true}
}

// Ticker is anything that can be ticked.
type Ticker interface {
	Tick() Frame
}

// Run ticks t every interval and sends each frame to frames. It returns
// once a frame reports playback stopped, or when ctx ends.
func Run(ctx context.Context, t Ticker, interval time.Duration, frames chan<- Frame) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			f := t.Tick()
			if frames != nil {
				select {
				case frames <- f:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			if !f.Playing {
				return nil
			}
		}
	}
}

func clamp(pos, duration float64) float64 {
	if pos < 0 || math.IsNaN(pos) {
		return 0
	}
	if duration > 0 && pos > duration {
		return duration
	}
	return pos
}
