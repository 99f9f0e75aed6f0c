// Package transport implements the single logical clock both stems follow.
//
// While playing, the logical position is
//
//	pausedAt + (hardwareNow - anchor) * speed
//
// Every transition that changes speed, offset or play state folds the
// elapsed segment into pausedAt first and re-anchors, so the position never
// jumps except on a deliberate seek.
package transport

import (
	"math"

	"github.com/tessro/woodshed/internal/clock"
	"github.com/tessro/woodshed/internal/core"
)

// Speed limits.
const (
	MinSpeed = 0.5
	MaxSpeed = 2.0
)

// Clock is the transport clock. It is not safe for concurrent use; the
// player serializes access.
type Clock struct {
	src      clock.Source
	duration float64

	playing  bool
	pausedAt float64
	anchor   float64
	speed    float64
}

// New returns a stopped clock at position zero and speed 1.
func New(src clock.Source) *Clock {
	return &Clock{src: src, speed: 1}
}

// Reset stops the clock, rewinds to zero, restores speed 1 and sets the
// track duration used for clamping.
func (c *Clock) Reset(duration float64) {
	c.duration = math.Max(0, duration)
	c.playing = false
	c.pausedAt = 0
	c.anchor = 0
	c.speed = 1
}

// Duration returns the duration positions are clamped to.
func (c *Clock) Duration() float64 {
	return c.duration
}

// IsPlaying reports whether the clock is running.
func (c *Clock) IsPlaying() bool {
	return c.playing
}

// Speed returns the current playback rate.
func (c *Clock) Speed() float64 {
	return c.speed
}

// Now returns the current logical position. It does not mutate state and
// is not clamped; the poller clamps what it publishes.
func (c *Clock) Now() float64 {
	if !c.playing {
		return c.pausedAt
	}
	return c.pausedAt + c.elapsed()
}

// Play starts the clock from the frozen position.
func (c *Clock) Play() {
	if c.playing {
		return
	}
	c.anchor = c.src.Now()
	c.playing = true
}

// Pause folds elapsed time into the frozen position and stops the clock.
func (c *Clock) Pause() {
	if !c.playing {
		return
	}
	c.pausedAt = c.clampPosition(c.pausedAt + c.elapsed())
	c.playing = false
}

// Seek moves the logical position to t, clamped to [0, duration]. While
// playing, the clock re-anchors so time continues from t.
func (c *Clock) Seek(t float64) {
	c.pausedAt = c.clampPosition(t)
	if c.playing {
		c.anchor = c.src.Now()
	}
}

// SetSpeed changes the playback rate, clamped to [MinSpeed, MaxSpeed].
// Time elapsed at the old rate is folded in before the new rate applies.
func (c *Clock) SetSpeed(s float64) {
	s = ClampSpeed(s)
	if c.playing {
		c.pausedAt += c.elapsed()
		c.anchor = c.src.Now()
	}
	c.speed = s
}

// State returns a snapshot of the transport state.
func (c *Clock) State() core.TransportState {
	return core.TransportState{
		IsPlaying:          c.playing,
		PausedAtSeconds:    c.pausedAt,
		AnchorHardwareTime: c.anchor,
		Speed:              c.speed,
	}
}

func (c *Clock) elapsed() float64 {
	d := c.src.Now() - c.anchor
	if d < 0 {
		d = 0
	}
	return d * c.speed
}

func (c *Clock) clampPosition(t float64) float64 {
	if t < 0 || math.IsNaN(t) {
		return 0
	}
	if c.duration > 0 && t > c.duration {
		return c.duration
	}
	return t
}

// ClampSpeed limits s to [MinSpeed, MaxSpeed].
func ClampSpeed(s float64) float64 {
	if math.IsNaN(s) {
		return 1
	}
	return math.Min(MaxSpeed, math.Max(MinSpeed, s))
}
