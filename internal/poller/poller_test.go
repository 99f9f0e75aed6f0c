package poller

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessro/woodshed/internal/clock"
	"github.com/tessro/woodshed/internal/loop"
	"github.com/tessro/woodshed/internal/transport"
)

// fakeTarget wires a real transport clock and loop controller together.
type fakeTarget struct {
	clock     *transport.Clock
	loop      *loop.Controller
	published []float64
	relocated []float64
	finished  int
}

func newTarget(duration float64) (*fakeTarget, *clock.Manual) {
	hw := clock.NewManual(0)
	c := transport.New(hw)
	c.Reset(duration)
	l := loop.New()
	l.SetDuration(duration)
	return &fakeTarget{clock: c, loop: l}, hw
}

func (f *fakeTarget) Position() float64 { return f.clock.Now() }
func (f *fakeTarget) Duration() float64 { return f.clock.Duration() }
func (f *fakeTarget) IsPlaying() bool   { return f.clock.IsPlaying() }
func (f *fakeTarget) Looper() Looper    { return f.loop }
func (f *fakeTarget) Relocate(t float64) {
	f.relocated = append(f.relocated, t)
	f.clock.Seek(t)
}
func (f *fakeTarget) Finish() {
	f.finished++
	f.clock.Pause()
	f.clock.Seek(0)
}
func (f *fakeTarget) Publish(pos float64) { f.published = append(f.published, pos) }

func TestTickPublishesPosition(t *testing.T) {
	target, hw := newTarget(120)
	p := New(target)

	target.clock.Play()
	hw.Advance(3)
	f := p.Tick()

	assert.Equal(t, Frame{Position: 3, Playing: true}, f)
	assert.Equal(t, []float64{3}, target.published)
}

func TestTickWrapsLoop(t *testing.T) {
	target, hw := newTarget(120)
	p := New(target)
	target.loop.SetRegion(10, 20)
	target.clock.Seek(10)
	target.clock.Play()

	hw.Advance(9.9)
	f := p.Tick()
	assert.False(t, f.Wrapped)
	assert.InDelta(t, 19.9, f.Position, 1e-9)

	hw.Advance(0.2)
	f = p.Tick()
	assert.True(t, f.Wrapped)
	assert.True(t, f.Playing)
	assert.Equal(t, 10.0, f.Position)
	assert.Equal(t, 10.0, target.published[len(target.published)-1])
	assert.True(t, target.clock.IsPlaying(), "wrap must not stop the transport")

	hw.Advance(1)
	f = p.Tick()
	assert.InDelta(t, 11.0, f.Position, 1e-9)
}

func TestTickEndsTrack(t *testing.T) {
	target, hw := newTarget(30)
	p := New(target)
	target.clock.Play()

	hw.Advance(31)
	f := p.Tick()
	assert.Equal(t, Frame{Position: 0, Ended: true}, f)
	assert.Equal(t, 1, target.finished)
	assert.False(t, target.clock.IsPlaying())
}

func TestTickClampsWhilePaused(t *testing.T) {
	target, _ := newTarget(30)
	p := New(target)
	target.clock.Seek(-4)

	f := p.Tick()
	assert.Equal(t, Frame{Position: 0}, f)
	assert.Zero(t, target.finished)
}

type countingTicker struct {
	n      int
	stopAt int
}

func (c *countingTicker) Tick() Frame {
	c.n++
	return Frame{Position: float64(c.n), Playing: c.n < c.stopAt}
}

func TestRunStopsWhenPlaybackStops(t *testing.T) {
	ticker := &countingTicker{stopAt: 3}
	frames := make(chan Frame, 8)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, Run(ctx, ticker, time.Millisecond, frames))
	close(frames)

	var got []Frame
	for f := range frames {
		got = append(got, f)
	}
	require.Len(t, got, 3)
	assert.False(t, got[2].Playing)
}

func TestRunHonorsCancel(t *testing.T) {
	ticker := &countingTicker{stopAt: 1 << 30}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Run(ctx, ticker, time.Millisecond, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
