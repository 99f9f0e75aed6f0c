// Package audiotest provides an in-memory audio engine for tests.
package audiotest

import (
	"context"
	"sync"

	"github.com/tessro/woodshed/internal/audio"
	"github.com/tessro/woodshed/internal/core"
	werrors "github.com/tessro/woodshed/internal/errors"
)

// Engine records every voice it starts instead of producing sound.
type Engine struct {
	mu sync.Mutex

	// FailResume, when set, is returned wrapped in a PlaybackError by Resume.
	FailResume     error
	PreservesPitch bool

	// OnResume, when set, runs at the start of Resume. Tests use it to hold
	// Resume open the way a slow device init would.
	OnResume func()

	resumes int
	batches [][]*Voice
	closed  bool
}

// New returns an empty engine.
func New() *Engine {
	return &Engine{}
}

// Resume counts the call or fails with FailResume.
func (e *Engine) Resume(ctx context.Context) error {
	e.mu.Lock()
	hook := e.OnResume
	e.mu.Unlock()
	if hook != nil {
		hook()
	}
	if err := ctx.Err(); err != nil {
		return &werrors.PlaybackError{Op: "resume", Err: err}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.FailResume != nil {
		return &werrors.PlaybackError{Op: "resume", Err: e.FailResume}
	}
	e.resumes++
	return nil
}

// Start records specs as one batch.
func (e *Engine) Start(specs ...audio.VoiceSpec) ([]audio.Voice, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	batch := make([]*Voice, 0, len(specs))
	out := make([]audio.Voice, 0, len(specs))
	for _, spec := range specs {
		v := &Voice{spec: spec, gain: spec.Gain, onEnded: spec.OnEnded}
		batch = append(batch, v)
		out = append(out, v)
	}
	e.batches = append(e.batches, batch)
	return out, nil
}

// Capabilities implements audio.Engine.
func (e *Engine) Capabilities() audio.Capabilities {
	return audio.Capabilities{PreservesPitch: e.PreservesPitch}
}

// Close implements audio.Engine.
func (e *Engine) Close() error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (e *Engine) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// Resumes returns the number of successful Resume calls.
func (e *Engine) Resumes() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resumes
}

// Batches returns every Start call in order.
func (e *Engine) Batches() [][]*Voice {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([][]*Voice, len(e.batches))
	copy(out, e.batches)
	return out
}

// LastBatch returns the voices from the most recent Start, or nil.
func (e *Engine) LastBatch() []*Voice {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.batches) == 0 {
		return nil
	}
	return e.batches[len(e.batches)-1]
}

// Live returns voices that have not been stopped or ended.
func (e *Engine) Live() []*Voice {
	e.mu.Lock()
	defer e.mu.Unlock()
	var live []*Voice
	for _, batch := range e.batches {
		for _, v := range batch {
			if !v.Stopped() {
				live = append(live, v)
			}
		}
	}
	return live
}

// End simulates the most recent voice for stem playing to completion.
// It returns false if no such voice was ever started.
func (e *Engine) End(stem core.Stem) bool {
	e.mu.Lock()
	var target *Voice
	for i := len(e.batches) - 1; i >= 0 && target == nil; i-- {
		for _, v := range e.batches[i] {
			if v.spec.Stem == stem {
				target = v
				break
			}
		}
	}
	e.mu.Unlock()

	if target == nil {
		return false
	}
	target.end()
	return true
}

// Voice is a recorded voice.
type Voice struct {
	mu      sync.Mutex
	spec    audio.VoiceSpec
	gain    float64
	stopped bool
	onEnded func()
}

func (v *Voice) Stem() core.Stem { return v.spec.Stem }
func (v *Voice) Offset() float64 { return v.spec.Offset }
func (v *Voice) Rate() float64   { return v.spec.Rate }

func (v *Voice) Gain() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.gain
}

func (v *Voice) SetGain(g float64) {
	v.mu.Lock()
	v.gain = g
	v.mu.Unlock()
}

func (v *Voice) Stop() {
	v.mu.Lock()
	v.stopped = true
	v.onEnded = nil
	v.mu.Unlock()
}

// Stopped reports whether Stop was called or the voice ended.
func (v *Voice) Stopped() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stopped
}

// Buffer returns the buffer the voice was started with.
func (v *Voice) Buffer() *audio.Buffer {
	return v.spec.Buffer
}

func (v *Voice) end() {
	v.mu.Lock()
	fn := v.onEnded
	v.onEnded = nil
	v.stopped = true
	v.mu.Unlock()
	if fn != nil {
		fn()
	}
}
