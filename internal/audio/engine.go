// Package audio binds stem voices to an audio output.
//
// A voice is a disposable handle bound to one buffer, a gain and a playback
// rate. Voices are created in pairs for every playback segment and are never
// reused.
package audio

import (
	"context"

	"github.com/tessro/woodshed/internal/core"
)

// VoiceSpec describes a voice to start.
type VoiceSpec struct {
	Stem   core.Stem
	Buffer *Buffer
	Offset float64 // seconds into Buffer
	Rate   float64 // playback speed
	Gain   float64 // linear, 0..1
	// OnEnded fires when the voice plays to the end of its buffer. It is
	// never called after Stop and may run on the audio goroutine, so it
	// must not block.
	OnEnded func()
}

// Capabilities reports what an engine can do.
type Capabilities struct {
	PreservesPitch bool
}

// Engine is an audio output.
type Engine interface {
	// Resume prepares the output device, initializing it on first use.
	// Failures are *errors.PlaybackError and may be retried.
	Resume(ctx context.Context) error
	// Start begins all specs in a single output turn, so paired voices
	// share the same start instant.
	Start(specs ...VoiceSpec) ([]Voice, error)
	Capabilities() Capabilities
	Close() error
}

// Voice is one live stem playback.
type Voice interface {
	Stem() core.Stem
	Offset() float64
	Rate() float64
	Gain() float64
	// SetGain ramps to g instead of jumping.
	SetGain(g float64)
	// Stop silences the voice. Calling it again is a no-op.
	Stop()
}
