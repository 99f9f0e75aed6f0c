package core

import "context"

// Player defines the practice transport surface consumed by the UI layers.
type Player interface {
	// Transport
	Play(ctx context.Context) error
	Pause()
	Seek(seconds float64)
	SeekBy(delta float64)
	SetSpeed(speed float64)

	// Mix
	SetVolume(stem Stem, percent int)
	ApplyIsolation(preset IsolationPreset) error

	// Loop
	ToggleLoop()
	JumpTo(b Bookmark)

	// State
	State() PlaybackState
}
