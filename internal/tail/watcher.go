package tail

import (
	"context"
	"sync"
	"time"

	"github.com/tessro/woodshed/internal/core"
	"github.com/tessro/woodshed/internal/poller"
)

// EventType represents the type of practice event.
type EventType int

const (
	EventResume EventType = iota
	EventPause
	EventLoopWrap
	EventTrackEnd
	EventSpeedChange
	EventMixChange
	EventLoopChange
)

// Event represents a practice session change.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Position  float64
	Previous  *core.PlaybackState
	Current   *core.PlaybackState
}

// Source is the transport being watched.
type Source interface {
	poller.Ticker
	State() core.PlaybackState
}

// Watcher drives the poller for a source and emits events.
type Watcher struct {
	source   Source
	interval time.Duration
	events   chan Event
	done     chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a new session watcher.
func NewWatcher(source Source, interval time.Duration) *Watcher {
	if interval == 0 {
		interval = poller.DefaultInterval
	}
	return &Watcher{
		source:   source,
		interval: interval,
		events:   make(chan Event, 16),
		done:     make(chan struct{}),
	}
}

// Events returns the channel of session events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start ticks the source until playback stops, ctx ends or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	defer close(w.events)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-w.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	frames := make(chan poller.Frame, 16)
	errCh := make(chan error, 1)
	go func() {
		errCh <- poller.Run(ctx, w.source, w.interval, frames)
		close(frames)
	}()

	prev := w.source.State()
	for f := range frames {
		curr := w.source.State()
		for _, e := range diffStates(&prev, &curr, f) {
			select {
			case w.events <- e:
			default:
				// Drop event if channel is full
			}
		}
		prev = curr
	}

	err := <-errCh
	select {
	case <-w.done:
		return nil
	default:
		return err
	}
}

// Stop stops the watcher. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.done) })
}

// diffStates compares two snapshots around one frame.
func diffStates(prev, curr *core.PlaybackState, f poller.Frame) []Event {
	now := time.Now()
	mk := func(t EventType) Event {
		return Event{Type: t, Timestamp: now, Position: f.Position, Previous: prev, Current: curr}
	}

	var events []Event

	switch {
	case f.Ended:
		events = append(events, mk(EventTrackEnd))
	case f.Wrapped:
		events = append(events, mk(EventLoopWrap))
	case prev.IsPlaying && !curr.IsPlaying:
		events = append(events, mk(EventPause))
	case !prev.IsPlaying && curr.IsPlaying:
		events = append(events, mk(EventResume))
	}

	if prev.Speed != curr.Speed {
		events = append(events, mk(EventSpeedChange))
	}
	if prev.Volumes != curr.Volumes || prev.Isolation != curr.Isolation {
		events = append(events, mk(EventMixChange))
	}
	if loopChanged(prev, curr) {
		events = append(events, mk(EventLoopChange))
	}

	return events
}

// loopChanged returns true if the active loop changed.
func loopChanged(prev, curr *core.PlaybackState) bool {
	if prev.IsLooping != curr.IsLooping {
		return true
	}
	if prev.Loop == nil || curr.Loop == nil {
		return prev.Loop != curr.Loop
	}
	return *prev.Loop != *curr.Loop
}
