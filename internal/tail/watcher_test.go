package tail

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/tessro/woodshed/internal/core"
	"github.com/tessro/woodshed/internal/poller"
)

func TestDiffStates(t *testing.T) {
	region := &core.LoopRegion{Start: 10, End: 20}

	tests := []struct {
		name  string
		prev  core.PlaybackState
		curr  core.PlaybackState
		frame poller.Frame
		want  []EventType
	}{
		{
			name:  "steady playback",
			prev:  core.PlaybackState{IsPlaying: true, Speed: 1},
			curr:  core.PlaybackState{IsPlaying: true, Speed: 1},
			frame: poller.Frame{Position: 3, Playing: true},
		},
		{
			name:  "wrap",
			prev:  core.PlaybackState{IsPlaying: true, Speed: 1, Loop: region, IsLooping: true},
			curr:  core.PlaybackState{IsPlaying: true, Speed: 1, Loop: &core.LoopRegion{Start: 10, End: 20}, IsLooping: true},
			frame: poller.Frame{Position: 10, Playing: true, Wrapped: true},
			want:  []EventType{EventLoopWrap},
		},
		{
			name:  "end",
			prev:  core.PlaybackState{IsPlaying: true, Speed: 1},
			curr:  core.PlaybackState{Speed: 1},
			frame: poller.Frame{Ended: true},
			want:  []EventType{EventTrackEnd},
		},
		{
			name:  "pause and speed",
			prev:  core.PlaybackState{IsPlaying: true, Speed: 1},
			curr:  core.PlaybackState{Speed: 0.8},
			frame: poller.Frame{Position: 4},
			want:  []EventType{EventPause, EventSpeedChange},
		},
		{
			name:  "mix and loop",
			prev:  core.PlaybackState{Speed: 1, Isolation: core.IsolationFull},
			curr:  core.PlaybackState{Speed: 1, Isolation: core.IsolationGuitarOnly, Loop: region, IsLooping: true},
			frame: poller.Frame{},
			want:  []EventType{EventMixChange, EventLoopChange},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := diffStates(&tt.prev, &tt.curr, tt.frame)
			if len(events) != len(tt.want) {
				t.Fatalf("got %d events, want %d", len(events), len(tt.want))
			}
			for i, e := range events {
				if e.Type != tt.want[i] {
					t.Errorf("event %d = %s, want %s", i, EventTypeName(e.Type), EventTypeName(tt.want[i]))
				}
			}
		})
	}
}

func TestFormatter(t *testing.T) {
	e := Event{
		Type:     EventLoopWrap,
		Position: 10,
		Current: &core.PlaybackState{
			Track: &core.Track{Name: "Pride and Joy"},
			Loop:  &core.LoopRegion{Start: 10, End: 20},
			Speed: 0.75,
		},
	}

	line := NewFormatter(WithEmoji(false)).Format(e)
	if line != "[0:10.0] Loop 0:10.0–0:20.0" {
		t.Errorf("Format() = %q", line)
	}

	tmpl := NewFormatter(WithTemplate("{{.Type}} {{.Name}} {{.Speed}}")).Format(e)
	if tmpl != "loop_wrap Pride and Joy 0.75" {
		t.Errorf("template Format() = %q", tmpl)
	}

	if !strings.HasPrefix(NewFormatter().Format(e), "🔁") {
		t.Error("default formatter should lead with emoji")
	}
}

// playingSource reports an ever-playing transport.
type playingSource struct{}

func (playingSource) Tick() poller.Frame { return poller.Frame{Playing: true} }
func (playingSource) State() core.PlaybackState {
	return core.PlaybackState{IsPlaying: true, Speed: 1}
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	w := NewWatcher(playingSource{}, time.Millisecond)
	done := make(chan error, 1)
	go func() { done <- w.Start(context.Background()) }()

	w.Stop()
	w.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start() = %v, want nil after Stop", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
	for range w.Events() {
	}
}
