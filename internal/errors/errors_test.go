package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestGetSuggestion(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"explicit", WithSuggestion(errors.New("boom"), "do the thing"), "do the thing"},
		{"fetch", &LoadError{Stem: "guitar", Source: "a.wav", Err: ErrFetch}, "Check that both stem paths or URLs exist and are reachable"},
		{"decode", fmt.Errorf("wrapped: %w", &LoadError{Stem: "guitar", Err: ErrDecode}), "The stem file might be corrupt or truncated; try exporting it again"},
		{"format", &LoadError{Err: fmt.Errorf("%w: .aiff", ErrUnsupportedFormat)}, "Convert the stems to WAV, MP3, FLAC or Ogg Vorbis"},
		{"playback", &PlaybackError{Op: "resume", Err: errors.New("device busy")}, "Check your audio output device, then press play again"},
		{"unknown", errors.New("something else"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetSuggestion(tt.err); got != tt.want {
				t.Errorf("GetSuggestion() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPlaybackErrorIs(t *testing.T) {
	err := fmt.Errorf("play: %w", &PlaybackError{Op: "start", Err: errors.New("no device")})
	if !errors.Is(err, ErrPlayback) {
		t.Error("errors.Is(err, ErrPlayback) = false, want true")
	}
	var pe *PlaybackError
	if !errors.As(err, &pe) || pe.Op != "start" {
		t.Errorf("errors.As() op = %v, want start", pe)
	}
}

func TestLoadErrorMessage(t *testing.T) {
	err := &LoadError{Stem: "backingTrack", Source: "b.mp3", Err: ErrDecode}
	if got := err.Error(); got != `load backingTrack stem "b.mp3": decode failed` {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, ErrDecode) {
		t.Error("LoadError should unwrap to ErrDecode")
	}
}

func TestFormat(t *testing.T) {
	if got := Format(nil); got != "" {
		t.Errorf("Format(nil) = %q, want empty", got)
	}
	got := Format(ErrNoTrack)
	if !strings.HasPrefix(got, "Error: no track loaded") || !strings.Contains(got, "Suggestion:") {
		t.Errorf("Format() = %q", got)
	}
}

func TestPartialResult(t *testing.T) {
	var p PartialResult[int]
	p.AddError(nil)
	if p.HasErrors() || p.Err() != nil {
		t.Fatal("empty PartialResult reports errors")
	}
	p.AddError(ErrFetch)
	p.AddError(ErrDecode)
	if !p.HasErrors() {
		t.Fatal("HasErrors() = false")
	}
	if !errors.Is(p.Err(), ErrDecode) {
		t.Error("joined error should contain ErrDecode")
	}
	if !strings.HasPrefix(p.ErrorSummary(), "2 errors occurred") {
		t.Errorf("ErrorSummary() = %q", p.ErrorSummary())
	}
}
