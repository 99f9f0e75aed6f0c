package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error types for common failure scenarios.
var (
	ErrNoTrack           = errors.New("no track loaded")
	ErrLoading           = errors.New("track is still loading")
	ErrFetch             = errors.New("fetch failed")
	ErrDecode            = errors.New("decode failed")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrDurationMismatch  = errors.New("stem durations differ")
	ErrPlayback          = errors.New("audio output unavailable")
	ErrInvalidRegion     = errors.New("invalid loop region")
	ErrBookmarkNotFound  = errors.New("bookmark not found")
	ErrInvalidPreset     = errors.New("invalid isolation preset")
	ErrConfigNotFound    = errors.New("config file not found")
	ErrInvalidConfig     = errors.New("invalid configuration")
)

// WoodshedError wraps an error with a user-friendly suggestion.
type WoodshedError struct {
	Err        error
	Suggestion string
}

func (e *WoodshedError) Error() string {
	return e.Err.Error()
}

func (e *WoodshedError) Unwrap() error {
	return e.Err
}

// WithSuggestion wraps an error with a helpful suggestion.
func WithSuggestion(err error, suggestion string) error {
	return &WoodshedError{
		Err:        err,
		Suggestion: suggestion,
	}
}

// LoadError reports that fetching or decoding a stem failed. A load that
// fails leaves the previously loaded track untouched.
type LoadError struct {
	Stem   string
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Stem == "" {
		return fmt.Sprintf("load stems: %v", e.Err)
	}
	return fmt.Sprintf("load %s stem %q: %v", e.Stem, e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// PlaybackError reports that the audio output rejected a start or resume.
// It is never fatal; the next Play retries.
type PlaybackError struct {
	Op  string
	Err error
}

func (e *PlaybackError) Error() string {
	return fmt.Sprintf("playback %s: %v", e.Op, e.Err)
}

func (e *PlaybackError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrPlayback) match any PlaybackError.
func (e *PlaybackError) Is(target error) bool {
	return target == ErrPlayback
}

// GetSuggestion returns a suggestion for the given error.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	var wErr *WoodshedError
	if errors.As(err, &wErr) && wErr.Suggestion != "" {
		return wErr.Suggestion
	}

	errStr := strings.ToLower(err.Error())

	if errors.Is(err, ErrUnsupportedFormat) {
		return "Convert the stems to WAV, MP3, FLAC or Ogg Vorbis"
	}

	if errors.Is(err, ErrFetch) || strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such file") {
		return "Check that both stem paths or URLs exist and are reachable"
	}

	if errors.Is(err, ErrDecode) {
		return "The stem file might be corrupt or truncated; try exporting it again"
	}

	if errors.Is(err, ErrPlayback) {
		return "Check your audio output device, then press play again"
	}

	if errors.Is(err, ErrLoading) {
		return "Wait for the stems to finish loading, then press play again"
	}

	if errors.Is(err, ErrNoTrack) {
		return "Load a song with 'woodshed practice <guitar> <backing>'"
	}

	if errors.Is(err, ErrBookmarkNotFound) {
		return "Run 'woodshed bookmarks list' to see saved loops"
	}

	if errors.Is(err, ErrConfigNotFound) || errors.Is(err, ErrInvalidConfig) || strings.Contains(errStr, "config") {
		return "Run 'woodshed config init' to create a fresh configuration"
	}

	return ""
}

// Format returns a formatted error message with suggestion if available.
func Format(err error) string {
	if err == nil {
		return ""
	}

	suggestion := GetSuggestion(err)
	if suggestion != "" {
		return fmt.Sprintf("Error: %s\n\nSuggestion: %s", err.Error(), suggestion)
	}

	return fmt.Sprintf("Error: %s", err.Error())
}

// PartialResult represents a result that may have partial failures.
type PartialResult[T any] struct {
	Data   T
	Errors []error
}

// HasErrors returns true if there were any errors.
func (p *PartialResult[T]) HasErrors() bool {
	return len(p.Errors) > 0
}

// AddError adds an error to the partial result.
func (p *PartialResult[T]) AddError(err error) {
	if err != nil {
		p.Errors = append(p.Errors, err)
	}
}

// Err joins all collected errors, or returns nil.
func (p *PartialResult[T]) Err() error {
	return errors.Join(p.Errors...)
}

// ErrorSummary returns a summary of all errors.
func (p *PartialResult[T]) ErrorSummary() string {
	if len(p.Errors) == 0 {
		return ""
	}
	if len(p.Errors) == 1 {
		return p.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d errors occurred:\n", len(p.Errors)))
	for i, err := range p.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}
