package tail

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/tessro/woodshed/internal/core"
)

// Formatter formats events for output.
type Formatter struct {
	showEmoji     bool
	showTimestamp bool
	template      *template.Template
}

// FormatterOption configures a Formatter.
type FormatterOption func(*Formatter)

// WithEmoji enables emoji output.
func WithEmoji(enabled bool) FormatterOption {
	return func(f *Formatter) {
		f.showEmoji = enabled
	}
}

// WithTimestamp enables timestamp output.
func WithTimestamp(enabled bool) FormatterOption {
	return func(f *Formatter) {
		f.showTimestamp = enabled
	}
}

// WithTemplate sets a custom format template.
func WithTemplate(tmpl string) FormatterOption {
	return func(f *Formatter) {
		if tmpl != "" {
			t, err := template.New("format").Parse(tmpl)
			if err == nil {
				f.template = t
			}
		}
	}
}

// NewFormatter creates a new formatter with the given options.
func NewFormatter(opts ...FormatterOption) *Formatter {
	f := &Formatter{
		showEmoji:     true,
		showTimestamp: false,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format formats an event as a string.
func (f *Formatter) Format(e Event) string {
	if f.template != nil {
		return f.formatTemplate(e)
	}
	return f.formatLine(e)
}

// formatLine formats an event as a simple line.
func (f *Formatter) formatLine(e Event) string {
	var parts []string

	if f.showTimestamp {
		parts = append(parts, e.Timestamp.Format("15:04:05"))
	}

	if f.showEmoji {
		parts = append(parts, eventEmoji(e.Type))
	}

	parts = append(parts, "["+core.FormatTime(e.Position)+"]", eventDescription(e))

	return strings.Join(parts, " ")
}

// formatTemplate formats an event using a custom template.
func (f *Formatter) formatTemplate(e Event) string {
	data := templateData{
		Type:      EventTypeName(e.Type),
		Emoji:     eventEmoji(e.Type),
		Timestamp: e.Timestamp,
		Time:      e.Timestamp.Format("15:04:05"),
		Position:  core.FormatTime(e.Position),
	}

	if c := e.Current; c != nil {
		if c.Track != nil {
			data.Name = c.Track.Name
			data.Artist = c.Track.Artist
		}
		data.Speed = c.Speed
		data.Guitar = c.Volumes.Guitar
		data.Backing = c.Volumes.BackingTrack
		if c.Loop != nil {
			data.Loop = c.Loop.String()
		}
	}

	var buf bytes.Buffer
	if err := f.template.Execute(&buf, data); err != nil {
		return f.formatLine(e)
	}
	return buf.String()
}

type templateData struct {
	Type      string
	Emoji     string
	Timestamp time.Time
	Time      string
	Position  string
	Name      string
	Artist    string
	Speed     float64
	Guitar    int
	Backing   int
	Loop      string
}

// eventDescription returns a human-readable description of the event.
func eventDescription(e Event) string {
	switch e.Type {
	case EventResume:
		return "Playing"

	case EventPause:
		return "Paused"

	case EventLoopWrap:
		if e.Current != nil && e.Current.Loop != nil {
			return fmt.Sprintf("Loop %s", e.Current.Loop)
		}
		return "Loop"

	case EventTrackEnd:
		if e.Previous != nil && e.Previous.Track != nil {
			return fmt.Sprintf("Finished: %s", trackLabel(e.Previous.Track))
		}
		return "Track finished"

	case EventSpeedChange:
		if e.Current != nil {
			return fmt.Sprintf("Speed: %.2fx", e.Current.Speed)
		}
		return "Speed changed"

	case EventMixChange:
		if e.Current != nil {
			return fmt.Sprintf("Mix: guitar %d%%, backing %d%% (%s)",
				e.Current.Volumes.Guitar, e.Current.Volumes.BackingTrack, e.Current.Isolation)
		}
		return "Mix changed"

	case EventLoopChange:
		if e.Current != nil && e.Current.Loop != nil {
			return fmt.Sprintf("Loop set: %s", e.Current.Loop)
		}
		return "Loop off"

	default:
		return "Unknown event"
	}
}

func trackLabel(t *core.Track) string {
	if t.Artist == "" {
		return t.Name
	}
	return t.Artist + " - " + t.Name
}

// EventTypeName returns a short machine-readable name.
func EventTypeName(t EventType) string {
	switch t {
	case EventResume:
		return "resume"
	case EventPause:
		return "pause"
	case EventLoopWrap:
		return "loop_wrap"
	case EventTrackEnd:
		return "track_end"
	case EventSpeedChange:
		return "speed"
	case EventMixChange:
		return "mix"
	case EventLoopChange:
		return "loop"
	default:
		return "unknown"
	}
}

// eventEmoji returns an emoji for the event type.
func eventEmoji(t EventType) string {
	switch t {
	case EventResume:
		return "▶️"
	case EventPause:
		return "⏸️"
	case EventLoopWrap:
		return "🔁"
	case EventTrackEnd:
		return "✅"
	case EventSpeedChange:
		return "⏩"
	case EventMixChange:
		return "🎚️"
	case EventLoopChange:
		return "➰"
	default:
		return "❓"
	}
}
