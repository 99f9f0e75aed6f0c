package wizard

import (
	"errors"
	"os"

	"golang.org/x/term"

	"github.com/tessro/woodshed/internal/bookmarks"
	"github.com/tessro/woodshed/internal/core"
)

// ErrCancelled is returned when the user quits a prompt.
var ErrCancelled = errors.New("cancelled")

// Interactive provides interactive fallback functionality.
type Interactive struct {
	enabled bool
	recent  []bookmarks.TrackInfo
}

// NewInteractive creates a new interactive handler.
func NewInteractive() *Interactive {
	return &Interactive{
		enabled: true,
	}
}

// SetEnabled enables or disables interactive mode.
func (i *Interactive) SetEnabled(enabled bool) {
	i.enabled = enabled
}

// SetRecent sets previously practiced songs offered before the song form.
// Entries without both stem sources are skipped.
func (i *Interactive) SetRecent(tracks []bookmarks.TrackInfo) {
	i.recent = i.recent[:0]
	for _, t := range tracks {
		if t.Sources.Guitar != "" && t.Sources.Backing != "" {
			i.recent = append(i.recent, t)
		}
	}
}

// IsTerminal returns true if stdout is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// CanInteract returns true if interactive mode is available.
func (i *Interactive) CanInteract() bool {
	return i.enabled && IsTerminal()
}

// PromptSong asks which song to practice: first from the recent list when
// there is one, then through the song form. Returns nil if not interactive.
func (i *Interactive) PromptSong(initial Song) (*Song, error) {
	if !i.CanInteract() {
		return nil, nil
	}
	if len(i.recent) > 0 && initial.Sources == (core.Sources{}) {
		picked, err := RunRecentPicker(i.recent)
		if err != nil {
			return nil, err
		}
		if picked != nil {
			return &Song{
				Sources: picked.Sources,
				Meta:    core.Metadata{Name: picked.Name, Artist: picked.Artist},
			}, nil
		}
	}
	return RunSongForm(initial)
}

// NeedsSources returns true if either stem source is missing.
func NeedsSources(src core.Sources) bool {
	return src.Guitar == "" || src.Backing == ""
}
