package wizard

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/tessro/woodshed/internal/core"
	"github.com/tessro/woodshed/internal/stems"
)

// Song is what the song form collects.
type Song struct {
	Sources core.Sources
	Meta    core.Metadata
}

// ValidateSource accepts an http(s) URL or a path to an existing file.
func ValidateSource(source string) error {
	source = strings.TrimSpace(source)
	if source == "" {
		return errors.New("required")
	}
	if stems.IsURL(source) {
		return nil
	}
	info, err := os.Stat(strings.TrimPrefix(source, "file://"))
	if err != nil {
		return fmt.Errorf("not found: %s", source)
	}
	if info.IsDir() {
		return fmt.Errorf("is a directory: %s", source)
	}
	return nil
}

// DefaultName derives a song name from a stem source when none was given.
func DefaultName(s Song) string {
	if s.Meta.Name != "" {
		return s.Meta.Name
	}
	return stems.SongName(s.Sources.Guitar)
}

// RunSongForm prompts for the two stems and the song's name and artist.
// Fields already set in initial are pre-filled.
func RunSongForm(initial Song) (*Song, error) {
	s := initial

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Guitar stem").
				Description("File path or http(s) URL").
				Value(&s.Sources.Guitar).
				Validate(ValidateSource),
			huh.NewInput().
				Title("Backing track stem").
				Description("File path or http(s) URL").
				Value(&s.Sources.Backing).
				Validate(ValidateSource),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Song name").
				Description("Leave empty to use the guitar file name").
				Value(&s.Meta.Name),
			huh.NewInput().
				Title("Artist").
				Value(&s.Meta.Artist),
		),
	)

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("song selection cancelled: %w", err)
	}

	s.Sources.Guitar = strings.TrimSpace(s.Sources.Guitar)
	s.Sources.Backing = strings.TrimSpace(s.Sources.Backing)
	s.Meta.Name = strings.TrimSpace(DefaultName(s))
	s.Meta.Artist = strings.TrimSpace(s.Meta.Artist)
	return &s, nil
}
