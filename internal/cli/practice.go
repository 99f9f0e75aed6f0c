package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tessro/woodshed/internal/tui"
	"github.com/tessro/woodshed/internal/wizard"
)

var practiceSong songFlags

var practiceCmd = &cobra.Command{
	Use:     "practice [guitar] [backing]",
	Aliases: []string{"ui"},
	Short:   "Open the practice dashboard for a song",
	Long: `Load a song's guitar and backing track stems and open the interactive
practice dashboard.

Stems may be local files or http(s) URLs in WAV, MP3, FLAC or Ogg Vorbis
format. Without arguments you are asked which song to practice.

The dashboard provides:
  • Now Playing - position, speed and a scrubber showing the loop
  • Mixer - per-stem volume and isolation presets
  • Bookmarks - saved loops for this song

Keyboard shortcuts:
  q, Ctrl+C    Quit
  ?            Help
  Space        Play/Pause
  ←/→          Seek
  [ / ]        Speed down/up
  f / g / b    Full mix / guitar only / backing only
  l            Toggle loop
  m            Bookmark the current loop
  Tab          Switch panel

Drag on the scrubber with the mouse to draw a loop, or drag its edges to
adjust it.`,
	Example: `  woodshed practice guitar.wav backing.wav
  woodshed practice --manifest https://stems.example.com/jobs/42/manifest.json
  woodshed practice`,
	Args: cobra.MaximumNArgs(2),
	RunE: runPractice,
}

func init() {
	practiceSong.register(practiceCmd)
	rootCmd.AddCommand(practiceCmd)
}

func runPractice(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	marks := optionalBookmarks()
	if marks != nil {
		defer marks.Close()
	}

	interactive := wizard.NewInteractive()
	if marks != nil {
		if tracks, err := marks.Tracks(ctx); err == nil {
			interactive.SetRecent(tracks)
		}
	}

	req, err := resolveSong(args, practiceSong, interactive)
	if err != nil {
		return err
	}

	p := newPlayer()
	defer func() {
		if err := p.Close(); err != nil {
			logger.Warn("close player", zap.Error(err))
		}
	}()

	fmt.Fprintln(os.Stderr, "Loading stems...")
	if _, err := loadPlayer(ctx, p, req); err != nil {
		return err
	}

	return tui.Run(p, marks, cfg)
}
