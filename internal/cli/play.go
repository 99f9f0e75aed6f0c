package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tessro/woodshed/internal/core"
	werrors "github.com/tessro/woodshed/internal/errors"
	"github.com/tessro/woodshed/internal/player"
	"github.com/tessro/woodshed/internal/tail"
)

var (
	playSong      songFlags
	playNoEmoji   bool
	playTimestamp bool
	playFormat    string
	playInterval  time.Duration
	playSpeed     float64
	playFrom      string
	playLoop      string
	playBookmark  int64
	playIsolate   string
)

var playCmd = &cobra.Command{
	Use:   "play <guitar> <backing>",
	Short: "Play a song without the dashboard and follow the session",
	Long: `Play both stems in lockstep and print session events as they happen.

Events tracked:
  - Pause/Resume
  - Loop wraps
  - End of song
  - Speed, mix and loop changes

With a loop the song repeats until interrupted; otherwise playback stops at
the end of the song.`,
	Example: `  woodshed play guitar.wav backing.wav --speed 0.75
  woodshed play guitar.wav backing.wav --loop 1:02-1:18 --isolate backing
  woodshed play guitar.wav backing.wav --bookmark 3`,
	Args: cobra.MaximumNArgs(2),
	RunE: runPlay,
}

func init() {
	playSong.register(playCmd)
	playCmd.Flags().BoolVar(&playNoEmoji, "no-emoji", false, "disable emoji output")
	playCmd.Flags().BoolVarP(&playTimestamp, "timestamp", "t", false, "show timestamps")
	playCmd.Flags().StringVarP(&playFormat, "format", "f", "", "custom format template")
	playCmd.Flags().DurationVarP(&playInterval, "interval", "i", 0, "poll interval (default from config)")
	playCmd.Flags().Float64VarP(&playSpeed, "speed", "s", 0, "playback speed, 0.5 to 2.0")
	playCmd.Flags().StringVar(&playFrom, "from", "", "start position (seconds or m:ss)")
	playCmd.Flags().StringVarP(&playLoop, "loop", "l", "", "loop region start-end (seconds or m:ss)")
	playCmd.Flags().Int64VarP(&playBookmark, "bookmark", "b", 0, "loop a saved bookmark by ID")
	playCmd.Flags().StringVar(&playIsolate, "isolate", "", "isolation preset: full, guitar or backing")

	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	if playLoop != "" && playBookmark != 0 {
		return fmt.Errorf("pass either --loop or --bookmark, not both")
	}

	// Handle Ctrl+C gracefully
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	req, err := resolveSong(args, playSong, nil)
	if err != nil {
		return err
	}

	p := newPlayer()
	defer func() { _ = p.Close() }()

	track, err := loadPlayer(ctx, p, req)
	if err != nil {
		return err
	}
	if err := applyPlayFlags(ctx, p, *track); err != nil {
		return err
	}

	formatter := tail.NewFormatter(
		tail.WithEmoji(!playNoEmoji),
		tail.WithTimestamp(playTimestamp),
		tail.WithTemplate(playFormat),
	)

	if err := p.Play(ctx); err != nil {
		return err
	}

	state := p.State()
	printEvent(formatter, tail.Event{
		Type:      tail.EventResume,
		Timestamp: time.Now(),
		Position:  state.CurrentTime,
		Current:   &state,
	})

	interval := playInterval
	if interval == 0 {
		interval = cfg.PollInterval()
	}
	watcher := tail.NewWatcher(p, interval)

	errCh := make(chan error, 1)
	go func() {
		errCh <- watcher.Start(ctx)
	}()

	// Print events as they arrive
	for event := range watcher.Events() {
		printEvent(formatter, event)
	}

	p.Pause()
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func printEvent(f *tail.Formatter, e tail.Event) {
	if JSONOutput() {
		_ = json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"event":    tail.EventTypeName(e.Type),
			"time":     e.Timestamp,
			"position": e.Position,
			"state":    e.Current,
		})
		return
	}
	fmt.Println(f.Format(e))
}

// applyPlayFlags sets speed, mix, start position and loop before playback.
func applyPlayFlags(ctx context.Context, p *player.Player, track core.Track) error {
	if playSpeed != 0 {
		p.SetSpeed(playSpeed)
	}

	if playIsolate != "" {
		preset, err := parseIsolation(playIsolate)
		if err != nil {
			return err
		}
		if err := p.ApplyIsolation(preset); err != nil {
			return err
		}
	}

	if playFrom != "" {
		t, err := parseTime(playFrom)
		if err != nil {
			return err
		}
		p.Seek(t)
	}

	switch {
	case playLoop != "":
		region, err := parseRegion(playLoop)
		if err != nil {
			return err
		}
		p.JumpTo(core.Bookmark{Start: region.Start, End: region.End})
		if p.State().Loop == nil {
			return fmt.Errorf("%w: %s is shorter than %.1fs", werrors.ErrInvalidRegion, region, cfg.Loop.MinDuration)
		}
	case playBookmark != 0:
		store, err := openBookmarks()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		b, err := findBookmark(ctx, store, track, playBookmark)
		if err != nil {
			return err
		}
		p.JumpTo(*b)
	}
	return nil
}

// parseIsolation accepts the preset names and their short forms.
func parseIsolation(s string) (core.IsolationPreset, error) {
	switch strings.ToLower(s) {
	case "full", "all", "both":
		return core.IsolationFull, nil
	case "guitar", "guitaronly", "guitar-only":
		return core.IsolationGuitarOnly, nil
	case "backing", "backingonly", "backing-only", "backingtrack":
		return core.IsolationBackingOnly, nil
	}
	return "", werrors.WithSuggestion(
		fmt.Errorf("%w: %q", werrors.ErrInvalidPreset, s),
		"Use one of: full, guitar, backing")
}
