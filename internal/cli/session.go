package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tessro/woodshed/internal/audio"
	"github.com/tessro/woodshed/internal/bookmarks"
	"github.com/tessro/woodshed/internal/clock"
	"github.com/tessro/woodshed/internal/core"
	werrors "github.com/tessro/woodshed/internal/errors"
	"github.com/tessro/woodshed/internal/loop"
	"github.com/tessro/woodshed/internal/player"
	"github.com/tessro/woodshed/internal/stems"
	"github.com/tessro/woodshed/internal/wizard"
)

// songFlags are shared by every command that loads a song.
type songFlags struct {
	manifest string
	name     string
	artist   string
}

func (f *songFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.manifest, "manifest", "m", "", "separation manifest (path or URL) listing both stems")
	cmd.Flags().StringVar(&f.name, "name", "", "song name (default: guitar file name)")
	cmd.Flags().StringVar(&f.artist, "artist", "", "artist")
}

// songRequest says where a song's stems come from.
type songRequest struct {
	Sources  core.Sources
	Meta     core.Metadata
	Manifest string
}

// resolveSong turns positional args and flags into a request. With
// interactive set and sources missing, the wizard asks for them.
func resolveSong(args []string, f songFlags, interactive *wizard.Interactive) (songRequest, error) {
	req := songRequest{
		Manifest: f.manifest,
		Meta:     core.Metadata{Name: f.name, Artist: f.artist},
	}
	if req.Manifest != "" {
		if len(args) > 0 {
			return req, fmt.Errorf("pass either --manifest or two stem sources, not both")
		}
		return req, nil
	}

	if len(args) > 0 {
		req.Sources.Guitar = args[0]
	}
	if len(args) > 1 {
		req.Sources.Backing = args[1]
	}
	if !wizard.NeedsSources(req.Sources) {
		return req, nil
	}

	if interactive != nil {
		song, err := interactive.PromptSong(wizard.Song{Sources: req.Sources, Meta: req.Meta})
		if err != nil {
			return req, err
		}
		if song != nil {
			req.Sources = song.Sources
			req.Meta = song.Meta
			return req, nil
		}
	}
	return req, werrors.WithSuggestion(
		fmt.Errorf("%w: need a guitar and a backing track stem", werrors.ErrNoTrack),
		"Pass both stems: woodshed practice <guitar> <backing>, or use --manifest")
}

// loadStems loads req into a bare stem store, for commands that never
// open the audio device.
func loadStems(ctx context.Context, req songRequest) (*stems.Loaded, error) {
	store := stems.NewStore(stems.NewFetcher(cfg.FetchTimeout()), logger)

	ctx, cancel := context.WithTimeout(ctx, cfg.FetchTimeout())
	defer cancel()

	if req.Manifest == "" {
		return store.Load(ctx, req.Sources, req.Meta)
	}
	if _, err := store.LoadManifest(ctx, req.Manifest); err != nil {
		return nil, err
	}
	if req.Meta.Name != "" || req.Meta.Artist != "" {
		if _, err := store.Rename(mergeMeta(store.Current().Track, req.Meta)); err != nil {
			return nil, err
		}
	}
	return store.Current(), nil
}

// newPlayer builds a player on the system speaker.
func newPlayer() *player.Player {
	engine := audio.NewSpeakerEngine(cfg.Audio, logger)
	store := stems.NewStore(stems.NewFetcher(cfg.FetchTimeout()), logger)
	return player.New(engine, store, clock.System(),
		player.WithLogger(logger),
		player.WithLoopOptions(
			loop.WithMinDuration(cfg.Loop.MinDuration),
			loop.WithDefaultLength(cfg.Loop.DefaultLength),
			loop.WithDragThreshold(cfg.Loop.DragThreshold),
		),
		player.WithPreservePitch(cfg.Playback.PreservePitch),
		player.WithSpeed(cfg.Playback.Speed),
	)
}

// loadPlayer loads req into p. The fetch timeout is applied here rather
// than inside the player.
func loadPlayer(ctx context.Context, p *player.Player, req songRequest) (*core.Track, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.FetchTimeout())
	defer cancel()

	if req.Manifest == "" {
		return p.Load(ctx, req.Sources, req.Meta)
	}
	track, err := p.LoadManifest(ctx, req.Manifest)
	if err != nil {
		return nil, err
	}
	if req.Meta.Name != "" || req.Meta.Artist != "" {
		meta := mergeMeta(*track, req.Meta)
		return p.Rename(meta.Name, meta.Artist)
	}
	return track, nil
}

// mergeMeta overrides the track's metadata with the non-empty fields of meta.
func mergeMeta(track core.Track, meta core.Metadata) core.Metadata {
	out := core.Metadata{Name: track.Name, Artist: track.Artist}
	if meta.Name != "" {
		out.Name = meta.Name
	}
	if meta.Artist != "" {
		out.Artist = meta.Artist
	}
	return out
}

// openBookmarks opens the bookmark database from config.
func openBookmarks() (*bookmarks.SQLiteStore, error) {
	store, err := bookmarks.Open(cfg.Bookmarks.Path, logger)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// optionalBookmarks opens the bookmark database for commands that work
// without it. A failure is logged and reported as a nil Store.
func optionalBookmarks() bookmarks.Store {
	store, err := openBookmarks()
	if err != nil {
		logger.Warn("bookmarks unavailable", zap.Error(err))
		return nil
	}
	return store
}

// parseRegion parses "start-end" where each side is seconds or m:ss(.t).
func parseRegion(s string) (core.LoopRegion, error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return core.LoopRegion{}, fmt.Errorf("%w: %q, want start-end", werrors.ErrInvalidRegion, s)
	}
	start, err := parseTime(parts[0])
	if err != nil {
		return core.LoopRegion{}, err
	}
	end, err := parseTime(parts[1])
	if err != nil {
		return core.LoopRegion{}, err
	}
	if end <= start {
		return core.LoopRegion{}, fmt.Errorf("%w: %q ends before it starts", werrors.ErrInvalidRegion, s)
	}
	return core.LoopRegion{Start: start, End: end}, nil
}

// parseTime accepts "75", "75.5", "1:15" or "1:15.5".
func parseTime(s string) (float64, error) {
	s = strings.TrimSpace(s)
	var minutes float64
	if i := strings.Index(s, ":"); i >= 0 {
		m, err := strconv.Atoi(s[:i])
		if err != nil || m < 0 {
			return 0, fmt.Errorf("invalid time %q", s)
		}
		minutes = float64(m)
		s = s[i+1:]
	}
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil || sec < 0 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return minutes*60 + sec, nil
}

// findBookmark looks a bookmark up by ID within a track.
func findBookmark(ctx context.Context, store bookmarks.Store, track core.Track, id int64) (*core.Bookmark, error) {
	key, err := bookmarks.TrackKey(track)
	if err != nil {
		return nil, err
	}
	marks, err := store.List(ctx, key)
	if err != nil {
		return nil, err
	}
	b := marks.Find(id)
	if b == nil {
		return nil, fmt.Errorf("%w: %d", werrors.ErrBookmarkNotFound, id)
	}
	return b, nil
}
