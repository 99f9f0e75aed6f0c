// Package stems owns the decoded guitar and backing buffers of the current
// song and their load lifecycle.
package stems

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tessro/woodshed/internal/audio"
	"github.com/tessro/woodshed/internal/core"
	werrors "github.com/tessro/woodshed/internal/errors"
)

// DurationTolerance is how far the backing stem may drift from the guitar
// stem before a mismatch is logged.
const DurationTolerance = 0.5

// Loaded is a fully decoded song.
type Loaded struct {
	Track   core.Track
	Guitar  *audio.Buffer
	Backing *audio.Buffer
}

// Buffer returns the buffer for stem.
func (l *Loaded) Buffer(stem core.Stem) *audio.Buffer {
	if stem == core.StemBacking {
		return l.Backing
	}
	return l.Guitar
}

// Store holds at most one loaded song.
type Store struct {
	fetcher Fetcher
	logger  *zap.Logger

	mu      sync.RWMutex
	current *Loaded
}

// NewStore creates an empty store.
func NewStore(fetcher Fetcher, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{fetcher: fetcher, logger: logger.Named("stems")}
}

// Current returns the loaded song, or nil.
func (s *Store) Current() *Loaded {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Clear drops the loaded song.
func (s *Store) Clear() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}

// Rename replaces the track metadata of the loaded song.
func (s *Store) Rename(meta core.Metadata) (*core.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, werrors.ErrNoTrack
	}
	next := *s.current
	next.Track.Name = meta.Name
	next.Track.Artist = meta.Artist
	s.current = &next
	track := next.Track
	return &track, nil
}

// Load fetches and decodes both stems concurrently. Either both become
// current or, on any failure, the previous song is kept and a
// *errors.LoadError is returned.
func (s *Store) Load(ctx context.Context, src core.Sources, meta core.Metadata) (*Loaded, error) {
	for _, stem := range core.AllStems {
		if src.For(stem) == "" {
			return nil, &werrors.LoadError{
				Stem: string(stem),
				Err:  fmt.Errorf("%w: no source given", werrors.ErrFetch),
			}
		}
	}

	s.logger.Info("loading stems",
		zap.String("guitar", src.Guitar),
		zap.String("backing", src.Backing))

	buffers := make([]*audio.Buffer, len(core.AllStems))
	g, gctx := errgroup.WithContext(ctx)
	for i, stem := range core.AllStems {
		g.Go(func() error {
			buf, err := s.loadOne(gctx, stem, src.For(stem))
			if err != nil {
				return err
			}
			buffers[i] = buf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Warn("stem load failed", zap.Error(err))
		return nil, err
	}

	guitar, backing := buffers[0], buffers[1]
	duration := guitar.Duration()
	if drift := math.Abs(backing.Duration() - duration); drift > DurationTolerance {
		s.logger.Warn("stem durations differ; using guitar",
			zap.Error(werrors.ErrDurationMismatch),
			zap.Float64("guitar", duration),
			zap.Float64("backing", backing.Duration()))
	}

	name := meta.Name
	if name == "" {
		name = SongName(src.Guitar)
	}
	loaded := &Loaded{
		Track: core.Track{
			Name:            name,
			Artist:          meta.Artist,
			DurationSeconds: duration,
			Sources:         src,
		},
		Guitar:  guitar,
		Backing: backing,
	}

	s.mu.Lock()
	s.current = loaded
	s.mu.Unlock()

	s.logger.Info("stems loaded",
		zap.String("track", name),
		zap.Float64("duration", duration),
		zap.String("size", humanize.Bytes(guitar.Size()+backing.Size())))
	return loaded, nil
}

func (s *Store) loadOne(ctx context.Context, stem core.Stem, source string) (*audio.Buffer, error) {
	data, err := s.fetcher.Fetch(ctx, source)
	if err != nil {
		return nil, &werrors.LoadError{Stem: string(stem), Source: source, Err: err}
	}
	buf, err := Decode(source, data)
	if err != nil {
		return nil, &werrors.LoadError{Stem: string(stem), Source: source, Err: err}
	}
	s.logger.Debug("stem decoded",
		zap.String("stem", string(stem)),
		zap.String("fetched", humanize.Bytes(uint64(len(data)))),
		zap.Int("sample_rate", int(buf.Format().SampleRate)))
	return buf, nil
}

// LoadManifest fetches a separation manifest and loads the stems it lists.
func (s *Store) LoadManifest(ctx context.Context, source string) (*Loaded, error) {
	data, err := s.fetcher.Fetch(ctx, source)
	if err != nil {
		return nil, &werrors.LoadError{Source: source, Err: err}
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, &werrors.LoadError{Source: source, Err: err}
	}
	return s.Load(ctx, m.Sources(), m.Metadata())
}
