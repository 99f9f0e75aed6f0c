package bookmarks

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessro/woodshed/internal/core"
	werrors "github.com/tessro/woodshed/internal/errors"
)

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "bookmarks.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestTrackKeyIgnoresMetadata(t *testing.T) {
	a := core.Track{Name: "One", Sources: core.Sources{Guitar: "g.wav", Backing: "b.wav"}}
	b := core.Track{Name: "Two", Artist: "Else", Sources: a.Sources}
	c := core.Track{Name: "One", Sources: core.Sources{Guitar: "g2.wav", Backing: "b.wav"}}

	ka, err := TrackKey(a)
	require.NoError(t, err)
	kb, err := TrackKey(b)
	require.NoError(t, err)
	kc, err := TrackKey(c)
	require.NoError(t, err)

	assert.Equal(t, ka, kb)
	assert.NotEqual(t, ka, kc)
	assert.Len(t, ka, 16)
}

func TestAddListSorted(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	_, err := s.Add(ctx, "k", core.LoopRegion{Start: 40, End: 50}, "Outro")
	require.NoError(t, err)
	first, err := s.Add(ctx, "k", core.LoopRegion{Start: 10, End: 20}, "")
	require.NoError(t, err)
	assert.Equal(t, "Loop 1", first.Label)
	_, err = s.Add(ctx, "other", core.LoopRegion{Start: 0, End: 5}, "")
	require.NoError(t, err)

	list, err := s.List(ctx, "k")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 10.0, list[0].Start)
	assert.Equal(t, "Outro", list[1].Label)
	assert.Equal(t, core.LoopRegion{Start: 10, End: 20}, list[0].Region())
}

func TestAddRejectsShortRegion(t *testing.T) {
	s := openStore(t)
	_, err := s.Add(context.Background(), "k", core.LoopRegion{Start: 1, End: 2}, "")
	assert.ErrorIs(t, err, werrors.ErrInvalidRegion)
}

func TestUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	b, err := s.Add(ctx, "k", core.LoopRegion{Start: 1, End: 9}, "")
	require.NoError(t, err)

	require.NoError(t, s.UpdateLabel(ctx, b.ID, "  Riff  "))
	list, err := s.List(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "Riff", list[0].Label)

	assert.Error(t, s.UpdateLabel(ctx, b.ID, " "))
	assert.ErrorIs(t, s.UpdateLabel(ctx, 999, "x"), werrors.ErrBookmarkNotFound)

	require.NoError(t, s.Delete(ctx, b.ID))
	assert.ErrorIs(t, s.Delete(ctx, b.ID), werrors.ErrBookmarkNotFound)

	list, err = s.List(ctx, "k")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDefaultLabelsStayUniqueAfterDelete(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	var ids []int64
	for i := 0; i < 3; i++ {
		b, err := s.Add(ctx, "k", core.LoopRegion{Start: float64(10 * i), End: float64(10*i + 5)}, "")
		require.NoError(t, err)
		ids = append(ids, b.ID)
	}
	require.NoError(t, s.Delete(ctx, ids[0]))

	b, err := s.Add(ctx, "k", core.LoopRegion{Start: 40, End: 45}, "")
	require.NoError(t, err)
	assert.Equal(t, "Loop 4", b.Label)

	// Other tracks number independently.
	b, err = s.Add(ctx, "other", core.LoopRegion{Start: 0, End: 5}, "")
	require.NoError(t, err)
	assert.Equal(t, "Loop 1", b.Label)
}

func TestTracks(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) { s.now = func() time.Time { return base.Add(d) } }

	at(0)
	require.NoError(t, s.RememberTrack(ctx, "k1", core.Track{Name: "Blues", Artist: "A"}))
	at(time.Minute)
	require.NoError(t, s.RememberTrack(ctx, "k2", core.Track{Name: "Alpha"}))
	at(time.Hour)
	require.NoError(t, s.RememberTrack(ctx, "k1", core.Track{Name: "Blues in A", Artist: "A", Sources: core.Sources{Guitar: "g.wav", Backing: "b.wav"}}))
	_, err := s.Add(ctx, "k1", core.LoopRegion{Start: 0, End: 4}, "")
	require.NoError(t, err)

	tracks, err := s.Tracks(ctx)
	require.NoError(t, err)
	require.Len(t, tracks, 2)

	// Most recently practiced first.
	assert.True(t, tracks[0].UpdatedAt.Equal(base.Add(time.Hour)), "got %v", tracks[0].UpdatedAt)
	assert.True(t, tracks[1].UpdatedAt.Equal(base.Add(time.Minute)), "got %v", tracks[1].UpdatedAt)
	tracks[0].UpdatedAt, tracks[1].UpdatedAt = time.Time{}, time.Time{}
	assert.Equal(t, TrackInfo{Key: "k1", Name: "Blues in A", Artist: "A", Sources: core.Sources{Guitar: "g.wav", Backing: "b.wav"}, Bookmarks: 1}, tracks[0])
	assert.Equal(t, TrackInfo{Key: "k2", Name: "Alpha"}, tracks[1])
}

func TestPersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bookmarks.db")

	s, err := Open(path, nil)
	require.NoError(t, err)
	_, err = s.Add(ctx, "k", core.LoopRegion{Start: 3, End: 8}, "Intro")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path, nil)
	require.NoError(t, err)
	defer s.Close()
	list, err := s.List(ctx, "k")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Intro", list[0].Label)
}
