package player

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessro/woodshed/internal/audio/audiotest"
	"github.com/tessro/woodshed/internal/clock"
	"github.com/tessro/woodshed/internal/core"
	werrors "github.com/tessro/woodshed/internal/errors"
	"github.com/tessro/woodshed/internal/loop"
	"github.com/tessro/woodshed/internal/stems"
)

const eps = 1e-9

type harness struct {
	player *Player
	engine *audiotest.Engine
	hw     *clock.Manual
	src    core.Sources
}

func sources(t *testing.T, seconds float64) core.Sources {
	t.Helper()
	dir := t.TempDir()
	src := core.Sources{
		Guitar:  filepath.Join(dir, "guitar.wav"),
		Backing: filepath.Join(dir, "backing.wav"),
	}
	audiotest.WriteWAV(t, src.Guitar, seconds)
	audiotest.WriteWAV(t, src.Backing, seconds)
	return src
}

func newHarness(t *testing.T, seconds float64) *harness {
	t.Helper()
	h := &harness{
		engine: audiotest.New(),
		hw:     clock.NewManual(0),
		src:    sources(t, seconds),
	}
	h.player = New(h.engine, stems.NewStore(stems.FileFetcher{}, nil), h.hw)
	_, err := h.player.Load(context.Background(), h.src, core.Metadata{Name: "Practice"})
	require.NoError(t, err)
	return h
}

// assertPaired checks the last batch holds one voice per stem at offset.
func assertPaired(t *testing.T, e *audiotest.Engine, offset, rate float64) {
	t.Helper()
	batch := e.LastBatch()
	require.Len(t, batch, 2)
	assert.Equal(t, core.StemGuitar, batch[0].Stem())
	assert.Equal(t, core.StemBacking, batch[1].Stem())
	for _, v := range batch {
		assert.InDelta(t, offset, v.Offset(), eps)
		assert.Equal(t, rate, v.Rate())
		assert.False(t, v.Stopped())
	}
	assert.Len(t, e.Live(), 2, "no voices may outlive their segment")
}

func TestPlayWithoutTrack(t *testing.T) {
	p := New(audiotest.New(), stems.NewStore(stems.FileFetcher{}, nil), clock.NewManual(0))
	assert.ErrorIs(t, p.Play(context.Background()), werrors.ErrNoTrack)
	assert.False(t, p.State().IsPlaying)
}

func TestLoadResetsTransport(t *testing.T) {
	h := newHarness(t, 30)
	st := h.player.State()
	require.NotNil(t, st.Track)
	assert.Equal(t, "Practice", st.Track.Name)
	assert.InDelta(t, 30.0, st.Track.DurationSeconds, 1e-6)
	assert.False(t, st.IsPlaying)
	assert.Equal(t, 0.0, st.CurrentTime)
	assert.Equal(t, 1.0, st.Speed)
	assert.Equal(t, core.IsolationFull, st.Isolation)
	assert.False(t, st.IsLooping)
}

func TestPlayStartsPairedVoices(t *testing.T) {
	h := newHarness(t, 30)
	require.NoError(t, h.player.Play(context.Background()))

	assert.True(t, h.player.State().IsPlaying)
	assert.Equal(t, 1, h.engine.Resumes())
	assertPaired(t, h.engine, 0, 1)

	// Playing again is a no-op.
	require.NoError(t, h.player.Play(context.Background()))
	assert.Len(t, h.engine.Batches(), 1)
}

func TestPauseStopsBothVoices(t *testing.T) {
	h := newHarness(t, 30)
	require.NoError(t, h.player.Play(context.Background()))
	h.hw.Advance(3)
	h.player.Pause()

	assert.Empty(t, h.engine.Live())
	st := h.player.State()
	assert.False(t, st.IsPlaying)
	assert.InDelta(t, 3.0, st.CurrentTime, eps)

	h.player.Pause()
	assert.InDelta(t, 3.0, h.player.State().CurrentTime, eps)
}

func TestSeekWhilePlayingReanchors(t *testing.T) {
	h := newHarness(t, 30)
	require.NoError(t, h.player.Play(context.Background()))
	first := h.engine.LastBatch()

	h.hw.Advance(2)
	h.player.Seek(12)

	assert.True(t, h.player.State().IsPlaying)
	assertPaired(t, h.engine, 12, 1)
	for _, v := range first {
		assert.True(t, v.Stopped())
	}
}

func TestSeekClampsToTrack(t *testing.T) {
	h := newHarness(t, 30)
	h.player.Seek(99)
	assert.InDelta(t, 30.0, h.player.State().CurrentTime, 1e-6)
	h.player.Seek(-1)
	assert.Equal(t, 0.0, h.player.State().CurrentTime)

	h.player.Seek(5)
	h.player.SeekBy(10)
	assert.InDelta(t, 15.0, h.player.State().CurrentTime, eps)
	h.player.SeekBy(-20)
	assert.Equal(t, 0.0, h.player.State().CurrentTime)
	assert.Empty(t, h.engine.Batches(), "seeking while paused starts nothing")
}

func TestSpeedChangeWhilePlayingReanchors(t *testing.T) {
	h := newHarness(t, 30)
	require.NoError(t, h.player.Play(context.Background()))
	h.hw.Advance(4)
	h.player.SetSpeed(2)

	assertPaired(t, h.engine, 4, 2)

	h.player.SetSpeed(9)
	assert.Equal(t, 2.0, h.player.State().Speed)
}

func TestAdjustSpeedSteps(t *testing.T) {
	h := newHarness(t, 30)
	h.player.AdjustSpeed(-0.1)
	h.player.AdjustSpeed(-0.1)
	assert.Equal(t, 0.8, h.player.State().Speed)
	for i := 0; i < 20; i++ {
		h.player.AdjustSpeed(0.1)
	}
	assert.Equal(t, 2.0, h.player.State().Speed)
}

func TestEndToEndScenario(t *testing.T) {
	h := newHarness(t, 120)
	p := h.player

	require.NoError(t, p.Play(context.Background()))
	h.hw.Advance(5)
	p.Tick()
	assert.InDelta(t, 5.0, p.State().CurrentTime, eps)

	p.SetSpeed(2)
	h.hw.Advance(5)
	p.Tick()
	assert.InDelta(t, 15.0, p.State().CurrentTime, eps)

	p.Pause()
	p.Seek(0)
	assert.Equal(t, 0.0, p.State().CurrentTime)
}

func TestNaturalEnd(t *testing.T) {
	h := newHarness(t, 30)
	require.NoError(t, h.player.Play(context.Background()))
	h.hw.Advance(29.9)

	require.True(t, h.engine.End(core.StemGuitar))
	f := h.player.Tick()

	assert.True(t, f.Ended)
	st := h.player.State()
	assert.False(t, st.IsPlaying)
	assert.Equal(t, 0.0, st.CurrentTime)
	assert.Empty(t, h.engine.Live())
}

func TestStaleEndIsIgnored(t *testing.T) {
	h := newHarness(t, 30)
	require.NoError(t, h.player.Play(context.Background()))

	// The guitar voice finishes, but the user seeks before the next frame.
	h.engine.End(core.StemGuitar)
	h.player.Seek(5)

	f := h.player.Tick()
	assert.False(t, f.Ended)
	assert.True(t, h.player.State().IsPlaying)
}

func TestEndAfterPauseIsIgnored(t *testing.T) {
	h := newHarness(t, 30)
	require.NoError(t, h.player.Play(context.Background()))
	h.hw.Advance(2)
	h.player.Pause()

	h.engine.End(core.StemGuitar)
	f := h.player.Tick()
	assert.False(t, f.Ended)
	assert.InDelta(t, 2.0, h.player.State().CurrentTime, eps)
}

func TestPollerEndsTrackAtDuration(t *testing.T) {
	h := newHarness(t, 30)
	require.NoError(t, h.player.Play(context.Background()))
	h.hw.Advance(31)

	f := h.player.Tick()
	assert.True(t, f.Ended)
	assert.False(t, h.player.State().IsPlaying)
	assert.Empty(t, h.engine.Live())
}

func TestPlayAtEndRestartsFromZero(t *testing.T) {
	h := newHarness(t, 30)
	h.player.Seek(30)
	require.NoError(t, h.player.Play(context.Background()))
	assertPaired(t, h.engine, 0, 1)
}

func TestLoopWrapReanchors(t *testing.T) {
	h := newHarness(t, 30)
	h.player.JumpTo(core.Bookmark{ID: 1, Start: 10, End: 20, Label: "Solo"})
	assert.Equal(t, 10.0, h.player.State().CurrentTime)

	require.NoError(t, h.player.Play(context.Background()))
	h.hw.Advance(10.5)
	f := h.player.Tick()

	assert.True(t, f.Wrapped)
	assert.Equal(t, 10.0, f.Position)
	assert.Equal(t, 10.0, h.player.State().CurrentTime)
	assert.True(t, h.player.State().IsPlaying)
	assertPaired(t, h.engine, 10, 1)
}

func TestToggleLoopCreatesCenteredRegion(t *testing.T) {
	h := newHarness(t, 30)
	h.player.ToggleLoop()

	st := h.player.State()
	assert.True(t, st.IsLooping)
	assert.Equal(t, &core.LoopRegion{Start: 10, End: 20}, st.Loop)
	assert.Equal(t, 10.0, st.CurrentTime)

	h.player.ToggleLoop()
	st = h.player.State()
	assert.False(t, st.IsLooping)
	assert.Equal(t, &core.LoopRegion{Start: 10, End: 20}, st.SavedLoop)
}

func TestPointerGestureCreatesLoop(t *testing.T) {
	h := newHarness(t, 30)
	h.player.PointerDown(5, 50)
	h.player.PointerMove(9, 90)
	assert.Equal(t, &core.LoopRegion{Start: 5, End: 9}, h.player.Provisional())

	act := h.player.PointerUp(9, 90)
	assert.Equal(t, loop.ActionCommitted, act.Kind)
	st := h.player.State()
	assert.Equal(t, &core.LoopRegion{Start: 5, End: 9}, st.Loop)
	assert.Equal(t, 5.0, st.CurrentTime)
}

func TestVolumeReachesLiveVoices(t *testing.T) {
	h := newHarness(t, 30)
	require.NoError(t, h.player.Play(context.Background()))

	h.player.SetVolume(core.StemGuitar, 50)
	batch := h.engine.LastBatch()
	assert.Equal(t, 0.5, batch[0].Gain())
	assert.Equal(t, 1.0, batch[1].Gain())
	assert.Equal(t, core.IsolationCustom, h.player.State().Isolation)

	require.NoError(t, h.player.ApplyIsolation(core.IsolationGuitarOnly))
	assert.Equal(t, 1.0, batch[0].Gain())
	assert.Equal(t, 0.0, batch[1].Gain())

	// New voices pick up the current mix.
	h.player.Seek(3)
	assert.Equal(t, 0.0, h.engine.LastBatch()[1].Gain())

	assert.ErrorIs(t, h.player.ApplyIsolation(core.IsolationCustom), werrors.ErrInvalidPreset)
}

func TestResumeFailureIsRetryable(t *testing.T) {
	h := newHarness(t, 30)
	h.engine.FailResume = errors.New("no user gesture")

	err := h.player.Play(context.Background())
	assert.ErrorIs(t, err, werrors.ErrPlayback)
	st := h.player.State()
	assert.False(t, st.IsPlaying)
	assert.NotEmpty(t, st.Error)
	assert.Empty(t, h.engine.Batches())

	h.engine.FailResume = nil
	require.NoError(t, h.player.Play(context.Background()))
	assert.True(t, h.player.State().IsPlaying)
	assert.Empty(t, h.player.State().Error)
}

func TestFailedLoadKeepsPreviousTrack(t *testing.T) {
	h := newHarness(t, 30)
	require.NoError(t, h.player.Play(context.Background()))
	h.hw.Advance(4)

	bad := core.Sources{Guitar: h.src.Guitar, Backing: filepath.Join(t.TempDir(), "missing.wav")}
	_, err := h.player.Load(context.Background(), bad, core.Metadata{Name: "Other"})
	require.Error(t, err)

	st := h.player.State()
	require.NotNil(t, st.Track)
	assert.Equal(t, "Practice", st.Track.Name)
	assert.False(t, st.IsPlaying)
	assert.InDelta(t, 4.0, st.CurrentTime, eps)
	assert.Empty(t, h.engine.Live(), "loading stops the old voices first")
	assert.NotEmpty(t, st.Error)
}

func TestSuccessfulLoadReplacesTrack(t *testing.T) {
	h := newHarness(t, 30)
	h.player.SetSpeed(1.5)
	h.player.ToggleLoop()

	_, err := h.player.Load(context.Background(), sources(t, 12), core.Metadata{Name: "Next"})
	require.NoError(t, err)

	st := h.player.State()
	assert.Equal(t, "Next", st.Track.Name)
	assert.Equal(t, 1.0, st.Speed)
	assert.Equal(t, 0.0, st.CurrentTime)
	assert.Nil(t, st.Loop)
	assert.Nil(t, st.SavedLoop)
}

func TestRename(t *testing.T) {
	h := newHarness(t, 30)
	track, err := h.player.Rename("Texas Flood", "SRV")
	require.NoError(t, err)
	assert.Equal(t, "Texas Flood", track.Name)
	assert.Equal(t, "SRV", h.player.State().Track.Artist)
}

func TestCloseReleasesEngine(t *testing.T) {
	h := newHarness(t, 30)
	require.NoError(t, h.player.Play(context.Background()))
	require.NoError(t, h.player.Close())
	assert.True(t, h.engine.Closed())
	assert.Empty(t, h.engine.Live())
	assert.Nil(t, h.player.Loaded())
	assert.Nil(t, h.player.State().Track)
}

// gatedFetcher reads files but, once armed, holds every fetch until the
// gate is closed.
type gatedFetcher struct {
	stems.FileFetcher

	mu      sync.Mutex
	gate    chan struct{}
	entered chan struct{}
}

func (f *gatedFetcher) arm() {
	f.mu.Lock()
	f.gate = make(chan struct{})
	f.entered = make(chan struct{}, 2)
	f.mu.Unlock()
}

func (f *gatedFetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	f.mu.Lock()
	gate, entered := f.gate, f.entered
	f.mu.Unlock()
	if gate != nil {
		entered <- struct{}{}
		<-gate
	}
	return f.FileFetcher.Fetch(ctx, source)
}

func TestPlayDuringLoadIsRefused(t *testing.T) {
	engine := audiotest.New()
	fetcher := &gatedFetcher{}
	p := New(engine, stems.NewStore(fetcher, nil), clock.NewManual(0))
	_, err := p.Load(context.Background(), sources(t, 30), core.Metadata{Name: "First"})
	require.NoError(t, err)
	require.NoError(t, p.Play(context.Background()))
	require.Len(t, engine.Live(), 2)

	fetcher.arm()
	next := sources(t, 12)
	done := make(chan error, 1)
	go func() {
		_, err := p.Load(context.Background(), next, core.Metadata{Name: "Second"})
		done <- err
	}()
	<-fetcher.entered

	assert.Empty(t, engine.Live(), "loading stops the old voices first")
	assert.True(t, p.State().Loading)
	assert.ErrorIs(t, p.Play(context.Background()), werrors.ErrLoading)
	assert.ErrorIs(t, p.TogglePlay(context.Background()), werrors.ErrLoading)
	assert.Empty(t, engine.Live())

	close(fetcher.gate)
	require.NoError(t, <-done)

	st := p.State()
	assert.Equal(t, "Second", st.Track.Name)
	assert.False(t, st.IsPlaying)
	assert.Empty(t, engine.Live(), "no voices survive the swap")

	require.NoError(t, p.Play(context.Background()))
	assertPaired(t, engine, 0, 1)
}

func TestResumeDoesNotHoldPlayerLock(t *testing.T) {
	h := newHarness(t, 30)
	entered := make(chan struct{})
	release := make(chan struct{})
	h.engine.OnResume = func() {
		close(entered)
		<-release
	}

	done := make(chan error, 1)
	go func() { done <- h.player.Play(context.Background()) }()
	<-entered

	state := make(chan core.PlaybackState, 1)
	go func() {
		h.player.Tick()
		state <- h.player.State()
	}()
	select {
	case st := <-state:
		assert.False(t, st.IsPlaying)
	case <-time.After(2 * time.Second):
		t.Fatal("State blocked while the audio device was resuming")
	}

	close(release)
	require.NoError(t, <-done)
	assert.True(t, h.player.State().IsPlaying)
	assertPaired(t, h.engine, 0, 1)
}
