// Package player ties the stem store, transport clock, mixer, loop
// controller and audio engine into one practice transport.
//
// Both stems always play as a pair. Every play, seek while playing and speed
// change while playing stops both voices and starts two fresh ones at the
// same offset in a single engine call.
package player

import (
	"context"
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/tessro/woodshed/internal/audio"
	"github.com/tessro/woodshed/internal/clock"
	"github.com/tessro/woodshed/internal/core"
	werrors "github.com/tessro/woodshed/internal/errors"
	"github.com/tessro/woodshed/internal/loop"
	"github.com/tessro/woodshed/internal/mixer"
	"github.com/tessro/woodshed/internal/poller"
	"github.com/tessro/woodshed/internal/stems"
	"github.com/tessro/woodshed/internal/transport"
)

// Option configures a Player.
type Option func(*Player)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Player) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithLoopOptions configures the loop controller.
func WithLoopOptions(opts ...loop.Option) Option {
	return func(p *Player) {
		p.loopOpts = append(p.loopOpts, opts...)
	}
}

// WithPreservePitch records the intent to keep pitch constant across
// speed changes.
func WithPreservePitch(enabled bool) Option {
	return func(p *Player) {
		p.preservePitch = enabled
	}
}

// WithSpeed sets the initial speed applied after each load.
func WithSpeed(speed float64) Option {
	return func(p *Player) {
		p.initialSpeed = speed
	}
}

// Player is the dual-voice practice transport. It is safe for concurrent
// use; the poller goroutine and UI handlers share one lock.
type Player struct {
	mu sync.Mutex

	engine audio.Engine
	store  *stems.Store
	clock  *transport.Clock
	mixer  *mixer.Mixer
	loop   *loop.Controller
	poller *poller.Poller
	logger *zap.Logger

	loopOpts      []loop.Option
	preservePitch bool
	initialSpeed  float64

	loaded    *stems.Loaded
	voices    []audio.Voice
	gen       uint64
	ended     chan uint64
	published float64
	loading   bool
	lastErr   string
}

var _ core.Player = (*Player)(nil)

// New creates a player with no track loaded.
func New(engine audio.Engine, store *stems.Store, src clock.Source, opts ...Option) *Player {
	p := &Player{
		engine:       engine,
		store:        store,
		clock:        transport.New(src),
		logger:       zap.NewNop(),
		ended:        make(chan uint64, 4),
		initialSpeed: 1,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.Named("player")
	p.mixer = mixer.New(gainSink{p})
	p.loop = loop.New(p.loopOpts...)
	p.poller = poller.New(target{p})
	return p
}

// Load fetches and decodes a song, replacing the current one on success.
// Playback stops before the fetch begins; on failure the previous song
// stays loaded and paused where it was.
func (p *Player) Load(ctx context.Context, src core.Sources, meta core.Metadata) (*core.Track, error) {
	return p.load(func() (*stems.Loaded, error) {
		return p.store.Load(ctx, src, meta)
	})
}

// LoadManifest loads the stems listed in a separation manifest.
func (p *Player) LoadManifest(ctx context.Context, source string) (*core.Track, error) {
	return p.load(func() (*stems.Loaded, error) {
		return p.store.LoadManifest(ctx, source)
	})
}

func (p *Player) load(fetch func() (*stems.Loaded, error)) (*core.Track, error) {
	p.mu.Lock()
	p.stopVoices()
	p.clock.Pause()
	p.publish()
	p.loading = true
	p.lastErr = ""
	p.mu.Unlock()

	loaded, err := fetch()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.loading = false
	if err != nil {
		p.lastErr = err.Error()
		return nil, err
	}

	p.stopVoices()
	p.loaded = loaded
	p.clock.Reset(loaded.Track.DurationSeconds)
	if p.initialSpeed != 1 {
		p.clock.SetSpeed(p.initialSpeed)
	}
	p.loop.SetDuration(loaded.Track.DurationSeconds)
	p.gen++
	p.published = 0

	track := loaded.Track
	p.logger.Info("track loaded",
		zap.String("name", track.Name),
		zap.Float64("duration", track.DurationSeconds))
	return &track, nil
}

// Loaded returns the decoded song, or nil.
func (p *Player) Loaded() *stems.Loaded {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loaded
}

// Rename edits the song metadata. Playback is unaffected.
func (p *Player) Rename(name, artist string) (*core.Track, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loaded == nil {
		return nil, werrors.ErrNoTrack
	}
	track, err := p.store.Rename(core.Metadata{Name: name, Artist: artist})
	if err != nil {
		return nil, err
	}
	p.loaded = p.store.Current()
	return track, nil
}

// Play starts both voices from the current position. Resuming the audio
// device is the only step that may block, and it runs without holding the
// player lock so Tick and State stay responsive.
func (p *Player) Play(ctx context.Context) error {
	p.mu.Lock()
	err := p.playable()
	playing := p.clock.IsPlaying()
	p.mu.Unlock()
	if err != nil || playing {
		return err
	}

	if err := p.engine.Resume(ctx); err != nil {
		p.mu.Lock()
		p.lastErr = err.Error()
		p.mu.Unlock()
		p.logger.Warn("audio resume failed", zap.Error(err))
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// A load or another Play may have run while the device resumed.
	if err := p.playable(); err != nil {
		return err
	}
	if p.clock.IsPlaying() {
		return nil
	}

	if p.clock.Now() >= p.clock.Duration() {
		p.clock.Seek(0)
	}
	p.clock.Play()
	if err := p.startVoices(); err != nil {
		p.clock.Pause()
		p.lastErr = err.Error()
		p.logger.Warn("voice start failed", zap.Error(err))
		return err
	}
	p.lastErr = ""
	p.publish()
	p.logger.Debug("play", zap.Float64("position", p.published), zap.Float64("speed", p.clock.Speed()))
	return nil
}

func (p *Player) playable() error {
	if p.loading {
		return werrors.ErrLoading
	}
	if p.loaded == nil {
		return werrors.ErrNoTrack
	}
	return nil
}

// Pause stops both voices and freezes the position.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.clock.IsPlaying() {
		return
	}
	p.clock.Pause()
	p.stopVoices()
	p.publish()
	p.logger.Debug("pause", zap.Float64("position", p.published))
}

// TogglePlay pauses when playing and plays otherwise.
func (p *Player) TogglePlay(ctx context.Context) error {
	p.mu.Lock()
	playing := p.clock.IsPlaying()
	p.mu.Unlock()
	if playing {
		p.Pause()
		return nil
	}
	return p.Play(ctx)
}

// Seek moves to t seconds, clamped to the track.
func (p *Player) Seek(t float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seek(t)
}

// SeekBy moves relative to the current position.
func (p *Player) SeekBy(delta float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seek(p.clock.Now() + delta)
}

// SetSpeed changes the playback rate, clamped to [0.5, 2.0].
func (p *Player) SetSpeed(speed float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clock.SetSpeed(speed)
	if p.clock.IsPlaying() {
		p.reanchor("speed")
	}
	p.publish()
	p.logger.Debug("speed", zap.Float64("speed", p.clock.Speed()))
}

// AdjustSpeed changes the rate by delta, rounded to hundredths.
func (p *Player) AdjustSpeed(delta float64) {
	p.mu.Lock()
	next := math.Round((p.clock.Speed()+delta)*100) / 100
	p.mu.Unlock()
	p.SetSpeed(next)
}

// SetPreservePitch records the pitch preservation intent.
func (p *Player) SetPreservePitch(enabled bool) {
	p.mu.Lock()
	p.preservePitch = enabled
	p.mu.Unlock()
}

// Capabilities reports what the audio engine can do.
func (p *Player) Capabilities() audio.Capabilities {
	return p.engine.Capabilities()
}

// SetVolume sets a stem volume; the mix becomes custom.
func (p *Player) SetVolume(stem core.Stem, percent int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mixer.SetVolume(stem, percent)
}

// AdjustVolume changes a stem volume by delta.
func (p *Player) AdjustVolume(stem core.Stem, delta int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mixer.AdjustVolume(stem, delta)
}

// ApplyIsolation applies a named preset.
func (p *Player) ApplyIsolation(preset core.IsolationPreset) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mixer.ApplyIsolation(preset)
}

// ToggleLoop turns the loop off or back on.
func (p *Player) ToggleLoop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.apply(p.loop.Toggle())
}

// JumpTo activates a bookmarked region and seeks to its start.
func (p *Player) JumpTo(b core.Bookmark) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.apply(p.loop.SetRegion(b.Start, b.End))
}

// ClearLoop removes both the active and the remembered region.
func (p *Player) ClearLoop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loop.Clear()
}

// PointerDown starts a scrubber gesture at song time t.
func (p *Player) PointerDown(t, px float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loop.PointerDown(t, px)
}

// PointerMove continues a scrubber gesture.
func (p *Player) PointerMove(t, px float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loop.PointerMove(t, px)
}

// PointerUp finishes a scrubber gesture and performs any resulting seek.
func (p *Player) PointerUp(t, px float64) loop.Action {
	p.mu.Lock()
	defer p.mu.Unlock()
	act := p.loop.PointerUp(t, px)
	p.apply(act)
	return act
}

// Provisional returns the region being drawn, if any.
func (p *Player) Provisional() *core.LoopRegion {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loop.Provisional()
}

// Tick runs one poller frame. Natural-end signals from the guitar voice are
// handled first; signals from voices that were since replaced are dropped.
func (p *Player) Tick() poller.Frame {
	p.mu.Lock()
	defer p.mu.Unlock()

	for {
		select {
		case gen := <-p.ended:
			if gen == p.gen && p.clock.IsPlaying() {
				p.finish()
				return poller.Frame{Position: 0, Ended: true}
			}
			continue
		default:
		}
		break
	}
	return p.poller.Tick()
}

// State returns a snapshot for the UI.
func (p *Player) State() core.PlaybackState {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := core.PlaybackState{
		IsPlaying:     p.clock.IsPlaying(),
		CurrentTime:   p.published,
		Speed:         p.clock.Speed(),
		PreservePitch: p.preservePitch,
		Volumes:       p.mixer.Volumes(),
		Isolation:     p.mixer.Preset(),
		Loop:          p.loop.Region(),
		SavedLoop:     p.loop.Saved(),
		IsLooping:     p.loop.IsLooping(),
		Loading:       p.loading,
		Error:         p.lastErr,
	}
	if p.loaded != nil {
		track := p.loaded.Track
		st.Track = &track
	}
	return st
}

// Close stops playback, drops the decoded stems and releases the audio
// engine.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopVoices()
	p.clock.Pause()
	p.store.Clear()
	p.loaded = nil
	return p.engine.Close()
}

// seek relocates the transport. While playing, both voices are rebuilt at
// the new offset.
func (p *Player) seek(t float64) {
	if p.loaded == nil {
		return
	}
	p.clock.Seek(t)
	if p.clock.IsPlaying() {
		p.reanchor("seek")
	}
	p.publish()
}

func (p *Player) apply(act loop.Action) {
	if act.Seeks() {
		p.seek(act.Seek)
	}
}

// reanchor restarts both voices at the clock position. A failure pauses
// the transport rather than leaving it running silent.
func (p *Player) reanchor(op string) {
	if err := p.startVoices(); err != nil {
		p.clock.Pause()
		p.lastErr = err.Error()
		p.logger.Warn("re-anchor failed", zap.String("op", op), zap.Error(err))
	}
}

func (p *Player) startVoices() error {
	p.stopVoices()
	p.gen++
	gen := p.gen

	offset := p.clock.Now()
	specs := make([]audio.VoiceSpec, 0, len(core.AllStems))
	for _, stem := range core.AllStems {
		spec := audio.VoiceSpec{
			Stem:   stem,
			Buffer: p.loaded.Buffer(stem),
			Offset: offset,
			Rate:   p.clock.Speed(),
			Gain:   p.mixer.Gain(stem),
		}
		if stem == core.StemGuitar {
			spec.OnEnded = func() {
				select {
				case p.ended <- gen:
				default:
				}
			}
		}
		specs = append(specs, spec)
	}

	voices, err := p.engine.Start(specs...)
	if err != nil {
		return fmt.Errorf("start voices: %w", err)
	}
	p.voices = voices
	return nil
}

// stopVoices is safe to call with no voices.
func (p *Player) stopVoices() {
	for _, v := range p.voices {
		v.Stop()
	}
	p.voices = nil
}

// finish is the natural end-of-track transition.
func (p *Player) finish() {
	p.stopVoices()
	p.clock.Pause()
	p.clock.Seek(0)
	p.published = 0
	p.logger.Debug("track ended")
}

func (p *Player) publish() {
	pos := p.clock.Now()
	if pos < 0 {
		pos = 0
	}
	if d := p.clock.Duration(); d > 0 && pos > d {
		pos = d
	}
	p.published = pos
}

// gainSink forwards mixer gains to the live voices.
type gainSink struct{ p *Player }

func (s gainSink) SetGain(stem core.Stem, gain float64) {
	for _, v := range s.p.voices {
		if v.Stem() == stem {
			v.SetGain(gain)
		}
	}
}

// target exposes the player to the poller. Its methods run with p.mu held.
type target struct{ p *Player }

func (t target) Position() float64     { return t.p.clock.Now() }
func (t target) Duration() float64     { return t.p.clock.Duration() }
func (t target) IsPlaying() bool       { return t.p.clock.IsPlaying() }
func (t target) Looper() poller.Looper { return t.p.loop }
func (t target) Publish(pos float64)   { t.p.published = pos }
func (t target) Finish()               { t.p.finish() }

func (t target) Relocate(pos float64) {
	t.p.logger.Debug("loop wrap", zap.Float64("to", pos))
	t.p.seek(pos)
}
