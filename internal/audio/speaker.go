package audio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
	"go.uber.org/zap"

	"github.com/tessro/woodshed/internal/config"
	"github.com/tessro/woodshed/internal/core"
	werrors "github.com/tessro/woodshed/internal/errors"
)

// SpeakerEngine plays voices through the system audio device.
type SpeakerEngine struct {
	mu         sync.Mutex
	sampleRate beep.SampleRate
	buffer     time.Duration
	quality    int
	ramp       time.Duration
	ready      bool
	logger     *zap.Logger
}

// NewSpeakerEngine creates an engine. The device is opened lazily by the
// first Resume.
func NewSpeakerEngine(cfg config.AudioConfig, logger *zap.Logger) *SpeakerEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	quality := cfg.ResampleQuality
	if quality < 1 {
		quality = 1
	}
	return &SpeakerEngine{
		sampleRate: beep.SampleRate(cfg.SampleRate),
		buffer:     time.Duration(cfg.BufferMs) * time.Millisecond,
		quality:    quality,
		ramp:       time.Duration(cfg.RampMs) * time.Millisecond,
		logger:     logger.Named("speaker"),
	}
}

// Resume opens the device on first call and resumes output.
func (e *SpeakerEngine) Resume(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return &werrors.PlaybackError{Op: "resume", Err: err}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.ready {
		if err := speaker.Init(e.sampleRate, e.sampleRate.N(e.buffer)); err != nil {
			e.logger.Warn("audio device init failed", zap.Error(err))
			return &werrors.PlaybackError{Op: "init", Err: err}
		}
		e.ready = true
		e.logger.Debug("audio device ready",
			zap.Int("sample_rate", int(e.sampleRate)),
			zap.Duration("buffer", e.buffer))
	}

	if err := speaker.Resume(); err != nil {
		return &werrors.PlaybackError{Op: "resume", Err: err}
	}
	return nil
}

// Start builds one voice per spec and hands them all to the speaker mixer
// in a single call.
func (e *SpeakerEngine) Start(specs ...VoiceSpec) ([]Voice, error) {
	e.mu.Lock()
	ready := e.ready
	e.mu.Unlock()
	if !ready {
		return nil, &werrors.PlaybackError{Op: "start", Err: fmt.Errorf("audio device not initialized")}
	}

	voices := make([]Voice, 0, len(specs))
	streamers := make([]beep.Streamer, 0, len(specs))
	for _, spec := range specs {
		v := e.newVoice(spec)
		voices = append(voices, v)
		streamers = append(streamers, v.ctrl)
	}
	speaker.Play(streamers...)
	return voices, nil
}

// Capabilities reports that resampling shifts pitch with speed.
func (e *SpeakerEngine) Capabilities() Capabilities {
	return Capabilities{PreservesPitch: false}
}

// Close releases the audio device.
func (e *SpeakerEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ready {
		speaker.Clear()
		speaker.Close()
		e.ready = false
	}
	return nil
}

func (e *SpeakerEngine) newVoice(spec VoiceSpec) *speakerVoice {
	src := spec.Buffer.Format().SampleRate
	ratio := spec.Rate * float64(src) / float64(e.sampleRate)

	var s beep.Streamer = spec.Buffer.Segment(spec.Offset)
	if ratio != 1 {
		s = beep.ResampleRatio(e.quality, ratio, s)
	}

	v := &speakerVoice{
		stem:    spec.Stem,
		offset:  spec.Offset,
		rate:    spec.Rate,
		onEnded: spec.OnEnded,
	}
	// Fade in from silence so re-anchoring does not click.
	v.ramp = NewRamp(s, 0, spec.Gain, e.sampleRate.N(e.ramp))
	v.ctrl = &beep.Ctrl{Streamer: beep.Seq(v.ramp, beep.Callback(v.ended))}
	return v
}

type speakerVoice struct {
	stem    core.Stem
	offset  float64
	rate    float64
	ramp    *Ramp
	ctrl    *beep.Ctrl
	onEnded func()
}

func (v *speakerVoice) Stem() core.Stem { return v.stem }
func (v *speakerVoice) Offset() float64 { return v.offset }
func (v *speakerVoice) Rate() float64   { return v.rate }

func (v *speakerVoice) Gain() float64 {
	speaker.Lock()
	defer speaker.Unlock()
	return v.ramp.Target()
}

func (v *speakerVoice) SetGain(g float64) {
	speaker.Lock()
	v.ramp.SetTarget(g)
	speaker.Unlock()
}

func (v *speakerVoice) Stop() {
	speaker.Lock()
	v.onEnded = nil
	v.ctrl.Streamer = nil
	speaker.Unlock()
}

// ended runs on the speaker goroutine with the speaker lock held.
func (v *speakerVoice) ended() {
	if fn := v.onEnded; fn != nil {
		v.onEnded = nil
		fn()
	}
}
