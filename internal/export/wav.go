// Package export bounces a loop region of both stems to a WAV file.
package export

import (
	"fmt"
	"io"
	"math"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gopxl/beep/v2"

	"github.com/tessro/woodshed/internal/audio"
	"github.com/tessro/woodshed/internal/core"
	werrors "github.com/tessro/woodshed/internal/errors"
	"github.com/tessro/woodshed/internal/mixer"
)

const (
	bitDepth    = 16
	channels    = 2
	chunkFrames = 4096
	resampleQ   = 4
)

// WAV mixes region of both stems at the given volumes and writes 16-bit
// stereo PCM at the guitar stem's sample rate. It returns the number of
// frames written.
func WAV(w io.WriteSeeker, guitar, backing *audio.Buffer, region core.LoopRegion, volumes core.StemVolumes) (int, error) {
	if guitar == nil || backing == nil {
		return 0, werrors.ErrNoTrack
	}
	if region.End <= region.Start {
		return 0, fmt.Errorf("%w: %.2f-%.2f", werrors.ErrInvalidRegion, region.Start, region.End)
	}

	rate := guitar.Format().SampleRate
	g := mixer.GainFor(volumes.Guitar)
	b := mixer.GainFor(volumes.BackingTrack)

	var bs beep.Streamer = backing.Range(region.Start, region.End)
	if br := backing.Format().SampleRate; br != rate {
		bs = beep.Resample(resampleQ, br, rate, bs)
	}
	mix := beep.Mix(
		audio.NewRamp(guitar.Range(region.Start, region.End), g, g, 0),
		audio.NewRamp(bs, b, b, 0),
	)

	enc := wav.NewEncoder(w, int(rate), bitDepth, channels, 1)
	format := &goaudio.Format{NumChannels: channels, SampleRate: int(rate)}
	samples := make([][2]float64, chunkFrames)
	data := make([]int, chunkFrames*channels)
	limit := guitar.Frame(region.End) - guitar.Frame(region.Start)

	total := 0
	for total < limit {
		n, ok := mix.Stream(samples[:min(chunkFrames, limit-total)])
		for i := 0; i < n; i++ {
			data[2*i] = toPCM(samples[i][0])
			data[2*i+1] = toPCM(samples[i][1])
		}
		if n > 0 {
			err := enc.Write(&goaudio.IntBuffer{Format: format, Data: data[:n*channels], SourceBitDepth: bitDepth})
			if err != nil {
				return total, fmt.Errorf("write wav: %w", err)
			}
			total += n
		}
		if !ok || n == 0 {
			break
		}
	}

	if err := enc.Close(); err != nil {
		return total, fmt.Errorf("finish wav: %w", err)
	}
	return total, nil
}

func toPCM(v float64) int {
	v = math.Max(-1, math.Min(1, v))
	return int(v * math.MaxInt16)
}
