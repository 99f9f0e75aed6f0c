package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gopxl/beep/v2"
	beepwav "github.com/gopxl/beep/v2/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessro/woodshed/internal/audio"
	"github.com/tessro/woodshed/internal/core"
	werrors "github.com/tessro/woodshed/internal/errors"
)

const rate = 1000

func constant(t *testing.T, v float64, seconds float64) *audio.Buffer {
	t.Helper()
	s := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			samples[i] = [2]float64{v, v}
		}
		return len(samples), true
	})
	format := beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2}
	buf, err := audio.NewBuffer(format, beep.Take(int(seconds*rate), s))
	require.NoError(t, err)
	return buf
}

// bounce exports and decodes the result.
func bounce(t *testing.T, guitar, backing *audio.Buffer, region core.LoopRegion, vol core.StemVolumes) ([][2]float64, beep.Format) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "loop.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	n, err := WAV(f, guitar, backing, region, vol)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	in, err := os.Open(path)
	require.NoError(t, err)
	defer in.Close()
	s, format, err := beepwav.Decode(in)
	require.NoError(t, err)

	var out [][2]float64
	chunk := make([][2]float64, 512)
	for {
		got, ok := s.Stream(chunk)
		out = append(out, chunk[:got]...)
		if !ok || got == 0 {
			break
		}
	}
	require.Equal(t, n, len(out))
	return out, format
}

func TestWAVMixesAtVolumes(t *testing.T) {
	guitar := constant(t, 0.25, 4)
	backing := constant(t, 0.5, 4)

	tests := []struct {
		name string
		vol  core.StemVolumes
		want float64
	}{
		{"full", core.StemVolumes{Guitar: 100, BackingTrack: 100}, 0.75},
		{"guitar only", core.StemVolumes{Guitar: 100, BackingTrack: 0}, 0.25},
		{"half backing", core.StemVolumes{Guitar: 0, BackingTrack: 50}, 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples, format := bounce(t, guitar, backing, core.LoopRegion{Start: 1, End: 3}, tt.vol)
			assert.Equal(t, beep.SampleRate(rate), format.SampleRate)
			assert.Equal(t, 2*rate, len(samples))
			assert.InDelta(t, tt.want, samples[0][0], 1e-3)
			assert.InDelta(t, tt.want, samples[len(samples)-1][1], 1e-3)
		})
	}
}

func TestWAVClips(t *testing.T) {
	loud := constant(t, 0.75, 3)
	samples, _ := bounce(t, loud, loud, core.LoopRegion{Start: 0, End: 2}, core.StemVolumes{Guitar: 100, BackingTrack: 100})
	assert.InDelta(t, 1.0, samples[10][0], 1e-3)
}

func TestWAVRejectsEmptyRegion(t *testing.T) {
	buf := constant(t, 0.1, 1)
	f, err := os.Create(filepath.Join(t.TempDir(), "x.wav"))
	require.NoError(t, err)
	defer f.Close()

	_, err = WAV(f, buf, buf, core.LoopRegion{Start: 0.5, End: 0.5}, core.StemVolumes{})
	assert.ErrorIs(t, err, werrors.ErrInvalidRegion)

	_, err = WAV(f, nil, buf, core.LoopRegion{Start: 0, End: 1}, core.StemVolumes{})
	assert.ErrorIs(t, err, werrors.ErrNoTrack)
}
