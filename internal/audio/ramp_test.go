package audio

import (
	"testing"

	"github.com/gopxl/beep/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ones() beep.Streamer {
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			samples[i] = [2]float64{1, 1}
		}
		return len(samples), true
	})
}

func TestRampIsLinear(t *testing.T) {
	r := NewRamp(ones(), 0, 1, 10)
	samples := make([][2]float64, 12)

	n, ok := r.Stream(samples)
	require.True(t, ok)
	require.Equal(t, 12, n)

	for i := 0; i < 10; i++ {
		assert.InDelta(t, float64(i+1)/10, samples[i][0], 1e-9, "frame %d", i)
		assert.Equal(t, samples[i][0], samples[i][1])
	}
	assert.Equal(t, 1.0, samples[10][0])
	assert.Equal(t, 1.0, samples[11][0])
}

func TestRampRetargetsFromCurrentGain(t *testing.T) {
	r := NewRamp(ones(), 1, 1, 4)
	samples := make([][2]float64, 4)

	r.SetTarget(0)
	r.Stream(samples)
	assert.InDelta(t, 0.75, samples[0][0], 1e-9)
	assert.Equal(t, 0.0, samples[3][0])
	assert.Equal(t, 0.0, r.Target())
}

func TestRampZeroLengthJumps(t *testing.T) {
	r := NewRamp(ones(), 0, 0.5, 0)
	samples := make([][2]float64, 2)
	r.Stream(samples)
	assert.Equal(t, 0.5, samples[0][0])
}

func TestBufferSegments(t *testing.T) {
	format := beep.Format{SampleRate: 100, NumChannels: 2, Precision: 2}
	buf, err := NewBuffer(format, beep.Take(250, ones()))
	require.NoError(t, err)

	assert.Equal(t, 250, buf.Len())
	assert.InDelta(t, 2.5, buf.Duration(), 1e-9)
	assert.Equal(t, uint64(1000), buf.Size())
	assert.Equal(t, 100, buf.Frame(1))
	assert.Equal(t, 250, buf.Frame(99))
	assert.Equal(t, 0, buf.Frame(-1))
	assert.Equal(t, 150, buf.Segment(1).Len())
	assert.Equal(t, 50, buf.Range(0.5, 1).Len())
}
