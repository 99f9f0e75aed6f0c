package audiotest

import (
	"os"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// FixtureRate is the sample rate of generated fixtures.
const FixtureRate = 8000

// WriteWAV writes a 16-bit stereo WAV of the given length to path.
func WriteWAV(t testing.TB, path string, seconds float64) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	defer f.Close()

	frames := int(seconds * FixtureRate)
	data := make([]int, frames*2)
	for i := range data {
		data[i] = (i % 200) * 100
	}

	enc := wav.NewEncoder(f, FixtureRate, 16, 2, 1)
	err = enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 2, SampleRate: FixtureRate},
		Data:           data,
		SourceBitDepth: 16,
	})
	if err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close fixture: %v", err)
	}
}
