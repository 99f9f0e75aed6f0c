package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessro/woodshed/internal/config"
	"github.com/tessro/woodshed/internal/core"
	werrors "github.com/tessro/woodshed/internal/errors"
	"github.com/tessro/woodshed/internal/wizard"
)

func TestParseTime(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"12", 12, false},
		{"12.5", 12.5, false},
		{"1:05", 65, false},
		{" 2:30.5 ", 150.5, false},
		{"", 0, true},
		{"x:10", 0, true},
		{"-3", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseTime(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParseRegion(t *testing.T) {
	r, err := parseRegion("0:30-0:45.5")
	require.NoError(t, err)
	assert.Equal(t, core.LoopRegion{Start: 30, End: 45.5}, r)

	_, err = parseRegion("30")
	assert.True(t, errors.Is(err, werrors.ErrInvalidRegion))

	_, err = parseRegion("45-30")
	assert.True(t, errors.Is(err, werrors.ErrInvalidRegion))
}

func TestParseIsolation(t *testing.T) {
	p, err := parseIsolation("Guitar")
	require.NoError(t, err)
	assert.Equal(t, core.IsolationGuitarOnly, p)

	p, err = parseIsolation("backing-only")
	require.NoError(t, err)
	assert.Equal(t, core.IsolationBackingOnly, p)

	_, err = parseIsolation("drums")
	assert.True(t, errors.Is(err, werrors.ErrInvalidPreset))
	assert.NotEmpty(t, werrors.GetSuggestion(err))
}

func TestMergeMeta(t *testing.T) {
	track := core.Track{Name: "guitar", Artist: ""}
	got := mergeMeta(track, core.Metadata{Artist: "Hendrix"})
	assert.Equal(t, core.Metadata{Name: "guitar", Artist: "Hendrix"}, got)

	got = mergeMeta(track, core.Metadata{Name: "Little Wing"})
	assert.Equal(t, "Little Wing", got.Name)
}

func TestResolveSong(t *testing.T) {
	noPrompt := wizard.NewInteractive()
	noPrompt.SetEnabled(false)

	t.Run("two sources", func(t *testing.T) {
		req, err := resolveSong([]string{"g.wav", "b.wav"}, songFlags{name: "Song"}, noPrompt)
		require.NoError(t, err)
		assert.Equal(t, core.Sources{Guitar: "g.wav", Backing: "b.wav"}, req.Sources)
		assert.Equal(t, "Song", req.Meta.Name)
	})

	t.Run("manifest", func(t *testing.T) {
		req, err := resolveSong(nil, songFlags{manifest: "song.json"}, noPrompt)
		require.NoError(t, err)
		assert.Equal(t, "song.json", req.Manifest)
	})

	t.Run("manifest and sources", func(t *testing.T) {
		_, err := resolveSong([]string{"g.wav"}, songFlags{manifest: "song.json"}, noPrompt)
		assert.Error(t, err)
	})

	t.Run("missing backing", func(t *testing.T) {
		_, err := resolveSong([]string{"g.wav"}, songFlags{}, noPrompt)
		assert.True(t, errors.Is(err, werrors.ErrNoTrack))
	})
}

func TestConfigSet(t *testing.T) {
	old := cfgFile
	cfgFile = filepath.Join(t.TempDir(), "woodshedrc")
	t.Cleanup(func() { cfgFile = old })

	require.NoError(t, runConfigSet(configSetCmd, []string{"playback.speed", "0.75"}))
	require.NoError(t, runConfigSet(configSetCmd, []string{"loop.default_length", "8"}))

	data, err := os.ReadFile(cfgFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Woodshed Configuration")

	loaded, err := config.LoadFrom(cfgFile)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, loaded.Playback.Speed, 1e-9)
	assert.InDelta(t, 8.0, loaded.Loop.DefaultLength, 1e-9)

	// Out of range values never reach the file.
	err = runConfigSet(configSetCmd, []string{"playback.speed", "3"})
	assert.True(t, errors.Is(err, werrors.ErrInvalidConfig))
	loaded, err = config.LoadFrom(cfgFile)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, loaded.Playback.Speed, 1e-9)

	assert.Error(t, runConfigSet(configSetCmd, []string{"nope.key", "1"}))
	assert.Error(t, runConfigSet(configSetCmd, []string{"poller.interval_ms", "fast"}))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "Voodoo ...", TruncateString("Voodoo Child (Slight Return)", 10))
	assert.Equal(t, "Vo", TruncateString("Voodoo", 2))
}
