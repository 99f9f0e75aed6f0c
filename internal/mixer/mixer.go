// Package mixer tracks per-stem volumes and isolation presets and pushes
// them to the live voices.
package mixer

import (
	"fmt"

	"github.com/tessro/woodshed/internal/core"
	werrors "github.com/tessro/woodshed/internal/errors"
)

// GainSink receives linear gains for live voices. The sink is responsible
// for smoothing.
type GainSink interface {
	SetGain(stem core.Stem, gain float64)
}

var presets = map[core.IsolationPreset]core.StemVolumes{
	core.IsolationFull:        {Guitar: 100, BackingTrack: 100},
	core.IsolationGuitarOnly:  {Guitar: 100, BackingTrack: 0},
	core.IsolationBackingOnly: {Guitar: 0, BackingTrack: 100},
}

// Mixer holds the stem volumes.
type Mixer struct {
	sink    GainSink
	volumes core.StemVolumes
	preset  core.IsolationPreset
}

// New returns a mixer at full volume. sink may be nil.
func New(sink GainSink) *Mixer {
	return &Mixer{
		sink:    sink,
		volumes: presets[core.IsolationFull],
		preset:  core.IsolationFull,
	}
}

// GainFor maps a volume percentage to a linear gain.
func GainFor(percent int) float64 {
	return float64(clampPercent(percent)) / 100
}

// SetVolume sets one stem's volume. Any manual change makes the mix custom.
func (m *Mixer) SetVolume(stem core.Stem, percent int) {
	m.volumes = m.volumes.With(stem, clampPercent(percent))
	m.preset = core.IsolationCustom
	m.push(stem)
}

// AdjustVolume changes one stem's volume by delta.
func (m *Mixer) AdjustVolume(stem core.Stem, delta int) {
	m.SetVolume(stem, m.volumes.Get(stem)+delta)
}

// ApplyIsolation switches to a named preset. Custom cannot be applied
// directly.
func (m *Mixer) ApplyIsolation(preset core.IsolationPreset) error {
	v, ok := presets[preset]
	if !ok {
		return fmt.Errorf("%w: %q", werrors.ErrInvalidPreset, preset)
	}
	m.volumes = v
	m.preset = preset
	for _, stem := range core.AllStems {
		m.push(stem)
	}
	return nil
}

// Volumes returns the current volumes.
func (m *Mixer) Volumes() core.StemVolumes {
	return m.volumes
}

// Preset returns the current preset tag.
func (m *Mixer) Preset() core.IsolationPreset {
	return m.preset
}

// Gain returns the linear gain for stem.
func (m *Mixer) Gain(stem core.Stem) float64 {
	return GainFor(m.volumes.Get(stem))
}

func (m *Mixer) push(stem core.Stem) {
	if m.sink != nil {
		m.sink.SetGain(stem, m.Gain(stem))
	}
}

func clampPercent(p int) int {
	return min(100, max(0, p))
}
