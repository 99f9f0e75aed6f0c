package core

// IsolationPreset tags the current stem mix.
type IsolationPreset string

const (
	IsolationFull        IsolationPreset = "full"
	IsolationGuitarOnly  IsolationPreset = "guitarOnly"
	IsolationBackingOnly IsolationPreset = "backingOnly"
	IsolationCustom      IsolationPreset = "custom"
)

// StemVolumes holds per-stem volume percentages in [0,100].
type StemVolumes struct {
	Guitar       int `json:"guitar"`
	BackingTrack int `json:"backingTrack"`
}

// Get returns the volume for a stem.
func (v StemVolumes) Get(stem Stem) int {
	if stem == StemBacking {
		return v.BackingTrack
	}
	return v.Guitar
}

// With returns a copy of v with the stem's volume replaced.
func (v StemVolumes) With(stem Stem, percent int) StemVolumes {
	if stem == StemBacking {
		v.BackingTrack = percent
	} else {
		v.Guitar = percent
	}
	return v
}
