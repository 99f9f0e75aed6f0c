package core

// TransportState is the mutable state of the transport clock.
//
// PausedAtSeconds is the logical position frozen at the last pause, seek or
// speed-change boundary. AnchorHardwareTime is the hardware clock reading
// taken when the current playing segment began.
type TransportState struct {
	IsPlaying          bool    `json:"is_playing"`
	PausedAtSeconds    float64 `json:"paused_at_seconds"`
	AnchorHardwareTime float64 `json:"anchor_hardware_time"`
	Speed              float64 `json:"speed"`
}

// PlaybackState is the UI-facing snapshot of a practice session.
type PlaybackState struct {
	Track         *Track          `json:"track"`
	IsPlaying     bool            `json:"is_playing"`
	CurrentTime   float64         `json:"current_time"`
	Speed         float64         `json:"speed"`
	PreservePitch bool            `json:"preserve_pitch"`
	Volumes       StemVolumes     `json:"volumes"`
	Isolation     IsolationPreset `json:"isolation"`
	Loop          *LoopRegion     `json:"loop"`
	SavedLoop     *LoopRegion     `json:"saved_loop"`
	IsLooping     bool            `json:"is_looping"`
	Loading       bool            `json:"loading"`
	Error         string          `json:"error,omitempty"`
}

// HasTrack returns true if a track is loaded.
func (s *PlaybackState) HasTrack() bool {
	return s != nil && s.Track != nil
}

// ProgressPercent returns playback progress as a percentage (0-100).
func (s *PlaybackState) ProgressPercent() float64 {
	if s == nil || s.Track == nil || s.Track.DurationSeconds == 0 {
		return 0
	}
	return s.CurrentTime / s.Track.DurationSeconds * 100
}
