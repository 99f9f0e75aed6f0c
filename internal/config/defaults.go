package config

import (
	"os"
	"path/filepath"
)

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Audio: AudioConfig{
			SampleRate:      44100,
			BufferMs:        100,
			ResampleQuality: 4,
			RampMs:          10,
		},
		Playback: PlaybackConfig{
			Speed:    1.0,
			SeekStep: 10,
		},
		Loop: LoopConfig{
			MinDuration:   2.0,
			DefaultLength: 10,
			DragThreshold: 3,
		},
		Poller: PollerConfig{
			IntervalMs: 16,
		},
		Fetch: FetchConfig{
			Timeout: 60,
		},
		Bookmarks: BookmarksConfig{
			Path: defaultBookmarksPath(),
		},
		TUI: TUIConfig{
			Theme: "auto",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	d := Default()

	// Audio
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = d.Audio.SampleRate
	}
	if c.Audio.BufferMs == 0 {
		c.Audio.BufferMs = d.Audio.BufferMs
	}
	if c.Audio.ResampleQuality == 0 {
		c.Audio.ResampleQuality = d.Audio.ResampleQuality
	}
	if c.Audio.RampMs == 0 {
		c.Audio.RampMs = d.Audio.RampMs
	}

	// Playback
	if c.Playback.Speed == 0 {
		c.Playback.Speed = d.Playback.Speed
	}
	if c.Playback.SeekStep == 0 {
		c.Playback.SeekStep = d.Playback.SeekStep
	}

	// Loop
	if c.Loop.MinDuration == 0 {
		c.Loop.MinDuration = d.Loop.MinDuration
	}
	if c.Loop.DefaultLength == 0 {
		c.Loop.DefaultLength = d.Loop.DefaultLength
	}
	if c.Loop.DragThreshold == 0 {
		c.Loop.DragThreshold = d.Loop.DragThreshold
	}

	// Poller
	if c.Poller.IntervalMs == 0 {
		c.Poller.IntervalMs = d.Poller.IntervalMs
	}

	// Fetch
	if c.Fetch.Timeout == 0 {
		c.Fetch.Timeout = d.Fetch.Timeout
	}

	// Bookmarks
	if c.Bookmarks.Path == "" {
		c.Bookmarks.Path = d.Bookmarks.Path
	}

	// TUI
	if c.TUI.Theme == "" {
		c.TUI.Theme = d.TUI.Theme
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}

// defaultBookmarksPath returns $XDG_DATA_HOME/woodshed/bookmarks.db.
func defaultBookmarksPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "bookmarks.db"
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "woodshed", "bookmarks.db")
}
