package config

// Config is the root configuration structure.
type Config struct {
	Audio     AudioConfig     `toml:"audio"`
	Playback  PlaybackConfig  `toml:"playback"`
	Loop      LoopConfig      `toml:"loop"`
	Poller    PollerConfig    `toml:"poller"`
	Fetch     FetchConfig     `toml:"fetch"`
	Bookmarks BookmarksConfig `toml:"bookmarks"`
	TUI       TUIConfig       `toml:"tui"`
	Log       LogConfig       `toml:"log"`
}

// AudioConfig holds audio output settings.
type AudioConfig struct {
	SampleRate      int `toml:"sample_rate"`
	BufferMs        int `toml:"buffer_ms"`
	ResampleQuality int `toml:"resample_quality"`
	RampMs          int `toml:"ramp_ms"`
}

// PlaybackConfig holds default transport settings.
type PlaybackConfig struct {
	Speed         float64 `toml:"speed"`
	PreservePitch bool    `toml:"preserve_pitch"`
	SeekStep      float64 `toml:"seek_step"`
}

// LoopConfig holds practice loop settings.
type LoopConfig struct {
	MinDuration   float64 `toml:"min_duration"`
	DefaultLength float64 `toml:"default_length"`
	DragThreshold float64 `toml:"drag_threshold"`
}

// PollerConfig holds position poller settings.
type PollerConfig struct {
	IntervalMs int `toml:"interval_ms"`
}

// FetchConfig holds stem download settings.
type FetchConfig struct {
	Timeout int `toml:"timeout"`
}

// BookmarksConfig holds bookmark storage settings.
type BookmarksConfig struct {
	Path string `toml:"path"`
}

// TUIConfig holds terminal UI settings.
type TUIConfig struct {
	Theme string `toml:"theme"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}
