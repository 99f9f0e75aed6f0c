package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Audio.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("audio: %w", err))
	}
	if err := c.Playback.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("playback: %w", err))
	}
	if err := c.Loop.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("loop: %w", err))
	}
	if err := c.Poller.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("poller: %w", err))
	}
	if err := c.Fetch.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("fetch: %w", err))
	}
	if err := c.TUI.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tui: %w", err))
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}

	return errors.Join(errs...)
}

// Validate checks AudioConfig for errors.
func (c *AudioConfig) Validate() error {
	if c.SampleRate < 0 {
		return errors.New("sample_rate must be non-negative")
	}
	if c.BufferMs < 0 {
		return errors.New("buffer_ms must be non-negative")
	}
	if c.ResampleQuality < 0 || c.ResampleQuality > 64 {
		return errors.New("resample_quality must be between 1 and 64")
	}
	if c.RampMs < 0 {
		return errors.New("ramp_ms must be non-negative")
	}
	return nil
}

// Validate checks PlaybackConfig for errors.
func (c *PlaybackConfig) Validate() error {
	if c.Speed != 0 && (c.Speed < 0.5 || c.Speed > 2.0) {
		return fmt.Errorf("speed must be between 0.5 and 2.0, got %g", c.Speed)
	}
	if c.SeekStep < 0 {
		return errors.New("seek_step must be non-negative")
	}
	return nil
}

// Validate checks LoopConfig for errors.
func (c *LoopConfig) Validate() error {
	if c.MinDuration < 0 {
		return errors.New("min_duration must be non-negative")
	}
	if c.DefaultLength != 0 && c.DefaultLength < c.MinDuration {
		return fmt.Errorf("default_length (%g) must be at least min_duration (%g)", c.DefaultLength, c.MinDuration)
	}
	if c.DragThreshold < 0 {
		return errors.New("drag_threshold must be non-negative")
	}
	return nil
}

// Validate checks PollerConfig for errors.
func (c *PollerConfig) Validate() error {
	if c.IntervalMs < 0 {
		return errors.New("interval_ms must be non-negative")
	}
	return nil
}

// Validate checks FetchConfig for errors.
func (c *FetchConfig) Validate() error {
	if c.Timeout < 0 {
		return errors.New("timeout must be non-negative")
	}
	return nil
}

// Validate checks TUIConfig for errors.
func (c *TUIConfig) Validate() error {
	switch c.Theme {
	case "", "auto", "dark", "light":
		// valid
	default:
		return fmt.Errorf("invalid theme: %s (must be auto, dark, or light)", c.Theme)
	}
	return nil
}

// Validate checks LogConfig for errors.
func (c *LogConfig) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Level)
	}
	return nil
}
