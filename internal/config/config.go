package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads configuration from standard locations with environment overrides.
// Search order: ~/.woodshedrc, $XDG_CONFIG_HOME/woodshed/config.toml, ~/.config/woodshed/config.toml
func Load() (*Config, error) {
	cfg := &Config{}

	// Try loading from file
	path := FindConfigFile()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)

	return cfg, nil
}

// LoadFrom reads configuration from a specific file path.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)
	return cfg, nil
}

// DefaultPath returns the path a new config file is written to.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".woodshedrc"
	}
	return filepath.Join(home, ".woodshedrc")
}

// FindConfigFile returns the first existing config file path.
func FindConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	paths := []string{
		filepath.Join(home, ".woodshedrc"),
	}

	// XDG_CONFIG_HOME or default
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	paths = append(paths, filepath.Join(xdgConfig, "woodshed", "config.toml"))

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// Save writes the configuration as TOML to path.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	encoder.Indent = "  "
	return encoder.Encode(cfg)
}

// PollInterval returns the poller interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Poller.IntervalMs) * time.Millisecond
}

// FetchTimeout returns the stem fetch timeout as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.Timeout) * time.Second
}

// applyEnvOverrides applies environment variable overrides to the config.
// A .env file in the working directory is read first; real environment
// variables take precedence over it.
func applyEnvOverrides(cfg *Config) {
	_ = godotenv.Load()

	// Audio
	if v := os.Getenv("WOODSHED_AUDIO_SAMPLE_RATE"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Audio.SampleRate = i
		}
	}
	if v := os.Getenv("WOODSHED_AUDIO_BUFFER_MS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Audio.BufferMs = i
		}
	}

	// Playback
	if v := os.Getenv("WOODSHED_PLAYBACK_SPEED"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Playback.Speed = f
		}
	}
	if v := os.Getenv("WOODSHED_PLAYBACK_PRESERVE_PITCH"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Playback.PreservePitch = b
		}
	}

	// Loop
	if v := os.Getenv("WOODSHED_LOOP_MIN_DURATION"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Loop.MinDuration = f
		}
	}

	// Poller
	if v := os.Getenv("WOODSHED_POLLER_INTERVAL_MS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Poller.IntervalMs = i
		}
	}

	// Bookmarks
	if v := os.Getenv("WOODSHED_BOOKMARKS_PATH"); v != "" {
		cfg.Bookmarks.Path = v
	}

	// TUI
	if v := os.Getenv("WOODSHED_TUI_THEME"); v != "" {
		cfg.TUI.Theme = v
	}

	// Log
	if v := os.Getenv("WOODSHED_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("WOODSHED_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
}
