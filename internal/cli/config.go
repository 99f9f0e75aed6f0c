package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/tessro/woodshed/internal/config"
	werrors "github.com/tessro/woodshed/internal/errors"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Commands for viewing and editing woodshed configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration values, including environment overrides.`,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long:  `Open the configuration file in your default editor.`,
	RunE:  runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long:  `Create a new configuration file with default values.`,
	RunE:  runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration for errors",
	RunE:  runConfigValidate,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Set a configuration value. Without arguments, pick the key and enter the
value interactively.

Supported keys:
  audio.sample_rate        Output sample rate in Hz
  audio.buffer_ms          Output buffer length in milliseconds
  audio.resample_quality   Resampler quality (1-64)
  audio.ramp_ms            Volume change ramp in milliseconds
  playback.speed           Initial speed (0.5-2.0)
  playback.preserve_pitch  Ask for pitch-preserving speed changes (true/false)
  playback.seek_step       Seek step in seconds
  loop.min_duration        Shortest loop in seconds
  loop.default_length      Length of an auto-created loop in seconds
  loop.drag_threshold      Scrubber movement that counts as a drag
  poller.interval_ms       Position refresh interval in milliseconds
  fetch.timeout            Stem download timeout in seconds
  bookmarks.path           Bookmark database file
  tui.theme                auto, dark or light
  log.level                debug, info, warn or error
  log.file                 Log file path (empty disables file logging)

Examples:
  woodshed config set playback.speed 0.8
  woodshed config set loop.default_length 8`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 2 {
			return fmt.Errorf("expected <key> <value> or no arguments")
		}
		return nil
	},
	RunE: runConfigSet,
}

// configKeys maps settable keys to their value kind.
var configKeys = map[string]string{
	"audio.sample_rate":       "int",
	"audio.buffer_ms":         "int",
	"audio.resample_quality":  "int",
	"audio.ramp_ms":           "int",
	"playback.speed":          "float",
	"playback.preserve_pitch": "bool",
	"playback.seek_step":      "float",
	"loop.min_duration":       "float",
	"loop.default_length":     "float",
	"loop.drag_threshold":     "float",
	"poller.interval_ms":      "int",
	"fetch.timeout":           "int",
	"bookmarks.path":          "string",
	"tui.theme":               "string",
	"log.level":               "string",
	"log.file":                "string",
}

const configHeader = "# Woodshed Configuration\n\n"

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(cfg)
	}

	// Pretty print as TOML
	encoder := toml.NewEncoder(os.Stdout)
	encoder.Indent = "  "
	return encoder.Encode(cfg)
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("%w at %s", werrors.ErrConfigNotFound, configPath)
	}

	// Find editor
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		for _, e := range []string{"nano", "vim", "vi", "notepad"} {
			if _, err := exec.LookPath(e); err == nil {
				editor = e
				break
			}
		}
	}
	if editor == "" {
		return fmt.Errorf("no editor found. Set EDITOR environment variable")
	}

	editorCmd := exec.Command(editor, configPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	return editorCmd.Run()
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists at %s", configPath)
	}

	if err := writeConfigFile(configPath, config.Default()); err != nil {
		return err
	}

	if JSONOutput() {
		_ = json.NewEncoder(os.Stdout).Encode(map[string]string{
			"status": "created",
			"path":   configPath,
		})
	} else {
		fmt.Printf("Created config file: %s\n", configPath)
		fmt.Println("\nNext steps:")
		fmt.Println("  1. Adjust playback.speed or loop.default_length to taste")
		fmt.Println("  2. Run 'woodshed practice <guitar> <backing>' to start practicing")
	}

	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	// initConfig has already loaded and validated cfg; re-check the file
	// itself so environment overrides cannot mask a bad value.
	path := getConfigPath()
	if _, err := os.Stat(path); err == nil {
		fileCfg, err := config.LoadFrom(path)
		if err != nil {
			return fmt.Errorf("%w: %w", werrors.ErrInvalidConfig, err)
		}
		if err := fileCfg.Validate(); err != nil {
			return fmt.Errorf("%w: %w", werrors.ErrInvalidConfig, err)
		}
	}

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(map[string]string{
			"status": "valid",
			"path":   path,
		})
	}
	fmt.Println("Configuration is valid")
	return nil
}

func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if path := config.FindConfigFile(); path != "" {
		return path
	}
	return config.DefaultPath()
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	var key, value string
	if len(args) == 2 {
		key, value = args[0], args[1]
	} else {
		var err error
		if key, value, err = promptConfigValue(); err != nil {
			return err
		}
	}

	kind, ok := configKeys[key]
	if !ok {
		return werrors.WithSuggestion(
			fmt.Errorf("unknown config key %q", key),
			"Run 'woodshed config set --help' to see supported keys")
	}
	typedValue, err := parseConfigValue(kind, value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}

	configPath := getConfigPath()

	// Read the current config file as raw TOML so unrelated keys survive
	rawConfig := make(map[string]interface{})
	if data, err := os.ReadFile(configPath); err == nil {
		if _, err := toml.Decode(string(data), &rawConfig); err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to read config: %w", err)
	}

	section, field, _ := strings.Cut(key, ".")
	sectionMap, ok := rawConfig[section].(map[string]interface{})
	if !ok {
		sectionMap = make(map[string]interface{})
		rawConfig[section] = sectionMap
	}
	sectionMap[field] = typedValue

	// Validate the result before touching the file
	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	encoder.Indent = "  "
	if err := encoder.Encode(rawConfig); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	var next config.Config
	if _, err := toml.Decode(buf.String(), &next); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	next.ApplyDefaults()
	if err := next.Validate(); err != nil {
		return fmt.Errorf("%w: %w", werrors.ErrInvalidConfig, err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(configPath, append([]byte(configHeader), buf.Bytes()...), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if JSONOutput() {
		_ = json.NewEncoder(os.Stdout).Encode(map[string]string{
			"status": "updated",
			"key":    key,
			"value":  value,
		})
	} else {
		fmt.Printf("Set %s = %s\n", key, value)
	}

	return nil
}

func parseConfigValue(kind, value string) (interface{}, error) {
	switch kind {
	case "int":
		i, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("value must be an integer")
		}
		return int64(i), nil
	case "float":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("value must be a number")
		}
		return f, nil
	case "bool":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("value must be true or false")
		}
		return b, nil
	}
	return value, nil
}

// promptConfigValue asks for a key and a value.
func promptConfigValue() (string, string, error) {
	keys := make([]string, 0, len(configKeys))
	for k := range configKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var options []huh.Option[string]
	for _, k := range keys {
		options = append(options, huh.NewOption(k, k))
	}

	var key, value string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Setting").
				Options(options...).
				Value(&key),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Value").
				Value(&value).
				Validate(func(s string) error {
					_, err := parseConfigValue(configKeys[key], s)
					return err
				}),
		),
	)

	if err := form.Run(); err != nil {
		return "", "", fmt.Errorf("selection cancelled: %w", err)
	}
	return key, value, nil
}

func writeConfigFile(path string, c *config.Config) error {
	if err := config.Save(c, path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return os.WriteFile(path, append([]byte(configHeader), data...), 0644)
}
