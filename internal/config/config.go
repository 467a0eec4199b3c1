package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/emunsing/webscenarios/internal/settings"
)

// DefaultPath is where the CLI looks for configuration when no flag or
// SCENARIOS_CONFIG override is given.
const DefaultPath = "scenarios.yaml"

// Config holds all scenarios configuration.
type Config struct {
	// Workspace is the JSON file scenarios are saved to between runs.
	Workspace string `yaml:"workspace"`

	// Logging
	Log LogConfig `yaml:"log"`

	// Settings applied to newly added scenarios
	Defaults DefaultsConfig `yaml:"defaults"`

	// Execution settings
	Run RunConfig `yaml:"run"`

	// Watch mode settings
	Watch WatchConfig `yaml:"watch"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

// DefaultsConfig holds the settings new scenarios start from.
type DefaultsConfig struct {
	Design    settings.Design    `yaml:"design"`
	Financial settings.Financial `yaml:"financial"`
}

// RunConfig configures scenario execution.
type RunConfig struct {
	// Parallelism caps how many scenarios a run-all computes at once.
	Parallelism int `yaml:"parallelism"`

	// CacheSize is the number of performance-stage results kept in the
	// LRU cache.
	CacheSize int `yaml:"cache_size"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	// DebounceMS is how long a burst of workspace file events must
	// settle before scenarios are rerun.
	DebounceMS int `yaml:"debounce_ms"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Workspace: "scenarios.json",

		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},

		Defaults: DefaultsConfig{
			Design:    settings.DefaultDesign(),
			Financial: settings.DefaultFinancial(),
		},

		Run: RunConfig{
			Parallelism: 4,
			CacheSize:   256,
		},

		Watch: WatchConfig{
			DebounceMS: 500,
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; sections absent from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if ws := os.Getenv("SCENARIOS_WORKSPACE"); ws != "" {
		c.Workspace = ws
	}
	if level := os.Getenv("SCENARIOS_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
}

// DefaultInput returns the as-entered form of the configured defaults,
// used to seed newly added scenarios.
func (c *Config) DefaultInput() settings.Input {
	return settings.InputFromBundle(settings.Bundle{
		Design:    c.Defaults.Design,
		Financial: c.Defaults.Financial,
	})
}

// GetDebounce returns the watch debounce as a duration.
func (c *Config) GetDebounce() time.Duration {
	if c.Watch.DebounceMS <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(c.Watch.DebounceMS) * time.Millisecond
}

// ValidLogLevels lists all supported log levels.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// ValidLogFormats lists all supported log output formats.
var ValidLogFormats = []string{"console", "json"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Workspace == "" {
		return fmt.Errorf("workspace path not configured")
	}
	if !slices.Contains(ValidLogLevels, c.Log.Level) {
		return fmt.Errorf("invalid log level: %s (valid: %v)", c.Log.Level, ValidLogLevels)
	}
	if !slices.Contains(ValidLogFormats, c.Log.Format) {
		return fmt.Errorf("invalid log format: %s (valid: %v)", c.Log.Format, ValidLogFormats)
	}
	if c.Run.Parallelism <= 0 {
		return fmt.Errorf("run parallelism must be positive, got %d", c.Run.Parallelism)
	}
	if c.Run.CacheSize <= 0 {
		return fmt.Errorf("run cache size must be positive, got %d", c.Run.CacheSize)
	}
	if c.Watch.DebounceMS <= 0 {
		return fmt.Errorf("watch debounce must be positive, got %d", c.Watch.DebounceMS)
	}
	return nil
}
