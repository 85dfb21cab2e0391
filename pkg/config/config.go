// Package config provides configuration loading and management for stereogram.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"stereogram/pkg/codec"
	"stereogram/pkg/effect"
)

// ErrInvalid is wrapped by every error returned from Validate.
var ErrInvalid = errors.New("invalid configuration")

// Config represents the application configuration loaded from YAML
type Config struct {
	// Processing parameters
	Processing struct {
		// Threads is the number of threads per executor; 0 uses every core
		// or the STEREO_PARA_THREAD_COUNT override
		Threads int `yaml:"threads"`

		// Seed makes wave phases reproducible; 0 picks a random seed
		Seed int64 `yaml:"seed"`
	} `yaml:"processing"`

	// Stereogram parameters
	Stereogram struct {
		// Width and Height of the output; 0 uses the depth map size
		Width  int `yaml:"width"`
		Height int `yaml:"height"`

		// Strength is the displacement of the deepest level in pixels
		Strength float64 `yaml:"strength"`

		// Inverted swaps near and far
		Inverted bool `yaml:"inverted"`

		// Channel is the depth map channel holding the depth
		Channel int `yaml:"channel"`

		// TileWidth rescales the background tile; 0 keeps its size
		TileWidth int `yaml:"tileWidth"`
	} `yaml:"stereogram"`

	// Effects animating the background
	Effects struct {
		Luminance struct {
			// Strengths holds one strength per wave
			Strengths []float64 `yaml:"strengths,omitempty"`

			// Components lists the affected channels: red, green, blue, alpha
			Components []string `yaml:"components"`
		} `yaml:"luminance"`

		Wave struct {
			// Strengths holds a horizontal and a vertical strength per wave
			Strengths []float64 `yaml:"strengths,omitempty"`
		} `yaml:"wave"`
	} `yaml:"effects"`

	// Output parameters
	Output struct {
		// Frames is the number of animation frames to render
		Frames int `yaml:"frames"`

		// Format of the written frames; empty follows the output file's
		// extension
		Format string `yaml:"format,omitempty"`

		// RawStream, if set, is a file receiving every frame as a zstd stream
		RawStream string `yaml:"rawStream"`

		// SaveIntermediaryResults determines whether to save intermediary processing results
		SaveIntermediaryResults bool `yaml:"saveIntermediaryResults"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Stereogram.Strength = 12
	cfg.Stereogram.TileWidth = 0

	cfg.Effects.Luminance.Components = []string{"red", "green", "blue"}

	cfg.Output.Frames = 1
	cfg.Output.Verbose = false

	return cfg
}

// Components converts the configured luminance component names to a mask
func (c *Config) Components() (effect.Component, error) {
	var mask effect.Component
	for _, name := range c.Effects.Luminance.Components {
		switch name {
		case "red":
			mask |= effect.Red
		case "green":
			mask |= effect.Green
		case "blue":
			mask |= effect.Blue
		case "alpha":
			mask |= effect.Alpha
		default:
			return 0, fmt.Errorf("%w: unknown component %q", ErrInvalid, name)
		}
	}
	return mask, nil
}

// OutputFormat returns the configured output format, or the format given by
// the extension of path when none is configured.
func (c *Config) OutputFormat(path string) (codec.Format, error) {
	if c.Output.Format != "" {
		return codec.ParseFormat(c.Output.Format)
	}
	return codec.FormatFromPath(path)
}

// Validate checks the configuration for values no renderer could use
func (c *Config) Validate() error {
	if c.Processing.Threads < 0 {
		return fmt.Errorf("%w: threads must not be negative", ErrInvalid)
	}
	if c.Stereogram.Width < 0 || c.Stereogram.Height < 0 || c.Stereogram.TileWidth < 0 {
		return fmt.Errorf("%w: dimensions must not be negative", ErrInvalid)
	}
	if c.Stereogram.Strength < 0 {
		return fmt.Errorf("%w: strength must not be negative", ErrInvalid)
	}
	if c.Stereogram.Channel < 0 || c.Stereogram.Channel > 3 {
		return fmt.Errorf("%w: channel must be between 0 and 3", ErrInvalid)
	}
	if len(c.Effects.Wave.Strengths)%2 != 0 {
		return fmt.Errorf("%w: wave strengths must come in horizontal/vertical pairs", ErrInvalid)
	}
	if c.Output.Frames < 1 {
		return fmt.Errorf("%w: at least one frame is required", ErrInvalid)
	}
	if c.Output.Format != "" {
		if _, err := codec.ParseFormat(c.Output.Format); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	}
	if _, err := c.Components(); err != nil {
		return err
	}
	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
