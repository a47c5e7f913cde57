package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the application configuration.
type Config struct {
	Upscale UpscaleConfig `json:"upscale"`
	Sharpen SharpenConfig `json:"sharpen"`
	Segment SegmentConfig `json:"segment"`
	Memory  MemoryConfig  `json:"memory"`
	Remote  RemoteConfig  `json:"remote"`
}

// UpscaleConfig holds configuration for the resampling upscaler.
type UpscaleConfig struct {
	MaxScale float64 `json:"max_scale"`
}

// SharpenConfig holds the default unsharp mask parameters.
type SharpenConfig struct {
	Amount    float64 `json:"amount"`
	Radius    float64 `json:"radius"`
	Threshold float64 `json:"threshold"`
}

// SegmentConfig holds the default background removal parameters.
type SegmentConfig struct {
	Threshold     float64 `json:"threshold"`
	Tolerance     float64 `json:"tolerance"`
	SmoothEdges   bool    `json:"smooth_edges"`
	FeatherRadius int     `json:"feather_radius"`
}

// MemoryConfig bounds the engine's per-call footprint. The algorithms do
// not enforce this internally; the facade checks estimated output size
// before invoking them.
type MemoryConfig struct {
	MaxBufferBytes int64 `json:"max_buffer_bytes"`
}

// RemoteConfig points at the optional enhancement service.
type RemoteConfig struct {
	URL            string `json:"url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// Default returns a configuration with default values.
func Default() *Config {
	return &Config{
		Upscale: UpscaleConfig{
			MaxScale: 4.0,
		},
		Sharpen: SharpenConfig{
			Amount:    1.2,
			Radius:    0.8,
			Threshold: 5,
		},
		Segment: SegmentConfig{
			Threshold:     30,
			Tolerance:     30,
			SmoothEdges:   true,
			FeatherRadius: 2,
		},
		Memory: MemoryConfig{
			MaxBufferBytes: 400 << 20, // 400MB
		},
		Remote: RemoteConfig{
			URL:            "",
			TimeoutSeconds: 300,
		},
	}
}

// LoadFromFile loads configuration from a JSON file.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// SaveToFile saves configuration to a JSON file.
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Upscale.MaxScale <= 1.0 || c.Upscale.MaxScale > 4.0 {
		return fmt.Errorf("upscale.max_scale must be in (1.0, 4.0]")
	}

	if c.Sharpen.Amount < 0 {
		return fmt.Errorf("sharpen.amount must be non-negative")
	}

	if c.Sharpen.Radius <= 0 {
		return fmt.Errorf("sharpen.radius must be positive")
	}

	if c.Sharpen.Threshold < 0 {
		return fmt.Errorf("sharpen.threshold must be non-negative")
	}

	if c.Segment.Threshold <= 0 {
		return fmt.Errorf("segment.threshold must be positive")
	}

	if c.Segment.FeatherRadius < 1 {
		return fmt.Errorf("segment.feather_radius must be at least 1")
	}

	if c.Memory.MaxBufferBytes < 0 {
		return fmt.Errorf("memory.max_buffer_bytes must be non-negative")
	}

	if c.Remote.TimeoutSeconds < 0 {
		return fmt.Errorf("remote.timeout_seconds must be non-negative")
	}

	return nil
}

// GetConfigPath returns the default configuration file path.
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "pixelengine", "config.json")
}
