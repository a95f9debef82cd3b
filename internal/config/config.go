// Package config holds the experiment configuration for evaluation runs.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/visgator-ml/visgator/internal/device"
)

// Config is the top-level experiment configuration.
type Config struct {
	Seed      int    `yaml:"seed"`
	Debug     bool   `yaml:"debug"`
	Device    string `yaml:"device"` // empty selects the default device
	OutputDir string `yaml:"output_dir"`

	Dataset DatasetConfig `yaml:"dataset"`
	Model   ModelConfig   `yaml:"model"`
	Eval    EvalConfig    `yaml:"eval"`
}

// DatasetConfig configures the sample source.
type DatasetConfig struct {
	Path       string `yaml:"path"`
	MaxSamples int    `yaml:"max_samples"` // 0 means all
	MaxSide    int    `yaml:"max_side"`    // longest image side after resize, 0 keeps original
}

// ModelConfig configures the grounding model under evaluation.
type ModelConfig struct {
	Name      string  `yaml:"name"`
	Weights   string  `yaml:"weights"` // empty runs with initialization weights
	HiddenDim int     `yaml:"hidden_dim"`
	NumLayers int     `yaml:"num_layers"`
	NumHeads  int     `yaml:"num_heads"`
	Dropout   float64 `yaml:"dropout"`
}

// EvalConfig configures the evaluation loop.
type EvalConfig struct {
	BatchSize int `yaml:"batch_size"`
	Prefetch  int `yaml:"prefetch"`
}

// Default returns a configuration with sensible defaults applied.
func Default() Config {
	return Config{
		Seed:      42,
		OutputDir: "output",
		Dataset:   DatasetConfig{MaxSide: 640},
		Model:     ModelConfig{HiddenDim: 256, NumLayers: 6, NumHeads: 8, Dropout: 0.1},
		Eval:      EvalConfig{BatchSize: 1, Prefetch: 2},
	}
}

// Load reads a YAML file on top of the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	if c.Device != "" {
		if _, err := device.Parse(c.Device); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	if err := c.Model.Validate(); err != nil {
		return err
	}
	if c.Eval.BatchSize < 1 {
		return fmt.Errorf("config: batch_size must be positive, got %d", c.Eval.BatchSize)
	}
	if c.Eval.Prefetch < 0 {
		return fmt.Errorf("config: prefetch must be >= 0, got %d", c.Eval.Prefetch)
	}
	return nil
}

// Validate checks the model hyperparameters.
func (m ModelConfig) Validate() error {
	if m.NumLayers < 1 {
		return fmt.Errorf("config: num_layers must be positive, got %d", m.NumLayers)
	}
	if m.NumHeads < 1 {
		return fmt.Errorf("config: num_heads must be positive, got %d", m.NumHeads)
	}
	if m.HiddenDim%m.NumHeads != 0 {
		return fmt.Errorf("config: hidden_dim %d must be divisible by num_heads %d", m.HiddenDim, m.NumHeads)
	}
	if m.Dropout < 0 || m.Dropout > 1 {
		return fmt.Errorf("config: dropout must be in [0, 1], got %g", m.Dropout)
	}
	return nil
}

// ResolveDevice returns the configured device, or the environment default
// when the field is empty.
func (c Config) ResolveDevice() (device.Device, error) {
	if c.Device == "" {
		return device.Default(), nil
	}
	return device.Parse(c.Device)
}
