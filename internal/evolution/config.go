// Package evolution grows the training corpus by generating batches of
// candidates, scoring them and keeping the best.
package evolution

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Weights scale each scoring criterion.
type Weights struct {
	Density    float64 `yaml:"density" json:"density"`
	Variety    float64 `yaml:"variety" json:"variety"`
	Complexity float64 `yaml:"complexity" json:"complexity"`
	Euclidean  float64 `yaml:"euclidean" json:"euclidean"`
}

// Params control batch size and selection.
type Params struct {
	Temperature float64 `yaml:"temperature" json:"temperature"`
	BatchSize   int     `yaml:"batch_size" json:"batch_size"`
	TopK        int     `yaml:"top_k" json:"top_k"`
	Strictness  float64 `yaml:"strictness" json:"strictness"`
}

// Filters pin the instrument or genre of generated candidates. "all"
// leaves the choice open.
type Filters struct {
	Genre      string `yaml:"genre" json:"genre"`
	Instrument string `yaml:"instrument" json:"instrument"`
}

// Config is the trainer configuration.
type Config struct {
	Weights Weights `yaml:"weights" json:"weights"`
	Params  Params  `yaml:"params" json:"params"`
	Filters Filters `yaml:"filters" json:"filters"`
}

// DefaultConfig returns the built-in trainer settings.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{Density: 1, Variety: 1, Complexity: 1, Euclidean: 1},
		Params:  Params{Temperature: 1.2, BatchSize: 50, TopK: 10, Strictness: 0},
		Filters: Filters{Genre: "all", Instrument: "all"},
	}
}

// LoadConfig reads a YAML (or JSON) config over the defaults. A missing
// file yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read evolution config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse evolution config: %w", err)
	}
	return cfg, nil
}
