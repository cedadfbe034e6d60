package cache

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration for a FileCache, loaded by
// LoadConfig for hosts (cmd/bench in particular) that prefer a config
// file over constructing Options by hand.
type Config struct {
	MaxBytes    uint64  `yaml:"max_bytes"`
	MaxElements uint64  `yaml:"max_elements"`
	SizeRatio   float64 `yaml:"size_ratio"`
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// OptionsFromConfig builds Options[K] from a loaded Config, leaving
// Metrics and OnEvict for the caller to set afterward.
func OptionsFromConfig[K comparable](cfg Config) Options[K] {
	return Options[K]{
		MaxBytes:    cfg.MaxBytes,
		MaxElements: cfg.MaxElements,
		SizeRatio:   cfg.SizeRatio,
	}
}
