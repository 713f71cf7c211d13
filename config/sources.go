package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SourceConfig overrides one builtin dataset: where to read it from and an
// optional row filter expression applied after its pre-processing.
type SourceConfig struct {
	Name     string `yaml:"name"`
	Location string `yaml:"location"`
	Filter   string `yaml:"filter"`
}

// Sources is the structure of the sources manifest file.
type Sources struct {
	Sources []SourceConfig `yaml:"sources"`
}

// LoadSources reads the sources manifest from a YAML file.
func LoadSources(filename string) (*Sources, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("sources manifest: %w", err)
	}
	var s Sources
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("sources manifest %s: %w", filename, err)
	}
	return &s, nil
}
