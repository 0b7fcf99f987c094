package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Keywords is the on-disk override for the crisis and sentiment lexicons.
// A list that is present replaces the built-in list; absent lists keep defaults.
type Keywords struct {
	Crisis struct {
		Severe []string `yaml:"severe"`
		High   []string `yaml:"high"`
		Medium []string `yaml:"medium"`
		Low    []string `yaml:"low"`
	} `yaml:"crisis"`
	Sentiment struct {
		Positive []string `yaml:"positive"`
		Negative []string `yaml:"negative"`
	} `yaml:"sentiment"`
}

// LoadKeywords reads a keywords file. An empty path returns an empty override.
func LoadKeywords(path string) (Keywords, error) {
	var kw Keywords
	if path == "" {
		return kw, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return kw, fmt.Errorf("read keywords file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &kw); err != nil {
		return kw, fmt.Errorf("parse keywords file %s: %w", path, err)
	}
	return kw, nil
}
