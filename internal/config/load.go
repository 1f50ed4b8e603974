// internal/config/load.go
package config

import (
	"bytes"
	"os"

	"github.com/juju/errors"
	"gopkg.in/yaml.v3"
)

// Load reads a YAML config file.
// Unknown keys are rejected so typos do not silently fall back to defaults.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Annotatef(err, "config read %s", path)
	}
	return Parse(raw)
}

// Parse decodes YAML bytes into a Config. No validation, no defaults.
func Parse(raw []byte) (*Config, error) {
	var cfg Config

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, errors.Annotate(err, "config decode")
	}

	return &cfg, nil
}
