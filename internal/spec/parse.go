package spec

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

var (
	errEmptyConfig       = errors.New("config file is empty")
	errMultipleDocuments = errors.New("multiple YAML documents are not supported")
)

// ParseConfig decodes exactly one YAML document into a Config. Unknown keys
// are rejected so typos in optional sections do not silently fall back to
// defaults.
func ParseConfig(data []byte) (Config, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var cfg Config
	switch err := decoder.Decode(&cfg); {
	case errors.Is(err, io.EOF):
		return Config{}, fmt.Errorf("parse config: %w", errEmptyConfig)
	case err != nil:
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	var extra yaml.Node
	switch err := decoder.Decode(&extra); {
	case errors.Is(err, io.EOF):
		return cfg, nil
	case err != nil:
		return Config{}, fmt.Errorf("parse config: %w", err)
	default:
		return Config{}, fmt.Errorf("parse config: %w", errMultipleDocuments)
	}
}
