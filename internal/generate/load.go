package generate

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Issue captures a validation problem in a generator config file.
type Issue struct {
	Field   string
	Message string
}

// ValidationError reports one or more validation issues.
type ValidationError struct {
	Issues []Issue
}

// Error returns a readable message for validation failures.
func (err *ValidationError) Error() string {
	if err == nil || len(err.Issues) == 0 {
		return ""
	}
	parts := make([]string, 0, len(err.Issues))
	for _, issue := range err.Issues {
		parts = append(parts, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
	}
	return fmt.Sprintf("generator config validation failed: %s", strings.Join(parts, "; "))
}

type issueCollector struct {
	issues []Issue
}

func (collector *issueCollector) add(field, message string) {
	collector.issues = append(collector.issues, Issue{Field: field, Message: message})
}

func (collector *issueCollector) result() error {
	if len(collector.issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: collector.issues}
}

// LoadConfig reads and validates a generator config YAML file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read generator config: %w", err)
	}
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse yaml: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return Config{}, fmt.Errorf("parse yaml: multiple documents are not supported")
		}
		return Config{}, fmt.Errorf("parse yaml: %w", err)
	}
	return NormalizeConfig(cfg)
}

// NormalizeConfig trims fields, applies defaults and validates.
func NormalizeConfig(cfg Config) (Config, error) {
	collector := &issueCollector{}
	cfg.Name = strings.TrimSpace(cfg.Name)
	if cfg.Name == "" {
		collector.add("name", "is required")
	}
	if cfg.Version == 0 {
		cfg.Version = 1
	} else if cfg.Version < 0 {
		collector.add("version", "must be positive")
	}
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyDirect
	} else if !cfg.Strategy.Valid() {
		collector.add("strategy", fmt.Sprintf("unsupported strategy %q", cfg.Strategy))
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		collector.add("temperature", "must be between 0 and 2")
	}
	cfg.Instructions = strings.TrimSpace(cfg.Instructions)
	exemplars := make([]Exemplar, 0, len(cfg.Exemplars))
	for i, exemplar := range cfg.Exemplars {
		prefix := fmt.Sprintf("exemplars[%d]", i)
		exemplar.Question = strings.TrimSpace(exemplar.Question)
		exemplar.Query = strings.TrimSpace(exemplar.Query)
		if exemplar.Question == "" {
			collector.add(prefix+".question", "is required")
		}
		if exemplar.Query == "" {
			collector.add(prefix+".query", "is required")
		}
		exemplars = append(exemplars, exemplar)
	}
	cfg.Exemplars = nil
	if len(exemplars) > 0 {
		cfg.Exemplars = exemplars
	}
	if err := collector.result(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// WriteConfig stores cfg as YAML.
func WriteConfig(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode generator config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write generator config: %w", err)
	}
	return nil
}
