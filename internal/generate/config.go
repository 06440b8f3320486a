package generate

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Strategy selects how a question is decomposed before generation.
type Strategy string

const (
	StrategyDirect            Strategy = "direct"
	StrategyReasoning         Strategy = "reasoning"
	StrategyPruneThenGenerate Strategy = "prune_then_generate"
)

// Valid reports whether the strategy is known.
func (strategy Strategy) Valid() bool {
	switch strategy {
	case StrategyDirect, StrategyReasoning, StrategyPruneThenGenerate:
		return true
	default:
		return false
	}
}

// Exemplar is a few-shot question/query pair.
type Exemplar struct {
	Question string `json:"question" yaml:"question"`
	Query    string `json:"query" yaml:"query"`
}

// Config is the versioned, immutable generator configuration the optimizer
// searches over. Treat values as read-only; use the With* helpers to derive
// new ones.
type Config struct {
	Name         string     `json:"name" yaml:"name"`
	Version      int        `json:"version" yaml:"version"`
	Seed         int        `json:"seed" yaml:"seed"`
	Strategy     Strategy   `json:"strategy" yaml:"strategy"`
	Instructions string     `json:"instructions,omitempty" yaml:"instructions,omitempty"`
	Exemplars    []Exemplar `json:"exemplars,omitempty" yaml:"exemplars,omitempty"`
	Temperature  float64    `json:"temperature" yaml:"temperature"`
}

// DefaultConfig is the zero-shot baseline.
func DefaultConfig() Config {
	return Config{Name: "baseline", Version: 1, Strategy: StrategyPruneThenGenerate}
}

// ID returns a content fingerprint, stable across processes.
func (cfg Config) ID() string {
	data, err := json.Marshal(cfg.normalized())
	if err != nil {
		return fmt.Sprintf("%s@%d", cfg.Name, cfg.Version)
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s@%d-%s", cfg.Name, cfg.Version, hex.EncodeToString(sum[:])[:12])
}

// WithExemplars returns a copy using the given exemplars.
func (cfg Config) WithExemplars(exemplars []Exemplar) Config {
	cfg.Exemplars = append([]Exemplar(nil), exemplars...)
	return cfg
}

// WithInstructions returns a copy using the given instructions.
func (cfg Config) WithInstructions(instructions string) Config {
	cfg.Instructions = instructions
	return cfg
}

// Next returns a copy with the version bumped.
func (cfg Config) Next() Config {
	cfg.Exemplars = append([]Exemplar(nil), cfg.Exemplars...)
	cfg.Version++
	return cfg
}

func (cfg Config) normalized() Config {
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyDirect
	}
	if len(cfg.Exemplars) == 0 {
		cfg.Exemplars = nil
	}
	return cfg
}
