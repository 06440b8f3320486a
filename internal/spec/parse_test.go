package spec

import (
	"errors"
	"testing"
)

// TestParseConfigValid verifies valid config parsing succeeds.
func TestParseConfigValid(t *testing.T) {
	data := []byte(`version: 1
graph:
  uri: "bolt://localhost:7687"
  username: neo4j
schema:
  node_types: [Person, City]
model:
  model: "openai/gpt-4o-mini"
eval:
  concurrency: 8
  direction_check:
    enabled: false
generator:
  path: "generator.yml"
`)
	cfg, err := ParseConfig(data)
	if err != nil {
		t.Fatalf("expected parse to succeed, got %v", err)
	}
	if cfg.Eval.DirectionCheck.Enabled == nil || *cfg.Eval.DirectionCheck.Enabled {
		t.Fatalf("expected explicit direction_check.enabled=false")
	}
	if len(cfg.Schema.NodeTypes) != 2 || cfg.Eval.Concurrency != 8 {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

// TestParseConfigUnknownField verifies unknown fields are rejected.
func TestParseConfigUnknownField(t *testing.T) {
	data := []byte(`version: 1
graph:
  uri: "bolt://localhost:7687"
  pasword_env: TYPO
`)
	if _, err := ParseConfig(data); err == nil {
		t.Fatalf("expected parse error for unknown field")
	}
}

// TestParseConfigRejectsMultipleDocs verifies multiple YAML docs are rejected.
func TestParseConfigRejectsMultipleDocs(t *testing.T) {
	data := []byte("version: 1\n---\nversion: 1\n")
	if _, err := ParseConfig(data); !errors.Is(err, errMultipleDocuments) {
		t.Fatalf("expected multiple documents error, got %v", err)
	}
}

func TestParseConfigRejectsEmptyInput(t *testing.T) {
	if _, err := ParseConfig(nil); !errors.Is(err, errEmptyConfig) {
		t.Fatalf("expected empty config error, got %v", err)
	}
}
