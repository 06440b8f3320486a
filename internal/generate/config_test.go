package generate

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfigIDIsContentFingerprint(t *testing.T) {
	base := Config{Name: "c", Version: 1, Seed: 7, Strategy: StrategyDirect}
	if base.ID() != base.ID() {
		t.Fatalf("expected stable id")
	}
	same := Config{Name: "c", Version: 1, Seed: 7}
	if base.ID() != same.ID() {
		t.Fatalf("expected default strategy to fingerprint like direct")
	}
	variants := []Config{
		base.Next(),
		base.WithInstructions("Be brief."),
		base.WithExemplars([]Exemplar{{Question: "q", Query: "RETURN 1"}}),
		{Name: "c", Version: 1, Seed: 8, Strategy: StrategyDirect},
	}
	for i, variant := range variants {
		if variant.ID() == base.ID() {
			t.Fatalf("variant %d shares id %s", i, base.ID())
		}
	}
}

func TestConfigHelpersDoNotShareExemplars(t *testing.T) {
	base := Config{Name: "c"}.WithExemplars([]Exemplar{{Question: "q", Query: "RETURN 1"}})
	next := base.Next()
	next.Exemplars[0].Query = "RETURN 2"
	if base.Exemplars[0].Query != "RETURN 1" {
		t.Fatalf("expected Next to copy exemplars")
	}
	if next.Version != base.Version+1 {
		t.Fatalf("expected version bump, got %d", next.Version)
	}
}

func TestLoadConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "generator.yml")
	cfg := Config{Name: "tuned", Version: 3, Seed: 42, Strategy: StrategyReasoning, Temperature: 0.2,
		Exemplars: []Exemplar{{Question: "How many people?", Query: "MATCH (p:Person) RETURN count(p)"}}}
	if err := WriteConfig(path, cfg); err != nil {
		t.Fatalf("write: %v", err)
	}
	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.ID() != cfg.ID() {
		t.Fatalf("expected identical fingerprint after round trip")
	}
}

func TestLoadConfigValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "generator.yml")
	payload := `name: " "
strategy: guess
temperature: 3
exemplars:
  - question: "q"
`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := LoadConfig(path)
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	want := map[string]bool{"name": false, "strategy": false, "temperature": false, "exemplars[0].query": false}
	for _, issue := range validationErr.Issues {
		if _, ok := want[issue.Field]; ok {
			want[issue.Field] = true
		}
	}
	for field, seen := range want {
		if !seen {
			t.Fatalf("missing issue for %s: %+v", field, validationErr.Issues)
		}
	}
}

func TestLoadConfigRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "generator.yml")
	if err := os.WriteFile(path, []byte("name: c\nmodel: gpt\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected unknown field error")
	}
}
