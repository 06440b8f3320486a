package question

import (
	"errors"
	"testing"

	"text2cypher/internal/result"
	"text2cypher/internal/testutil"
)

func writeBenchmark(t *testing.T, name, payload string) string {
	t.Helper()
	return testutil.WriteFile(t, t.TempDir(), name, payload)
}

// TestLoadYAML verifies YAML benchmarks load with normalized gold rows.
func TestLoadYAML(t *testing.T) {
	path := writeBenchmark(t, "bench.yml", `version: 1
questions:
  - id: q2
    question: "  Which people does person 933 know? "
    gold:
      rows: [["b"], ["a"]]
  - id: q1
    question: "How many friends does person 933 have?"
    gold:
      rows: [[5]]
    gold_query: "MATCH (p:Person {id: 933})-[:KNOWS]->(f) RETURN count(f)"
`)
	items, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Text != "Which people does person 933 know?" {
		t.Fatalf("expected trimmed question, got %q", items[0].Text)
	}
	if items[0].Gold.String() != `{("a"), ("b")}` {
		t.Fatalf("expected sorted gold rows, got %s", items[0].Gold)
	}
	if !result.Equal(items[1].Gold, result.NormalizeRows([]any{int64(5)}), result.Mode{}) {
		t.Fatalf("unexpected gold %s", items[1].Gold)
	}
}

// TestLoadJSONNumbers verifies JSON numbers normalize like YAML integers.
func TestLoadJSONNumbers(t *testing.T) {
	path := writeBenchmark(t, "bench.json", `{
  "version": 1,
  "questions": [
    {"id": "q1", "question": "Count?", "gold": {"rows": [[5, 2.50]]}}
  ]
}`)
	items, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if items[0].Gold.String() != "{(5, 2.5)}" {
		t.Fatalf("unexpected gold %s", items[0].Gold)
	}
}

// TestLoadOrderedGold verifies ordering is explicit or derived from the gold query.
func TestLoadOrderedGold(t *testing.T) {
	path := writeBenchmark(t, "bench.yml", `version: 1
questions:
  - id: derived
    question: "Top names?"
    gold:
      rows: [["z"], ["a"]]
    gold_query: "MATCH (p:Person) RETURN p.name ORDER BY p.name DESC"
  - id: explicit
    question: "Names?"
    gold:
      ordered: false
      rows: [["z"], ["a"]]
    gold_query: "MATCH (p:Person) RETURN p.name ORDER BY p.name DESC"
  - id: empty
    question: "Nobody?"
    gold:
      rows: []
`)
	items, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !items[0].Gold.Ordered || items[0].Gold.String() != `{("z"), ("a")}` {
		t.Fatalf("expected ordered gold, got %+v", items[0].Gold)
	}
	if items[1].Gold.Ordered {
		t.Fatalf("expected explicit unordered gold")
	}
	if !items[2].Gold.Empty() {
		t.Fatalf("expected empty gold")
	}
}

// TestLoadValidationErrors verifies invalid benchmarks return validation errors.
func TestLoadValidationErrors(t *testing.T) {
	path := writeBenchmark(t, "bench.yml", `version: 2
questions:
  - id: dup
    question: "Q1"
    gold:
      rows: [[1]]
  - id: dup
    question: ""
    gold: {}
`)
	_, err := LoadSpec(path)
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	fields := map[string]bool{}
	for _, issue := range validationErr.Issues {
		fields[issue.Field] = true
	}
	for _, field := range []string{"version", "questions[1].id", "questions[1].question", "questions[1].gold.rows"} {
		if !fields[field] {
			t.Fatalf("expected issue for %s, got %+v", field, validationErr.Issues)
		}
	}
}

// TestLoadRejectsUnknownFields verifies strict decoding.
func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeBenchmark(t, "bench.yml", `version: 1
questions:
  - id: q1
    question: "Q"
    answers: ["x"]
    gold:
      rows: [[1]]
`)
	if _, err := LoadSpec(path); err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestFilter(t *testing.T) {
	items := []Item{{ID: "q3"}, {ID: "q1"}, {ID: "q2"}}
	filtered := Filter(items, []string{" q2", "q3", "missing"})
	if len(filtered) != 2 || filtered[0].ID != "q3" || filtered[1].ID != "q2" {
		t.Fatalf("unexpected filter result %+v", filtered)
	}
	if all := Filter(items, nil); len(all) != 3 {
		t.Fatalf("expected all items, got %d", len(all))
	}
	SortByID(items)
	if items[0].ID != "q1" || items[2].ID != "q3" {
		t.Fatalf("unexpected sort %+v", items)
	}
}
