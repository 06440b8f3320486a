package score

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"text2cypher/internal/execute"
	"text2cypher/internal/generate"
	"text2cypher/internal/graph"
	"text2cypher/internal/graph/graphtest"
	"text2cypher/internal/question"
	"text2cypher/internal/result"
	"text2cypher/internal/schema"
	"text2cypher/internal/testutil"
)

// socialGraph is a tiny in-memory KNOWS graph that evaluates friend-count
// queries in any direction.
type socialGraph struct {
	knows [][2]int64
}

var friendCount = regexp.MustCompile(`^MATCH \(p:Person \{id: (\d+)\}\)(<?)-\[:KNOWS\]-(>?)\(f\) RETURN count\(f\)$`)

func (g socialGraph) Query(ctx context.Context, query string, _ time.Duration) (result.Raw, error) {
	if err := ctx.Err(); err != nil {
		return result.Raw{}, err
	}
	match := friendCount.FindStringSubmatch(query)
	if match == nil {
		return result.Raw{}, &graph.QueryError{Kind: graph.KindSyntax, Message: fmt.Sprintf("unsupported query %q", query)}
	}
	id, _ := strconv.ParseInt(match[1], 10, 64)
	incoming, outgoing := match[2] == "<", match[3] == ">"
	var count int64
	for _, edge := range g.knows {
		if (outgoing || !incoming) && edge[0] == id {
			count++
		}
		if (incoming || !outgoing) && edge[1] == id {
			count++
		}
	}
	return result.Raw{Columns: []string{"count(f)"}, Rows: [][]any{{count}}}, nil
}

func fixture() socialGraph {
	return socialGraph{knows: [][2]int64{
		{933, 1}, {933, 2}, {933, 3}, {933, 4}, {933, 5},
		{6, 933}, {7, 933},
	}}
}

func knowsSchema() schema.Descriptor {
	return schema.Descriptor{
		Nodes:         []schema.NodeType{{Name: "Person"}},
		Relationships: []schema.RelationshipType{{Name: "KNOWS", From: "Person", To: "Person"}},
	}
}

func scoreQuery(t *testing.T, scorer *Scorer, query string, gold result.Result) Record {
	t.Helper()
	ctx := testutil.Context(t, 0)
	outcome, err := scorer.Executor.Execute(ctx, query)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	record, err := scorer.Score(ctx, outcome, gold, generate.Candidate{QuestionID: "q1", Query: query, ConfigID: "c@1", Attempts: 1})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	return record
}

func TestScoreDirectionSensitivity(t *testing.T) {
	scorer := &Scorer{
		Executor:  &execute.Executor{Engine: fixture()},
		Direction: DefaultDirectionCheck(),
		Schema:    knowsSchema(),
	}
	gold := result.NormalizeRows([]any{5})

	tests := []struct {
		name    string
		query   string
		outcome Outcome
	}{
		{name: "correct direction", query: "MATCH (p:Person {id: 933})-[:KNOWS]->(f) RETURN count(f)", outcome: OutcomeCorrect},
		{name: "reversed", query: "MATCH (p:Person {id: 933})<-[:KNOWS]-(f) RETURN count(f)", outcome: OutcomeWrongDirection},
		{name: "undirected", query: "MATCH (p:Person {id: 933})-[:KNOWS]-(f) RETURN count(f)", outcome: OutcomeWrongResult},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := scoreQuery(t, scorer, tt.query, gold)
			if record.Outcome != tt.outcome {
				t.Fatalf("expected %s, got %s", tt.outcome, record.Outcome)
			}
			if record.Correct != (tt.outcome == OutcomeCorrect) {
				t.Fatalf("correct flag must follow the outcome, got %+v", record)
			}
		})
	}
}

func TestScoreDirectionCheckDisabled(t *testing.T) {
	scorer := &Scorer{Executor: &execute.Executor{Engine: fixture()}}
	record := scoreQuery(t, scorer, "MATCH (p:Person {id: 933})<-[:KNOWS]-(f) RETURN count(f)", result.NormalizeRows([]any{5}))
	if record.Outcome != OutcomeWrongResult {
		t.Fatalf("expected wrong_result without direction check, got %s", record.Outcome)
	}
}

func TestScoreDirectionCheckIgnoresUnknownTypes(t *testing.T) {
	scorer := &Scorer{
		Executor:  &execute.Executor{Engine: fixture()},
		Direction: DefaultDirectionCheck(),
		Schema:    schema.Descriptor{Relationships: []schema.RelationshipType{{Name: "LIKES"}}},
	}
	record := scoreQuery(t, scorer, "MATCH (p:Person {id: 933})<-[:KNOWS]-(f) RETURN count(f)", result.NormalizeRows([]any{5}))
	if record.Outcome != OutcomeWrongResult {
		t.Fatalf("expected wrong_result for a type outside the schema, got %s", record.Outcome)
	}
}

func TestScoreDirectionCheckIsBounded(t *testing.T) {
	query := "MATCH (a)-[:A]->(b)-[:B]->(c)-[:C]->(d) RETURN count(d)"
	engine := graphtest.New().Rows(query, []any{1})
	scorer := &Scorer{
		Executor:  &execute.Executor{Engine: engine},
		Direction: DirectionCheck{Enabled: true, MaxRelationshipTypes: 2},
	}
	record := scoreQuery(t, scorer, query, result.NormalizeRows([]any{2}))
	if record.Outcome != OutcomeWrongResult {
		t.Fatalf("expected wrong_result, got %s", record.Outcome)
	}
	if got := len(engine.Calls()); got != 1 {
		t.Fatalf("expected the check to be skipped above the type limit, got %d calls", got)
	}

	scorer.Direction.MaxRelationshipTypes = 3
	engine = graphtest.New().Rows(query, []any{1})
	scorer.Executor = &execute.Executor{Engine: engine}
	scoreQuery(t, scorer, query, result.NormalizeRows([]any{2}))
	if got := len(engine.Calls()); got != 1+3+1 {
		t.Fatalf("expected one call per type plus one all-flip, got %d", got)
	}
}

func TestScoreOutcomes(t *testing.T) {
	gold := result.NormalizeRows([]any{"a"}, []any{"b"})
	tests := []struct {
		name    string
		outcome execute.Outcome
		gold    result.Result
		want    Outcome
		failure string
	}{
		{name: "syntax", outcome: execute.Outcome{Status: execute.StatusSyntaxError, Message: "bad"}, gold: gold, want: OutcomeExecutionError, failure: "syntax_error"},
		{name: "runtime", outcome: execute.Outcome{Status: execute.StatusRuntimeError}, gold: gold, want: OutcomeExecutionError, failure: "runtime_error"},
		{name: "timeout", outcome: execute.Outcome{Status: execute.StatusTimeout}, gold: gold, want: OutcomeTimeout},
		{name: "reordered rows", outcome: success([]any{"b"}, []any{"a"}), gold: gold, want: OutcomeCorrect},
		{name: "empty candidate", outcome: success(), gold: gold, want: OutcomeEmpty},
		{name: "empty gold", outcome: success([]any{"a"}), gold: result.Result{}, want: OutcomeEmpty},
		{name: "both empty", outcome: success(), gold: result.Result{}, want: OutcomeCorrect},
		{name: "different rows", outcome: success([]any{"c"}), gold: gold, want: OutcomeWrongResult},
	}
	scorer := &Scorer{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := scorer.Score(testutil.Context(t, 0), tt.outcome, tt.gold, generate.Candidate{QuestionID: "q", Query: "RETURN 1"})
			if err != nil {
				t.Fatalf("score: %v", err)
			}
			if record.Outcome != tt.want || record.Failure != tt.failure {
				t.Fatalf("expected %s/%q, got %s/%q", tt.want, tt.failure, record.Outcome, record.Failure)
			}
		})
	}
}

// TestScoreIsTotal verifies every execution status maps into the closed
// outcome set.
func TestScoreIsTotal(t *testing.T) {
	known := map[Outcome]bool{}
	for _, outcome := range Outcomes {
		known[outcome] = true
	}
	statuses := []execute.Status{execute.StatusSuccess, execute.StatusSyntaxError, execute.StatusRuntimeError, execute.StatusTimeout, execute.Status("unexpected")}
	for _, status := range statuses {
		record, err := (&Scorer{}).Score(context.Background(), execute.Outcome{Status: status}, result.NormalizeRows([]any{1}), generate.Candidate{})
		if err != nil {
			t.Fatalf("score %s: %v", status, err)
		}
		if !known[record.Outcome] {
			t.Fatalf("status %s produced unknown outcome %q", status, record.Outcome)
		}
	}
}

func TestScoreGenerationFailure(t *testing.T) {
	err := &generate.GenerationFailedError{QuestionID: "q4", Attempts: 3, Err: errors.New("503")}
	record := ScoreGenerationFailure(question.Item{ID: "q4"}, "c@1", err)
	if record.Outcome != OutcomeExecutionError || record.Failure != FailureGenerationFailed || record.Correct {
		t.Fatalf("unexpected record %+v", record)
	}
	if record.Attempts != 3 || record.QuestionID != "q4" || record.ConfigID != "c@1" {
		t.Fatalf("unexpected record %+v", record)
	}

	gold := result.NormalizeRows([]any{"Mahinda"})
	record = ScoreGenerationFailure(question.Item{ID: "q5", Gold: gold}, "c@1", err)
	if !reflect.DeepEqual(record.Gold, gold) || !record.Candidate.Empty() {
		t.Fatalf("expected gold without a candidate, got %v / %v", record.Gold, record.Candidate)
	}
}

// TestScoreKeepsBothResults verifies a record carries what the query
// returned and what was expected, including through JSON.
func TestScoreKeepsBothResults(t *testing.T) {
	gold := result.NormalizeRows([]any{5})
	record, err := (&Scorer{}).Score(testutil.Context(t, 0), success([]any{int64(3)}), gold, generate.Candidate{QuestionID: "q1", Query: "MATCH (n) RETURN count(n)"})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if record.Outcome != OutcomeWrongResult {
		t.Fatalf("expected wrong_result, got %s", record.Outcome)
	}
	if got := record.Candidate.String(); got != "{(3)}" {
		t.Fatalf("expected candidate {(3)}, got %s", got)
	}
	if got := record.Gold.String(); got != "{(5)}" {
		t.Fatalf("expected gold {(5)}, got %s", got)
	}

	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, token := range []string{`"candidate":{"rows":[[3]]}`, `"gold":{"rows":[[5]]}`} {
		if !strings.Contains(string(data), token) {
			t.Fatalf("expected %s in %s", token, data)
		}
	}

	timedOut, err := (&Scorer{}).Score(testutil.Context(t, 0), execute.Outcome{Status: execute.StatusTimeout}, gold, generate.Candidate{QuestionID: "q1"})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if !timedOut.Candidate.Empty() || timedOut.Gold.String() != "{(5)}" {
		t.Fatalf("expected gold only for a timeout, got %v / %v", timedOut.Candidate, timedOut.Gold)
	}
}

func TestScorePropagatesUnavailableDuringDirectionCheck(t *testing.T) {
	query := "MATCH (p:Person)-[:KNOWS]->(f) RETURN count(f)"
	flipped := "MATCH (p:Person)<-[:KNOWS]-(f) RETURN count(f)"
	engine := graphtest.New().Rows(query, []any{1}).On(flipped, graphtest.Unavailable())
	scorer := &Scorer{Executor: &execute.Executor{Engine: engine}, Direction: DefaultDirectionCheck()}
	ctx := testutil.Context(t, 0)
	outcome, err := scorer.Executor.Execute(ctx, query)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if _, err := scorer.Score(ctx, outcome, result.NormalizeRows([]any{2}), generate.Candidate{Query: query}); !errors.Is(err, graph.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func success(rows ...[]any) execute.Outcome {
	return execute.Outcome{Status: execute.StatusSuccess, Rows: result.Raw{Rows: rows}, Attempts: 1}
}
