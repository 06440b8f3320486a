package runner

import (
	"sync"

	"text2cypher/internal/execute"
	"text2cypher/internal/generate"
	"text2cypher/internal/graph/graphtest"
	"text2cypher/internal/llm"
	"text2cypher/internal/llm/llmtest"
	"text2cypher/internal/question"
	"text2cypher/internal/result"
	"text2cypher/internal/schema"
	"text2cypher/internal/score"
)

// benchmarkFixture wires a scripted model and graph engine into an Evaluator.
type benchmarkFixture struct {
	client *llmtest.Client
	engine *graphtest.Engine
	items  []question.Item
	texts  map[string]string
}

func newBenchmarkFixture() *benchmarkFixture {
	return &benchmarkFixture{
		client: llmtest.New(),
		engine: graphtest.New(),
		texts:  map[string]string{},
	}
}

func (f *benchmarkFixture) question(id, text string, gold ...[]any) *benchmarkFixture {
	f.items = append(f.items, question.Item{ID: id, Text: text, Gold: result.NormalizeRows(gold...)})
	f.texts[id] = text
	return f
}

func (f *benchmarkFixture) translates(id, query string) *benchmarkFixture {
	f.client.Query("question: "+f.texts[id], query)
	return f
}

func (f *benchmarkFixture) modelFails(id string, status int) *benchmarkFixture {
	f.client.When("question: "+f.texts[id], llmtest.Reply{Err: &llm.ProviderError{Reason: llm.ReasonServerError, Status: status}})
	return f
}

func (f *benchmarkFixture) evaluator(concurrency int) *Evaluator {
	return &Evaluator{
		Generator:   &generate.Generator{Client: f.client, MaxAttempts: 3},
		Executor:    &execute.Executor{Engine: f.engine},
		Schema:      schema.Static(socialSchema()),
		Direction:   score.DefaultDirectionCheck(),
		Concurrency: concurrency,
		NewRunID:    func() (string, error) { return "run-test", nil },
	}
}

func socialSchema() schema.Descriptor {
	return schema.Descriptor{
		Nodes: []schema.NodeType{{Name: "Person", Properties: []schema.Property{
			{Name: "id", Type: "INT64"},
			{Name: "firstName", Type: "STRING"},
		}}},
		Relationships: []schema.RelationshipType{{Name: "KNOWS", From: "Person", To: "Person"}},
	}
}

const (
	friendsQuestion  = "How many friends does person 933 have?"
	friendsQuery     = "MATCH (p:Person {id: 933})-[:KNOWS]->(f:Person) RETURN count(f)"
	knownQuestion    = "Which people does person 933 know?"
	reversedQuery    = "MATCH (p:Person {id: 933})<-[:KNOWS]-(f:Person) RETURN f.id"
	forwardQuery     = "MATCH (p:Person {id: 933})-[:KNOWS]->(f:Person) RETURN f.id"
	nameQuestion     = "What is the first name of person 933?"
	typoQuery        = "MATCH (p:Person {id: 933}) RETURN p.fristName"
	forumQuestion    = "Which forums does person 933 moderate?"
	unreachableQuery = "MATCH (n) RETURN n"
)

// scenarioFixture scripts the four end-to-end scenarios: a correct count, a
// reversed KNOWS pattern, a typo'd property and an exhausted retry budget.
func scenarioFixture() *benchmarkFixture {
	f := newBenchmarkFixture().
		question("q1", friendsQuestion, []any{5}).
		question("q2", knownQuestion, []any{1}, []any{2}, []any{3}, []any{4}, []any{5}).
		question("q3", nameQuestion, []any{"Mahinda"}).
		question("q4", forumQuestion, []any{"Wall of Mahinda"})
	f.translates("q1", friendsQuery).
		translates("q2", reversedQuery).
		translates("q3", typoQuery).
		modelFails("q4", 503)
	f.engine.
		Rows(friendsQuery, []any{int64(5)}).
		Rows(reversedQuery, []any{int64(6)}, []any{int64(7)}).
		Rows(forwardQuery, []any{int64(5)}, []any{int64(3)}, []any{int64(1)}, []any{int64(4)}, []any{int64(2)}).
		On(typoQuery, graphtest.RuntimeError("Cannot find property fristName for p"))
	return f
}

// recordingObserver captures events for assertions.
type recordingObserver struct {
	mu      sync.Mutex
	started []string
	events  []ItemEvent
	ended   []RunSummary
}

func (o *recordingObserver) OnRunStart(runID string, configID string, total int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = append(o.started, runID)
}

func (o *recordingObserver) OnItemEvent(event ItemEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
}

func (o *recordingObserver) OnRunEnd(summary RunSummary) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ended = append(o.ended, summary)
}

func (o *recordingObserver) eventsFor(questionID string) []ItemEventType {
	o.mu.Lock()
	defer o.mu.Unlock()
	var types []ItemEventType
	for _, event := range o.events {
		if event.QuestionID == questionID {
			types = append(types, event.Type)
		}
	}
	return types
}
