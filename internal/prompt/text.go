package prompt

import "strings"

// DefaultInstructions is the baseline text-to-Cypher instruction block.
const DefaultInstructions = `Translate the question into a valid Cypher query that respects the graph schema.

<SYNTAX>
- Relationship directions matter. If the edge hasCreator is listed from A to B, then B created A.
- Use short alphanumeric variable names such as a1 or r1.
- When comparing string properties, lowercase the property value, use a WHERE clause and the CONTAINS operator.
- Do not use APOC procedures.
- For date and time comparisons use the TIMESTAMP type.
</SYNTAX>

<RETURN_RESULTS>
- Return integers as integers, not strings.
- Return property values rather than whole nodes or relationships.
- Do not coerce values to other numeric types.
</RETURN_RESULTS>`

// Exemplar is a worked question/query pair shown to the model.
type Exemplar struct {
	Question string
	Query    string
}

// GenerateInput feeds the query generation prompt.
type GenerateInput struct {
	Question     string
	Schema       string
	Instructions string
	Exemplars    []Exemplar
	Reasoning    bool
}

// PruneInput feeds the schema pruning prompt.
type PruneInput struct {
	Question string
	Schema   string
}

// AnswerInput feeds the answer synthesis prompt.
type AnswerInput struct {
	Question string
	Query    string
	Context  string
}

const (
	queryFormat     = `Respond with a JSON object {"query": "<cypher>"}. The query must not contain newlines.`
	reasoningFormat = `Think step by step about which nodes, edges and directions are needed. Respond with a JSON object {"reasoning": "<your reasoning>", "query": "<cypher>"}.`
)

var pruneInstructions = []string{
	"Understand the given labelled property graph schema and the user question.",
	"Return ONLY the subset of the schema (node labels, edge labels and properties) relevant to the question.",
	"- Nodes are the entities in the graph; edges are the relationships between them.",
	"- Properties of nodes and edges are attributes that help answer the question.",
	`Respond with a JSON object {"nodes": [{"label": "...", "properties": ["..."]}], "edges": [{"label": "...", "properties": ["..."]}]}.`,
}

var answerInstructions = []string{
	"Use the question, the generated Cypher query and the context to answer the question.",
	"If the context is empty, state that you don't have enough information to answer the question.",
}

func instructionsOrDefault(instructions string) string {
	if trimmed := strings.TrimSpace(instructions); trimmed != "" {
		return trimmed
	}
	return DefaultInstructions
}
