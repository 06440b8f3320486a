package question

import "text2cypher/internal/result"

// Spec defines the benchmark file schema loaded from JSON or YAML.
type Spec struct {
	Version   int        `json:"version" yaml:"version"`
	Questions []Question `json:"questions" yaml:"questions"`
}

// Question is one benchmark entry as written in the file.
type Question struct {
	ID        string `json:"id" yaml:"id"`
	Prompt    string `json:"question" yaml:"question"`
	Gold      Gold   `json:"gold" yaml:"gold"`
	GoldQuery string `json:"gold_query,omitempty" yaml:"gold_query,omitempty"`
}

// Gold holds the expected rows. When Ordered is omitted it is derived from
// a final ORDER BY in the gold query.
type Gold struct {
	Ordered *bool   `json:"ordered,omitempty" yaml:"ordered,omitempty"`
	Rows    [][]any `json:"rows" yaml:"rows"`
}

// Item is an immutable benchmark question with a normalized gold result.
type Item struct {
	ID        string
	Text      string
	Gold      result.Result
	GoldQuery string
}
