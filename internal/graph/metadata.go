package graph

// Metadata is the raw catalog reported by the engine.
type Metadata struct {
	NodeProperties         []PropertyInfo
	RelationshipProperties []PropertyInfo
	Patterns               []Pattern
}

// PropertyInfo describes one property of a node label or relationship type.
// Property is empty for labels or types without properties.
type PropertyInfo struct {
	Owner    string
	Property string
	Types    []string
}

// Pattern is a directed (From)-[Type]->(To) connection seen in the graph.
type Pattern struct {
	From string
	Type string
	To   string
}
