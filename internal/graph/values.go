package graph

import (
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// plainValue converts driver values into plain Go values the result
// normalizer understands.
func plainValue(value any) any {
	switch v := value.(type) {
	case neo4j.Node:
		return map[string]any{"labels": toAnySlice(v.Labels), "properties": plainMap(v.Props)}
	case neo4j.Relationship:
		return map[string]any{"type": v.Type, "properties": plainMap(v.Props)}
	case neo4j.Path:
		nodes := make([]any, 0, len(v.Nodes))
		for _, node := range v.Nodes {
			nodes = append(nodes, plainValue(node))
		}
		rels := make([]any, 0, len(v.Relationships))
		for _, rel := range v.Relationships {
			rels = append(rels, plainValue(rel))
		}
		return map[string]any{"nodes": nodes, "relationships": rels}
	case neo4j.Date:
		return v.Time().Format("2006-01-02")
	case neo4j.LocalDateTime:
		return v.Time()
	case neo4j.LocalTime:
		return v.Time().Format("15:04:05.999999999")
	case neo4j.Time:
		return v.Time().Format("15:04:05.999999999Z07:00")
	case neo4j.Duration:
		return v.String()
	case neo4j.Point2D:
		return v.String()
	case neo4j.Point3D:
		return v.String()
	case []any:
		out := make([]any, 0, len(v))
		for _, item := range v {
			out = append(out, plainValue(item))
		}
		return out
	case map[string]any:
		return plainMap(v)
	default:
		return value
	}
}

func plainMap(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for key, value := range values {
		out[key] = plainValue(value)
	}
	return out
}

func toAnySlice(values []string) []any {
	out := make([]any, 0, len(values))
	for _, value := range values {
		out = append(out, value)
	}
	return out
}
