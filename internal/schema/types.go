package schema

import (
	"encoding/json"
	"sort"
)

// Property is a named, typed attribute of a node or relationship type.
type Property struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

// NodeType is a node label and its properties.
type NodeType struct {
	Name       string     `json:"label" yaml:"label"`
	Properties []Property `json:"properties" yaml:"properties"`
}

// RelationshipType is a directed connection between two node labels.
// From and To come from engine metadata only.
type RelationshipType struct {
	Name       string     `json:"label" yaml:"label"`
	From       string     `json:"from" yaml:"from"`
	To         string     `json:"to" yaml:"to"`
	Properties []Property `json:"properties" yaml:"properties"`
}

// Descriptor is the pruned graph schema handed to the generator.
type Descriptor struct {
	Nodes         []NodeType         `json:"nodes" yaml:"nodes"`
	Relationships []RelationshipType `json:"edges" yaml:"edges"`
}

// Empty reports whether the descriptor has no node types.
func (d Descriptor) Empty() bool {
	return len(d.Nodes) == 0
}

// Format renders the descriptor as deterministic JSON for prompts.
func (d Descriptor) Format() string {
	data, err := json.Marshal(d.sorted())
	if err != nil {
		return "{}"
	}
	return string(data)
}

// Relationship returns every directed variant of a relationship type.
func (d Descriptor) Relationship(name string) []RelationshipType {
	var out []RelationshipType
	for _, rel := range d.Relationships {
		if rel.Name == name {
			out = append(out, rel)
		}
	}
	return out
}

// HasRelationship reports whether the schema knows the relationship type.
func (d Descriptor) HasRelationship(name string) bool {
	return len(d.Relationship(name)) > 0
}

// Subset keeps only the named node labels and relationship types. A
// relationship is kept only when both endpoints are kept. Unknown names are
// ignored, so direction always comes from d.
func (d Descriptor) Subset(nodeLabels, relationshipTypes []string) Descriptor {
	nodes := toSet(nodeLabels)
	rels := toSet(relationshipTypes)
	return d.filter(func(name string) bool {
		_, ok := nodes[name]
		return ok
	}, func(name string) bool {
		_, ok := rels[name]
		return ok
	})
}

func (d Descriptor) filter(keepNode, keepRel func(string) bool) Descriptor {
	out := Descriptor{}
	kept := map[string]struct{}{}
	for _, node := range d.Nodes {
		if !keepNode(node.Name) {
			continue
		}
		kept[node.Name] = struct{}{}
		out.Nodes = append(out.Nodes, node.clone())
	}
	for _, rel := range d.Relationships {
		if !keepRel(rel.Name) {
			continue
		}
		_, fromOK := kept[rel.From]
		_, toOK := kept[rel.To]
		if !fromOK || !toOK {
			continue
		}
		out.Relationships = append(out.Relationships, rel.clone())
	}
	return out
}

func (d Descriptor) sorted() Descriptor {
	out := Descriptor{
		Nodes:         make([]NodeType, 0, len(d.Nodes)),
		Relationships: make([]RelationshipType, 0, len(d.Relationships)),
	}
	for _, node := range d.Nodes {
		out.Nodes = append(out.Nodes, node.clone())
	}
	for _, rel := range d.Relationships {
		out.Relationships = append(out.Relationships, rel.clone())
	}
	sort.Slice(out.Nodes, func(i, j int) bool { return out.Nodes[i].Name < out.Nodes[j].Name })
	sort.Slice(out.Relationships, func(i, j int) bool {
		a, b := out.Relationships[i], out.Relationships[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.From != b.From {
			return a.From < b.From
		}
		return a.To < b.To
	})
	return out
}

func (n NodeType) clone() NodeType {
	n.Properties = sortedProperties(n.Properties)
	return n
}

func (r RelationshipType) clone() RelationshipType {
	r.Properties = sortedProperties(r.Properties)
	return r
}

func sortedProperties(props []Property) []Property {
	out := append([]Property{}, props...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, value := range values {
		set[value] = struct{}{}
	}
	return set
}
