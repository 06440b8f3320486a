// Package schema builds the graph schema descriptor used in prompts and in
// the direction check.
package schema

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"text2cypher/internal/graph"
)

// ErrSchemaUnavailable reports that the schema could not be enumerated.
var ErrSchemaUnavailable = errors.New("schema unavailable")

// Provider returns the schema descriptor for the configured domain.
type Provider interface {
	DescribeSchema(ctx context.Context) (Descriptor, error)
}

// PruneOptions restricts the schema to a domain allowlist. Empty lists keep
// everything.
type PruneOptions struct {
	NodeTypes         []string
	RelationshipTypes []string
}

// Prune applies the allowlist. Relationships whose endpoints were pruned
// are dropped too.
func (d Descriptor) Prune(opts PruneOptions) Descriptor {
	nodes := toSet(opts.NodeTypes)
	rels := toSet(opts.RelationshipTypes)
	return d.filter(func(name string) bool {
		if len(nodes) == 0 {
			return true
		}
		_, ok := nodes[name]
		return ok
	}, func(name string) bool {
		if len(rels) == 0 {
			return true
		}
		_, ok := rels[name]
		return ok
	}).sorted()
}

// GraphProvider enumerates the schema from engine metadata.
type GraphProvider struct {
	Source graph.MetadataSource
	Prune  PruneOptions
	Logger *slog.Logger
}

// DescribeSchema implements Provider.
func (provider GraphProvider) DescribeSchema(ctx context.Context) (Descriptor, error) {
	if provider.Source == nil {
		return Descriptor{}, fmt.Errorf("%w: no metadata source", ErrSchemaUnavailable)
	}
	meta, err := provider.Source.Metadata(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return Descriptor{}, ctx.Err()
		}
		return Descriptor{}, fmt.Errorf("%w: %w", ErrSchemaUnavailable, err)
	}
	descriptor := FromMetadata(meta).Prune(provider.Prune)
	if descriptor.Empty() {
		return Descriptor{}, fmt.Errorf("%w: pruned schema is empty", ErrSchemaUnavailable)
	}
	logger := provider.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("schema described", "nodes", len(descriptor.Nodes), "relationships", len(descriptor.Relationships))
	return descriptor, nil
}

// FromMetadata converts engine metadata into a sorted descriptor.
func FromMetadata(meta graph.Metadata) Descriptor {
	nodeProps := map[string][]Property{}
	var nodeOrder []string
	for _, info := range meta.NodeProperties {
		if _, ok := nodeProps[info.Owner]; !ok {
			nodeOrder = append(nodeOrder, info.Owner)
			nodeProps[info.Owner] = nil
		}
		if info.Property != "" {
			nodeProps[info.Owner] = appendProperty(nodeProps[info.Owner], Property{Name: info.Property, Type: PropertyType(info.Types)})
		}
	}
	relProps := map[string][]Property{}
	for _, info := range meta.RelationshipProperties {
		if info.Property != "" {
			relProps[info.Owner] = appendProperty(relProps[info.Owner], Property{Name: info.Property, Type: PropertyType(info.Types)})
		}
	}

	descriptor := Descriptor{}
	for _, pattern := range meta.Patterns {
		for _, label := range []string{pattern.From, pattern.To} {
			if _, ok := nodeProps[label]; !ok {
				nodeOrder = append(nodeOrder, label)
				nodeProps[label] = nil
			}
		}
	}
	for _, label := range nodeOrder {
		descriptor.Nodes = append(descriptor.Nodes, NodeType{Name: label, Properties: nodeProps[label]})
	}
	seen := map[graph.Pattern]struct{}{}
	for _, pattern := range meta.Patterns {
		if _, ok := seen[pattern]; ok {
			continue
		}
		seen[pattern] = struct{}{}
		descriptor.Relationships = append(descriptor.Relationships, RelationshipType{
			Name:       pattern.Type,
			From:       pattern.From,
			To:         pattern.To,
			Properties: relProps[pattern.Type],
		})
	}
	return descriptor.sorted()
}

func appendProperty(props []Property, prop Property) []Property {
	for _, existing := range props {
		if existing.Name == prop.Name {
			return props
		}
	}
	return append(props, prop)
}

// PropertyType maps engine type names onto primitive type names.
func PropertyType(engineTypes []string) string {
	if len(engineTypes) == 0 {
		return "ANY"
	}
	switch strings.ToLower(engineTypes[0]) {
	case "string":
		return "STRING"
	case "long", "integer", "int64":
		return "INT64"
	case "double", "float":
		return "DOUBLE"
	case "boolean", "bool":
		return "BOOL"
	case "date":
		return "DATE"
	case "datetime", "localdatetime", "timestamp":
		return "TIMESTAMP"
	case "stringarray":
		return "STRING[]"
	case "longarray":
		return "INT64[]"
	case "doublearray":
		return "DOUBLE[]"
	default:
		return strings.ToUpper(engineTypes[0])
	}
}

// CachedProvider describes the schema once and reuses it. Failed attempts
// are not cached.
type CachedProvider struct {
	Provider Provider

	mu         sync.Mutex
	ready      bool
	descriptor Descriptor
}

// DescribeSchema implements Provider.
func (cached *CachedProvider) DescribeSchema(ctx context.Context) (Descriptor, error) {
	cached.mu.Lock()
	defer cached.mu.Unlock()
	if cached.ready {
		return cached.descriptor, nil
	}
	descriptor, err := cached.Provider.DescribeSchema(ctx)
	if err != nil {
		return Descriptor{}, err
	}
	cached.descriptor = descriptor
	cached.ready = true
	return descriptor, nil
}

// Static is a Provider over a fixed descriptor.
type Static Descriptor

// DescribeSchema implements Provider.
func (static Static) DescribeSchema(ctx context.Context) (Descriptor, error) {
	if err := ctx.Err(); err != nil {
		return Descriptor{}, err
	}
	return Descriptor(static).sorted(), nil
}
