package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"text2cypher/internal/spec"
)

var boltSchemes = map[string]struct{}{
	"bolt": {}, "bolt+s": {}, "bolt+ssc": {},
	"neo4j": {}, "neo4j+s": {}, "neo4j+ssc": {},
}

// Validate checks a config for correctness and referenced files.
func Validate(cfg *spec.Config, baseDir string) error {
	collector := &issueCollector{}

	if cfg.Version == 0 {
		collector.add("version", "is required")
	} else if cfg.Version != 1 {
		collector.add("version", fmt.Sprintf("unsupported version %d", cfg.Version))
	}
	if baseDir == "" {
		baseDir = "."
	}

	validateGraph(cfg.Graph, collector.add)
	validateSchema(cfg.Schema, collector.add)
	validateModel(cfg.Model, collector.add)
	validateEval(cfg.Eval, collector.add)
	validateGenerator(cfg.Generator, baseDir, collector.add)

	return collector.result()
}

func validateGraph(graph spec.GraphConfig, add issueAdder) {
	uri := strings.TrimSpace(graph.URI)
	if uri == "" {
		add("graph.uri", "is required")
	} else if parsed, err := url.Parse(uri); err != nil {
		add("graph.uri", fmt.Sprintf("invalid uri: %v", err))
	} else if _, ok := boltSchemes[parsed.Scheme]; !ok {
		add("graph.uri", fmt.Sprintf("unsupported scheme %q", parsed.Scheme))
	}
	if graph.QueryTimeoutMs < 0 {
		add("graph.query_timeout_ms", "must be >= 0")
	}
	if graph.RetryTimeoutMs < 0 {
		add("graph.retry_timeout_ms", "must be >= 0")
	} else if graph.RetryTimeoutMs > graph.QueryTimeoutMs && graph.QueryTimeoutMs > 0 {
		add("graph.retry_timeout_ms", "must not exceed query_timeout_ms")
	}
	if graph.MaxConnections < 0 {
		add("graph.max_connections", "must be >= 0")
	}
}

func validateSchema(schema spec.SchemaConfig, add issueAdder) {
	checkNames := func(field string, names []string) {
		seen := map[string]struct{}{}
		for i, name := range names {
			name = strings.TrimSpace(name)
			if name == "" {
				add(fmt.Sprintf("%s[%d]", field, i), "must not be empty")
				continue
			}
			if _, ok := seen[name]; ok {
				add(fmt.Sprintf("%s[%d]", field, i), fmt.Sprintf("duplicate %q", name))
			}
			seen[name] = struct{}{}
		}
	}
	checkNames("schema.node_types", schema.NodeTypes)
	checkNames("schema.relationship_types", schema.RelationshipTypes)
}

func validateModel(model spec.ModelConfig, add issueAdder) {
	if model.Provider != DefaultProvider {
		add("model.provider", fmt.Sprintf("unsupported provider %q", model.Provider))
	}
	if strings.TrimSpace(model.Model) == "" {
		add("model.model", "is required")
	}
	if model.MaxAttempts < 1 {
		add("model.max_attempts", "must be >= 1")
	}
	if model.RequestTimeoutMs < 0 {
		add("model.request_timeout_ms", "must be >= 0")
	}
	if model.RequestsPerSecond < 0 {
		add("model.requests_per_second", "must be >= 0")
	}
	if model.Backoff.InitialMs < 0 || model.Backoff.MaxMs < 0 {
		add("model.backoff", "delays must be >= 0")
	} else if model.Backoff.MaxMs < model.Backoff.InitialMs {
		add("model.backoff.max_ms", "must be >= initial_ms")
	}
}

func validateEval(eval spec.EvalConfig, add issueAdder) {
	if eval.Concurrency < 1 {
		add("eval.concurrency", "must be >= 1")
	}
	if eval.DirectionCheck.MaxRelationshipTypes < 1 {
		add("eval.direction_check.max_relationship_types", "must be >= 1")
	}
	if eval.DirectionCheck.TimeoutMs < 0 {
		add("eval.direction_check.timeout_ms", "must be >= 0")
	}
}

func validateGenerator(generator spec.GeneratorConfig, baseDir string, add issueAdder) {
	if generator.Path == "" {
		return
	}
	path := ResolvePath(baseDir, generator.Path)
	info, err := os.Stat(path)
	if err != nil {
		add("generator.path", fmt.Sprintf("cannot read %s: %v", generator.Path, err))
		return
	}
	if info.IsDir() {
		add("generator.path", fmt.Sprintf("%s is a directory", generator.Path))
	}
}
