package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"text2cypher/internal/backoff"
	"text2cypher/internal/config"
	"text2cypher/internal/execute"
	"text2cypher/internal/generate"
	"text2cypher/internal/graph"
	"text2cypher/internal/llm"
	"text2cypher/internal/metrics"
	"text2cypher/internal/result"
	"text2cypher/internal/runner"
	"text2cypher/internal/schema"
	"text2cypher/internal/score"
	"text2cypher/internal/spec"
	"text2cypher/internal/store"
)

// graphEngine is what the CLI needs from a graph connection.
type graphEngine interface {
	graph.Engine
	graph.MetadataSource
}

// Connection seams, replaced in tests.
var (
	openGraph = func(ctx context.Context, opts graph.Neo4jOptions) (graphEngine, error) {
		engine, err := graph.NewNeo4jEngine(ctx, opts)
		if err != nil {
			return nil, err
		}
		return engine, nil
	}
	newModelClient = func(opts llm.OpenRouterOptions) (llm.Client, error) {
		client, err := llm.NewOpenRouterClient(opts)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
)

// project is a loaded config together with the process logger.
type project struct {
	root   string
	cfg    spec.Config
	logger *slog.Logger
}

func loadProject(global *globalOptions, stderr io.Writer) (*project, error) {
	logger, err := newLogger(stderr, global.logLevel, global.logFormat)
	if err != nil {
		return nil, err
	}
	path, err := resolveConfigPath(global.configPath)
	if err != nil {
		return nil, err
	}
	root := config.RootFromConfigPath(path)
	if err := config.LoadEnv(root); err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s:\n%w", path, err)
	}
	logger.Debug("config loaded", "path", path)
	return &project{root: root, cfg: cfg, logger: logger}, nil
}

// services are the live connections a command works with.
type services struct {
	engine    graphEngine
	client    llm.Client
	schema    schema.Provider
	executor  *execute.Executor
	generator *generate.Generator
}

func (p *project) connect(ctx context.Context) (*services, error) {
	secrets, err := config.ResolveSecrets(p.cfg, nil)
	if err != nil {
		return nil, err
	}
	engine, err := p.openEngine(ctx, secrets.GraphPassword)
	if err != nil {
		return nil, err
	}
	client, err := newModelClient(llm.OpenRouterOptions{
		APIKey:            secrets.APIKey,
		Model:             p.cfg.Model.Model,
		BaseURL:           p.cfg.Model.BaseURL,
		RequestTimeout:    millis(p.cfg.Model.RequestTimeoutMs),
		RequestsPerSecond: p.cfg.Model.RequestsPerSecond,
		Logger:            p.logger,
	})
	if err != nil {
		closeEngine(engine)
		return nil, fmt.Errorf("create model client: %w", err)
	}
	generator := generate.New(client, p.logger)
	generator.MaxAttempts = p.cfg.Model.MaxAttempts
	policy := backoff.Default()
	policy.Initial = millis(p.cfg.Model.Backoff.InitialMs)
	policy.Max = millis(p.cfg.Model.Backoff.MaxMs)
	generator.Backoff = policy

	return &services{
		engine: engine,
		client: client,
		schema: &schema.CachedProvider{Provider: p.schemaProvider(engine)},
		executor: &execute.Executor{
			Engine:       engine,
			Timeout:      millis(p.cfg.Graph.QueryTimeoutMs),
			RetryTimeout: millis(p.cfg.Graph.RetryTimeoutMs),
			Logger:       p.logger,
		},
		generator: generator,
	}, nil
}

// openEngine connects to the graph only. The model API key is not needed.
func (p *project) openEngine(ctx context.Context, password string) (graphEngine, error) {
	engine, err := openGraph(ctx, graph.Neo4jOptions{
		URI:            p.cfg.Graph.URI,
		Username:       p.cfg.Graph.Username,
		Password:       password,
		Database:       p.cfg.Graph.Database,
		MaxConnections: p.cfg.Graph.MaxConnections,
		Logger:         p.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to graph: %w", err)
	}
	return engine, nil
}

func (p *project) schemaProvider(source graph.MetadataSource) schema.GraphProvider {
	return schema.GraphProvider{
		Source: source,
		Prune: schema.PruneOptions{
			NodeTypes:         p.cfg.Schema.NodeTypes,
			RelationshipTypes: p.cfg.Schema.RelationshipTypes,
		},
		Logger: p.logger,
	}
}

func (s *services) close() {
	if s != nil {
		closeEngine(s.engine)
	}
}

func closeEngine(engine graphEngine) {
	closer, ok := engine.(interface{ Close(context.Context) error })
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = closer.Close(ctx)
}

// evaluator wires the harness from config.
func (p *project) evaluator(svc *services, m *metrics.Metrics) *runner.Evaluator {
	direction := score.DefaultDirectionCheck()
	direction.Enabled = *p.cfg.Eval.DirectionCheck.Enabled
	direction.MaxRelationshipTypes = p.cfg.Eval.DirectionCheck.MaxRelationshipTypes
	direction.Timeout = millis(p.cfg.Eval.DirectionCheck.TimeoutMs)
	return &runner.Evaluator{
		Generator: svc.generator,
		Executor:  svc.executor,
		Schema:    svc.schema,
		Mode: result.Mode{
			IgnoreDuplicates:  p.cfg.Eval.Compare.IgnoreDuplicates,
			IgnoreColumnOrder: p.cfg.Eval.Compare.IgnoreColumnOrder,
		},
		Direction:   direction,
		Concurrency: p.cfg.Eval.Concurrency,
		Metrics:     m,
		Logger:      p.logger,
	}
}

// generatorConfig loads override, the configured generator file, or the
// default config, in that order.
func (p *project) generatorConfig(override string) (generate.Config, error) {
	path := override
	if path == "" {
		path = p.cfg.Generator.Path
	}
	if path == "" {
		return generate.DefaultConfig(), nil
	}
	cfg, err := generate.LoadConfig(path)
	if err != nil {
		return generate.Config{}, fmt.Errorf("load generator config %s:\n%w", path, err)
	}
	return cfg, nil
}

func (p *project) openStore(ctx context.Context) (*store.Store, error) {
	return store.Open(ctx, p.cfg.Store.Path)
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
