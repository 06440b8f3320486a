// Package generate turns a natural-language question and a schema into a
// Cypher query using a language model.
package generate

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"text2cypher/internal/backoff"
	"text2cypher/internal/cypher"
	"text2cypher/internal/llm"
	"text2cypher/internal/prompt"
	"text2cypher/internal/question"
	"text2cypher/internal/schema"
)

const defaultMaxAttempts = 3

// Generator produces one candidate query per call. It holds no per-call
// state and is safe for concurrent use.
type Generator struct {
	Client      llm.Client
	MaxAttempts int
	Backoff     backoff.Policy
	Logger      *slog.Logger
}

// New builds a generator with default retry settings.
func New(client llm.Client, logger *slog.Logger) *Generator {
	return &Generator{Client: client, MaxAttempts: defaultMaxAttempts, Backoff: backoff.Default(), Logger: logger}
}

// GenerateFor generates a candidate for a benchmark item.
func (g *Generator) GenerateFor(ctx context.Context, item question.Item, descriptor schema.Descriptor, cfg Config) (Candidate, error) {
	return g.generate(ctx, item.ID, item.Text, descriptor, cfg)
}

// Generate produces a query for the question text under cfg.
func (g *Generator) Generate(ctx context.Context, text string, descriptor schema.Descriptor, cfg Config) (Candidate, error) {
	return g.generate(ctx, "", text, descriptor, cfg)
}

func (g *Generator) generate(ctx context.Context, questionID, text string, descriptor schema.Descriptor, cfg Config) (Candidate, error) {
	started := time.Now()
	logger := g.logger().With("question_id", questionID, "config_id", cfg.ID())
	inputSchema := descriptor
	if cfg.Strategy == StrategyPruneThenGenerate {
		pruned, err := g.prune(ctx, text, descriptor, cfg)
		switch {
		case ctx.Err() != nil:
			return Candidate{}, ctx.Err()
		case err != nil:
			logger.Warn("schema pruning failed, using full schema", "error", err)
		case pruned.Empty():
			logger.Warn("schema pruning returned no known types, using full schema")
		default:
			inputSchema = pruned
		}
	}

	message, err := prompt.RenderGenerate(ctx, prompt.GenerateInput{
		Question:     text,
		Schema:       inputSchema.Format(),
		Instructions: cfg.Instructions,
		Exemplars:    promptExemplars(cfg.Exemplars),
		Reasoning:    cfg.Strategy == StrategyReasoning,
	})
	if err != nil {
		return Candidate{}, &GenerationFailedError{QuestionID: questionID, Err: err}
	}

	var output queryOutput
	attempts, err := g.retry(ctx, func() error {
		completion, err := g.Client.Complete(ctx, request(message, cfg))
		if err != nil {
			return err
		}
		output, err = parseQuery(completion)
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			return Candidate{}, ctx.Err()
		}
		logger.Warn("generation failed", "attempt", attempts, "error", err)
		return Candidate{}, &GenerationFailedError{QuestionID: questionID, Attempts: attempts, Err: err}
	}
	if !cypher.IsReadOnly(output.Query) {
		logger.Warn("generated query contains write clauses", "query", output.Query)
	}
	logger.Debug("query generated", "attempt", attempts, "elapsed", elapsedSince(started), "query", output.Query)
	return Candidate{
		QuestionID: questionID,
		Query:      output.Query,
		ConfigID:   cfg.ID(),
		Attempts:   attempts,
		Reasoning:  output.Reasoning,
	}, nil
}

// prune asks the model for the relevant subset of the schema. Directions
// always come from descriptor, never from the model.
func (g *Generator) prune(ctx context.Context, text string, descriptor schema.Descriptor, cfg Config) (schema.Descriptor, error) {
	message, err := prompt.RenderPrune(ctx, prompt.PruneInput{Question: text, Schema: descriptor.Format()})
	if err != nil {
		return schema.Descriptor{}, err
	}
	var output prunedOutput
	if _, err := g.retry(ctx, func() error {
		completion, err := g.Client.Complete(ctx, request(message, cfg))
		if err != nil {
			return err
		}
		output, err = parsePruned(completion)
		return err
	}); err != nil {
		return schema.Descriptor{}, err
	}
	nodes := make([]string, 0, len(output.Nodes))
	for _, node := range output.Nodes {
		nodes = append(nodes, node.Label)
	}
	rels := make([]string, 0, len(output.Edges))
	for _, edge := range output.Edges {
		rels = append(rels, edge.Label)
	}
	return descriptor.Subset(nodes, rels), nil
}

// retry runs fn until it succeeds, fails permanently or the attempt budget
// is spent. It returns the number of attempts made.
func (g *Generator) retry(ctx context.Context, fn func() error) (int, error) {
	maxAttempts := g.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return attempt, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return attempt, ctx.Err()
		}
		if !retryable(err) {
			return attempt, err
		}
		if attempt == maxAttempts {
			break
		}
		delay := g.Backoff.Delay(attempt)
		g.logger().Debug("retrying completion", "attempt", attempt, "delay", delay, "error", err)
		if err := backoff.Sleep(ctx, delay); err != nil {
			return attempt, err
		}
	}
	return maxAttempts, lastErr
}

func retryable(err error) bool {
	return llm.IsRetryable(err) || errors.Is(err, errMalformedOutput)
}

func request(message prompt.Message, cfg Config) llm.Request {
	seed := cfg.Seed
	return llm.Request{
		System:      message.System,
		User:        message.User,
		Seed:        &seed,
		Temperature: cfg.Temperature,
		JSON:        true,
	}
}

func promptExemplars(exemplars []Exemplar) []prompt.Exemplar {
	out := make([]prompt.Exemplar, 0, len(exemplars))
	for _, exemplar := range exemplars {
		out = append(out, prompt.Exemplar{Question: exemplar.Question, Query: exemplar.Query})
	}
	return out
}

func (g *Generator) logger() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}

func elapsedSince(start time.Time) time.Duration {
	return time.Since(start).Round(time.Millisecond)
}
