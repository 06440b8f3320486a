// Package runner drives the generate, execute and score loop over a
// benchmark and aggregates the results.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"text2cypher/internal/execute"
	"text2cypher/internal/generate"
	"text2cypher/internal/metrics"
	"text2cypher/internal/question"
	"text2cypher/internal/result"
	"text2cypher/internal/schema"
	"text2cypher/internal/score"
)

// ErrRunCancelled reports a run stopped by its caller. It wraps the
// context error.
var ErrRunCancelled = errors.New("evaluation run cancelled")

const defaultConcurrency = 4

// Objective scores a generator config over a benchmark. It is the only
// entry point the optimizer uses.
type Objective interface {
	Evaluate(ctx context.Context, items []question.Item, cfg generate.Config) (RunSummary, error)
}

// Generator produces one candidate per benchmark item.
type Generator interface {
	GenerateFor(ctx context.Context, item question.Item, descriptor schema.Descriptor, cfg generate.Config) (generate.Candidate, error)
}

// Evaluator runs items in parallel; within an item, generation, execution
// and scoring run strictly in sequence.
type Evaluator struct {
	Generator   Generator
	Executor    *execute.Executor
	Schema      schema.Provider
	Mode        result.Mode
	Direction   score.DirectionCheck
	Concurrency int
	Observer    RunObserver
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
	Verbose     io.Writer
	NoColor     bool
	NewRunID    func() (string, error)
	Now         func() time.Time
}

var _ Objective = (*Evaluator)(nil)

// Evaluate runs every item under cfg. Per-item failures land in the item's
// record. Schema or engine unavailability and cancellation abort the run and
// discard partial results.
func (e *Evaluator) Evaluate(ctx context.Context, items []question.Item, cfg generate.Config) (RunSummary, error) {
	configID := cfg.ID()
	if err := ctx.Err(); err != nil {
		return RunSummary{}, fmt.Errorf("%w: %w", ErrRunCancelled, err)
	}
	runID, err := e.runID()
	if err != nil {
		return RunSummary{}, fmt.Errorf("create run id: %w", err)
	}
	logger := e.logger().With("run_id", runID, "config_id", configID)
	started := e.now()

	descriptor, err := e.Schema.DescribeSchema(ctx)
	if err != nil {
		return RunSummary{}, e.abort(ctx, logger, configID, fmt.Errorf("describe schema: %w", err))
	}

	workers := e.workers(len(items))
	verbose := newVerboseLog(e.Verbose, e.NoColor, workers)
	observer := itemObserver{observer: e.Observer, now: e.now}
	if e.Observer != nil {
		e.Observer.OnRunStart(runID, configID, len(items))
	}
	for index, item := range items {
		observer.emit(index, item.ID, item.Text, ItemEvent{Type: ItemQueued})
	}
	logger.Info("evaluation started", "items", len(items), "concurrency", workers)

	job := itemJob{
		evaluator:  e,
		cfg:        cfg,
		configID:   configID,
		descriptor: descriptor,
		scorer: &score.Scorer{
			Executor:  e.Executor,
			Mode:      e.Mode,
			Direction: e.Direction,
			Schema:    descriptor,
			Logger:    logger,
		},
		observer: observer,
		verbose:  verbose,
		logger:   logger,
		total:    len(items),
	}
	records := make([]score.Record, len(items))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for index, item := range items {
		group.Go(func() error {
			record, err := job.run(groupCtx, index, item)
			if err != nil {
				return err
			}
			records[index] = record
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return RunSummary{}, e.abort(ctx, logger, configID, err)
	}

	summary := Summarize(configID, records)
	e.Metrics.RunFinished(configID, "completed", summary.Accuracy)
	logger.Info("evaluation finished",
		"items", summary.Total,
		"correct", summary.Correct,
		"accuracy", summary.Accuracy,
		"elapsed", e.now().Sub(started).Round(time.Millisecond))
	verbose.printf(styleItem, "Run %s accuracy=%.3f correct=%d/%d", runID, summary.Accuracy, summary.Correct, summary.Total)
	if e.Observer != nil {
		e.Observer.OnRunEnd(summary)
	}
	return summary, nil
}

// abort classifies a run-aborting error and records it.
func (e *Evaluator) abort(ctx context.Context, logger *slog.Logger, configID string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		e.Metrics.RunFinished(configID, "cancelled", 0)
		logger.Warn("evaluation cancelled", "error", ctxErr)
		return fmt.Errorf("%w: %w", ErrRunCancelled, ctxErr)
	}
	e.Metrics.RunFinished(configID, "failed", 0)
	logger.Error("evaluation aborted", "error", err)
	return err
}

func (e *Evaluator) workers(items int) int {
	workers := e.Concurrency
	if workers <= 0 {
		workers = defaultConcurrency
	}
	if items > 0 && workers > items {
		workers = items
	}
	return workers
}

func (e *Evaluator) runID() (string, error) {
	if e.NewRunID != nil {
		return e.NewRunID()
	}
	return NewRunID()
}

func (e *Evaluator) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Evaluator) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}
