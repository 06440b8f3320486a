package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"text2cypher/internal/generate"
	"text2cypher/internal/question"
	"text2cypher/internal/schema"
	"text2cypher/internal/score"
)

// itemJob holds the per-run state shared by item goroutines. It is read-only
// once the run starts.
type itemJob struct {
	evaluator  *Evaluator
	cfg        generate.Config
	configID   string
	descriptor schema.Descriptor
	scorer     *score.Scorer
	observer   itemObserver
	verbose    verboseLog
	logger     *slog.Logger
	total      int
}

// run evaluates one item. It returns an error only when the run must abort.
func (job itemJob) run(ctx context.Context, index int, item question.Item) (score.Record, error) {
	if err := ctx.Err(); err != nil {
		return score.Record{}, err
	}
	e := job.evaluator
	logger := job.logger.With("question_id", item.ID)
	started := e.now()
	emit := func(event ItemEvent) {
		job.observer.emit(index, item.ID, item.Text, event)
	}
	job.verbose.printf(styleItem, "Item %s %d/%d", item.ID, index+1, job.total)

	emit(ItemEvent{Type: ItemGenerating})
	stageStart := e.now()
	candidate, err := e.Generator.GenerateFor(ctx, item, job.descriptor, job.cfg)
	e.Metrics.ObserveStage("generate", e.now().Sub(stageStart))
	if err != nil {
		if ctx.Err() != nil {
			return score.Record{}, ctx.Err()
		}
		record := score.ScoreGenerationFailure(item, job.configID, err)
		logger.Warn("generation failed", "attempt", record.Attempts, "error", err)
		job.finish(emit, logger, record, started)
		return record, nil
	}

	emit(ItemEvent{Type: ItemExecuting, Query: candidate.Query, Attempts: candidate.Attempts})
	stageStart = e.now()
	outcome, err := e.Executor.Execute(ctx, candidate.Query)
	e.Metrics.ObserveStage("execute", e.now().Sub(stageStart))
	if err != nil {
		return score.Record{}, fmt.Errorf("execute %s: %w", item.ID, err)
	}

	emit(ItemEvent{Type: ItemScoring, Query: candidate.Query})
	stageStart = e.now()
	record, err := job.scorer.Score(ctx, outcome, item.Gold, candidate)
	e.Metrics.ObserveStage("score", e.now().Sub(stageStart))
	if err != nil {
		return score.Record{}, fmt.Errorf("score %s: %w", item.ID, err)
	}
	job.finish(emit, logger, record, started)
	return record, nil
}

func (job itemJob) finish(emit func(ItemEvent), logger *slog.Logger, record score.Record, started time.Time) {
	elapsed := job.evaluator.now().Sub(started)
	job.evaluator.Metrics.ItemScored(job.configID, string(record.Outcome))
	emit(ItemEvent{
		Type:     ItemDone,
		Outcome:  record.Outcome,
		Query:    record.Query,
		Attempts: record.Attempts,
		WallTime: elapsed,
		Error:    record.Message,
	})
	logger.Debug("item scored", "outcome", record.Outcome, "attempt", record.Attempts, "elapsed", elapsed.Round(time.Millisecond))
	job.verbose.printf(outcomeStyle(record.Outcome), "Item %s outcome=%s attempts=%d elapsed=%s", record.QuestionID, record.Outcome, record.Attempts, elapsed.Round(time.Millisecond))
}
