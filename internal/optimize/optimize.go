// Package optimize searches generator configs by repeatedly calling the
// evaluation objective and keeping the best-scoring config.
package optimize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"text2cypher/internal/generate"
	"text2cypher/internal/question"
	"text2cypher/internal/runner"
)

// ErrNoTrials reports a search that finished without a completed trial.
var ErrNoTrials = errors.New("no completed trials")

const defaultMaxTrials = 8

// Trial is one completed evaluation of a config.
type Trial struct {
	Index   int
	Config  generate.Config
	Summary runner.RunSummary
}

// Proposer suggests the next config from completed trials. It returns false
// when it has nothing new to propose.
type Proposer interface {
	Propose(ctx context.Context, history []Trial) (generate.Config, bool, error)
}

// ProposerFunc adapts a function to Proposer.
type ProposerFunc func(ctx context.Context, history []Trial) (generate.Config, bool, error)

// Propose implements Proposer.
func (fn ProposerFunc) Propose(ctx context.Context, history []Trial) (generate.Config, bool, error) {
	return fn(ctx, history)
}

// Options bounds the search.
type Options struct {
	MaxTrials int
	Logger    *slog.Logger
	// OnTrial is called after each completed trial.
	OnTrial func(Trial)
}

// Result holds every completed trial and the best one.
type Result struct {
	Best   Trial
	Trials []Trial
}

// Run evaluates initial, then proposals, until MaxTrials trials completed
// or the proposer is exhausted. A cancelled trial is discarded; Run then
// returns the trials completed so far together with the error.
func Run(ctx context.Context, objective runner.Objective, items []question.Item, initial generate.Config, proposer Proposer, opts Options) (Result, error) {
	maxTrials := opts.MaxTrials
	if maxTrials <= 0 {
		maxTrials = defaultMaxTrials
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var out Result
	cfg := initial
	for index := 0; index < maxTrials; index++ {
		if index > 0 {
			next, ok, err := proposer.Propose(ctx, out.Trials)
			if err != nil {
				return out, fmt.Errorf("propose trial %d: %w", index, err)
			}
			if !ok {
				logger.Info("proposer exhausted", "trials", len(out.Trials))
				break
			}
			cfg = next
		}
		summary, err := objective.Evaluate(ctx, items, cfg)
		if err != nil {
			if errors.Is(err, runner.ErrRunCancelled) {
				logger.Warn("trial cancelled", "trial", index, "config_id", cfg.ID())
			}
			return finish(out, err)
		}
		trial := Trial{Index: index, Config: cfg, Summary: summary}
		out.Trials = append(out.Trials, trial)
		out.Best, _ = Best(out.Trials)
		logger.Info("trial finished", "trial", index, "config_id", cfg.ID(), "accuracy", summary.Accuracy, "best_accuracy", out.Best.Summary.Accuracy)
		if opts.OnTrial != nil {
			opts.OnTrial(trial)
		}
	}
	return finish(out, nil)
}

func finish(out Result, err error) (Result, error) {
	if err == nil && len(out.Trials) == 0 {
		err = ErrNoTrials
	}
	return out, err
}

// Best returns the best trial in history. Ties keep the earlier trial.
func Best(history []Trial) (Trial, bool) {
	if len(history) == 0 {
		return Trial{}, false
	}
	best := history[0]
	for _, trial := range history[1:] {
		if trial.Summary.Accuracy > best.Summary.Accuracy {
			best = trial
		}
	}
	return best, true
}
