// Package score classifies one executed candidate query against its gold
// result.
package score

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"text2cypher/internal/cypher"
	"text2cypher/internal/execute"
	"text2cypher/internal/generate"
	"text2cypher/internal/question"
	"text2cypher/internal/result"
	"text2cypher/internal/schema"
)

// Outcome is the closed set of scoring classes.
type Outcome string

const (
	OutcomeCorrect        Outcome = "correct"
	OutcomeWrongResult    Outcome = "wrong_result"
	OutcomeWrongDirection Outcome = "wrong_direction"
	OutcomeEmpty          Outcome = "empty"
	OutcomeExecutionError Outcome = "execution_error"
	OutcomeTimeout        Outcome = "timeout"
)

// Outcomes lists every outcome in report order.
var Outcomes = []Outcome{
	OutcomeCorrect,
	OutcomeWrongResult,
	OutcomeWrongDirection,
	OutcomeEmpty,
	OutcomeExecutionError,
	OutcomeTimeout,
}

// FailureGenerationFailed marks items whose query could not be generated.
const FailureGenerationFailed = "generation_failed"

// Record is the scored result of one benchmark item.
type Record struct {
	QuestionID        string   `json:"question_id"`
	Query             string   `json:"query"`
	ConfigID          string   `json:"config_id"`
	Outcome           Outcome  `json:"outcome"`
	Correct           bool     `json:"correct"`
	Failure           string   `json:"failure,omitempty"`
	Message           string   `json:"message,omitempty"`
	Attempts          int      `json:"attempts"`
	ExecutionAttempts int      `json:"execution_attempts"`
	Flipped           []string `json:"flipped,omitempty"`
	Rows              int      `json:"rows"`
	// Candidate is the normalized result of Query. It is empty unless the
	// query executed successfully.
	Candidate result.Result `json:"candidate"`
	Gold      result.Result `json:"gold"`
}

const (
	DefaultMaxRelationshipTypes = 4
	DefaultDirectionTimeout     = 5 * time.Second
)

// DirectionCheck bounds the wrong-direction diagnosis.
type DirectionCheck struct {
	Enabled              bool
	MaxRelationshipTypes int
	Timeout              time.Duration
}

// DefaultDirectionCheck enables the check with default bounds.
func DefaultDirectionCheck() DirectionCheck {
	return DirectionCheck{Enabled: true, MaxRelationshipTypes: DefaultMaxRelationshipTypes, Timeout: DefaultDirectionTimeout}
}

// Scorer classifies outcomes. Schema limits the direction check to
// relationship types the graph knows; an empty schema allows every type.
type Scorer struct {
	Executor  *execute.Executor
	Mode      result.Mode
	Direction DirectionCheck
	Schema    schema.Descriptor
	Logger    *slog.Logger
}

// Score produces exactly one Record. The error return is reserved for
// run-aborting failures hit while re-executing direction variants.
func (scorer *Scorer) Score(ctx context.Context, outcome execute.Outcome, gold result.Result, candidate generate.Candidate) (Record, error) {
	record := Record{
		QuestionID:        candidate.QuestionID,
		Query:             candidate.Query,
		ConfigID:          candidate.ConfigID,
		Attempts:          candidate.Attempts,
		ExecutionAttempts: outcome.Attempts,
		Message:           outcome.Message,
		Gold:              gold,
	}
	switch outcome.Status {
	case execute.StatusSuccess:
	case execute.StatusTimeout:
		record.Outcome = OutcomeTimeout
		return record, nil
	default:
		record.Outcome = OutcomeExecutionError
		record.Failure = string(outcome.Status)
		return record, nil
	}

	got := result.Normalize(outcome.Rows)
	record.Rows = got.Len()
	record.Candidate = got
	record.Message = ""
	if result.Equal(gold, got, scorer.Mode) {
		record.Outcome = OutcomeCorrect
		record.Correct = true
		return record, nil
	}
	if !got.Empty() && !gold.Empty() {
		flipped, err := scorer.directionMatch(ctx, candidate.Query, gold)
		if err != nil {
			return Record{}, err
		}
		if len(flipped) > 0 {
			record.Outcome = OutcomeWrongDirection
			record.Flipped = flipped
			return record, nil
		}
	}
	if got.Empty() != gold.Empty() {
		record.Outcome = OutcomeEmpty
		return record, nil
	}
	record.Outcome = OutcomeWrongResult
	return record, nil
}

// ScoreGenerationFailure records an item whose query was never produced.
func ScoreGenerationFailure(item question.Item, configID string, err error) Record {
	record := Record{
		QuestionID: item.ID,
		ConfigID:   configID,
		Outcome:    OutcomeExecutionError,
		Failure:    FailureGenerationFailed,
		Gold:       item.Gold,
	}
	var failed *generate.GenerationFailedError
	if errors.As(err, &failed) {
		record.Attempts = failed.Attempts
	}
	if err != nil {
		record.Message = err.Error()
	}
	return record
}

// directionMatch re-executes direction-swapped variants of query and returns
// the flipped relationship types of the first variant whose rows equal gold.
func (scorer *Scorer) directionMatch(ctx context.Context, query string, gold result.Result) ([]string, error) {
	if !scorer.Direction.Enabled || scorer.Executor == nil {
		return nil, nil
	}
	types := scorer.candidateTypes(query)
	limit := scorer.Direction.MaxRelationshipTypes
	if limit <= 0 {
		limit = DefaultMaxRelationshipTypes
	}
	if len(types) == 0 {
		return nil, nil
	}
	if len(types) > limit {
		scorer.logger().Debug("direction check skipped", "types", len(types), "limit", limit)
		return nil, nil
	}
	variants := make([][]string, 0, len(types)+1)
	for _, name := range types {
		variants = append(variants, []string{name})
	}
	if len(types) > 1 {
		variants = append(variants, types)
	}
	timeout := scorer.Direction.Timeout
	if timeout <= 0 {
		timeout = DefaultDirectionTimeout
	}
	for _, variant := range variants {
		flipped, ok := cypher.FlipDirection(query, variant...)
		if !ok {
			continue
		}
		outcome, err := scorer.Executor.ExecuteWithin(ctx, flipped, timeout)
		if err != nil {
			return nil, err
		}
		if !outcome.OK() {
			continue
		}
		if result.Equal(gold, result.Normalize(outcome.Rows), scorer.Mode) {
			return append([]string(nil), variant...), nil
		}
	}
	return nil, nil
}

func (scorer *Scorer) candidateTypes(query string) []string {
	referenced := cypher.RelationshipTypes(query)
	if len(scorer.Schema.Relationships) == 0 {
		return referenced
	}
	types := make([]string, 0, len(referenced))
	for _, name := range referenced {
		if scorer.Schema.HasRelationship(name) {
			types = append(types, name)
		}
	}
	return types
}

func (scorer *Scorer) logger() *slog.Logger {
	if scorer.Logger != nil {
		return scorer.Logger
	}
	return slog.Default()
}
