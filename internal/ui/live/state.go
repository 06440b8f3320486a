package live

import (
	"time"

	"text2cypher/internal/runner"
	"text2cypher/internal/score"
)

// ItemRow holds UI state for a single benchmark item.
type ItemRow struct {
	Index      int
	ID         string
	Text       string
	Status     runner.ItemEventType
	Outcome    score.Outcome
	Attempts   int
	Query      string
	StartedAt  time.Time
	FinishedAt time.Time
	Error      string
}

// StatusCounts aggregates counts by status bucket. Outcomes only counts
// finished items.
type StatusCounts struct {
	Queued     int
	Generating int
	Executing  int
	Scoring    int
	Done       int
	Outcomes   map[score.Outcome]int
}

// State captures the live UI state for one evaluation run.
type State struct {
	RunID     string
	ConfigID  string
	Total     int
	StartedAt time.Time
	Finished  bool
	Accuracy  float64
	LastEvent string
	Rows      []ItemRow
	Counts    StatusCounts
}
