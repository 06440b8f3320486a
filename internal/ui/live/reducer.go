package live

import (
	"fmt"
	"time"

	"text2cypher/internal/runner"
	"text2cypher/internal/score"
)

// Reduce applies an item event to the UI state.
func Reduce(state State, event runner.ItemEvent) State {
	state = ensureRow(state, event)
	state = applyItemEvent(state, event)
	state.Counts = recount(state.Rows)
	if message := formatLastEvent(event); message != "" {
		state.LastEvent = message
	}
	return state
}

// ensureRow grows the state rows to include the target index.
func ensureRow(state State, event runner.ItemEvent) State {
	if event.Index < 0 || event.Index < len(state.Rows) {
		return state
	}
	rows := make([]ItemRow, event.Index+1)
	copy(rows, state.Rows)
	for i := len(state.Rows); i < len(rows); i++ {
		rows[i] = ItemRow{Index: i, Status: runner.ItemQueued}
	}
	state.Rows = rows
	return state
}

// applyItemEvent updates a row with the given event. A finished row ignores
// late events.
func applyItemEvent(state State, event runner.ItemEvent) State {
	if event.Index < 0 || event.Index >= len(state.Rows) {
		return state
	}
	row := state.Rows[event.Index]
	if row.ID == "" {
		row.ID = event.QuestionID
	}
	if row.Text == "" {
		row.Text = event.QuestionText
	}
	if row.Status == runner.ItemDone {
		state.Rows[event.Index] = row
		return state
	}
	row.Status = event.Type
	if event.Type == runner.ItemGenerating && row.StartedAt.IsZero() {
		row.StartedAt = event.EmittedAt
	}
	if event.Type == runner.ItemDone {
		row.Outcome = event.Outcome
		row.Attempts = event.Attempts
		row.Query = event.Query
		row.Error = event.Error
		row.FinishedAt = event.EmittedAt
		if row.StartedAt.IsZero() && event.WallTime > 0 && !event.EmittedAt.IsZero() {
			row.StartedAt = event.EmittedAt.Add(-event.WallTime)
		}
	}
	state.Rows[event.Index] = row
	return state
}

// recount recomputes status counts for the current rows.
func recount(rows []ItemRow) StatusCounts {
	counts := StatusCounts{Outcomes: make(map[score.Outcome]int, len(score.Outcomes))}
	for _, row := range rows {
		switch row.Status {
		case runner.ItemQueued:
			counts.Queued++
		case runner.ItemGenerating:
			counts.Generating++
		case runner.ItemExecuting:
			counts.Executing++
		case runner.ItemScoring:
			counts.Scoring++
		case runner.ItemDone:
			counts.Done++
			counts.Outcomes[row.Outcome]++
		}
	}
	return counts
}

// formatLastEvent creates a short footer message for the event.
func formatLastEvent(event runner.ItemEvent) string {
	if event.Type != runner.ItemDone {
		return ""
	}
	label := formatIndex(event.Index)
	if event.QuestionID != "" {
		label = event.QuestionID
	}
	if event.Error != "" {
		return fmt.Sprintf("%s %s: %s", label, event.Outcome, event.Error)
	}
	return fmt.Sprintf("%s %s (%s)", label, event.Outcome, formatDuration(event.WallTime))
}

// formatDuration renders a rounded duration for display.
func formatDuration(duration time.Duration) string {
	if duration <= 0 {
		return "0s"
	}
	return roundDuration(duration).String()
}
