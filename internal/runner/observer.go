package runner

import (
	"time"

	"text2cypher/internal/score"
)

// ItemEventType identifies an item status update for observers.
type ItemEventType string

const (
	// ItemQueued marks an item known but not yet started.
	ItemQueued ItemEventType = "queued"
	// ItemGenerating marks an active model call.
	ItemGenerating ItemEventType = "generating"
	// ItemExecuting marks the candidate query running on the graph engine.
	ItemExecuting ItemEventType = "executing"
	// ItemScoring marks comparison against the gold result.
	ItemScoring ItemEventType = "scoring"
	// ItemDone marks a scored item. The event carries the outcome.
	ItemDone ItemEventType = "done"
)

// ItemEvent carries a single status update for a benchmark item.
type ItemEvent struct {
	Index        int
	QuestionID   string
	QuestionText string
	Type         ItemEventType
	Outcome      score.Outcome
	Query        string
	Attempts     int
	WallTime     time.Duration
	Error        string
	EmittedAt    time.Time
}

// RunObserver receives run lifecycle events for UI or logging. Events for
// different items may arrive concurrently.
type RunObserver interface {
	// OnRunStart signals the start of a run.
	OnRunStart(runID string, configID string, total int)
	// OnItemEvent delivers an item status update.
	OnItemEvent(event ItemEvent)
	// OnRunEnd signals run completion. It is not called for aborted runs.
	OnRunEnd(summary RunSummary)
}

// itemObserver stamps events with item metadata.
type itemObserver struct {
	observer RunObserver
	now      func() time.Time
}

func (o itemObserver) emit(index int, id, text string, event ItemEvent) {
	if o.observer == nil {
		return
	}
	event.Index = index
	event.QuestionID = id
	event.QuestionText = text
	if event.EmittedAt.IsZero() {
		event.EmittedAt = o.now()
	}
	o.observer.OnItemEvent(event)
}
