package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"text2cypher/internal/runner"
	"text2cypher/internal/score"
	"text2cypher/internal/store"
)

const timeLayout = "2006-01-02 15:04:05"

// RenderHTML renders Page into a string.
func RenderHTML(ctx context.Context, runs []store.Run, detail *runner.RunSummary) (string, error) {
	var builder strings.Builder
	if err := Page(runs, detail).Render(ctx, &builder); err != nil {
		return "", err
	}
	return builder.String(), nil
}

func ratio(correct, total int) string {
	return fmt.Sprintf("%d/%d", correct, total)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// returnedRows is blank for items whose query never produced rows.
func returnedRows(record score.Record) string {
	switch record.Outcome {
	case score.OutcomeExecutionError, score.OutcomeTimeout:
		return ""
	}
	return record.Candidate.String()
}
