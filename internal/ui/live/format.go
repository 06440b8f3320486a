package live

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"text2cypher/internal/runner"
	"text2cypher/internal/score"
)

// formatQuestionID returns the display id for an item row.
func formatQuestionID(row ItemRow) string {
	if row.ID != "" {
		return row.ID
	}
	return formatIndex(row.Index)
}

// formatIndex formats an item index.
func formatIndex(index int) string {
	return "Q" + pad2(index+1)
}

// pad2 left-pads a number to two digits when needed.
func pad2(value int) string {
	if value >= 10 {
		return fmtInt(value)
	}
	return "0" + fmtInt(value)
}

// fmtInt converts an int to string.
func fmtInt(value int) string {
	return strconv.Itoa(value)
}

// truncate collapses whitespace and shortens text for a table cell.
func truncate(text string, limit int) string {
	normalized := strings.Join(strings.Fields(text), " ")
	if len(normalized) <= limit || limit <= 3 {
		return normalized
	}
	return normalized[:limit-3] + "..."
}

// formatStatus renders the status cell for a row.
func formatStatus(row ItemRow, noColor bool) string {
	label := string(row.Status)
	if row.Status == runner.ItemDone {
		label = string(row.Outcome)
	}
	if noColor {
		return label
	}
	return statusStyle(row).Render(label)
}

// formatRowDuration returns elapsed or total time for a row.
func formatRowDuration(row ItemRow, now time.Time) string {
	if !row.FinishedAt.IsZero() && !row.StartedAt.IsZero() {
		return roundDuration(row.FinishedAt.Sub(row.StartedAt)).String()
	}
	if !row.StartedAt.IsZero() {
		return roundDuration(now.Sub(row.StartedAt)).String()
	}
	return ""
}

// roundDuration keeps 10ms resolution below one second, where most graph
// queries finish, and 100ms above it.
func roundDuration(d time.Duration) time.Duration {
	if d < time.Second {
		return d.Round(10 * time.Millisecond)
	}
	return d.Round(100 * time.Millisecond)
}

// formatAttempts formats generation attempts for display.
func formatAttempts(attempts int) string {
	if attempts <= 0 {
		return ""
	}
	return fmtInt(attempts)
}

// statusStyle selects a style for a row.
func statusStyle(row ItemRow) lipgloss.Style {
	color := lipgloss.Color("246")
	switch row.Status {
	case runner.ItemGenerating:
		color = lipgloss.Color("33")
	case runner.ItemExecuting:
		color = lipgloss.Color("39")
	case runner.ItemScoring:
		color = lipgloss.Color("201")
	case runner.ItemDone:
		color = outcomeColor(row.Outcome)
	}
	return lipgloss.NewStyle().Foreground(color)
}

func outcomeColor(outcome score.Outcome) lipgloss.Color {
	switch outcome {
	case score.OutcomeCorrect:
		return lipgloss.Color("42")
	case score.OutcomeWrongResult, score.OutcomeWrongDirection, score.OutcomeEmpty:
		return lipgloss.Color("220")
	default:
		return lipgloss.Color("196")
	}
}
