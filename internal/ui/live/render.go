package live

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"text2cypher/internal/score"
)

// renderHeader renders the run header line.
func renderHeader(state State, now time.Time, noColor bool) string {
	line := "Run " + state.RunID
	if state.ConfigID != "" {
		line += " | Config: " + state.ConfigID
	}
	if !state.StartedAt.IsZero() {
		line += " | Elapsed: " + now.Sub(state.StartedAt).Round(100*time.Millisecond).String()
	}
	return stylize(line, noColor, lipgloss.Color("33"))
}

// renderSummary renders the status counts line.
func renderSummary(state State, noColor bool) string {
	counts := state.Counts
	line := "Queued: " + fmtInt(counts.Queued) +
		" Generating: " + fmtInt(counts.Generating) +
		" Executing: " + fmtInt(counts.Executing) +
		" Scoring: " + fmtInt(counts.Scoring) +
		" Done: " + fmtInt(counts.Done) + "/" + fmtInt(state.Total)
	return stylize(line, noColor, lipgloss.Color("242"))
}

// renderOutcomes renders the per-outcome histogram of finished items.
func renderOutcomes(state State, noColor bool) string {
	parts := make([]string, 0, len(score.Outcomes)+1)
	for _, outcome := range score.Outcomes {
		parts = append(parts, string(outcome)+": "+fmtInt(state.Counts.Outcomes[outcome]))
	}
	if state.Finished {
		parts = append(parts, fmt.Sprintf("accuracy: %.2f%%", state.Accuracy*100))
	}
	return stylize(strings.Join(parts, " "), noColor, lipgloss.Color("240"))
}

// renderFooter renders the last event line.
func renderFooter(state State, noColor bool) string {
	if state.LastEvent == "" {
		return ""
	}
	return stylize("Last event: "+state.LastEvent, noColor, lipgloss.Color("244"))
}

// stylize applies optional color styling.
func stylize(text string, noColor bool, color lipgloss.Color) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}
