package live

import (
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

const (
	idWidth       = 10
	statusWidth   = 16
	elapsedWidth  = 9
	attemptsWidth = 8
	minTextWidth  = 20
)

// tableStyles returns table styles for the UI.
func tableStyles(noColor bool) table.Styles {
	styles := table.DefaultStyles()
	if noColor {
		styles.Selected = lipgloss.NewStyle()
		return styles
	}
	styles.Header = styles.Header.Foreground(lipgloss.Color("252"))
	return styles
}

func defaultColumns() []table.Column {
	return columnsForWidth(100)
}

// columnsForWidth gives the question column whatever the fixed columns
// leave over.
func columnsForWidth(width int) []table.Column {
	text := width - idWidth - statusWidth - elapsedWidth - attemptsWidth - 10
	if text < minTextWidth {
		text = minTextWidth
	}
	return []table.Column{
		{Title: "ID", Width: idWidth},
		{Title: "Question", Width: text},
		{Title: "Status", Width: statusWidth},
		{Title: "Elapsed", Width: elapsedWidth},
		{Title: "Attempts", Width: attemptsWidth},
	}
}

// rowsForState converts UI state into table rows.
func rowsForState(state State, now time.Time, noColor bool) []table.Row {
	rows := make([]table.Row, 0, len(state.Rows))
	for _, row := range state.Rows {
		rows = append(rows, table.Row{
			formatQuestionID(row),
			truncate(row.Text, 80),
			formatStatus(row, noColor),
			formatRowDuration(row, now),
			formatAttempts(row.Attempts),
		})
	}
	return rows
}
