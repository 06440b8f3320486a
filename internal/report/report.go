// Package report renders evaluation results for terminals and browsers.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"text2cypher/internal/result"
	"text2cypher/internal/runner"
	"text2cypher/internal/score"
	"text2cypher/internal/store"
)

// TextOptions controls the plain text report.
type TextOptions struct {
	// MaxFailures bounds the failure list. Zero lists every failure.
	MaxFailures int
}

// WriteText writes the summary table followed by the failure list.
func WriteText(w io.Writer, summary runner.RunSummary, opts TextOptions) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Config: %s\n", summary.ConfigID)
	fmt.Fprintf(&b, "Accuracy: %s%% (%d/%d)\n\n", FormatPassRate(summary.Accuracy), summary.Correct, summary.Total)

	rows := make([][]string, 0, len(score.Outcomes))
	for _, bucket := range summary.Histogram.Buckets() {
		rows = append(rows, []string{string(bucket.Outcome), fmt.Sprintf("%d", bucket.Count)})
	}
	b.WriteString(plainTable([]string{"Outcome", "Items"}, rows))
	b.WriteString("\n")

	failures := summary.Failures()
	if len(failures) > 0 {
		b.WriteString("\nFailures:\n")
		shown := failures
		if opts.MaxFailures > 0 && len(shown) > opts.MaxFailures {
			shown = shown[:opts.MaxFailures]
		}
		for _, record := range shown {
			writeFailure(&b, record)
		}
		if hidden := len(failures) - len(shown); hidden > 0 {
			fmt.Fprintf(&b, "  ... %d more\n", hidden)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeFailure(b *strings.Builder, record score.Record) {
	fmt.Fprintf(b, "  %s  %s", record.QuestionID, record.Outcome)
	if record.Failure != "" {
		fmt.Fprintf(b, "  %s", record.Failure)
	}
	if len(record.Flipped) > 0 {
		fmt.Fprintf(b, "  flipped=%s", strings.Join(record.Flipped, ","))
	}
	b.WriteString("\n")
	if record.Message != "" {
		fmt.Fprintf(b, "      %s\n", oneLine(record.Message))
	}
	if record.Query != "" {
		fmt.Fprintf(b, "      %s\n", oneLine(record.Query))
	}
	if returned := returnedRows(record); returned != "" {
		fmt.Fprintf(b, "      returned %s\n", clip(returned))
		fmt.Fprintf(b, "      expected %s\n", clip(record.Gold.String()))
	}
}

// WriteHistory writes one table row per stored run.
func WriteHistory(w io.Writer, runs []store.Run) error {
	if len(runs) == 0 {
		_, err := io.WriteString(w, "No runs recorded.\n")
		return err
	}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.RunID,
			run.ConfigID,
			run.Benchmark,
			FormatPassRate(run.Accuracy) + "%",
			ratio(run.Correct, run.Total),
			formatTime(run.FinishedAt),
		})
	}
	_, err := io.WriteString(w, plainTable([]string{"Run", "Config", "Benchmark", "Accuracy", "Correct", "Finished"}, rows)+"\n")
	return err
}

// WriteRows prints raw query rows as a table. Columns without names are
// numbered.
func WriteRows(w io.Writer, raw result.Raw) error {
	if len(raw.Rows) == 0 {
		_, err := io.WriteString(w, "(no rows)\n")
		return err
	}
	width := len(raw.Columns)
	for _, row := range raw.Rows {
		width = max(width, len(row))
	}
	headers := make([]string, width)
	for i := range headers {
		if i < len(raw.Columns) && raw.Columns[i] != "" {
			headers[i] = raw.Columns[i]
		} else {
			headers[i] = fmt.Sprintf("col%d", i+1)
		}
	}
	rows := make([][]string, 0, len(raw.Rows))
	for _, row := range raw.Rows {
		cells := make([]string, width)
		for i, cell := range row {
			cells[i] = formatCell(cell)
		}
		rows = append(rows, cells)
	}
	_, err := io.WriteString(w, plainTable(headers, rows)+"\n")
	return err
}

func formatCell(cell any) string {
	if cell == nil {
		return "null"
	}
	return oneLine(fmt.Sprint(cell))
}

func plainTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		String()
}
