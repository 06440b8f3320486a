package runner

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"text2cypher/internal/score"
)

const verbosePrefix = "[verbose]"

type verboseStyle int

const (
	styleDefault verboseStyle = iota
	styleItem
	styleCorrect
	styleError
)

// verboseLog writes styled progress lines. A nil writer disables it.
type verboseLog struct {
	writer  io.Writer
	palette verbosePalette
}

func newVerboseLog(writer io.Writer, noColor bool, workers int) verboseLog {
	if writer == nil {
		return verboseLog{}
	}
	palette := paletteFor(writer, noColor)
	return verboseLog{writer: wrapVerboseWriter(workers, writer), palette: palette}
}

func (v verboseLog) printf(style verboseStyle, format string, args ...any) {
	if v.writer == nil {
		return
	}
	line := fmt.Sprintf(format, args...)
	fmt.Fprintf(v.writer, "%s %s\n", v.palette.prefix(verbosePrefix), v.palette.apply(style, line))
}

func outcomeStyle(outcome score.Outcome) verboseStyle {
	switch outcome {
	case score.OutcomeCorrect:
		return styleCorrect
	case score.OutcomeExecutionError, score.OutcomeTimeout:
		return styleError
	default:
		return styleDefault
	}
}

type verbosePalette struct {
	enabled  bool
	renderer *lipgloss.Renderer
}

func paletteFor(writer io.Writer, noColor bool) verbosePalette {
	if noColor || !shouldUseStyling(writer) {
		return verbosePalette{}
	}
	return verbosePalette{enabled: true, renderer: lipgloss.NewRenderer(writer)}
}

func shouldUseStyling(writer io.Writer) bool {
	if writer == nil {
		return false
	}
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	if strings.EqualFold(os.Getenv("CLICOLOR"), "0") {
		return false
	}
	if file, ok := writer.(*os.File); ok {
		return term.IsTerminal(int(file.Fd()))
	}
	if fder, ok := writer.(interface{ Fd() uintptr }); ok {
		return term.IsTerminal(int(fder.Fd()))
	}
	return false
}

func (p verbosePalette) prefix(text string) string {
	if !p.enabled {
		return text
	}
	return p.renderer.NewStyle().Faint(true).Foreground(lipgloss.Color("8")).Render(text)
}

func (p verbosePalette) apply(style verboseStyle, text string) string {
	if !p.enabled {
		return text
	}
	switch style {
	case styleItem:
		return p.renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("4")).Render(text)
	case styleCorrect:
		return p.renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("2")).Render(text)
	case styleError:
		return p.renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("1")).Render(text)
	default:
		return text
	}
}
