package report

import (
	"fmt"
	"strings"
)

// FormatPassRate renders an accuracy in [0,1] as a percentage with two decimals.
func FormatPassRate(rate float64) string {
	return fmt.Sprintf("%.2f", rate*100)
}

// oneLine collapses whitespace so queries fit on a single report line.
func oneLine(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

const maxResultWidth = 120

// clip shortens long result renderings for the failure list.
func clip(text string) string {
	runes := []rune(text)
	if len(runes) <= maxResultWidth {
		return text
	}
	return string(runes[:maxResultWidth-3]) + "..."
}
