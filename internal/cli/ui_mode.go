package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// uiModeDecision captures whether to use the live UI and colors.
type uiModeDecision struct {
	useLive bool
	noColor bool
	warning string
}

// isTerminal reports whether a writer is a TTY.
var isTerminal = defaultIsTerminal

// resolveUIMode determines whether to enable the live UI. Verbose output
// replaces the live UI; NO_COLOR or a non-TTY stdout disables colors.
func resolveUIMode(mode string, verbose, noColor bool, stdout io.Writer) (uiModeDecision, error) {
	tty := isTerminal(stdout)
	decision := uiModeDecision{noColor: noColor || !tty || os.Getenv("NO_COLOR") != ""}
	normalized := strings.ToLower(strings.TrimSpace(mode))
	if normalized == "" {
		normalized = "auto"
	}
	switch normalized {
	case "auto":
		decision.useLive = tty && !verbose
	case "live":
		switch {
		case verbose:
			decision.warning = "Live UI is disabled by --verbose."
		case !tty:
			decision.warning = "Live UI requested but stdout is not a TTY; falling back to plain output."
		default:
			decision.useLive = true
		}
	case "plain":
	default:
		return uiModeDecision{}, usagef("invalid ui mode %q (expected auto|live|plain)", mode)
	}
	return decision, nil
}

// defaultIsTerminal inspects stdout for TTY support.
func defaultIsTerminal(stdout io.Writer) bool {
	if stdout == nil {
		return false
	}
	if file, ok := stdout.(*os.File); ok {
		return term.IsTerminal(int(file.Fd()))
	}
	if fder, ok := stdout.(interface{ Fd() uintptr }); ok {
		return term.IsTerminal(int(fder.Fd()))
	}
	return false
}

func warnf(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "Warning: "+format+"\n", args...)
}
