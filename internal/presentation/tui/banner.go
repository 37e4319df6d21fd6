package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the REPL greeting.
func PrintBanner(w io.Writer, version string) {
	p := termenv.EnvColorProfile()
	title := termenv.String("rewind").Foreground(p.Color("#818cf8")).Bold()
	sub := termenv.String(" v" + strings.TrimSpace(version) + " · state machine REPL").Foreground(p.Color("#c084fc"))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s%s\n", title, sub)
	fmt.Fprintln(w, termenv.String("  type 'help' for commands, 'quit' to leave").Faint())
	fmt.Fprintln(w)
}

// Prompt renders the input prompt showing the active state.
func Prompt(state string) string {
	p := termenv.EnvColorProfile()
	return termenv.String(state).Foreground(p.Color("#fbbf24")).String() + " > "
}

// Error renders an error line.
func Error(msg string) string {
	p := termenv.EnvColorProfile()
	return termenv.String("✗ " + msg).Foreground(p.Color("#f87171")).String()
}
