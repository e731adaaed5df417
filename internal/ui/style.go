package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	idStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// ansiEnabled is a variable so tests can force styling on or off.
var ansiEnabled = func() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// HighlightID returns a workspace ID with its random part highlighted.
func HighlightID(id string) string {
	if id == "" || !ansiEnabled() {
		return id
	}
	prefix, suffix, ok := strings.Cut(id, "_")
	if !ok {
		return idStyle.Render(id)
	}
	return prefix + "_" + idStyle.Render(suffix)
}

// Header styles a table header cell.
func Header(value string) string {
	if !ansiEnabled() {
		return value
	}
	return headerStyle.Render(value)
}

// Warn styles a warning line.
func Warn(value string) string {
	if !ansiEnabled() {
		return value
	}
	return warnStyle.Render(value)
}
