package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Column widths for the report table
const (
	OutcomeWidth = 12
	KindWidth    = 5
)

// Layout styles. Output is plain text so it reads the same in a pipe.
var (
	OutcomeStyle = lipgloss.NewStyle().Width(OutcomeWidth)
	KindStyle    = lipgloss.NewStyle().Width(KindWidth)
	ReasonStyle  = lipgloss.NewStyle().PaddingLeft(2)
	DiffStyle    = lipgloss.NewStyle().PaddingLeft(4)
	SummaryStyle = lipgloss.NewStyle().MarginTop(1)
)

// Row lays out one report line: outcome, kind, path and an optional reason
func Row(outcome, kind, path, reason string) string {
	row := lipgloss.JoinHorizontal(lipgloss.Top,
		OutcomeStyle.Render(outcome),
		KindStyle.Render(kind),
		path,
	)
	if reason != "" {
		row += ReasonStyle.Render("(" + reason + ")")
	}
	return strings.TrimRight(row, " ")
}

// Indent shifts a multi-line block such as a diff under its row
func Indent(block string) string {
	block = strings.TrimRight(block, "\n")
	if block == "" {
		return ""
	}
	lines := strings.Split(DiffStyle.Render(block), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	return strings.Join(lines, "\n")
}
