package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ResponseBox shows a raw backend response in verbose mode. Bodies longer
// than MaxLines (when set) are cut.
type ResponseBox struct {
	Title    string
	Body     string
	MaxLines int
}

// Render draws the box at width.
func (b ResponseBox) Render(width int) string {
	lines := strings.Split(strings.TrimRight(b.Body, "\n"), "\n")
	if b.MaxLines > 0 && len(lines) > b.MaxLines {
		lines = append(lines[:b.MaxLines:b.MaxLines], "... (output truncated)")
	}

	title := b.Title
	if title == "" {
		title = "Backend Response"
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(MutedColor).
		Width(clampWidth(width)-4).
		Padding(0, 1).
		MarginLeft(2).
		Render(lipgloss.JoinVertical(lipgloss.Left,
			mutedStyle.Bold(true).Render(title),
			"",
			textStyle.Render(strings.Join(lines, "\n")),
		))
}
