package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Header is the banner printed before a bulk operation starts: the title,
// the command line and the parameters the operation runs with.
type Header struct {
	Title   string
	Command string
	Params  map[string]string
}

// Render draws the banner at width. Params are listed in key order.
func (h Header) Render(width int) string {
	width = clampWidth(width)

	parts := []string{titleStyle.Render(strings.ToUpper(h.Title))}
	if h.Command != "" {
		parts = append(parts, mutedStyle.PaddingLeft(2).Render(h.Command))
	}
	if len(h.Params) > 0 {
		parts = append(parts, divider(width-6))
		for _, key := range sortedKeys(h.Params) {
			parts = append(parts, mutedStyle.PaddingLeft(2).Render(key+":")+" "+textStyle.Render(h.Params[key]))
		}
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Width(width - 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}
