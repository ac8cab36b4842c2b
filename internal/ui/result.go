package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Kind selects the color, marker and label of a result box.
type Kind int

const (
	Success Kind = iota
	Warning
	Failure
)

var tones = map[Kind]struct {
	color  lipgloss.Color
	marker string
	label  string
}{
	Success: {SuccessColor, "✓", "SUCCESS"},
	Warning: {WarningColor, "⚠", "WARNING"},
	Failure: {ErrorColor, "✗", "FAILED"},
}

// Result is the box printed when an operation ends.
type Result struct {
	Kind    Kind
	Title   string
	Details map[string]string
	Err     error
	// Notes are listed in an inner box: warnings for Success and Warning,
	// troubleshooting tips for Failure.
	Notes []string
}

// Render draws the box at width.
func (r Result) Render(width int) string {
	t := tones[r.Kind]
	heading := lipgloss.NewStyle().Foreground(t.color).Bold(true)

	lines := []string{"", heading.Render(fmt.Sprintf("   %s  %s  ─  %s", t.marker, t.label, r.Title)), ""}
	if r.Err != nil {
		lines = append(lines, lipgloss.NewStyle().Foreground(ErrorColor).Render("   Error: "+r.Err.Error()), "")
	}
	if details := detailLines(r.Details); len(details) > 0 {
		lines = append(append(lines, details...), "")
	}
	if len(r.Notes) > 0 {
		lines = append(lines, r.notes(width), "")
	}
	return frame(t.color, width, strings.Join(lines, "\n"))
}

func (r Result) notes(width int) string {
	title := "Warnings:"
	if r.Kind == Failure {
		title = "Troubleshooting:"
	}
	body := []string{mutedStyle.Bold(true).Render(title), ""}
	for _, n := range r.Notes {
		body = append(body, mutedStyle.Render("  • "+n))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(MutedColor).
		Width(max(clampWidth(width)-12, 40)).
		Padding(0, 1).
		MarginLeft(3).
		Render(strings.Join(body, "\n"))
}
