package ui

import (
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Color palette for command output
var (
	PrimaryColor = lipgloss.Color("#7D56F4") // Purple - headers, borders
	SuccessColor = lipgloss.Color("#43BF6D") // Green - success, checkmarks
	ErrorColor   = lipgloss.Color("#FF5555") // Red - errors, X marks
	WarningColor = lipgloss.Color("#FFA500") // Orange - warnings, prompts
	MutedColor   = lipgloss.Color("#626262") // Gray - secondary info
	TextColor    = lipgloss.Color("#FFFFFF") // White - main content
)

// Width bounds for rendered boxes
const (
	MinTerminalWidth = 60
	MaxContentWidth  = 100
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(TextColor).Bold(true).PaddingLeft(2)
	textStyle  = lipgloss.NewStyle().Foreground(TextColor)
	mutedStyle = lipgloss.NewStyle().Foreground(MutedColor)
	noteStyle  = lipgloss.NewStyle().Foreground(MutedColor).Italic(true)
	keyStyle   = lipgloss.NewStyle().Foreground(MutedColor).Width(18)
)

// GetTerminalWidth returns the stdout width clamped to the supported range.
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return MinTerminalWidth
	}
	return clampWidth(width)
}

func clampWidth(width int) int {
	return min(max(width, MinTerminalWidth), MaxContentWidth)
}

// frame draws content in a double border of color.
func frame(color lipgloss.Color, width int, content string) string {
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(color).
		Width(clampWidth(width)-2).
		Padding(0, 2).
		Render(content)
}

// detailLines renders m as "key: value" lines in key order.
func detailLines(m map[string]string) []string {
	lines := make([]string, 0, len(m))
	for _, key := range sortedKeys(m) {
		lines = append(lines, keyStyle.Render("   "+key+":")+" "+textStyle.Render(m[key]))
	}
	return lines
}

func divider(width int) string {
	return lipgloss.NewStyle().Foreground(PrimaryColor).Render(strings.Repeat("─", max(width, 10)))
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
