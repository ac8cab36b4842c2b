package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Confirm displays a warning box on out and asks the user to type phrase on
// in. It returns true only for an exact match. An empty phrase accepts "y"
// or "yes".
func Confirm(in io.Reader, out io.Writer, title string, warnings []string, phrase string) bool {
	box := Result{Kind: Warning, Title: title, Notes: warnings}
	_, _ = fmt.Fprintln(out, box.Render(GetTerminalWidth()))
	_, _ = fmt.Fprintln(out)

	prompt := "Continue? [y/N]: "
	if phrase != "" {
		prompt = fmt.Sprintf("To proceed, type %q and press Enter: ", phrase)
	}
	promptStyle := lipgloss.NewStyle().
		Foreground(WarningColor).
		Bold(true)
	_, _ = fmt.Fprint(out, promptStyle.Render(prompt))

	input, err := bufio.NewReader(in).ReadString('\n')
	_, _ = fmt.Fprintln(out)
	if err != nil && input == "" {
		return false
	}
	input = strings.TrimSpace(input)

	ok := input == phrase
	if phrase == "" {
		ok = strings.EqualFold(input, "y") || strings.EqualFold(input, "yes")
	}
	if !ok {
		_, _ = fmt.Fprintln(out, mutedStyle.Render("  Operation cancelled."))
		_, _ = fmt.Fprintln(out)
	}
	return ok
}

// ConfirmDelete asks the user to retype name before a permanent deletion.
func ConfirmDelete(in io.Reader, out io.Writer, kind, name string) bool {
	return Confirm(in, out,
		"DELETE "+strings.ToUpper(kind),
		[]string{
			fmt.Sprintf("This permanently deletes the %s %q", kind, name),
			"Enrollments and learner progress are removed with it",
			"This cannot be undone",
		},
		name,
	)
}
