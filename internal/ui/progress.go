package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// StepStatus is the state of one step of a Runner operation.
type StepStatus int

const (
	StepPending StepStatus = iota
	StepRunning
	StepComplete
	StepFailed
	StepSkipped
)

// StepCallback reports progress of step n (1-based). A non-empty name
// renames the step and message is shown after the status marker.
type StepCallback func(n int, name string, status StepStatus, message string)

type step struct {
	name    string
	status  StepStatus
	message string
}

// stepList is the step state of one Runner.
type stepList struct {
	steps []step
	bar   progress.Model
}

func newStepList(names []string, width int) *stepList {
	steps := make([]step, len(names))
	for i, name := range names {
		steps[i] = step{name: name}
	}
	return &stepList{
		steps: steps,
		bar: progress.New(
			progress.WithDefaultGradient(),
			progress.WithoutPercentage(),
			progress.WithWidth(min(max(clampWidth(width)-20, 20), 50)),
		),
	}
}

// update records a callback and returns the step's new line. Steps outside
// the list are ignored.
func (l *stepList) update(n int, name string, status StepStatus, message string) (string, bool) {
	if n < 1 || n > len(l.steps) {
		return "", false
	}
	s := &l.steps[n-1]
	if name != "" {
		s.name = name
	}
	s.status = status
	s.message = message
	return l.line(n), true
}

func (l *stepList) finished() int {
	n := 0
	for _, s := range l.steps {
		if s.status == StepComplete || s.status == StepSkipped {
			n++
		}
	}
	return n
}

// summary renders the bar with the share of finished steps.
func (l *stepList) summary() string {
	done := l.finished()
	pct := float64(done) / float64(len(l.steps))
	return lipgloss.NewStyle().
		PaddingLeft(2).
		Render(fmt.Sprintf("%s  %3.0f%%  [%d/%d]", l.bar.ViewAs(pct), pct*100, done, len(l.steps)))
}

func (l *stepList) line(n int) string {
	s := l.steps[n-1]

	mark, style := "·", mutedStyle
	switch s.status {
	case StepComplete:
		mark, style = "✓", lipgloss.NewStyle().Foreground(SuccessColor)
	case StepRunning:
		mark, style = "●", lipgloss.NewStyle().Foreground(WarningColor)
	case StepFailed:
		mark, style = "✗", lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)
	case StepSkipped:
		mark = "⊘"
	}

	// Markers line up for names up to 45 columns.
	pad := strings.Repeat(" ", max(45-lipgloss.Width(s.name), 1))
	line := fmt.Sprintf("  [%d/%d] %s%s%s", n, len(l.steps), style.Render(s.name), pad, style.Render(mark))
	if s.message != "" {
		line += "  " + noteStyle.Render("("+s.message+")")
	}
	return line
}
