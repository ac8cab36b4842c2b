package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

// responseLines caps the verbose response box of a run.
const responseLines = 40

// RunnerConfig holds configuration for one command execution
type RunnerConfig struct {
	Title           string            // Command title (e.g., "Bulk Enrollment")
	Command         string            // Full command (e.g., "lmsadmin enroll file")
	Params          map[string]string // Parameters to display in header
	StepNames       []string          // Names for each step; also sets the step count
	Troubleshooting []string          // Tips shown on failure; defaults apply when empty
	Verbose         bool              // Whether to show the raw backend response
	Output          io.Writer         // Output writer (default: os.Stdout)
}

// Runner prints the header, the step lines as the operation reports them,
// a completion bar and the result box of a multi-step command.
type Runner struct {
	config   RunnerConfig
	steps    *stepList
	output   io.Writer
	width    int
	response string
	warnings []string
}

// NewRunner creates a new runner for a command
func NewRunner(config RunnerConfig) *Runner {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	width := GetTerminalWidth()

	r := &Runner{config: config, output: config.Output, width: width}
	if len(config.StepNames) > 0 {
		r.steps = newStepList(config.StepNames, width)
	}
	return r
}

// Operation is the work a Runner drives. It reports progress through onStep
// and returns the details to show in the result box.
type Operation func(ctx context.Context, onStep StepCallback) (map[string]string, error)

// Run prints the header, executes op and prints the result. An operation
// that succeeded but recorded warnings gets a warning box. The details
// returned by op are passed through.
func (r *Runner) Run(ctx context.Context, op Operation) (map[string]string, error) {
	start := time.Now()

	header := Header{Title: r.config.Title, Command: r.config.Command, Params: r.config.Params}
	r.println(header.Render(r.width))
	r.println("")

	details, err := op(ctx, r.onStep)

	if r.steps != nil {
		r.println("")
		r.println(r.steps.summary())
	}
	r.println("")

	if err != nil {
		r.println(r.failure(err).Render(r.width))
	} else {
		r.println(r.success(details, time.Since(start)).Render(r.width))
	}

	if r.config.Verbose && r.response != "" {
		r.println("")
		r.println(ResponseBox{Body: r.response, MaxLines: responseLines}.Render(r.width))
	}
	return details, err
}

// SetResponse stores the raw backend response for verbose display
func (r *Runner) SetResponse(body string) {
	r.response = body
}

// AddWarning records a problem that did not fail the operation.
func (r *Runner) AddWarning(msg ...string) {
	r.warnings = append(r.warnings, msg...)
}

func (r *Runner) onStep(n int, name string, status StepStatus, message string) {
	if r.steps == nil {
		return
	}
	line, ok := r.steps.update(n, name, status, message)
	if !ok {
		return
	}
	if status == StepRunning {
		// Overwritten when the step finishes
		_, _ = fmt.Fprint(r.output, line+"\r")
		return
	}
	if status != StepPending {
		r.println(line)
	}
}

func (r *Runner) success(details map[string]string, duration time.Duration) Result {
	if details == nil {
		details = make(map[string]string)
	}
	details["Duration"] = duration.Round(time.Millisecond).String()

	if len(r.warnings) > 0 {
		return Result{Kind: Warning, Title: r.config.Title + " completed with warnings", Details: details, Notes: r.warnings}
	}
	return Result{Kind: Success, Title: r.config.Title + " complete", Details: details}
}

func (r *Runner) failure(err error) Result {
	tips := r.config.Troubleshooting
	if len(tips) == 0 {
		tips = []string{
			"Check that the backend is reachable: lmsadmin whoami",
			"Run with --verbose to see the backend response",
		}
	}
	return Result{Kind: Failure, Title: r.config.Title + " failed", Err: err, Notes: tips}
}

func (r *Runner) println(s string) {
	_, _ = fmt.Fprintln(r.output, s)
}
