// Package ui provides the styled, non-interactive output of the lmsadmin CLI.
//
// Components render once at a given width and return strings, so commands
// can print them to any writer. The full-screen interactive screens live in
// package tui.
//
// # Components
//
//   - Header: command banner showing the operation and its parameters
//   - Result: success, warning and failure boxes with details and notes
//   - ResponseBox: raw backend response, shown in verbose mode
//   - Printer: one-off result boxes for simple commands
//
// A Runner ties them together for bulk commands. It prints the header and
// a line per step as the operation calls its StepCallback. When the
// operation returns it prints a completion bar and the result box, which
// turns into a warning box when the operation called AddWarning.
//
// Example:
//
//	runner := ui.NewRunner(ui.RunnerConfig{
//	    Title:     "Bulk Enrollment",
//	    Command:   "lmsadmin enroll file",
//	    Params:    map[string]string{"Course": "42", "File": "learners.csv"},
//	    StepNames: []string{"Reading file", "Enrolling"},
//	})
//
//	_, err := runner.Run(ctx, func(ctx context.Context, onStep ui.StepCallback) (map[string]string, error) {
//	    onStep(1, "", ui.StepRunning, "")
//	    // ... do work ...
//	    onStep(1, "", ui.StepComplete, "120 rows")
//	    runner.AddWarning("2 addresses have no account")
//	    return map[string]string{"Enrolled": "118"}, nil
//	})
//
// Map details and params are rendered in sorted key order.
//
// # Logging Integration
//
// Logging is controlled by LMSADMIN_LOG_LEVEL. When it is unset, zap logging
// is silent so the curated output here is displayed cleanly.
package ui
