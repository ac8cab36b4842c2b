package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muurk/lmsadmin/internal/bulk"
	"github.com/muurk/lmsadmin/internal/ui"
)

var enrollCourse string

func init() {
	rootCmd.AddCommand(enrollCmd)
	enrollCmd.AddCommand(enrollUserCmd)
	enrollCmd.AddCommand(enrollFileCmd)

	enrollCmd.PersistentFlags().StringVarP(&enrollCourse, "course", "c", "", "Course ID (required)")
	_ = enrollCmd.MarkPersistentFlagRequired("course")
}

var enrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Enroll users into a course",
}

var enrollUserCmd = &cobra.Command{
	Use:   "user <user-id>",
	Short: "Enroll a single user",
	Example: `  lmsadmin enroll user 17 --course 42`,
	Args:    cobra.ExactArgs(1),
	RunE:    runEnrollUser,
}

func runEnrollUser(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	courseID, err := parseID("course", enrollCourse)
	if err != nil {
		return err
	}
	userID, err := parseID("user", args[0])
	if err != nil {
		return err
	}

	rec, err := svc.Enrollments.Enroll(cmd.Context(), courseID, userID)
	if err != nil {
		return withHint(fmt.Errorf("failed to enroll user %d: %w", userID, err))
	}

	out := cmd.OutOrStdout()
	if outputFormat == "json" {
		return printJSON(out, rec)
	}
	fmt.Fprintf(out, "Enrolled user %d into course %d.\n", userID, courseID)
	return nil
}

var enrollFileCmd = &cobra.Command{
	Use:   "file <path>",
	Short: "Enroll every user listed in a spreadsheet",
	Long: `Enroll the users listed in a .csv, .xlsx or .xls file into a course.

The file must have an email column ("email" or "Email"). Addresses are
matched case-insensitively against the user list; addresses without an
account are reported and skipped.`,
	Example: `  lmsadmin enroll file learners.xlsx --course 42
  lmsadmin enroll file cohort.csv --course 42 --verbose`,
	Args: cobra.ExactArgs(1),
	RunE: runEnrollFile,
}

func runEnrollFile(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	courseID, err := parseID("course", enrollCourse)
	if err != nil {
		return err
	}
	path := args[0]

	runner := ui.NewRunner(ui.RunnerConfig{
		Title:   "Bulk Enrollment",
		Command: "lmsadmin enroll file",
		Params: map[string]string{
			"File":   filepath.Base(path),
			"Course": strconv.FormatInt(courseID, 10),
		},
		StepNames: []string{"Reading file", "Matching users and enrolling"},
		Troubleshooting: []string{
			"The file needs an 'email' column and at least one address",
			"Supported formats: .csv, .xlsx, .xls",
			"Run with --verbose to see the backend response",
		},
		Verbose: verbose,
		Output:  cmd.OutOrStdout(),
	})

	_, err = runner.Run(cmd.Context(), func(ctx context.Context, onStep ui.StepCallback) (map[string]string, error) {
		onStep(1, "", ui.StepRunning, "")
		f, err := os.Open(path)
		if err != nil {
			onStep(1, "", ui.StepFailed, "")
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()

		sheet, err := bulk.ParseFile(filepath.Base(path), f)
		if err == nil {
			err = bulk.RequireEmailColumn(sheet)
		}
		if err != nil {
			onStep(1, "", ui.StepFailed, "")
			return nil, err
		}
		emails := bulk.Emails(sheet.Rows)
		onStep(1, "", ui.StepComplete, fmt.Sprintf("%d addresses", len(emails)))

		onStep(2, "", ui.StepRunning, "")
		report, err := bulk.NewEnroller(svc).EnrollEmails(ctx, courseID, emails)
		if err != nil {
			onStep(2, "", ui.StepFailed, "")
			return nil, err
		}
		onStep(2, "", ui.StepComplete, report.Summary())
		runner.SetResponse(report.Result.FormatChanges())

		details := map[string]string{
			"Matched":          strconv.Itoa(len(report.Matched)),
			"Enrolled":         strconv.Itoa(report.Result.Created),
			"Already enrolled": strconv.Itoa(report.Result.AlreadyEnrolled),
		}
		if len(report.Unmatched) > 0 {
			runner.AddWarning(fmt.Sprintf("%d address(es) have no account: %s", len(report.Unmatched), strings.Join(report.Unmatched, ", ")))
		}
		return details, nil
	})
	return withHint(err)
}
