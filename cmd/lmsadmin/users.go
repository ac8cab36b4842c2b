package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muurk/lmsadmin/internal/bulk"
	"github.com/muurk/lmsadmin/internal/ui"
)

// Users command flags
var (
	uploadWelcome bool
	uploadDryRun  bool
)

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersBulkUploadCmd)
	usersCmd.AddCommand(usersTemplateCmd)

	usersBulkUploadCmd.Flags().BoolVar(&uploadWelcome, "welcome", false, "Send each created user a welcome message")
	usersBulkUploadCmd.Flags().BoolVar(&uploadDryRun, "dry-run", false, "Validate the file without uploading it")
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Bulk user administration",
}

var usersBulkUploadCmd = &cobra.Command{
	Use:   "bulk-upload <path>",
	Short: "Create users from a spreadsheet",
	Long: `Create users from a .csv, .xlsx or .xls file.

Every row is validated first: required columns, email and username format,
duplicates within the file and against existing accounts, role and status
values, and the comma-separated course IDs in the 'courseIds' column.
Nothing is uploaded while any row is invalid.

After the upload each created user is enrolled in the courses listed on
their row, and optionally sent a welcome message. Rows the backend rejects
and failed follow-ups are reported as warnings.

Use 'lmsadmin users template' to get a file with the expected columns.`,
	Example: `  # Check a file without creating anyone
  lmsadmin users bulk-upload staff.xlsx --dry-run

  # Upload and greet new users
  lmsadmin users bulk-upload staff.xlsx --welcome`,
	Args: cobra.ExactArgs(1),
	RunE: runUsersBulkUpload,
}

func runUsersBulkUpload(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	path := args[0]

	stepNames := []string{"Reading file", "Validating and uploading"}
	title := "Bulk User Upload"
	if uploadDryRun {
		stepNames = []string{"Reading file", "Validating"}
		title = "Bulk User Validation"
	}

	runner := ui.NewRunner(ui.RunnerConfig{
		Title:   title,
		Command: "lmsadmin users bulk-upload",
		Params: map[string]string{
			"File":    filepath.Base(path),
			"Welcome": strconv.FormatBool(uploadWelcome),
			"Dry run": strconv.FormatBool(uploadDryRun),
		},
		StepNames: stepNames,
		Troubleshooting: []string{
			"Start from the template: lmsadmin users template",
			"Fix the rows listed above and run the command again",
			"Run with --verbose to see the backend response",
		},
		Verbose: verbose,
		Output:  cmd.OutOrStdout(),
	})

	uploader := bulk.NewUploader(svc)
	uploader.Welcome = uploadWelcome

	_, err := runner.Run(cmd.Context(), func(ctx context.Context, onStep ui.StepCallback) (map[string]string, error) {
		onStep(1, "", ui.StepRunning, "")
		f, err := os.Open(path)
		if err != nil {
			onStep(1, "", ui.StepFailed, "")
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()

		sheet, err := bulk.ParseFile(filepath.Base(path), f)
		if err != nil {
			onStep(1, "", ui.StepFailed, "")
			return nil, err
		}
		onStep(1, "", ui.StepComplete, fmt.Sprintf("%d rows", len(sheet.Rows)))

		onStep(2, "", ui.StepRunning, "")
		if uploadDryRun {
			if err := uploader.Validate(ctx, sheet); err != nil {
				onStep(2, "", ui.StepFailed, "")
				return nil, validationFailure(err)
			}
			onStep(2, "", ui.StepComplete, "all rows valid")
			return map[string]string{"Rows": strconv.Itoa(len(sheet.Rows))}, nil
		}

		report, err := uploader.Upload(ctx, sheet)
		if err != nil {
			onStep(2, "", ui.StepFailed, "")
			return nil, validationFailure(err)
		}
		onStep(2, "", ui.StepComplete, report.Summary())

		var created []string
		for _, u := range report.Created {
			created = append(created, u.Summary())
		}
		runner.SetResponse(strings.Join(append(created, report.Errors...), "\n"))

		runner.AddWarning(report.Errors...)
		runner.AddWarning(report.Warnings...)
		return map[string]string{"Created": strconv.Itoa(report.Count)}, nil
	})
	return withHint(err)
}

// validationFailure flattens row errors into a multi-line error so every
// invalid row shows in the failure box.
func validationFailure(err error) error {
	var rows bulk.ValidationErrors
	if !errors.As(err, &rows) {
		return err
	}
	msgs := rows.Messages()
	return fmt.Errorf("%d invalid row(s):\n  %s", len(msgs), strings.Join(msgs, "\n  "))
}

var usersTemplateCmd = &cobra.Command{
	Use:   "template [path]",
	Short: "Write the bulk upload template",
	Long: `Write an .xlsx template with the columns 'users bulk-upload' expects
and a sample row. Without a path the file is written to the working
directory as ` + bulk.TemplateFileName + `; use "-" for stdout.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUsersTemplate,
}

func runUsersTemplate(cmd *cobra.Command, args []string) error {
	path := bulk.TemplateFileName
	if len(args) == 1 {
		path = args[0]
	}

	if path == "-" {
		return bulk.WriteUserTemplateTo(cmd.OutOrStdout())
	}
	if err := bulk.WriteUserTemplate(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Template written to %s\n", path)
	return nil
}
