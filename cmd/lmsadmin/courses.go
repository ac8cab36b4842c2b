package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/muurk/lmsadmin/internal/api"
	"github.com/muurk/lmsadmin/internal/config"
	"github.com/muurk/lmsadmin/internal/forms"
	"github.com/muurk/lmsadmin/internal/listview"
	"github.com/muurk/lmsadmin/internal/tui"
	"github.com/muurk/lmsadmin/internal/ui"
	"github.com/muurk/lmsadmin/internal/wizard"
)

// Course command flags
var (
	courseFilter   listview.CourseFilter
	coursePage     int
	coursePageSize int
	courseYes      bool
)

func init() {
	rootCmd.AddCommand(coursesCmd)
	coursesCmd.AddCommand(coursesListCmd)
	coursesCmd.AddCommand(coursesCreateCmd)
	coursesCmd.AddCommand(coursesDeleteCmd)

	coursesListCmd.Flags().StringVar(&courseFilter.Status, "status", "all", "Status tab (all, Published, Draft, Archived)")
	coursesListCmd.Flags().StringVarP(&courseFilter.Search, "search", "s", "", "Match title or code")
	coursesListCmd.Flags().StringVar(&courseFilter.Category, "category", "", "Category name")
	coursesListCmd.Flags().StringVar(&courseFilter.Level, "level", "", "Course level")
	coursesListCmd.Flags().IntVar(&coursePage, "page", 1, "Page number")
	coursesListCmd.Flags().IntVar(&coursePageSize, "page-size", 0, "Page size (10, 25 or 50; default from config)")

	coursesDeleteCmd.Flags().BoolVarP(&courseYes, "yes", "y", false, "Skip the confirmation prompt")
}

var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "List, create and delete courses",
}

var coursesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List courses",
	Long: `List the course catalogue.

The catalogue is fetched once and filtered locally by status, search text,
category and level, then sorted by title and paginated.`,
	Example: `  # First page of published courses
  lmsadmin courses list --status Published

  # Search by title or code, 25 per page
  lmsadmin courses list --search python --page-size 25

  # JSON output for scripting
  lmsadmin courses list --format json`,
	Args: cobra.NoArgs,
	RunE: runCoursesList,
}

func runCoursesList(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	size, err := pageSize(coursePageSize)
	if err != nil {
		return err
	}

	courses := listview.NewCollection[api.Course](func(ctx context.Context) ([]api.Course, error) {
		return svc.Courses.All(ctx, "", "", "")
	})
	if err := courses.Load(cmd.Context()); err != nil {
		return withHint(fmt.Errorf("failed to load courses: %w", err))
	}

	page := coursePage
	if page < 1 {
		page = 1
	}
	view := courses.View(courseFilter.Query(page-1, size))
	return printCourses(cmd.OutOrStdout(), view, listview.StatusCounts(courses))
}

func printCourses(w io.Writer, view listview.View[api.Course], counts map[string]int) error {
	if outputFormat == "json" {
		return printJSON(w, view)
	}

	if outputFormat == "detailed" {
		fmt.Fprintf(w, "All: %d   Published: %d   Draft: %d   Archived: %d\n\n",
			counts["all"], counts["Published"], counts["Draft"], counts["Archived"])
	}

	if len(view.Items) == 0 {
		fmt.Fprintln(w, "No courses match the current filters.")
		return nil
	}
	for _, c := range view.Items {
		if outputFormat == "compact" {
			fmt.Fprintln(w, c.Summary())
			continue
		}
		fmt.Fprintln(w, c.FormatCompact())
	}
	fmt.Fprintf(w, "\nPage %d of %d · %d courses · %d per page\n", view.Page+1, view.Pages, view.Total, view.PageSize)
	return nil
}

var coursesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a course with the interactive wizard",
	Long: `Open the course creation wizard.

The wizard has four steps: Basic Info (title, code, description,
category), Details (level, status, duration, pricing, outcomes and
prerequisites), Certificate and SCORM / xAPI. ctrl+s submits from any step
after every step validates; otherwise the wizard opens the first step with
errors. One attachment may be added as the course thumbnail.
Entries are kept when the backend rejects a submission so they can be
corrected and resubmitted.`,
	Args: cobra.NoArgs,
	RunE: runCoursesCreate,
}

func runCoursesCreate(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	if !isInteractive() {
		return fmt.Errorf("courses create needs an interactive terminal")
	}

	page, err := svc.Courses.Categories.List(cmd.Context(), api.ListParams{Page: 1, PageSize: 100})
	if err != nil {
		return withHint(fmt.Errorf("failed to load categories: %w", err))
	}

	c, err := forms.NewCourseWizard(svc.Courses, page.Results, wizard.Options{MaxAttachments: settings.MaxAttachments})
	if err != nil {
		return err
	}
	return runWizard(cmd, "Create Course", c)
}

// runWizard runs c full screen and reports how it ended.
func runWizard(cmd *cobra.Command, title string, c *wizard.Controller) error {
	outcome, err := tui.RunWizard(cmd.Context(), title, currentUser(), c)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case outcome.Submitted:
		fmt.Fprintf(out, "%s: submitted.\n", title)
	case outcome.LastError != nil:
		return withHint(fmt.Errorf("%s: last submission failed: %w", title, outcome.LastError))
	default:
		fmt.Fprintf(out, "%s: cancelled, nothing was submitted.\n", title)
	}
	return nil
}

var coursesDeleteCmd = &cobra.Command{
	Use:   "delete <course-id>",
	Short: "Delete a course",
	Long: `Permanently delete a course.

You are asked to retype the course title before anything is deleted,
unless --yes is given.`,
	Example: `  lmsadmin courses delete 42
  lmsadmin courses delete 42 --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runCoursesDelete,
}

func runCoursesDelete(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	id, err := parseID("course", args[0])
	if err != nil {
		return err
	}

	course, err := svc.Courses.Get(cmd.Context(), id)
	if err != nil {
		return withHint(fmt.Errorf("failed to load course %d: %w", id, err))
	}

	if !courseYes && !ui.ConfirmDelete(cmd.InOrStdin(), cmd.OutOrStdout(), "course", course.Title) {
		return nil
	}

	if err := svc.Courses.Delete(cmd.Context(), id); err != nil {
		return withHint(fmt.Errorf("failed to delete course %d: %w", id, err))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted course %s.\n", course.Summary())
	return nil
}

// pageSize returns size, or the configured default when size is zero.
func pageSize(size int) (int, error) {
	if size == 0 {
		size = settings.PageSize
	}
	if !config.ValidPageSize(size) {
		return 0, fmt.Errorf("invalid page size %d: must be one of %v", size, config.PageSizes)
	}
	return size, nil
}

func parseID(kind, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", kind, s)
	}
	return id, nil
}
