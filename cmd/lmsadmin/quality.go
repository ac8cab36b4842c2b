package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muurk/lmsadmin/internal/api"
	"github.com/muurk/lmsadmin/internal/listview"
)

// Quality command flags
var (
	qualitySearch   string
	qualityPage     int
	qualityPageSize int
)

func init() {
	rootCmd.AddCommand(qualityCmd)
	qualityCmd.AddCommand(qualityDashboardCmd)
	qualityCmd.AddCommand(qualityListCmd)

	qualityListCmd.Flags().StringVarP(&qualitySearch, "search", "s", "", "Server-side search text")
	qualityListCmd.Flags().IntVar(&qualityPage, "page", 1, "Page number")
	qualityListCmd.Flags().IntVar(&qualityPageSize, "page-size", 0, "Page size (10, 25 or 50; default from config)")
}

var qualityCmd = &cobra.Command{
	Use:   "quality",
	Short: "Quality assurance registers",
}

var qualityDashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the quality assurance dashboard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSession(); err != nil {
			return err
		}
		rec, err := svc.Quality.Dashboard(cmd.Context())
		if err != nil {
			return withHint(fmt.Errorf("failed to load dashboard: %w", err))
		}
		out := cmd.OutOrStdout()
		if outputFormat == "json" {
			return printJSON(out, rec)
		}
		fmt.Fprint(out, api.FormatRecord(rec))
		return nil
	},
}

var qualityListCmd = &cobra.Command{
	Use:   "list <kind>",
	Short: "List the records of a quality register",
	Long: `List one quality register page by page.

Registers are paginated on the server; --search is passed through as the
backend's search parameter.`,
	Example: `  lmsadmin quality list qualifications
  lmsadmin quality list eqa-visits --page 2 --format json`,
	Args: cobra.ExactArgs(1),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if svc == nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return svc.Quality.Kinds(), cobra.ShellCompDirectiveNoFileComp
	},
	RunE: runQualityList,
}

func runQualityList(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	res, err := svc.Quality.Kind(args[0])
	if err != nil {
		return fmt.Errorf("%w (known: %s)", err, strings.Join(svc.Quality.Kinds(), ", "))
	}
	size, err := pageSize(qualityPageSize)
	if err != nil {
		return err
	}

	q := listview.NewPagedQuery[api.Record](res.List)
	page, err := q.Fetch(cmd.Context(), qualityPage, size, qualitySearch, nil)
	if err != nil {
		return withHint(fmt.Errorf("failed to load %s: %w", args[0], err))
	}
	return printRecords(cmd.OutOrStdout(), args[0], page)
}

func printRecords(w io.Writer, kind string, page listview.PageResult[api.Record]) error {
	if outputFormat == "json" {
		return printJSON(w, page)
	}
	if len(page.Items) == 0 {
		fmt.Fprintf(w, "No %s records.\n", kind)
		return nil
	}
	for i, r := range page.Items {
		if outputFormat == "compact" {
			fmt.Fprintln(w, recordSummary(r))
			continue
		}
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprint(w, api.FormatRecord(r))
	}
	fmt.Fprintf(w, "\nPage %d of %d · %d %s · %d per page\n", page.Page, page.Pages, page.Count, kind, page.PageSize)
	return nil
}

// recordSummary picks the first descriptive field of an untyped record.
func recordSummary(r api.Record) string {
	for _, key := range []string{"title", "name", "reference", "status"} {
		if v := r.String(key); v != "" {
			return fmt.Sprintf("[%d] %s", r.ID(), v)
		}
	}
	return fmt.Sprintf("[%d]", r.ID())
}
