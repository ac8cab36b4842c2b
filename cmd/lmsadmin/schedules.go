package main

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muurk/lmsadmin/internal/api"
	"github.com/muurk/lmsadmin/internal/feed"
)

var scheduleFollow bool

func init() {
	rootCmd.AddCommand(schedulesCmd)
	schedulesCmd.AddCommand(schedulesUpcomingCmd)
	schedulesCmd.AddCommand(schedulesRespondCmd)

	schedulesUpcomingCmd.Flags().BoolVarP(&scheduleFollow, "follow", "f", false, "Keep printing schedule changes as they happen")
}

var schedulesCmd = &cobra.Command{
	Use:   "schedules",
	Short: "Sessions, visits and other scheduled events",
}

var schedulesUpcomingCmd = &cobra.Command{
	Use:   "upcoming",
	Short: "List schedules that have not started yet",
	Long: `List schedules that have not started yet.

With --follow the command stays connected to the schedule stream and prints
every created or changed schedule until interrupted.`,
	Example: `  lmsadmin schedules upcoming
  lmsadmin schedules upcoming --follow --format compact`,
	Args: cobra.NoArgs,
	RunE: runSchedulesUpcoming,
}

func runSchedulesUpcoming(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	ctx := cmd.Context()

	// Subscribe first so nothing changed while listing is missed.
	var sub *feed.Subscription[api.Record]
	if scheduleFollow {
		var err error
		sub, err = feed.New(settings.BaseURL, store).Schedules(ctx)
		if err != nil {
			return fmt.Errorf("failed to connect to the schedule stream: %w", err)
		}
		defer sub.Close()
	}

	upcoming, err := svc.Schedules.Upcoming(ctx)
	if err != nil {
		return withHint(fmt.Errorf("failed to load schedules: %w", err))
	}

	out := cmd.OutOrStdout()
	if outputFormat == "json" && sub == nil {
		return printJSON(out, upcoming)
	}
	if len(upcoming) == 0 && outputFormat != "json" {
		fmt.Fprintln(out, "No upcoming schedules.")
	}
	for _, r := range upcoming {
		if err := printSchedule(out, r); err != nil {
			return err
		}
	}
	if sub == nil {
		return nil
	}

	if outputFormat != "json" {
		fmt.Fprintln(out, "\nFollowing schedule changes (ctrl+c to stop)...")
	}
	for r := range sub.Events() {
		if err := printSchedule(out, r); err != nil {
			return err
		}
	}
	if ctx.Err() != nil {
		return nil
	}
	if err := sub.Err(); err != nil {
		return fmt.Errorf("schedule stream closed: %w", err)
	}
	return nil
}

func printSchedule(w io.Writer, r api.Record) error {
	switch outputFormat {
	case "json":
		return printJSON(w, r)
	case "compact":
		line := recordSummary(r)
		if start := r.String("start_time"); start != "" {
			line += "  " + start
		}
		fmt.Fprintln(w, line)
	default:
		fmt.Fprint(w, api.FormatRecord(r))
		fmt.Fprintln(w)
	}
	return nil
}

var responseStatuses = []string{api.ResponseAccepted, api.ResponseDeclined, api.ResponseTentative}

var schedulesRespondCmd = &cobra.Command{
	Use:       "respond <id> <accepted|declined|tentative>",
	Short:     "Record your attendance response to a schedule",
	Args:      cobra.ExactArgs(2),
	ValidArgs: responseStatuses,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSession(); err != nil {
			return err
		}
		id, err := parseID("schedule", args[0])
		if err != nil {
			return err
		}
		status := strings.ToLower(args[1])
		if !slices.Contains(responseStatuses, status) {
			return fmt.Errorf("invalid response %q: must be one of %s", args[1], strings.Join(responseStatuses, ", "))
		}

		rec, err := svc.Schedules.Respond(cmd.Context(), id, status)
		if err != nil {
			return withHint(fmt.Errorf("failed to respond: %w", err))
		}
		if outputFormat == "json" {
			return printJSON(cmd.OutOrStdout(), rec)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Responded %s to schedule %d.\n", status, id)
		return nil
	},
}
