package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/lmsadmin/internal/api"
	"github.com/muurk/lmsadmin/internal/feed"
	"github.com/muurk/lmsadmin/internal/listview"
	"github.com/muurk/lmsadmin/internal/logging"
	"github.com/muurk/lmsadmin/internal/tui"
)

// Activity command flags
var (
	activitySearch      string
	activityType        string
	activitySince       string
	activityPage        int
	activityPageSize    int
	activityUser        int64
	activityFollow      bool
	activityInteractive bool
)

func init() {
	rootCmd.AddCommand(activityCmd)

	activityCmd.Flags().StringVarP(&activitySearch, "search", "s", "", "Match user, activity type or details")
	activityCmd.Flags().StringVarP(&activityType, "type", "t", "", "Activity type (e.g. login, course_view)")
	activityCmd.Flags().StringVar(&activitySince, "since", "all", "Date window (all, today, week, month)")
	activityCmd.Flags().IntVar(&activityPage, "page", 1, "Page number")
	activityCmd.Flags().IntVar(&activityPageSize, "page-size", 0, "Page size (10, 25 or 50; default from config)")
	activityCmd.Flags().Int64Var(&activityUser, "user", 0, "Only this user's activities (user ID)")
	activityCmd.Flags().BoolVarP(&activityFollow, "follow", "f", false, "Keep printing new activities as they happen")
	activityCmd.Flags().BoolVarP(&activityInteractive, "interactive", "i", false, "Browse in the full-screen activity viewer")
}

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Show the user activity log",
	Long: `Show the user activity log, newest first.

The log is fetched once and filtered locally by search text, activity type
and date window. With --follow the command stays connected to the live
activity stream and prints new activities that match the filters until
interrupted. With --interactive the log opens in a full-screen viewer
where filters and paging can be changed with the keyboard.`,
	Example: `  # Today's logins
  lmsadmin activity --type login --since today

  # Second page, 25 per page
  lmsadmin activity --page 2 --page-size 25

  # One user's history
  lmsadmin activity --user 42

  # Tail the live stream
  lmsadmin activity --follow

  # Interactive viewer with live updates
  lmsadmin activity -i -f`,
	Args: cobra.NoArgs,
	RunE: runActivity,
}

func runActivity(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}

	window, err := listview.ParseDateWindow(activitySince)
	if err != nil {
		return err
	}
	size, err := pageSize(activityPageSize)
	if err != nil {
		return err
	}

	fetch := listview.LoadAll(svc.Users.Activities)
	if activityUser > 0 {
		fetch = listview.LoadUser(svc.Activity, activityUser)
	}
	f := listview.NewActivityFeed(fetch)
	if err := f.SetPageSize(size); err != nil {
		return err
	}
	f.SetFilter(listview.ActivityFilter{Search: activitySearch, Type: activityType, Window: window})
	if activityPage > 1 {
		f.SetPage(activityPage - 1)
	}

	ctx := cmd.Context()

	var sub *feed.Subscription[api.Activity]
	if activityFollow {
		sub, err = feed.New(settings.BaseURL, store).Activities(ctx)
		if err != nil {
			return fmt.Errorf("failed to connect to the live activity stream: %w", err)
		}
		defer sub.Close()
	}

	if activityInteractive {
		if !isInteractive() {
			return fmt.Errorf("--interactive needs an interactive terminal")
		}
		var live <-chan api.Activity
		if sub != nil {
			live = sub.Events()
		}
		return tui.RunActivity(ctx, currentUser(), f, live)
	}

	if err := f.Load(ctx); err != nil {
		return withHint(fmt.Errorf("failed to load activities: %w", err))
	}

	out := cmd.OutOrStdout()
	if err := printActivities(out, f.Page(), f.Now()); err != nil {
		return err
	}
	if sub == nil {
		return nil
	}

	if outputFormat != "json" {
		fmt.Fprintln(out, "\nFollowing live activity (ctrl+c to stop)...")
	}
	for a := range sub.Events() {
		f.Prepend(a)
		if !matches(f.Filter(), a, f.Now()) {
			continue
		}
		if err := printActivity(out, a, f.Now()); err != nil {
			return err
		}
	}

	// Events closes when the stream ends; interruption is a clean exit.
	if ctx.Err() != nil {
		return nil
	}
	if err := sub.Err(); err != nil {
		logging.Error("activity stream ended", zap.Error(err))
		return fmt.Errorf("live activity stream closed: %w", err)
	}
	return nil
}

func printActivities(w io.Writer, view listview.View[api.Activity], now time.Time) error {
	if outputFormat == "json" {
		return printJSON(w, view)
	}
	if len(view.Items) == 0 {
		fmt.Fprintln(w, "No activities match the current filters.")
		return nil
	}
	for _, a := range view.Items {
		if err := printActivity(w, a, now); err != nil {
			return err
		}
	}
	fmt.Fprintf(w, "\nPage %d of %d · %d activities · %d per page\n", view.Page+1, view.Pages, view.Total, view.PageSize)
	return nil
}

func printActivity(w io.Writer, a api.Activity, now time.Time) error {
	switch outputFormat {
	case "json":
		return printJSON(w, a)
	case "compact":
		fmt.Fprintln(w, a.Line())
	default:
		line := fmt.Sprintf("%-60s %s", a.Line(), a.Ago(now))
		if a.Details != "" {
			line += "\n    " + a.Details
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

func matches(filter listview.ActivityFilter, a api.Activity, now time.Time) bool {
	for _, p := range filter.Predicates(now) {
		if !p(a) {
			return false
		}
	}
	return true
}
