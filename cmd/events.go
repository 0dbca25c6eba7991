package cmd

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Ashfaaq98/health-console/internal/dashboard"
	"github.com/Ashfaaq98/health-console/internal/health"
)

var (
	eventsFilters filterFlags
	eventsPage    int
	eventsOutput  string
	eventsDetails bool
	eventsSave    bool
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List one page of health events",
	Long: `Query the health events of the allowed accounts and print one page.

The details of the printed page are loaded as they would be in the dashboard,
so failed detail lookups show up in the Detail column.

Examples:
  # First page of every open event
  health-console events --status open

  # Page 2 of EC2 events in one account, as YAML with full details
  health-console events --account 111111111111 --service EC2 --page 2 --details -o yaml`,
	RunE: runEvents,
}

func init() {
	rootCmd.AddCommand(eventsCmd)

	eventsFilters.register(eventsCmd)
	eventsCmd.Flags().IntVar(&eventsPage, "page", 1, "Page to print")
	eventsCmd.Flags().BoolVar(&eventsDetails, "details", false, "Include detail records in json/yaml output")
	eventsCmd.Flags().BoolVar(&eventsSave, "save", false, "Record the result in the history database")
	addOutputFlag(eventsCmd, &eventsOutput)
}

func runEvents(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := stderrLogger("[events] ")

	env, err := newSessionEnv(GetConfig(), logger, sessionOptions{history: eventsSave})
	if err != nil {
		return err
	}
	defer env.Close()

	sess := env.session
	eventsFilters.apply(sess)

	if _, err := sess.Refresh(ctx); err != nil {
		msg, isError := dashboard.StatusLine(err)
		if !isError {
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		}
		// page 1 detail failures still leave a list to print
		var fetchErr *health.DetailFetchError
		if !errors.As(err, &fetchErr) {
			return err
		}
		logger.Printf("%s", msg)
	}

	if eventsPage != 1 {
		if _, err := sess.GoToPage(ctx, eventsPage); err != nil {
			if errors.Is(err, health.ErrInvalidPage) {
				return fmt.Errorf("page %d: %w (1-%d)", eventsPage, err, sess.Snapshot().TotalPages())
			}
			msg, _ := dashboard.StatusLine(err)
			logger.Printf("%s", msg)
		}
	}

	view, err := currentPage(sess.Snapshot(), eventsDetails)
	if err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), eventsOutput, view, func(w io.Writer) error {
		return printPage(w, sess.Snapshot(), view)
	})
}

func currentPage(snap *dashboard.Snapshot, withDetail bool) (pageView, error) {
	page := snap.Page()
	events, err := snap.PageEvents(page)
	if err != nil {
		return pageView{}, err
	}
	view := pageView{
		Page:        page,
		TotalPages:  snap.TotalPages(),
		TotalEvents: snap.EventCount(),
		Events:      make([]eventView, 0, len(events)),
	}
	for _, ev := range events {
		view.Events = append(view.Events, newEventView(ev, snap, withDetail))
	}
	return view, nil
}

func printPage(w io.Writer, snap *dashboard.Snapshot, view pageView) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ACCOUNT\tSERVICE\tREGION\tTYPE\tCATEGORY\tSTATUS\tLAST UPDATED\tDETAIL\tARN")
	for _, ev := range view.Events {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			ev.AccountID, ev.Service, ev.Region, ev.EventTypeCode, ev.EventTypeCategory,
			ev.StatusCode, ev.LastUpdatedTime, detailState(snap, ev.EventArn), ev.EventArn)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nPage %d of %d (%d events)\n", view.Page, view.TotalPages, view.TotalEvents)
	return err
}
