package cmd

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Ashfaaq98/health-console/internal/dashboard"
	"github.com/Ashfaaq98/health-console/internal/health"
)

var (
	detailsFilters  filterFlags
	detailsPages    string
	detailsAll      bool
	detailsParallel int
	detailsOutput   string
)

var detailsCmd = &cobra.Command{
	Use:   "details",
	Short: "Load and print event details page by page",
	Long: `Query the health events and load the detail records of the selected pages.

Pages are loaded concurrently; a page whose batch request fails is reported and
can be retried by running the command again. Events whose detail lookup failed
are printed with the reason the service gave.

Examples:
  health-console details --pages 1-3
  health-console details --all --service RDS -o json`,
	RunE: runDetails,
}

func init() {
	rootCmd.AddCommand(detailsCmd)

	detailsFilters.register(detailsCmd)
	detailsCmd.Flags().StringVar(&detailsPages, "pages", "1", "Pages to load, e.g. 2 or 1-3 or 1,4")
	detailsCmd.Flags().BoolVar(&detailsAll, "all", false, "Load every page")
	detailsCmd.Flags().IntVar(&detailsParallel, "parallel", 4, "Pages loaded at the same time")
	addOutputFlag(detailsCmd, &detailsOutput)
}

func runDetails(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := stderrLogger("[details] ")

	env, err := newSessionEnv(GetConfig(), logger, sessionOptions{})
	if err != nil {
		return err
	}
	defer env.Close()

	sess := env.session
	detailsFilters.apply(sess)

	// Refresh loads page 1; a failure there is retried below with the rest.
	if _, err := sess.Refresh(ctx); err != nil {
		var fetchErr *health.DetailFetchError
		if !errors.As(err, &fetchErr) {
			msg, isError := dashboard.StatusLine(err)
			if !isError {
				fmt.Fprintln(cmd.OutOrStdout(), msg)
				return nil
			}
			return err
		}
	}

	total := sess.Snapshot().TotalPages()
	pages, err := parsePages(detailsPages, total)
	if err != nil {
		return err
	}
	if detailsAll {
		pages = pages[:0]
		for p := 1; p <= total; p++ {
			pages = append(pages, p)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	if detailsParallel > 0 {
		g.SetLimit(detailsParallel)
	}
	var failedPages []int
	failed := make(chan int, len(pages))
	for _, page := range pages {
		page := page
		g.Go(func() error {
			if _, err := sess.LoadPage(gctx, page); err != nil {
				var fetchErr *health.DetailFetchError
				if errors.As(err, &fetchErr) {
					logger.Printf("Failed to load details for page %d: %v", page, fetchErr.Err)
					failed <- page
					return nil
				}
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	close(failed)
	for p := range failed {
		failedPages = append(failedPages, p)
	}
	sort.Ints(failedPages)

	view := detailsView{Pages: pages, FailedPages: failedPages}
	snap := sess.Snapshot()
	for _, page := range pages {
		events, err := snap.PageEvents(page)
		if err != nil {
			return err
		}
		for _, ev := range events {
			view.Events = append(view.Events, newEventView(ev, snap, true))
		}
	}

	return render(cmd.OutOrStdout(), detailsOutput, view, func(w io.Writer) error {
		return printDetails(w, snap, view)
	})
}

type detailsView struct {
	Pages       []int       `json:"pages" yaml:"pages"`
	FailedPages []int       `json:"failed_pages,omitempty" yaml:"failed_pages,omitempty"`
	Events      []eventView `json:"events" yaml:"events"`
}

func printDetails(w io.Writer, snap *dashboard.Snapshot, view detailsView) error {
	for _, ev := range view.Events {
		fmt.Fprintf(w, "== %s\n", ev.EventArn)
		if ev.Failure != "" {
			fmt.Fprintf(w, "   Failure Reason: %s\n\n", ev.Failure)
			continue
		}
		d, ok := snap.Detail(ev.EventArn)
		if !ok {
			fmt.Fprintf(w, "   (details not loaded)\n\n")
			continue
		}
		for _, name := range d.FieldNames() {
			fmt.Fprintf(w, "   %s: %s\n", name, health.FormatValue(d.Fields[name]))
		}
		fmt.Fprintln(w)
	}
	if len(view.FailedPages) > 0 {
		_, err := fmt.Fprintf(w, "Pages that failed to load: %v\n", view.FailedPages)
		return err
	}
	return nil
}

// parsePages parses "2", "1-3" or "1,4-5" into sorted unique page numbers
// within [1, total].
func parsePages(spec string, total int) ([]int, error) {
	seen := make(map[int]bool)
	var out []int
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi := part, part
		if i := strings.Index(part, "-"); i >= 0 {
			lo, hi = part[:i], part[i+1:]
		}
		from, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("invalid page %q", part)
		}
		to, err := strconv.Atoi(strings.TrimSpace(hi))
		if err != nil {
			return nil, fmt.Errorf("invalid page %q", part)
		}
		if from > to {
			from, to = to, from
		}
		if from < 1 || to > total {
			return nil, fmt.Errorf("pages %s: %w (1-%d)", part, health.ErrInvalidPage, total)
		}
		for p := from; p <= to; p++ {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	sort.Ints(out)
	return out, nil
}
