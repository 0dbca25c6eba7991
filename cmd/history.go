package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ashfaaq98/health-console/internal/store"
)

var (
	historyLimit  int
	historyArn    string
	historyKeep   int
	historyOutput string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the refresh and summary history",
	Long: `The serve, events --save and summarize commands record every refreshed event
list and every settled summary in the SQLite database. These subcommands read
that history back.`,
}

var historySummariesCmd = &cobra.Command{
	Use:   "summaries",
	Short: "List recorded summaries, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openHistory()
		if err != nil {
			return err
		}
		defer st.Close()

		recs, err := st.ListSummaries(cmd.Context(), historyArn, historyLimit)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), historyOutput, recs, func(w io.Writer) error {
			if len(recs) == 0 {
				_, err := fmt.Fprintln(w, "No summaries recorded")
				return err
			}
			for _, r := range recs {
				fmt.Fprintf(w, "%s  %s  attempt %d  %s\n", r.CreatedAt.Format(time.RFC3339), r.State, r.Attempt, r.EventArn)
				if r.State == "failed" {
					fmt.Fprintf(w, "  %s\n\n", r.Message)
					continue
				}
				fmt.Fprintf(w, "  %s\n\n", strings.ReplaceAll(r.Text, "\n", "\n  "))
			}
			return nil
		})
	},
}

var historySnapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List recorded event list refreshes of the current user",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		st, err := openHistory()
		if err != nil {
			return err
		}
		defer st.Close()

		snaps, err := st.ListSnapshots(cmd.Context(), cfg.User.ID, historyLimit)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), historyOutput, snaps, func(w io.Writer) error {
			return printSnapshots(w, snaps)
		})
	},
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all but the newest snapshots of the current user",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if historyKeep < 0 {
			return fmt.Errorf("--keep must not be negative")
		}
		st, err := openHistory()
		if err != nil {
			return err
		}
		defer st.Close()

		n, err := st.PruneSnapshots(cmd.Context(), cfg.User.ID, historyKeep)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d snapshots\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historySummariesCmd, historySnapshotsCmd, historyPruneCmd)

	historyCmd.PersistentFlags().IntVar(&historyLimit, "limit", 20, "Maximum number of records (0 for all)")
	addOutputFlag(historySummariesCmd, &historyOutput)
	addOutputFlag(historySnapshotsCmd, &historyOutput)
	historySummariesCmd.Flags().StringVar(&historyArn, "arn", "", "Only summaries of this event")
	historyPruneCmd.Flags().IntVar(&historyKeep, "keep", 50, "Snapshots to keep")
}

func openHistory() (*store.Store, error) {
	cfg := GetConfig()
	path := resolvePathRelativeToBase(getWorkingDir(), cfg.Database.Path)
	st, err := store.NewStore(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history at %s: %w", path, err)
	}
	return st, nil
}

func printSnapshots(w io.Writer, snaps []store.Snapshot) error {
	if len(snaps) == 0 {
		_, err := fmt.Fprintln(w, "No snapshots recorded")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CREATED\tEVENTS\tACCOUNTS\tFILTER\tID")
	for _, s := range snaps {
		var filter []string
		for k, vs := range s.Filter {
			filter = append(filter, k+"="+strings.Join(vs, "|"))
		}
		if len(filter) == 0 {
			filter = []string{"-"}
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n",
			s.CreatedAt.Format(time.RFC3339), s.EventCount, strings.Join(s.Accounts, ","),
			strings.Join(filter, " "), s.ID)
	}
	return tw.Flush()
}
