package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Ashfaaq98/health-console/internal/bus"
)

var (
	watchGroup  string
	watchOutput string
	watchStats  bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow settled summaries published by other consoles",
	Long: `Consume the health:summaries Redis stream and print every settled summary as
it arrives. Consoles started with the same --group share the stream; each
message is delivered to one of them.

Requires --redis (or HEALTH_CONSOLE_REDIS_URL).`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchGroup, "group", "health-console-watch", "Consumer group name")
	watchCmd.Flags().BoolVar(&watchStats, "stats", false, "Print stream statistics and exit")
	addOutputFlag(watchCmd, &watchOutput)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := GetConfig()
	logger := stderrLogger("[watch] ")

	if cfg.Redis.URL == "" {
		return fmt.Errorf("watch needs a Redis URL (use --redis or HEALTH_CONSOLE_REDIS_URL)")
	}
	b := bus.NewBus(cfg.Redis.URL, logger)
	defer b.Close()
	if !bus.Enabled(b) {
		return fmt.Errorf("redis at %s is not reachable", cfg.Redis.URL)
	}

	out := cmd.OutOrStdout()
	if watchStats {
		st, err := b.Stats(ctx)
		if err != nil {
			return err
		}
		return render(out, watchOutput, st, func(w io.Writer) error {
			return printBusStats(w, st)
		})
	}

	consumer := "watch-" + uuid.NewString()[:8]
	logger.Printf("Following %s as %s/%s", bus.StreamSummaries, watchGroup, consumer)

	err := b.ReadSummaries(ctx, watchGroup, consumer, func(ctx context.Context, msg bus.SummaryMessage) error {
		return render(out, watchOutput, msg, func(w io.Writer) error {
			return printSummaryMessage(w, msg)
		})
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func printSummaryMessage(w io.Writer, msg bus.SummaryMessage) error {
	at := time.Unix(msg.Timestamp, 0).Format(time.RFC3339)
	fmt.Fprintf(w, "%s  %s  %s  (user %s, attempt %d)\n", at, msg.State, msg.EventArn, msg.UserID, msg.Attempt)
	body := msg.Text
	if msg.State == "failed" {
		body = msg.Message
	}
	_, err := fmt.Fprintf(w, "  %s\n\n", strings.ReplaceAll(body, "\n", "\n  "))
	return err
}

func printBusStats(w io.Writer, st bus.Stats) error {
	if len(st.Streams) == 0 {
		_, err := fmt.Fprintln(w, "No messages published yet")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STREAM\tLENGTH\tGROUPS\tLAST ID")
	for _, name := range []string{bus.StreamSummaries, bus.StreamPages} {
		if ss, ok := st.Streams[name]; ok {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", name, ss.Length, ss.ConsumerGroups, ss.LastEntryID)
		}
	}
	return tw.Flush()
}
