package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ashfaaq98/health-console/internal/dashboard"
	"github.com/Ashfaaq98/health-console/internal/health"
)

var (
	summarizeAccount string
	summarizeTimeout time.Duration
	summarizeOutput  string
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize EVENT_ARN",
	Short: "Summarize one health event",
	Long: `Load the detail record of one event and ask the summarization backend to
explain it. The settled summary is recorded in the history database and
published on the event bus when Redis is configured.

Examples:
  health-console summarize arn:aws:health:us-east-1::event/EC2/AWS_EC2_INSTANCE_RETIREMENT_SCHEDULED/abc
  health-console summarize --summarizer llm --timeout 5m <arn>`,
	Args: cobra.ExactArgs(1),
	RunE: runSummarize,
}

func init() {
	rootCmd.AddCommand(summarizeCmd)

	summarizeCmd.Flags().StringVar(&summarizeAccount, "account", health.All, "Management account that owns the event")
	summarizeCmd.Flags().DurationVar(&summarizeTimeout, "timeout", 2*time.Minute, "How long to wait for the summary")
	addOutputFlag(summarizeCmd, &summarizeOutput)
}

type summaryView struct {
	EventArn string `json:"event_arn" yaml:"event_arn"`
	State    string `json:"state" yaml:"state"`
	Text     string `json:"text,omitempty" yaml:"text,omitempty"`
	Message  string `json:"message,omitempty" yaml:"message,omitempty"`
	Attempt  int    `json:"attempt" yaml:"attempt"`
}

func runSummarize(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := stderrLogger("[summarize] ")
	arn := args[0]

	env, err := newSessionEnv(GetConfig(), logger, sessionOptions{history: true, publish: true})
	if err != nil {
		return err
	}
	defer env.Close()

	sess := env.session
	f := health.DefaultFilter()
	f.ManagementAccount = summarizeAccount
	f.EventArn = arn
	sess.Filters().Replace(f)

	if _, err := sess.Refresh(ctx); err != nil {
		if errors.Is(err, health.ErrEmptyResult) {
			return fmt.Errorf("event %s not found in the allowed accounts", arn)
		}
		return err
	}

	if _, err := sess.Summarize(ctx, arn); err != nil {
		if errors.Is(err, health.ErrSummaryUnavailable) {
			reason, _ := sess.Snapshot().Failure(arn)
			return fmt.Errorf("%w: %s", err, reason)
		}
		return err
	}

	waitCtx, cancel := context.WithTimeout(ctx, summarizeTimeout)
	defer cancel()
	st, err := sess.Summaries().Wait(waitCtx, arn)
	if err != nil {
		return fmt.Errorf("summary for %s did not settle: %w", arn, err)
	}

	view := summaryView{EventArn: arn, State: st.State.String(), Text: st.Text, Message: st.Message, Attempt: st.Attempt}
	if err := render(cmd.OutOrStdout(), summarizeOutput, view, func(w io.Writer) error {
		return printSummary(w, st)
	}); err != nil {
		return err
	}
	return st.Err(arn)
}

func printSummary(w io.Writer, st dashboard.SummaryStatus) error {
	if st.State == dashboard.SummarySucceeded {
		if st.Text == "" {
			_, err := fmt.Fprintln(w, "(the summarization backend returned no Summary or Action)")
			return err
		}
		_, err := fmt.Fprintln(w, st.Text)
		return err
	}
	_, err := fmt.Fprintf(w, "Summary %s: %s\n", st.State, st.Message)
	return err
}
