package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var accountsOutput string

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List the accounts the user may query",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := stderrLogger("[accounts] ")
		env, err := newSessionEnv(GetConfig(), logger, sessionOptions{})
		if err != nil {
			return err
		}
		defer env.Close()

		accounts, err := env.session.RefreshAccounts(cmd.Context())
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), accountsOutput, accounts, func(w io.Writer) error {
			if len(accounts) == 0 {
				_, err := fmt.Fprintf(w, "No accounts are registered for user %s\n", env.session.UserID())
				return err
			}
			for _, id := range accounts {
				fmt.Fprintln(w, id)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(accountsCmd)
	addOutputFlag(accountsCmd, &accountsOutput)
}
