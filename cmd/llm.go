package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ashfaaq98/health-console/internal/llm"
)

var (
	llmOutput   string
	llmProvider string
	llmModel    string
	llmEndpoint string
	llmAPIKey   string
	llmMaxTok   int
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect and switch the LLM summarizer settings",
	Long: `Manage the settings file used by --summarizer llm. A running serve picks up
changes written by "llm use" without a restart.`,
}

var llmShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the active LLM settings (the API key is masked)",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := llm.LoadSettings(GetConfig().LLM.Settings)
		if err != nil {
			return err
		}
		if s.Active.APIKey != "" {
			s.Active.APIKey = "********"
		}
		return render(cmd.OutOrStdout(), llmOutput, s, func(w io.Writer) error {
			fmt.Fprintf(w, "provider:    %s\n", s.Active.Provider)
			fmt.Fprintf(w, "endpoint:    %s\n", s.Active.Endpoint)
			fmt.Fprintf(w, "model:       %s\n", s.Active.Model)
			fmt.Fprintf(w, "max tokens:  %d\n", s.MaxTokens)
			_, err := fmt.Fprintf(w, "temperature: %.2f\n", s.Temperature)
			return err
		})
	},
}

var llmModelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models the configured provider offers",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := activeProvider()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()
		models, err := llm.TryListModels(ctx, p)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), llmOutput, models, func(w io.Writer) error {
			for _, m := range models {
				fmt.Fprintln(w, m)
			}
			return nil
		})
	},
}

var llmCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the configured provider is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := activeProvider()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()
		if err := llm.TryHealthCheck(ctx, p); err != nil {
			return fmt.Errorf("%s: %w", p.Name(), err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is ready\n", p.Name())
		return nil
	},
}

var llmUseCmd = &cobra.Command{
	Use:   "use",
	Short: "Select a provider and model and save them to the settings file",
	Example: `  health-console llm use --provider ollama --model llama3.2:3b
  health-console llm use --provider openrouter --model anthropic/claude-3.5-sonnet --api-key sk-...`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := GetConfig().LLM.Settings
		s, err := llm.LoadSettings(path)
		if err != nil {
			return err
		}
		next := updatedSettings(s, cmd)
		// validate before touching the file a running console watches
		if _, err := llm.Build(next.Active, stderrLogger("[llm] ")); err != nil {
			return err
		}
		if err := llm.SaveSettings(path, next); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s/%s to %s\n", next.Active.Provider, next.Active.Model, path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(llmCmd)
	llmCmd.AddCommand(llmShowCmd, llmModelsCmd, llmCheckCmd, llmUseCmd)

	addOutputFlag(llmShowCmd, &llmOutput)
	addOutputFlag(llmModelsCmd, &llmOutput)
	llmUseCmd.Flags().StringVar(&llmProvider, "provider", "", "Provider (ollama, openrouter)")
	llmUseCmd.Flags().StringVar(&llmModel, "model", "", "Model name")
	llmUseCmd.Flags().StringVar(&llmEndpoint, "endpoint", "", "Provider endpoint (defaults per provider)")
	llmUseCmd.Flags().StringVar(&llmAPIKey, "api-key", "", "API key for cloud providers")
	llmUseCmd.Flags().IntVar(&llmMaxTok, "max-tokens", 0, "Summary token limit")
}

func activeProvider() (llm.Provider, error) {
	s, err := llm.LoadSettings(GetConfig().LLM.Settings)
	if err != nil {
		return nil, err
	}
	return llm.Build(s.Active, stderrLogger("[llm] "))
}

// updatedSettings applies the flags that were set on cmd to s. Switching
// provider resets the endpoint and model unless they are given as well.
func updatedSettings(s llm.Settings, cmd *cobra.Command) llm.Settings {
	flags := cmd.Flags()
	if flags.Changed("provider") && llmProvider != s.Active.Provider {
		s.Active = llm.ProviderConfig{Provider: llmProvider, APIKey: s.Active.APIKey}
	}
	if flags.Changed("endpoint") {
		s.Active.Endpoint = llmEndpoint
	}
	if flags.Changed("model") {
		s.Active.Model = llmModel
	}
	if flags.Changed("api-key") {
		s.Active.APIKey = llmAPIKey
	}
	if flags.Changed("max-tokens") {
		s.MaxTokens = llmMaxTok
	}
	return llm.Normalize(s)
}
