package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/Ashfaaq98/health-console/internal/bus"
	"github.com/Ashfaaq98/health-console/internal/dashboard"
	"github.com/Ashfaaq98/health-console/internal/llm"
	"github.com/Ashfaaq98/health-console/internal/metrics"
	"github.com/Ashfaaq98/health-console/internal/ui"
)

var (
	noTUI    bool
	forceTUI bool
	theme    string
	interval time.Duration
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the health events dashboard",
	Long: `Start the Health-Console dashboard which includes:

1. Terminal User Interface (TUI) with filters, paged event table and details
2. On-demand summaries of the selected event
3. History of refreshes and summaries in SQLite
4. Publication of page loads and summaries on Redis Streams
5. Prometheus metrics on --metrics-addr

The serve command runs until interrupted (Ctrl+C) or until you quit the TUI.
With the llm summarizer the settings file is watched and provider changes are
applied without a restart.

Examples:
  # Start with TUI (default)
  health-console serve --api https://abc.execute-api.us-east-1.amazonaws.com/prod --user alice

  # Start without TUI (headless mode), refreshing every 10 minutes
  health-console serve --no-tui --interval 10m --metrics-addr :9090`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&noTUI, "no-tui", false, "Run in headless mode without TUI")
	serveCmd.Flags().BoolVar(&forceTUI, "force-tui", false, "Force TUI mode even in unsupported terminals")
	serveCmd.Flags().StringVar(&theme, "theme", "dark", "TUI theme (dark, light, neon, high-contrast)")
	serveCmd.Flags().DurationVar(&interval, "interval", 5*time.Minute, "Refresh interval in headless mode")
	serveCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")

	viper.BindPFlag("metrics.addr", serveCmd.Flags().Lookup("metrics-addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	config := GetConfig()

	// Initialize logger - use file logging for TUI mode to keep terminal clean
	var logger *log.Logger
	willUseTUI := determineTUIMode(cmd, args)

	if willUseTUI {
		// Silent TUI mode: logs go to file, errors still visible on terminal
		logFile := setupFileLogger()
		if logFile != nil {
			logger = newLogger(io.MultiWriter(logFile, &errorFilterWriter{os.Stderr}), "[serve] ", config.Log.Level)
			defer logFile.Close()
		} else {
			// Fallback to stderr if file creation fails
			logger = newLogger(os.Stderr, "[serve] ", config.Log.Level)
		}
	} else {
		// Headless mode: normal stderr logging
		logger = newLogger(os.Stderr, "[serve] ", config.Log.Level)
	}

	logger.Println("Starting Health-Console dashboard")

	m := metrics.New()
	env, err := newSessionEnv(config, logger, sessionOptions{history: true, publish: true, recorder: m})
	if err != nil {
		return err
	}
	defer env.Close()

	// The UI exists only once the TUI starts; hooks fired before that have
	// nothing to redraw.
	var tui atomic.Pointer[ui.UI]
	env.sink.redraw = func() {
		if u := tui.Load(); u != nil {
			u.Redraw()
		}
	}

	svcCtx, svcCancel := context.WithCancel(ctx)
	defer svcCancel()
	services, svcCtx := errgroup.WithContext(svcCtx)

	if config.Metrics.Addr != "" {
		services.Go(func() error {
			logger.Printf("Serving metrics on %s", config.Metrics.Addr)
			if err := m.Serve(svcCtx, config.Metrics.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Printf("Metrics server failed: %v", err)
			}
			return nil
		})
	}
	if env.remote.summarizer != nil {
		services.Go(func() error {
			err := llm.WatchSettings(svcCtx, config.LLM.Settings, logger, func(s llm.Settings) {
				env.remote.applySettings(s, logger)
			})
			if err != nil && svcCtx.Err() == nil {
				logger.Printf("LLM settings watcher stopped: %v", err)
			}
			return nil
		})
	}

	warmUp(ctx, env, logger)

	if !noTUI {
		logger.Println("Starting TUI...")
		logger.Printf("Terminal info: %s", getTerminalInfo())

		// Test if TUI can be initialized (unless forced)
		if !forceTUI && !canInitializeTUI() {
			// Check if we can fix this with pseudo-TTY
			if needsPseudoTTY() {
				logger.Println("No TTY available, using script command for pseudo-TTY...")
				svcCancel()
				services.Wait()
				return runWithPseudoTTY(cmd, args)
			}
			logger.Println("TUI cannot be initialized in this terminal environment")
			logger.Println("Automatically switching to headless mode...")
			logger.Println("")
			logger.Println("Current alternatives:")
			logger.Println("  - CLI commands: health-console events, health-console details")
			logger.Println("  - Headless mode: health-console serve --no-tui")
			logger.Println("")
			noTUI = true
		} else {
			coord := ui.NewCoordinator(env.session, prefixed(logger, "[coord] "))
			u := ui.NewUI(ctx, coord, ui.Options{Theme: theme}, prefixed(logger, "[UI] "))
			tui.Store(u)
			err := u.Start(ctx)
			tui.Store(nil)
			if err != nil {
				svcCancel()
				services.Wait()
				return fmt.Errorf("TUI error: %w", err)
			}
			// Cancel service context when TUI exits to properly shut down background services
			logger.Println("TUI exited, cancelling background services...")
			svcCancel()
		}
	}

	if noTUI {
		logger.Println("Running in headless mode...")
		runHeadless(ctx, env, logger)
		logger.Println("Received shutdown signal")
		svcCancel()
	}

	services.Wait()
	logger.Println("Health-Console dashboard stopped")
	return nil
}

// warmUp loads the allowed accounts, reports the bus streams and checks the
// LLM provider in parallel before the first refresh. Failures are only
// logged; the dashboard reports them again when the operator refreshes.
func warmUp(ctx context.Context, env *sessionEnv, logger *log.Logger) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		accounts, err := env.session.RefreshAccounts(gctx)
		if err != nil {
			logger.Printf("Failed to load allowed accounts: %v", err)
			return nil
		}
		logger.Printf("User %s may query %d accounts", env.session.UserID(), len(accounts))
		return nil
	})
	if bus.Enabled(env.bus) {
		g.Go(func() error {
			st, err := env.bus.Stats(gctx)
			if err != nil {
				logger.Printf("Failed to read bus stats: %v", err)
				return nil
			}
			for name, ss := range st.Streams {
				logger.Printf("Stream %s holds %d entries (%d consumer groups)", name, ss.Length, ss.ConsumerGroups)
			}
			return nil
		})
	}
	if s := env.remote.summarizer; s != nil {
		g.Go(func() error {
			hctx, cancel := context.WithTimeout(gctx, 5*time.Second)
			defer cancel()
			if err := llm.TryHealthCheck(hctx, s.Provider()); err != nil {
				logger.Printf("LLM provider health check failed: %v", err)
			}
			return nil
		})
	}
	g.Wait()
}

// runHeadless refreshes the event list and loads every page on each tick
// until ctx is done, so that history, bus and metrics keep flowing without a
// terminal.
func runHeadless(ctx context.Context, env *sessionEnv, logger *log.Logger) {
	refresh := func() {
		events, err := env.session.Refresh(ctx)
		if err != nil {
			msg, isError := dashboard.StatusLine(err)
			if isError {
				logger.Printf("Refresh failed: %s", msg)
			} else {
				logger.Printf("%s", msg)
			}
			if len(events) == 0 {
				return
			}
		}
		total := env.session.Snapshot().TotalPages()
		for page := 2; page <= total; page++ {
			if _, err := env.session.LoadPage(ctx, page); err != nil {
				msg, _ := dashboard.StatusLine(err)
				logger.Printf("%s", msg)
			}
		}
		details, failures := env.session.Snapshot().Counts()
		logger.Printf("Refreshed %d events in %d pages (%d details, %d failures)", len(events), total, details, failures)
	}

	refresh()
	if interval <= 0 {
		<-ctx.Done()
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh()
		}
	}
}

// runWithPseudoTTY re-executes the command using script for pseudo-TTY
func runWithPseudoTTY(cmd *cobra.Command, args []string) error {
	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	// Re-run with the flags that were set plus --force-tui
	cmdArgs := []string{"serve"}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		cmdArgs = append(cmdArgs, "--"+f.Name+"="+f.Value.String())
	})
	if !forceTUI {
		cmdArgs = append(cmdArgs, "--force-tui")
	}
	cmdArgs = append(cmdArgs, args...)

	quoted := make([]string, len(cmdArgs))
	for i, arg := range cmdArgs {
		quoted[i] = fmt.Sprintf("%q", arg)
	}
	fullCmd := fmt.Sprintf("TERM=%s %q %s", os.Getenv("TERM"), executable, strings.Join(quoted, " "))

	scriptCmd := exec.CommandContext(cmd.Context(), "script", "-qec", fullCmd, "/dev/null")
	scriptCmd.Stdin = os.Stdin
	scriptCmd.Stdout = os.Stdout
	scriptCmd.Stderr = os.Stderr
	scriptCmd.Env = os.Environ()
	return scriptCmd.Run()
}

// determineTUIMode determines if TUI will be used (extracted for logging setup)
func determineTUIMode(cmd *cobra.Command, args []string) bool {
	if noTUI {
		return false
	}
	if !forceTUI && !canInitializeTUI() {
		// A pseudo-TTY re-run still ends up in the TUI
		return needsPseudoTTY()
	}
	return true
}

// setupFileLogger creates a log file for TUI mode
func setupFileLogger() *os.File {
	logDir := filepath.Join(getWorkingDir(), "data", "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		// If we can't create logs directory, we'll fall back to stderr
		return nil
	}

	logPath := filepath.Join(logDir, "health-console.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil
	}
	return logFile
}

// errorFilterWriter only writes error messages to the underlying writer
type errorFilterWriter struct {
	writer io.Writer
}

func (w *errorFilterWriter) Write(p []byte) (n int, err error) {
	lc := strings.ToLower(string(p))

	// Cancelled requests are expected when the operator quits mid-refresh
	if strings.Contains(lc, "context canceled") {
		return len(p), nil
	}

	if strings.Contains(lc, "error") ||
		strings.Contains(lc, "failed") ||
		strings.Contains(lc, "panic") {
		return w.writer.Write(p)
	}
	// Suppress non-error logs
	return len(p), nil
}

// getExecutableDir returns the directory of the running executable.
// Falls back to current directory on error.
func getExecutableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// getWorkingDir returns the current working directory.
// Falls back to executable directory if os.Getwd fails.
func getWorkingDir() string {
	if wd, err := os.Getwd(); err == nil && wd != "" {
		return wd
	}
	return getExecutableDir()
}

// resolvePathRelativeToBase resolves a possibly relative path against a base directory.
// Absolute paths are returned unchanged.
func resolvePathRelativeToBase(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	p = strings.TrimPrefix(p, "./")
	return filepath.Join(base, p)
}
