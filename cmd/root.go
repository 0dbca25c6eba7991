package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Ashfaaq98/health-console/internal/health"
)

var (
	cfgFile  string
	dbPath   string
	redisURL string
	logLevel string
	apiURL   string
	userID   string
	backend  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "health-console",
	Short: "Terminal-first console for cloud health events",
	Long: `Health-Console is a terminal-first operator console for cloud health events.
It lists the events of the accounts you may query, loads their details page by
page and asks a summarization backend to explain what each event means.

Features:
- Filterable, paginated event list across member accounts
- Per-event details with inline failure reasons
- On-demand AI summaries (remote API or a local/cloud LLM)
- SQLite history of refreshes and summaries
- Redis Streams publication of settled summaries and page loads`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.health-console.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "./data/health-console.db", "SQLite database path")
	rootCmd.PersistentFlags().StringVar(&redisURL, "redis", "", "Redis connection URL (empty disables the bus and the Redis cache)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "Base URL of the health data API")
	rootCmd.PersistentFlags().StringVar(&userID, "user", "", "User ID whose allowed accounts are queried")
	rootCmd.PersistentFlags().StringVar(&backend, "summarizer", "api", "Summarization backend (api, llm)")

	// Bind flags to viper
	viper.BindPFlag("database.path", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("redis.url", rootCmd.PersistentFlags().Lookup("redis"))
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("api.endpoint", rootCmd.PersistentFlags().Lookup("api"))
	viper.BindPFlag("user.id", rootCmd.PersistentFlags().Lookup("user"))
	viper.BindPFlag("summarizer.backend", rootCmd.PersistentFlags().Lookup("summarizer"))
}

// initConfig reads in .env, the config file and ENV variables if set.
func initConfig() {
	// .env only fills variables that are not already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "Ignoring .env:", err)
	}

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".health-console" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".health-console")
	}

	// HEALTH_CONSOLE_API_ENDPOINT overrides api.endpoint, and so on
	viper.SetEnvPrefix("HEALTH_CONSOLE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	// Set defaults
	viper.SetDefault("api.timeout", "60s")
	viper.SetDefault("accounts.cross_account_role", health.DefaultCrossAccountRole)
	viper.SetDefault("summarizer.backend", "api")
	viper.SetDefault("llm.settings", "config/llm_settings.json")
	viper.SetDefault("database.path", "./data/health-console.db")
	viper.SetDefault("cache.enabled", false)
	viper.SetDefault("cache.ttl", "5m")
	viper.SetDefault("cache.size", 1000)
	viper.SetDefault("metrics.addr", "")
	viper.SetDefault("log.level", "info")
}

// GetConfig returns the current configuration values
func GetConfig() Config {
	return Config{
		API: APIConfig{
			Endpoint: viper.GetString("api.endpoint"),
			Timeout:  viper.GetDuration("api.timeout"),
		},
		User: UserConfig{
			ID: viper.GetString("user.id"),
		},
		Accounts: AccountsConfig{
			CrossAccountRole: viper.GetString("accounts.cross_account_role"),
		},
		Summarizer: SummarizerConfig{
			Backend: strings.ToLower(strings.TrimSpace(viper.GetString("summarizer.backend"))),
			ModelID: viper.GetString("summarizer.model_id"),
		},
		LLM: LLMConfig{
			Settings: viper.GetString("llm.settings"),
		},
		Database: DatabaseConfig{
			Path: viper.GetString("database.path"),
		},
		Redis: RedisConfig{
			URL: viper.GetString("redis.url"),
		},
		Cache: CacheConfig{
			Enabled: viper.GetBool("cache.enabled"),
			TTL:     viper.GetDuration("cache.ttl"),
			Size:    viper.GetInt("cache.size"),
		},
		Metrics: MetricsConfig{
			Addr: viper.GetString("metrics.addr"),
		},
		Log: LogConfig{
			Level: strings.ToLower(viper.GetString("log.level")),
		},
	}
}

// Config represents the application configuration
type Config struct {
	API        APIConfig        `mapstructure:"api"`
	User       UserConfig       `mapstructure:"user"`
	Accounts   AccountsConfig   `mapstructure:"accounts"`
	Summarizer SummarizerConfig `mapstructure:"summarizer"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Log        LogConfig        `mapstructure:"log"`
}

type APIConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type UserConfig struct {
	ID string `mapstructure:"id"`
}

type AccountsConfig struct {
	CrossAccountRole string `mapstructure:"cross_account_role"`
}

type SummarizerConfig struct {
	Backend string `mapstructure:"backend"` // "api" | "llm"
	ModelID string `mapstructure:"model_id"`
}

type LLMConfig struct {
	Settings string `mapstructure:"settings"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
	Size    int           `mapstructure:"size"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// validate checks what every command that talks to the backend needs.
func (c Config) validate() error {
	if strings.TrimSpace(c.API.Endpoint) == "" {
		return fmt.Errorf("api endpoint is not set (use --api or HEALTH_CONSOLE_API_ENDPOINT)")
	}
	if strings.TrimSpace(c.User.ID) == "" {
		return fmt.Errorf("user id is not set (use --user or HEALTH_CONSOLE_USER_ID)")
	}
	switch c.Summarizer.Backend {
	case "", "api", "llm":
	default:
		return fmt.Errorf("unknown summarizer backend %q (want api or llm)", c.Summarizer.Backend)
	}
	return nil
}
