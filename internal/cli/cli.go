package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/YOSHITATSU-1998/event-notify/internal/config"
)

var (
	cfgFile string
	log     = logrus.New()
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// NewRootCmd creates the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event-notify",
		Short: "Aggregate Fukuoka venue event listings into one synced feed",
		Long: `event-notify scrapes event listings from the tracked Fukuoka venues,
normalizes them into canonical records, captures per-venue snapshots, and
reconciles the result against the persistent event store without touching
manually curated entries.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.event-notify.yaml)")
	cmd.PersistentFlags().String("storage-dir", config.DefaultStorageDir, "directory for snapshots, manual entries, and the run lock")
	cmd.PersistentFlags().String("db", "", "path to the SQLite events database (default: <storage-dir>/events.db)")
	cmd.PersistentFlags().String("loglevel", "info", "log level: debug, info, warn, error")

	cobra.OnInitialize(initConfig)

	cmd.AddCommand(newRefreshCmd())
	cmd.AddCommand(newScrapeCmd())
	cmd.AddCommand(newManualCmd())
	cmd.AddCommand(newEventsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the event-notify version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("event-notify", Version)
		},
	}
}

// Execute runs the CLI.
func Execute() {
	cmd := NewRootCmd()
	bindFlags(cmd)
	if err := cmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func bindFlags(cmd *cobra.Command) {
	viper.BindPFlag("storage_dir", cmd.PersistentFlags().Lookup("storage-dir"))
	viper.BindPFlag("db_path", cmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("loglevel", cmd.PersistentFlags().Lookup("loglevel"))
}

// initConfig reads the config file and environment.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".event-notify")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("EVENT_NOTIFY")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("storage_dir", config.DefaultStorageDir)
	viper.SetDefault("db_path", "")
	viper.SetDefault("store_enabled", true)
	viper.SetDefault("window_months", config.DefaultWindowMonths)
	viper.SetDefault("fetch_timeout", config.DefaultFetchTimeout.String())
	viper.SetDefault("loglevel", "info")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "reading config: %v\n", err)
		}
	}

	setLogLevel(viper.GetString("loglevel"))
}

func setLogLevel(level string) {
	switch strings.ToLower(level) {
	case "debug":
		log.SetLevel(logrus.DebugLevel)
	case "info":
		log.SetLevel(logrus.InfoLevel)
	case "warning", "warn":
		log.SetLevel(logrus.WarnLevel)
	case "error":
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}
}

// resolveConfig materializes the run configuration from viper state.
func resolveConfig() config.Config {
	cfg := config.Config{
		StorageDir:   viper.GetString("storage_dir"),
		DBPath:       viper.GetString("db_path"),
		StoreEnabled: viper.GetBool("store_enabled"),
		WindowMonths: viper.GetInt("window_months"),
		LogLevel:     viper.GetString("loglevel"),
	}
	if d, err := time.ParseDuration(viper.GetString("fetch_timeout")); err == nil {
		cfg.FetchTimeout = d
	} else {
		cfg.FetchTimeout = config.DefaultFetchTimeout
	}
	return cfg
}
