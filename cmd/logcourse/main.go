package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/nvandessel/logcourse/internal/config"
	"github.com/nvandessel/logcourse/internal/logging"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "logcourse",
		Short: "Synthetic log data for the Splunk Fundamentals course",
		Long: `logcourse generates the web access, database audit and Linux security
datasets used by the course labs, and validates the course tree.

Every run is recorded in <output-dir>/.logcourse/manifest.db so it can be
listed and verified later.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.logcourse/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: trace, debug, info, warn, error")

	rootCmd.AddCommand(
		newVersionCmd(),
		newGenerateCmd(),
		newValidateCmd(),
		newRunsCmd(),
		newVerifyCmd(),
		newConfigCmd(),
	)

	return rootCmd
}

// loadConfig resolves configuration from --config (or the default file),
// the environment and --log-level, in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadWithFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	return logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
}

// errValidationFailed signals a non-zero exit after the report was printed.
var errValidationFailed = errors.New("course validation failed")

// errVerifyFailed signals that at least one dataset no longer matches its manifest entry.
var errVerifyFailed = errors.New("dataset verification failed")
