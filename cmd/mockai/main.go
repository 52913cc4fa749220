package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/suPer8Hu/mockai/internal/config"
	"github.com/suPer8Hu/mockai/internal/telemetry"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func newRootCmd() *cobra.Command {
	var (
		logLevel  string
		logCloser io.Closer
	)

	cmd := &cobra.Command{
		Use:   "mockai",
		Short: "OpenAI-compatible chat API that answers without a model",
		Long: "mockai serves /v1/models and /v1/chat/completions with canned, rule-based " +
			"replies so OpenAI clients can be developed and tested offline.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			closer, err := telemetry.SetupLogging(telemetry.LogOptions{
				Level:  cfg.LogLevel,
				Format: cfg.LogFormat,
				File:   cfg.LogFile,
			})
			if err != nil {
				return fmt.Errorf("logging: %w", err)
			}
			logCloser = closer
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if logCloser != nil {
				return logCloser.Close()
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newWorkerCmd())
	cmd.AddCommand(newPurgeCmd())
	cmd.AddCommand(newModelsCmd())
	cmd.AddCommand(newTokenCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mockai %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
