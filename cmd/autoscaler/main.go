package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/OldStager01/throughput-autoscaler/internal/logger"
	"github.com/OldStager01/throughput-autoscaler/pkg/config"
)

// Version information (set at build time with -ldflags)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// errRunFailed marks a run that finished with at least one failed axis. The
// result has already been printed, so main only sets the exit status.
var errRunFailed = errors.New("run failed")

var configPath string

var rootCmd = &cobra.Command{
	Use:           "autoscaler",
	Short:         "Adjusts DynamoDB read/write capacity bounds from recent consumption",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(hashPasswordCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "autoscaler %s\n", Version)
		if BuildTime != "unknown" {
			fmt.Fprintf(out, "Built: %s\n", BuildTime)
		}
		if GitCommit != "unknown" {
			fmt.Fprintf(out, "Commit: %s\n", GitCommit)
		}
	},
}

// loadConfig reads and validates the configuration and sets up logging
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger.Setup(cfg.App.LogLevel, cfg.App.Mode)
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errRunFailed) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}
