// Package main is the entrypoint for the thesis archive server and its
// maintenance commands.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/GyroZepelix/thesis-archive/internal/config"
)

// cfg is loaded once before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "thesis-archive",
	Short: "University thesis repository search API",
	Long: `thesis-archive serves the search API of a university thesis repository.
Records live in PostgreSQL under one of two table layouts; both are searched
through the same query composer.

Configuration is read from THESIS_* environment variables, optionally seeded
from a .env file in the working directory.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		setupLogging(cfg.DevMode)
	},
}

// setupLogging installs a JSON slog handler as the default logger.
func setupLogging(devMode bool) {
	logLevel := slog.LevelInfo
	if devMode {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
