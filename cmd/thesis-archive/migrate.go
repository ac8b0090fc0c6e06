package main

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/GyroZepelix/thesis-archive/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the thesis tables",
	Long: `migrate applies the embedded SQL migrations that create thesis_tbl,
tblprofiles and tblthesis with their full-text search vectors. It is safe to
run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.DatabaseURL == "" {
			return errors.New("THESIS_DATABASE_URL is required")
		}
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			return err
		}
		slog.Info("migrations applied")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
