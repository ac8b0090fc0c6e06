package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/GyroZepelix/thesis-archive/internal/database"
	"github.com/GyroZepelix/thesis-archive/internal/searchlog"
)

var searchLogCmd = &cobra.Command{
	Use:   "search-log",
	Short: "Show the most recent searches",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.DatabaseURL == "" {
			return errors.New("THESIS_DATABASE_URL is required")
		}
		catalog, _ := cmd.Flags().GetString("catalog")
		limit, _ := cmd.Flags().GetInt("limit")
		if limit < 1 {
			return fmt.Errorf("--limit must be positive, got %d", limit)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		db, err := database.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer db.Close()

		entries, err := searchlog.NewRepository(db.Pool()).Recent(ctx, catalog, limit)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME\tCATALOG\tSTRATEGY\tRESULTS\tMS\tQUERY")
		for _, e := range entries {
			query := ""
			if e.Query != nil {
				query = *e.Query
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
				e.CreatedAt.Format(time.RFC3339), e.Catalog, e.Strategy, e.Results, e.DurationMS, query)
		}
		return tw.Flush()
	},
}

func init() {
	searchLogCmd.Flags().String("catalog", "", "only show searches of this catalog (books or thesis)")
	searchLogCmd.Flags().Int("limit", 20, "maximum number of searches to show")
	rootCmd.AddCommand(searchLogCmd)
}
