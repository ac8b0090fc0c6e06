package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/GyroZepelix/thesis-archive/internal/schema"
)

var layoutsCmd = &cobra.Command{
	Use:   "layouts",
	Short: "Inspect the storage layouts",
}

var layoutsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every layout and its field mapping",
	RunE: func(cmd *cobra.Command, args []string) error {
		layouts, err := schema.LoadLayouts(cfg.LayoutDir)
		if err != nil {
			return err
		}

		names := make([]string, 0, len(layouts))
		for name := range layouts {
			names = append(names, name)
		}
		sort.Strings(names)

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, name := range names {
			l := layouts[name]
			fmt.Fprintf(tw, "%s\ttable=%s\tsearch_vector=%s\n", l.Name, l.Table, l.SearchVector)
			for _, c := range l.Columns {
				queryable := "sql"
				if !l.Queryable(c.Field) {
					queryable = "post-filter"
				}
				fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", c.Field, c.Name, c.Type, queryable)
			}
		}
		return tw.Flush()
	},
}

var layoutsValidateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Validate the embedded layouts merged with a directory of overrides",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := cfg.LayoutDir
		if len(args) == 1 {
			dir = args[0]
		}
		layouts, err := schema.LoadLayouts(dir)
		if err != nil {
			return err
		}
		for _, l := range layouts {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (hash %s)\n", l.Name, l.SchemaHash[:12])
		}
		return nil
	},
}

func init() {
	layoutsCmd.AddCommand(layoutsListCmd, layoutsValidateCmd)
	rootCmd.AddCommand(layoutsCmd)
}
