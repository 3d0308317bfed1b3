package main

import (
	"github.com/spf13/cobra"

	"github.com/Veraticus/safe-harbor/internal/cli"
)

func limitsCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "limits",
		Short: "Show the income limit table in use",
		Long: `Print the income limits by household size for the configured area.

The table comes from income_limits.file, or is derived from
income_limits.median, or is the built-in default table.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, table, err := newEngine()
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"area": table.Area(),
					"year": table.Year(),
					"rows": table.Rows(),
				})
			}
			return cli.RenderLimits(cmd.OutOrStdout(), table)
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the table as JSON")
	return cmd
}
