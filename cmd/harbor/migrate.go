package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the snapshot database schema to the latest version.

The database is selected by database.driver: "sqlite" (default, at
database.path) or "postgres" (at database.url).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			slog.Info("🗄️  Running database migrations...")

			// initStorage migrates on open
			store, err := initStorage(cmd.Context())
			if err != nil {
				return err
			}
			closeStorage(store)

			slog.Info("✅ Database migrations completed successfully!")
			return nil
		},
	}
}
