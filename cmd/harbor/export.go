package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/safe-harbor/internal/cli"
	"github.com/Veraticus/safe-harbor/internal/config"
	"github.com/Veraticus/safe-harbor/internal/service"
	"github.com/Veraticus/safe-harbor/internal/sheets"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <snapshot-id>",
		Short: "Export a saved snapshot to Google Sheets",
		Long: `Write a saved snapshot's summary, threshold verdicts, recommendations and
per-unit classification to a Google Sheets spreadsheet.

Authenticate first with 'harbor auth sheets' or configure a service account
under sheets.service_account_path.`,
		Args: cobra.ExactArgs(1),
		RunE: runExport,
	}

	cmd.Flags().String("spreadsheet-id", "", "write to an existing spreadsheet instead of creating one")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	sheetsCfg, err := config.LoadSheetsConfig()
	if err != nil {
		return fmt.Errorf("google sheets is not configured: %w", err)
	}
	if id, _ := cmd.Flags().GetString("spreadsheet-id"); id != "" {
		sheetsCfg.SpreadsheetID = id
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer closeStorage(store)

	writer, err := sheets.NewWriter(ctx, *sheetsCfg, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create sheets writer: %w", err)
	}

	return exportSnapshot(ctx, cmd.OutOrStdout(), store, writer, args[0])
}

func exportSnapshot(ctx context.Context, out io.Writer, store service.Storage, writer service.ReportWriter, id string) error {
	snap, err := store.GetSnapshot(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	if err := writer.Write(ctx, snap); err != nil {
		return fmt.Errorf("failed to export snapshot: %w", err)
	}

	_, _ = fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Exported %s snapshot %s", snap.PropertyName, snap.ID)))
	return nil
}
