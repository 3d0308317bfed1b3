package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/safe-harbor/internal/cli"
	"github.com/Veraticus/safe-harbor/internal/common"
	"github.com/Veraticus/safe-harbor/internal/service"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Manage saved compliance snapshots",
		Long: `Snapshots are point-in-time copies of an analysis, saved with --save.
They are records only; every analysis recomputes from the rent roll.`,
	}

	cmd.AddCommand(historyListCmd())
	cmd.AddCommand(historyShowCmd())
	cmd.AddCommand(historyDeleteCmd())

	return cmd
}

func historyListCmd() *cobra.Command {
	filter := service.SnapshotFilter{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStorage(store)

			return listHistory(ctx, cmd.OutOrStdout(), store, filter)
		},
	}

	cmd.Flags().StringVarP(&filter.PropertyName, "property", "p", "", "only show snapshots for this property")
	cmd.Flags().IntVarP(&filter.Limit, "limit", "n", 20, "maximum number of snapshots (0 for all)")

	return cmd
}

func listHistory(ctx context.Context, out io.Writer, store service.Storage, filter service.SnapshotFilter) error {
	snapshots, err := store.ListSnapshots(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}
	return cli.RenderSnapshots(out, snapshots)
}

func historyShowCmd() *cobra.Command {
	var jsonOut, showUnits bool

	cmd := &cobra.Command{
		Use:   "show <snapshot-id>",
		Short: "Show a saved snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStorage(store)

			return showSnapshot(ctx, cmd.OutOrStdout(), store, args[0], jsonOut, showUnits)
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the snapshot as JSON")
	cmd.Flags().BoolVar(&showUnits, "show-units", false, "include the per-unit classification table")

	return cmd
}

func showSnapshot(ctx context.Context, out io.Writer, store service.Storage, id string, jsonOut, showUnits bool) error {
	snap, err := store.GetSnapshot(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.NewUserError("no snapshot with ID "+id, err)
		}
		return err
	}

	if jsonOut {
		return writeJSON(out, snap)
	}

	_, _ = fmt.Fprintln(out, cli.SubtleStyle.Render(fmt.Sprintf("Snapshot %s, analyzed %s",
		snap.ID, snap.AnalyzedAt.Local().Format("2006-01-02 15:04"))))
	return cli.RenderResult(out, snap.Result, cli.ReportOptions{
		Title:     snap.PropertyName,
		Area:      snap.Area,
		Year:      snap.Year,
		ShowUnits: showUnits,
	})
}

func historyDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <snapshot-id>",
		Short: "Delete a saved snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStorage(store)

			if err := store.DeleteSnapshot(ctx, args[0]); err != nil {
				if errors.Is(err, common.ErrNotFound) {
					return common.NewUserError("no snapshot with ID "+args[0], err)
				}
				return err
			}
			slog.Info("Deleted snapshot", "id", args[0])
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted snapshot "+args[0]))
			return nil
		},
	}
}
