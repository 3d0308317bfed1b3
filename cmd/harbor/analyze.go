package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/safe-harbor/internal/cli"
	"github.com/Veraticus/safe-harbor/internal/compliance"
	"github.com/Veraticus/safe-harbor/internal/incomelimits"
	"github.com/Veraticus/safe-harbor/internal/model"
	"github.com/Veraticus/safe-harbor/internal/service"
)

type analyzeOptions struct {
	property   string
	totalUnits int
	save       bool
	jsonOut    bool
	showUnits  bool
}

func analyzeCmd() *cobra.Command {
	opts := analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze <rent-roll.csv>",
		Short: "Check one property against the Safe Harbor thresholds",
		Long: `Classify every household in a rent roll against the configured AMI limits
and decide whether the property is Safe Harbor compliant.

The rent roll is a CSV with the columns produced by 'harbor template'.
Use "-" to read it from standard input.

Vacant or unreported units can be included with --total-units; they count
as market rate because their income cannot be verified.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.property, "property", "p", "", "property name (default: derived from the file name)")
	cmd.Flags().IntVar(&opts.totalUnits, "total-units", 0, "total units in the property, including units without income data")
	cmd.Flags().BoolVar(&opts.save, "save", false, "save a snapshot of the result to history")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&opts.showUnits, "show-units", false, "include the per-unit classification table")

	return cmd
}

func runAnalyze(cmd *cobra.Command, path string, opts analyzeOptions) error {
	ctx := cmd.Context()

	engine, table, err := newEngine()
	if err != nil {
		return err
	}

	var store service.Storage
	if opts.save {
		store, err = initStorage(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		defer closeStorage(store)
	}

	return analyzeRentRoll(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), engine, table, store, path, opts)
}

// analyzeRentRoll runs a single-property analysis and renders it. A nil store skips saving.
func analyzeRentRoll(ctx context.Context, in io.Reader, out io.Writer, engine *compliance.Engine,
	table *incomelimits.Table, store service.Storage, path string, opts analyzeOptions) error {
	records, err := loadRentRoll(path, in)
	if err != nil {
		return err
	}

	property := opts.property
	if property == "" {
		property = propertyNameFromPath(path)
	}

	slog.Debug("Analyzing rent roll",
		"property", property,
		"records", len(records),
		"total_units", opts.totalUnits)

	result, err := engine.Analyze(records, opts.totalUnits)
	if err != nil {
		return fmt.Errorf("analysis of %s failed: %w", property, err)
	}

	var snap *model.ComplianceSnapshot
	if store != nil {
		snap, err = saveSnapshot(ctx, store, property, path, table, result)
		if err != nil {
			return err
		}
	}

	if opts.jsonOut {
		return writeJSON(out, result)
	}

	if err := cli.RenderResult(out, result, cli.ReportOptions{
		Title:     property,
		Area:      table.Area(),
		Year:      table.Year(),
		ShowUnits: opts.showUnits,
	}); err != nil {
		return err
	}
	if snap != nil {
		_, _ = fmt.Fprintln(out, cli.FormatSuccess("Saved snapshot "+snap.ID))
	}
	return nil
}
