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
	"github.com/Veraticus/safe-harbor/internal/service"
)

// portfolioSnapshotName names the combined snapshot of a portfolio run unless --name is given.
const portfolioSnapshotName = "Portfolio"

type portfolioOptions struct {
	totalUnits map[string]int
	name       string
	save       bool
	jsonOut    bool
	showUnits  bool
	progress   bool
}

func portfolioCmd() *cobra.Command {
	opts := portfolioOptions{}

	cmd := &cobra.Command{
		Use:   "portfolio <[name=]rent-roll.csv>...",
		Short: "Check several properties together",
		Long: `Analyze a portfolio of properties. Every property is evaluated on its own,
and all units are pooled for a combined portfolio verdict.

Each argument is a rent roll path, optionally prefixed with a property name:

  harbor portfolio "Elm Court=elm.csv" "Oak Terrace=oak.csv"

Unit numbers only need to be unique within a property.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPortfolio(cmd, args, opts)
		},
	}

	cmd.Flags().StringToIntVar(&opts.totalUnits, "total-units", nil, "total units per property, e.g. \"Elm Court=20\"")
	cmd.Flags().StringVar(&opts.name, "name", portfolioSnapshotName, "name for the combined snapshot")
	cmd.Flags().BoolVar(&opts.save, "save", false, "save snapshots of each property and the combined result")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&opts.showUnits, "show-units", false, "include the per-unit classification table")
	cmd.Flags().BoolVar(&opts.progress, "progress", true, "show a progress bar while reading rent rolls")

	return cmd
}

func runPortfolio(cmd *cobra.Command, args []string, opts portfolioOptions) error {
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

	progress := io.Discard
	if opts.progress && !opts.jsonOut {
		progress = cmd.ErrOrStderr()
	}

	return analyzePortfolio(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), progress, engine, table, store, args, opts)
}

// loadPortfolio reads each "[name=]path" argument into a property input.
func loadPortfolio(in io.Reader, progress io.Writer, args []string, totals map[string]int) ([]compliance.PropertyInput, error) {
	bar := cli.NewProgressBar(progress, len(args), "Reading rent rolls...")
	defer func() { _ = bar.Finish() }()

	properties := make([]compliance.PropertyInput, 0, len(args))
	seen := make(map[string]bool, len(args))
	stdin := ""
	for _, arg := range args {
		name, path := splitPropertyArg(arg)
		if seen[name] {
			return nil, fmt.Errorf("property %q is listed more than once", name)
		}
		seen[name] = true
		if path == "-" {
			if stdin != "" {
				return nil, fmt.Errorf("properties %q and %q both read standard input; only one rent roll can come from \"-\"", stdin, name)
			}
			stdin = name
		}

		records, err := loadRentRoll(path, in)
		if err != nil {
			return nil, err
		}
		properties = append(properties, compliance.PropertyInput{
			Name:       name,
			Units:      records,
			TotalUnits: totals[name],
		})
		_ = bar.Add(1)
	}

	for name := range totals {
		if !seen[name] {
			return nil, fmt.Errorf("--total-units names unknown property %q", name)
		}
	}
	return properties, nil
}

func analyzePortfolio(ctx context.Context, in io.Reader, out, progress io.Writer, engine *compliance.Engine,
	table *incomelimits.Table, store service.Storage, args []string, opts portfolioOptions) error {
	properties, err := loadPortfolio(in, progress, args, opts.totalUnits)
	if err != nil {
		return err
	}

	slog.Debug("Analyzing portfolio", "properties", len(properties))

	portfolio, err := engine.AnalyzePortfolio(properties)
	if err != nil {
		return fmt.Errorf("portfolio analysis failed: %w", err)
	}

	if store != nil {
		for i, p := range portfolio.Properties {
			_, path := splitPropertyArg(args[i])
			if _, err := saveSnapshot(ctx, store, p.Name, path, table, p.Result); err != nil {
				return err
			}
		}
		name := opts.name
		if name == "" {
			name = portfolioSnapshotName
		}
		if _, err := saveSnapshot(ctx, store, name, "portfolio", table, portfolio.Combined); err != nil {
			return err
		}
	}

	if opts.jsonOut {
		return writeJSON(out, portfolio)
	}

	if err := cli.RenderPortfolio(out, portfolio, cli.ReportOptions{
		Area:      table.Area(),
		Year:      table.Year(),
		ShowUnits: opts.showUnits,
	}); err != nil {
		return err
	}
	if store != nil {
		_, _ = fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Saved %d snapshots", len(portfolio.Properties)+1)))
	}
	return nil
}
