package main

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Veraticus/safe-harbor/internal/cli"
	"github.com/Veraticus/safe-harbor/internal/compliance"
	"github.com/Veraticus/safe-harbor/internal/model"
)

type classifyOptions struct {
	income  string
	rent    string
	size    int
	jsonOut bool
}

func classifyCmd() *cobra.Command {
	opts := classifyOptions{}

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify a single household against the AMI limits",
		Long: `Classify one household by gross annual income and household size.

With --rent, the household's rent-to-income ratio is checked against the
30% cost burden limit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, _, err := newEngine()
			if err != nil {
				return err
			}
			return classifyHousehold(cmd.OutOrStdout(), engine, opts)
		},
	}

	cmd.Flags().StringVar(&opts.income, "income", "", "gross annual household income")
	cmd.Flags().IntVar(&opts.size, "size", 1, "household size")
	cmd.Flags().StringVar(&opts.rent, "rent", "0", "monthly rent")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "print the classification as JSON")
	_ = cmd.MarkFlagRequired("income")

	return cmd
}

func classifyHousehold(out io.Writer, engine *compliance.Engine, opts classifyOptions) error {
	income, err := decimal.NewFromString(opts.income)
	if err != nil {
		return fmt.Errorf("invalid --income %q: %w", opts.income, err)
	}
	rent, err := decimal.NewFromString(opts.rent)
	if err != nil {
		return fmt.Errorf("invalid --rent %q: %w", opts.rent, err)
	}

	unit, err := engine.Classifier().ClassifyUnit(model.UnitIncomeRecord{
		UnitNumber:        "household",
		HouseholdSize:     opts.size,
		GrossAnnualIncome: income,
		MonthlyRent:       rent,
	})
	if err != nil {
		return err
	}

	if opts.jsonOut {
		return writeJSON(out, unit)
	}
	return cli.RenderClassification(out, unit, engine.Classifier().Table().LimitsFor(opts.size))
}
