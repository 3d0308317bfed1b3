package compliance

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/safe-harbor/internal/common"
)

// Thresholds are the Safe Harbor test percentages, each a share of the total unit denominator.
type Thresholds struct {
	// Qualifying is the minimum share of units at or below 80% AMI.
	Qualifying decimal.Decimal `mapstructure:"qualifying" json:"qualifying"`
	// MarketRateCap is the maximum share of units above 80% AMI.
	MarketRateCap decimal.Decimal `mapstructure:"market_cap" json:"market_cap"`
	// OptionA is the minimum share of units at or below 50% AMI.
	OptionA decimal.Decimal `mapstructure:"option_a" json:"option_a"`
	// OptionB is the minimum share of units at or below 60% AMI.
	OptionB decimal.Decimal `mapstructure:"option_b" json:"option_b"`
}

// DefaultThresholds returns the standard Safe Harbor percentages: 75/25/20/40.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Qualifying:    decimal.NewFromInt(75),
		MarketRateCap: decimal.NewFromInt(25),
		OptionA:       decimal.NewFromInt(20),
		OptionB:       decimal.NewFromInt(40),
	}
}

// Validate ensures every threshold is a percentage in (0, 100].
func (t Thresholds) Validate() error {
	checks := []struct {
		value decimal.Decimal
		name  string
	}{
		{t.Qualifying, "qualifying"},
		{t.MarketRateCap, "market_cap"},
		{t.OptionA, "option_a"},
		{t.OptionB, "option_b"},
	}
	for _, c := range checks {
		if !c.value.IsPositive() || c.value.GreaterThan(hundred) {
			return fmt.Errorf("%w: threshold %s must be in (0, 100], got %s",
				common.ErrInvalidConfig, c.name, c.value)
		}
	}
	return nil
}
