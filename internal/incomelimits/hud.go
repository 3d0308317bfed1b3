package incomelimits

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/safe-harbor/internal/common"
)

// Household size adjustment factors applied to the four-person median.
var sizeFactors = [MaxHouseholdSize]string{"0.70", "0.80", "0.90", "1.00", "1.08", "1.16", "1.24", "1.32"}

var (
	fiftyPercent = decimal.RequireFromString("0.5")
	sixtyPercent = decimal.RequireFromString("0.6")
)

// Built-in table used when no area table is configured.
const (
	DefaultArea             = "Default Metro Area"
	DefaultYear             = 2025
	DefaultFourPersonMedian = 120000
)

// FromMedian derives a full table from a four-person area median income using
// the standard household size adjustments. Amounts are rounded to cents.
func FromMedian(area string, year int, fourPersonMedian decimal.Decimal) (*Table, error) {
	if !fourPersonMedian.IsPositive() {
		return nil, fmt.Errorf("%w: four-person median must be positive, got %s",
			common.ErrInvalidTable, fourPersonMedian)
	}

	rows := make([]Limits, 0, MaxHouseholdSize)
	for i, f := range sizeFactors {
		median := fourPersonMedian.Mul(decimal.RequireFromString(f)).Round(2)
		rows = append(rows, Limits{
			HouseholdSize: i + 1,
			VeryLow:       median.Mul(fiftyPercent).Round(2),
			Low60:         median.Mul(sixtyPercent).Round(2),
			Low80:         median.Mul(eightyPercent).Round(2),
			Median:        median,
		})
	}

	return NewTable(area, year, rows)
}

// Default returns the built-in table.
func Default() *Table {
	t, err := FromMedian(DefaultArea, DefaultYear, decimal.NewFromInt(DefaultFourPersonMedian))
	if err != nil {
		panic(fmt.Sprintf("built-in income limit table is invalid: %v", err))
	}
	return t
}
