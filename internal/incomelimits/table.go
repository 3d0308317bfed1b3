// Package incomelimits holds the household-size indexed AMI income limit tables
// that the compliance engine classifies against.
//
// A Table is reference data for one area and year. It is built once, validated,
// and never modified; an annual update replaces the whole table.
package incomelimits

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/safe-harbor/internal/common"
)

// Tabulated household sizes. Lookups outside this range clamp to the nearest
// boundary row; values are never interpolated or extrapolated.
const (
	MinHouseholdSize = 1
	MaxHouseholdSize = 8
)

var eightyPercent = decimal.RequireFromString("0.8")

// Limits are the income thresholds for one household size.
type Limits struct {
	VeryLow       decimal.Decimal `yaml:"very_low" json:"very_low"`
	Low60         decimal.Decimal `yaml:"low_60" json:"low_60"`
	Low80         decimal.Decimal `yaml:"low_80" json:"low_80"`
	Median        decimal.Decimal `yaml:"median" json:"median"`
	HouseholdSize int             `yaml:"household_size" json:"household_size"`
}

// AMI100 is the 100% AMI income implied by the 80% limit.
func (l Limits) AMI100() decimal.Decimal {
	return l.Low80.Div(eightyPercent)
}

// Table is an immutable income limit table for one area and year.
type Table struct {
	area string
	rows []Limits
	year int
}

// NewTable validates rows and returns a table. Rows may be supplied in any order
// but must cover every household size from MinHouseholdSize to MaxHouseholdSize.
func NewTable(area string, year int, rows []Limits) (*Table, error) {
	if len(rows) != MaxHouseholdSize-MinHouseholdSize+1 {
		return nil, fmt.Errorf("%w: expected %d rows, got %d",
			common.ErrInvalidTable, MaxHouseholdSize-MinHouseholdSize+1, len(rows))
	}

	sorted := make([]Limits, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].HouseholdSize < sorted[j].HouseholdSize
	})

	for i, row := range sorted {
		if row.HouseholdSize != MinHouseholdSize+i {
			return nil, fmt.Errorf("%w: missing row for household size %d",
				common.ErrInvalidTable, MinHouseholdSize+i)
		}
		if !row.VeryLow.IsPositive() || !row.Median.IsPositive() {
			return nil, fmt.Errorf("%w: household size %d has non-positive limits",
				common.ErrInvalidTable, row.HouseholdSize)
		}
		if !row.VeryLow.LessThan(row.Low60) || !row.Low60.LessThan(row.Low80) {
			return nil, fmt.Errorf("%w: household size %d tiers must satisfy very_low < low_60 < low_80",
				common.ErrInvalidTable, row.HouseholdSize)
		}
		if i == 0 {
			continue
		}
		prev := sorted[i-1]
		if !prev.VeryLow.LessThan(row.VeryLow) ||
			!prev.Low60.LessThan(row.Low60) ||
			!prev.Low80.LessThan(row.Low80) {
			return nil, fmt.Errorf("%w: limits must increase from household size %d to %d",
				common.ErrInvalidTable, prev.HouseholdSize, row.HouseholdSize)
		}
	}

	return &Table{area: area, year: year, rows: sorted}, nil
}

// Area returns the metro area the table applies to.
func (t *Table) Area() string { return t.area }

// Year returns the program year of the table.
func (t *Table) Year() int { return t.year }

// Rows returns a copy of the tabulated rows ordered by household size.
func (t *Table) Rows() []Limits {
	out := make([]Limits, len(t.rows))
	copy(out, t.rows)
	return out
}

// LimitsFor returns the limits for a household size. It never fails: sizes
// below or above the tabulated range get the nearest boundary row.
func (t *Table) LimitsFor(householdSize int) Limits {
	switch {
	case householdSize < MinHouseholdSize:
		householdSize = MinHouseholdSize
	case householdSize > MaxHouseholdSize:
		householdSize = MaxHouseholdSize
	}
	return t.rows[householdSize-MinHouseholdSize]
}

// AMI100 returns the 100% AMI income for a household size.
func (t *Table) AMI100(householdSize int) decimal.Decimal {
	return t.LimitsFor(householdSize).AMI100()
}
