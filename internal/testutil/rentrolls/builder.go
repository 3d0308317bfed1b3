// Package rentrolls builds rent roll fixtures for tests. Incomes are chosen
// against the built-in income limit table for a two-person household, whose
// 100% AMI is $96,000.
//
// Example usage:
//
//	units := rentrolls.NewBuilder(t).
//		WithVeryLow(4).
//		WithMarket(1).
//		Build()
package rentrolls

import (
	"strconv"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/safe-harbor/internal/model"
	"github.com/Veraticus/safe-harbor/internal/rentroll"
)

// Incomes that land in each tier for a household of two under the built-in table.
var (
	IncomeVeryLow  = decimal.NewFromInt(40000)  // 41.7% AMI
	IncomeLow      = decimal.NewFromInt(55000)  // 57.3% AMI
	IncomeModerate = decimal.NewFromInt(70000)  // 72.9% AMI
	IncomeMarket   = decimal.NewFromInt(100000) // 104.2% AMI
)

// DefaultRent is an affordable monthly rent for every tier's income.
var DefaultRent = decimal.NewFromInt(900)

// FirstUnit is the unit number given to the first generated unit.
const FirstUnit = 101

// Builder provides a fluent interface for constructing rent rolls.
type Builder struct {
	t     *testing.T
	units []model.UnitIncomeRecord
	rent  decimal.Decimal
	next  int
}

// NewBuilder starts an empty rent roll.
func NewBuilder(t *testing.T) *Builder {
	t.Helper()
	return &Builder{t: t, rent: DefaultRent, next: FirstUnit}
}

// WithRent sets the monthly rent for units added afterwards.
func (b *Builder) WithRent(rent int64) *Builder {
	b.rent = decimal.NewFromInt(rent)
	return b
}

// WithVeryLow adds n households at or below 50% AMI.
func (b *Builder) WithVeryLow(n int) *Builder { return b.add(n, IncomeVeryLow) }

// WithLow adds n households between 50% and 60% AMI.
func (b *Builder) WithLow(n int) *Builder { return b.add(n, IncomeLow) }

// WithModerate adds n households between 60% and 80% AMI.
func (b *Builder) WithModerate(n int) *Builder { return b.add(n, IncomeModerate) }

// WithMarket adds n households above 80% AMI.
func (b *Builder) WithMarket(n int) *Builder { return b.add(n, IncomeMarket) }

// WithUnit adds a specific record as-is.
func (b *Builder) WithUnit(rec model.UnitIncomeRecord) *Builder {
	b.units = append(b.units, rec)
	return b
}

// WithFixture adds the units of a predefined fixture.
func (b *Builder) WithFixture(f Fixture) *Builder {
	return b.WithVeryLow(f.VeryLow).WithLow(f.Low).WithModerate(f.Moderate).WithMarket(f.Market)
}

func (b *Builder) add(n int, income decimal.Decimal) *Builder {
	b.t.Helper()
	if n < 0 {
		b.t.Fatalf("negative unit count %d", n)
	}
	for i := 0; i < n; i++ {
		b.units = append(b.units, model.UnitIncomeRecord{
			UnitNumber:        strconv.Itoa(b.next),
			TenantName:        "Tenant " + strconv.Itoa(b.next),
			HouseholdSize:     2,
			GrossAnnualIncome: income,
			MonthlyRent:       b.rent,
		})
		b.next++
	}
	return b
}

// Build returns a copy of the accumulated units.
func (b *Builder) Build() []model.UnitIncomeRecord {
	out := make([]model.UnitIncomeRecord, len(b.units))
	copy(out, b.units)
	return out
}

// CSV renders the accumulated units as rent roll text.
func (b *Builder) CSV() string {
	return rentroll.Format(b.units)
}
