package compliance

import (
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/safe-harbor/internal/model"
)

// With the default table a two-person household has a 100% AMI of $96,000:
// 50% = 48,000, 60% = 57,600, 80% = 76,800.
const (
	incomeVeryLow  = 40000  // 41.7%
	incomeLow      = 55000  // 57.3%
	incomeModerate = 70000  // 72.9%
	incomeMarket   = 100000 // 104.2%
)

func record(unit string, size int, income, rent string) model.UnitIncomeRecord {
	return model.UnitIncomeRecord{
		UnitNumber:        unit,
		TenantName:        "Tenant " + unit,
		HouseholdSize:     size,
		GrossAnnualIncome: decimal.RequireFromString(income),
		MonthlyRent:       decimal.RequireFromString(rent),
	}
}

// rentRoll builds two-person units with sequential unit numbers from per-tier counts.
func rentRoll(veryLow, low, moderate, market int) []model.UnitIncomeRecord {
	var out []model.UnitIncomeRecord
	n := 100
	add := func(count, income int) {
		for i := 0; i < count; i++ {
			n++
			out = append(out, record(strconv.Itoa(n), 2, strconv.Itoa(income), "900"))
		}
	}
	add(veryLow, incomeVeryLow)
	add(low, incomeLow)
	add(moderate, incomeModerate)
	add(market, incomeMarket)
	return out
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(nil, DefaultThresholds())
	require.NoError(t, err)
	return engine
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
