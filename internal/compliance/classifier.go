package compliance

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/safe-harbor/internal/common"
	"github.com/Veraticus/safe-harbor/internal/incomelimits"
	"github.com/Veraticus/safe-harbor/internal/model"
)

// AMI tier ceilings and the rent burden line, in percent.
const (
	VeryLowCeiling    = 50
	LowCeiling        = 60
	ModerateCeiling   = 80
	CostBurdenPercent = 30
)

var (
	hundred    = decimal.NewFromInt(100)
	monthsInYr = decimal.NewFromInt(12)
)

// Classifier resolves household incomes to AMI categories against one income limit table.
type Classifier struct {
	table *incomelimits.Table
}

// NewClassifier returns a classifier for table. A nil table selects incomelimits.Default().
func NewClassifier(table *incomelimits.Table) *Classifier {
	if table == nil {
		table = incomelimits.Default()
	}
	return &Classifier{table: table}
}

// Table returns the income limit table the classifier uses.
func (c *Classifier) Table() *incomelimits.Table {
	return c.table
}

// Classify computes the AMI percentage and category for one household.
//
// The reported percentage is rounded to a whole number, but the category and
// qualification flags are decided on the exact ratio, so a household at
// 80.0001% AMI displays as 80 and is still MARKET.
func (c *Classifier) Classify(income decimal.Decimal, householdSize int) (model.AMIClassification, error) {
	if householdSize < 1 {
		return model.AMIClassification{}, &common.ValidationError{
			Field:  "household_size",
			Value:  strconv.Itoa(householdSize),
			Reason: "must be at least 1",
		}
	}
	if income.IsNegative() {
		income = decimal.Zero
	}

	ami100 := c.table.AMI100(householdSize)
	scaled := income.Mul(hundred)

	// scaled <= ceiling * ami100 is the exact form of income/ami100*100 <= ceiling.
	within := func(ceiling int64) bool {
		return scaled.LessThanOrEqual(ami100.Mul(decimal.NewFromInt(ceiling)))
	}

	out := model.AMIClassification{
		AMIPercentage: int(scaled.Div(ami100).Round(0).IntPart()),
		QualifiesAt50: within(VeryLowCeiling),
		QualifiesAt60: within(LowCeiling),
		QualifiesAt80: within(ModerateCeiling),
	}

	switch {
	case out.QualifiesAt50:
		out.Category = model.CategoryVeryLow
	case out.QualifiesAt60:
		out.Category = model.CategoryLow
	case out.QualifiesAt80:
		out.Category = model.CategoryModerate
	default:
		out.Category = model.CategoryMarket
	}

	return out, nil
}

// ClassifyUnit validates a rent roll record and derives its AMI and rent burden fields.
func (c *Classifier) ClassifyUnit(record model.UnitIncomeRecord) (model.ClassifiedUnit, error) {
	if err := ValidateRecord(record); err != nil {
		return model.ClassifiedUnit{}, err
	}

	ami, err := c.Classify(record.GrossAnnualIncome, record.HouseholdSize)
	if err != nil {
		return model.ClassifiedUnit{}, err
	}

	unit := model.ClassifiedUnit{
		UnitIncomeRecord:  record,
		AMIClassification: ami,
	}

	if record.GrossAnnualIncome.IsPositive() {
		annualRent := record.MonthlyRent.Mul(monthsInYr).Mul(hundred)
		ratio := annualRent.Div(record.GrossAnnualIncome).Round(1)
		unit.RentToIncomeRatio = &ratio
		unit.RentExceeds30Pct = annualRent.GreaterThan(
			record.GrossAnnualIncome.Mul(decimal.NewFromInt(CostBurdenPercent)))
	}

	return unit, nil
}

// ValidateRecord checks a single rent roll record.
func ValidateRecord(record model.UnitIncomeRecord) error {
	switch {
	case strings.TrimSpace(record.UnitNumber) == "":
		return &common.ValidationError{Field: "unit_number", Reason: "is required"}
	case record.HouseholdSize < 1:
		return &common.ValidationError{
			Field:  "household_size",
			Value:  strconv.Itoa(record.HouseholdSize),
			Reason: "must be at least 1",
		}
	case record.GrossAnnualIncome.IsNegative():
		return &common.ValidationError{
			Field:  "annual_income",
			Value:  record.GrossAnnualIncome.String(),
			Reason: "cannot be negative",
		}
	case record.MonthlyRent.IsNegative():
		return &common.ValidationError{
			Field:  "monthly_rent",
			Value:  record.MonthlyRent.String(),
			Reason: "cannot be negative",
		}
	}
	return nil
}
