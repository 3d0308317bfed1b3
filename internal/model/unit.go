// Package model defines the core domain models used throughout the application.
package model

import "github.com/shopspring/decimal"

// AMICategory is the income tier a household falls into relative to Area Median Income.
type AMICategory string

// AMI category constants.
const (
	CategoryVeryLow  AMICategory = "VERY_LOW"
	CategoryLow      AMICategory = "LOW"
	CategoryModerate AMICategory = "MODERATE"
	CategoryMarket   AMICategory = "MARKET"
)

// Label returns the human-readable tier label.
func (c AMICategory) Label() string {
	switch c {
	case CategoryVeryLow:
		return "Very Low (≤50% AMI)"
	case CategoryLow:
		return "Low (51-60% AMI)"
	case CategoryModerate:
		return "Moderate (61-80% AMI)"
	case CategoryMarket:
		return "Market (>80% AMI)"
	default:
		return string(c)
	}
}

// UnitIncomeRecord is one row of a rent roll: a unit and the household living in it.
type UnitIncomeRecord struct {
	GrossAnnualIncome decimal.Decimal `json:"gross_annual_income"`
	MonthlyRent       decimal.Decimal `json:"monthly_rent"`
	UnitNumber        string          `json:"unit_number"`
	TenantName        string          `json:"tenant_name,omitempty"`
	HouseholdSize     int             `json:"household_size"`
}

// AMIClassification is the result of classifying a single household income.
//
// Category and the QualifiesAt flags are decided on the exact income ratio,
// while AMIPercentage is that ratio rounded to a whole percent for display.
// The two can disagree at a tier edge: 50.4% displays as 50 but is LOW, and
// 80.0001% displays as 80 but is MARKET.
type AMIClassification struct {
	Category      AMICategory `json:"category"`
	AMIPercentage int         `json:"ami_percentage"`
	QualifiesAt50 bool        `json:"qualifies_at_50"`
	QualifiesAt60 bool        `json:"qualifies_at_60"`
	QualifiesAt80 bool        `json:"qualifies_at_80"`
}

// ClassifiedUnit is a UnitIncomeRecord with its derived AMI and rent burden fields.
// A new classification is always recomputed from the record, never patched.
type ClassifiedUnit struct {
	// RentToIncomeRatio is nil when the household reports no income.
	RentToIncomeRatio *decimal.Decimal `json:"rent_to_income_ratio,omitempty"`
	// Property is set when the unit was aggregated as part of a portfolio.
	Property string `json:"property,omitempty"`
	UnitIncomeRecord
	AMIClassification
	RentExceeds30Pct bool `json:"rent_exceeds_30_pct"`
}

// RentRatioComputable reports whether a rent-to-income ratio could be derived.
func (u ClassifiedUnit) RentRatioComputable() bool {
	return u.RentToIncomeRatio != nil
}

// CostBurdened reports whether an income-qualified household pays more than 30% of income in rent.
func (u ClassifiedUnit) CostBurdened() bool {
	return u.QualifiesAt80 && u.RentExceeds30Pct
}
