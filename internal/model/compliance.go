package model

import "github.com/shopspring/decimal"

// ComplianceStatus is the overall Safe Harbor verdict for a property.
type ComplianceStatus string

// Compliance status constants.
const (
	StatusCompliant    ComplianceStatus = "COMPLIANT"
	StatusNonCompliant ComplianceStatus = "NON_COMPLIANT"
)

// DeepAffordabilityOption identifies which deep-affordability path a property satisfied.
type DeepAffordabilityOption string

// Deep-affordability options.
const (
	OptionNone DeepAffordabilityOption = ""
	OptionA    DeepAffordabilityOption = "A"
	OptionB    DeepAffordabilityOption = "B"
)

// RecommendationType ranks a remediation item.
type RecommendationType string

// Recommendation types.
const (
	RecommendationCritical RecommendationType = "critical"
	RecommendationWarning  RecommendationType = "warning"
)

// CategoryCount is the number of units in a bucket and its share of the denominator.
type CategoryCount struct {
	// Percentage is rounded to one decimal place and is for display only.
	Percentage decimal.Decimal `json:"percentage"`
	Count      int             `json:"count"`
}

// AggregateStats is the roll-up of every classified unit in a property or portfolio.
type AggregateStats struct {
	ByCategory  map[AMICategory]CategoryCount `json:"by_category"`
	Units       []ClassifiedUnit              `json:"units"`
	Unverified  CategoryCount                 `json:"unverified"`
	At50AMI     CategoryCount                 `json:"at_50_ami"`
	At60OrLess  CategoryCount                 `json:"at_60_or_less"`
	At80OrLess  CategoryCount                 `json:"at_80_or_less"`
	MarketRate  CategoryCount                 `json:"market_rate"`
	Recorded    int                           `json:"recorded_units"`
	Denominator int                           `json:"denominator"`
	// Degenerate is set when the denominator is zero and nothing can be assessed.
	Degenerate bool `json:"degenerate"`
}

// ThresholdVerdict is the outcome of one Safe Harbor threshold test.
type ThresholdVerdict struct {
	Name string `json:"name"`
	// Required is the threshold as a percentage of the denominator.
	Required decimal.Decimal `json:"required"`
	Actual   decimal.Decimal `json:"actual"`
	// UnitsNeeded is the number of additional qualifying units required to pass.
	UnitsNeeded int `json:"units_needed"`
	// UnitsExcess is the number of market-rate units over the cap.
	UnitsExcess int  `json:"units_excess"`
	Met         bool `json:"met"`
}

// Recommendation is a single remediation or informational item.
type Recommendation struct {
	Type       RecommendationType `json:"type"`
	Message    string             `json:"message"`
	UnitNumber string             `json:"unit_number,omitempty"`
}

// ComplianceResult is the full output of a compliance analysis. It is a
// point-in-time value and is recomputed on every analysis.
type ComplianceResult struct {
	Stats           AggregateStats          `json:"stats"`
	Status          ComplianceStatus        `json:"status"`
	Option          DeepAffordabilityOption `json:"option,omitempty"`
	Recommendations []Recommendation        `json:"recommendations"`
	Qualifying      ThresholdVerdict        `json:"qualifying"`
	MarketRateCap   ThresholdVerdict        `json:"market_rate_cap"`
	OptionA         ThresholdVerdict        `json:"option_a"`
	OptionB         ThresholdVerdict        `json:"option_b"`
	IsCompliant     bool                    `json:"is_compliant"`
}

// Critical returns the recommendations that describe binding requirements.
func (r *ComplianceResult) Critical() []Recommendation {
	var out []Recommendation
	for _, rec := range r.Recommendations {
		if rec.Type == RecommendationCritical {
			out = append(out, rec)
		}
	}
	return out
}

// PropertyResult pairs a named property with its own compliance result inside a portfolio run.
type PropertyResult struct {
	Result *ComplianceResult `json:"result"`
	Name   string            `json:"name"`
}

// PortfolioResult is the outcome of analyzing several properties together.
type PortfolioResult struct {
	Combined   *ComplianceResult `json:"combined"`
	Properties []PropertyResult  `json:"properties"`
}

// CompliantCount returns how many properties pass on their own.
func (p *PortfolioResult) CompliantCount() int {
	n := 0
	for _, prop := range p.Properties {
		if prop.Result != nil && prop.Result.IsCompliant {
			n++
		}
	}
	return n
}
