package compliance

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/safe-harbor/internal/common"
	"github.com/Veraticus/safe-harbor/internal/model"
)

// Verdict names.
const (
	VerdictQualifying = "Qualifying (≤80% AMI)"
	VerdictMarketCap  = "Market-rate cap (>80% AMI)"
	VerdictOptionA    = "Option A (≤50% AMI)"
	VerdictOptionB    = "Option B (≤60% AMI)"
)

// Evaluator applies the Safe Harbor threshold tests to aggregate statistics.
// It keeps no state between calls.
type Evaluator struct {
	thresholds Thresholds
}

// NewEvaluator returns an evaluator for the given thresholds.
func NewEvaluator(thresholds Thresholds) (*Evaluator, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	return &Evaluator{thresholds: thresholds}, nil
}

// Thresholds returns the thresholds the evaluator applies.
func (e *Evaluator) Thresholds() Thresholds {
	return e.thresholds
}

// Evaluate decides compliance for stats. A property is compliant when the
// qualifying threshold and market-rate cap hold and at least one
// deep-affordability option holds. When both options hold, Option A is
// reported.
//
// Pass/fail always compares exact ratios; the rounded percentages on the
// result are for display. An empty property (zero denominator) evaluates to
// NON_COMPLIANT rather than an error.
func (e *Evaluator) Evaluate(stats *model.AggregateStats) (*model.ComplianceResult, error) {
	if err := validateStats(stats); err != nil {
		return nil, err
	}

	th := e.thresholds
	denom := stats.Denominator

	result := &model.ComplianceResult{
		Stats:  *stats,
		Status: model.StatusNonCompliant,
	}

	if denom == 0 {
		result.Stats.Degenerate = true
		result.Qualifying = model.ThresholdVerdict{Name: VerdictQualifying, Required: th.Qualifying, Actual: decimal.Zero}
		result.MarketRateCap = model.ThresholdVerdict{Name: VerdictMarketCap, Required: th.MarketRateCap, Actual: decimal.Zero}
		result.OptionA = model.ThresholdVerdict{Name: VerdictOptionA, Required: th.OptionA, Actual: decimal.Zero}
		result.OptionB = model.ThresholdVerdict{Name: VerdictOptionB, Required: th.OptionB, Actual: decimal.Zero}
		result.Recommendations = []model.Recommendation{{
			Type:    model.RecommendationCritical,
			Message: "No units to assess: the property has a total unit count of zero, so compliance cannot be established.",
		}}
		return result, nil
	}

	result.Qualifying = atLeast(VerdictQualifying, stats.At80OrLess.Count, denom, th.Qualifying)
	result.MarketRateCap = atMost(VerdictMarketCap, stats.MarketRate.Count, denom, th.MarketRateCap)
	result.OptionA = atLeast(VerdictOptionA, stats.At50AMI.Count, denom, th.OptionA)
	result.OptionB = atLeast(VerdictOptionB, stats.At60OrLess.Count, denom, th.OptionB)

	deep := result.OptionA.Met || result.OptionB.Met
	result.IsCompliant = result.Qualifying.Met && result.MarketRateCap.Met && deep
	if result.IsCompliant {
		result.Status = model.StatusCompliant
		if result.OptionA.Met {
			result.Option = model.OptionA
		} else {
			result.Option = model.OptionB
		}
	}

	result.Recommendations = recommend(result, stats.Units)
	return result, nil
}

// atLeast tests count/denom >= pct/100 exactly.
func atLeast(name string, count, denom int, pct decimal.Decimal) model.ThresholdVerdict {
	c := decimal.NewFromInt(int64(count))
	n := decimal.NewFromInt(int64(denom))

	v := model.ThresholdVerdict{
		Name:     name,
		Required: pct,
		Actual:   displayPercent(count, denom),
		Met:      c.Mul(hundred).GreaterThanOrEqual(pct.Mul(n)),
	}
	if !v.Met {
		need := int(pct.Mul(n).Div(hundred).Ceil().IntPart()) - count
		v.UnitsNeeded = max(need, 0)
	}
	return v
}

// atMost tests count/denom <= pct/100 exactly.
func atMost(name string, count, denom int, pct decimal.Decimal) model.ThresholdVerdict {
	c := decimal.NewFromInt(int64(count))
	n := decimal.NewFromInt(int64(denom))

	v := model.ThresholdVerdict{
		Name:     name,
		Required: pct,
		Actual:   displayPercent(count, denom),
		Met:      c.Mul(hundred).LessThanOrEqual(pct.Mul(n)),
	}
	if !v.Met {
		excess := count - int(pct.Mul(n).Div(hundred).Floor().IntPart())
		v.UnitsExcess = max(excess, 0)
	}
	return v
}

func recommend(r *model.ComplianceResult, units []model.ClassifiedUnit) []model.Recommendation {
	recs := make([]model.Recommendation, 0, 4)

	if !r.Qualifying.Met {
		recs = append(recs, model.Recommendation{
			Type: model.RecommendationCritical,
			Message: fmt.Sprintf("Qualifying threshold not met: %s%% of units are at or below 80%% AMI, %s%% required. Lease %s to households at or below 80%% AMI.",
				r.Qualifying.Actual.StringFixed(1), r.Qualifying.Required, pluralUnits(r.Qualifying.UnitsNeeded, "more")),
		})
	}
	if !r.MarketRateCap.Met {
		recs = append(recs, model.Recommendation{
			Type: model.RecommendationCritical,
			Message: fmt.Sprintf("Market-rate cap exceeded: %s%% of units are above 80%% AMI or unverified, maximum %s%%. Convert %s to income-qualified tenancy.",
				r.MarketRateCap.Actual.StringFixed(1), r.MarketRateCap.Required, pluralUnits(r.MarketRateCap.UnitsExcess, "market-rate")),
		})
	}
	if !r.OptionA.Met && !r.OptionB.Met {
		recs = append(recs,
			model.Recommendation{
				Type: model.RecommendationWarning,
				Message: fmt.Sprintf("Deep affordability Option A not met: %s%% of units are at or below 50%% AMI, %s%% required; %s needed.",
					r.OptionA.Actual.StringFixed(1), r.OptionA.Required, pluralUnits(r.OptionA.UnitsNeeded, "more")),
			},
			model.Recommendation{
				Type: model.RecommendationWarning,
				Message: fmt.Sprintf("Deep affordability Option B not met: %s%% of units are at or below 60%% AMI, %s%% required; %s needed.",
					r.OptionB.Actual.StringFixed(1), r.OptionB.Required, pluralUnits(r.OptionB.UnitsNeeded, "more")),
			},
		)
	}

	for _, u := range units {
		if !u.CostBurdened() {
			continue
		}
		label := "Unit " + u.UnitNumber
		if u.Property != "" {
			label = u.Property + " unit " + u.UnitNumber
		}
		recs = append(recs, model.Recommendation{
			Type:       model.RecommendationWarning,
			UnitNumber: u.UnitNumber,
			Message: fmt.Sprintf("%s: income-qualified household pays %s%% of income in rent (over %d%%); review for grant or subsidy compliance.",
				label, u.RentToIncomeRatio.StringFixed(1), CostBurdenPercent),
		})
	}

	return recs
}

func pluralUnits(n int, adjective string) string {
	if n == 1 {
		return "1 " + adjective + " unit"
	}
	return strconv.Itoa(n) + " " + adjective + " units"
}

func validateStats(stats *model.AggregateStats) error {
	if stats == nil {
		return common.NewValidationError("stats", "is required")
	}
	denom := stats.Denominator
	if denom < 0 {
		return &common.ValidationError{Field: "denominator", Value: strconv.Itoa(denom), Reason: "cannot be negative"}
	}

	counts := []struct {
		name  string
		value int
	}{
		{"at_50_ami", stats.At50AMI.Count},
		{"at_60_or_less", stats.At60OrLess.Count},
		{"at_80_or_less", stats.At80OrLess.Count},
		{"market_rate", stats.MarketRate.Count},
	}
	for _, c := range counts {
		if c.value < 0 {
			return &common.ValidationError{Field: c.name, Value: strconv.Itoa(c.value), Reason: "cannot be negative"}
		}
		if c.value > denom {
			return &common.ValidationError{Field: c.name, Value: strconv.Itoa(c.value), Reason: "exceeds the denominator " + strconv.Itoa(denom)}
		}
	}

	if stats.At50AMI.Count > stats.At60OrLess.Count || stats.At60OrLess.Count > stats.At80OrLess.Count {
		return common.NewValidationError("tier_counts", "must satisfy at_50_ami <= at_60_or_less <= at_80_or_less")
	}
	if stats.MarketRate.Count != denom-stats.At80OrLess.Count {
		return &common.ValidationError{Field: "market_rate", Value: strconv.Itoa(stats.MarketRate.Count), Reason: "must equal denominator minus at_80_or_less"}
	}
	return nil
}
