package compliance

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/safe-harbor/internal/common"
	"github.com/Veraticus/safe-harbor/internal/model"
)

func newEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	e, err := NewEvaluator(DefaultThresholds())
	require.NoError(t, err)
	return e
}

func TestAnalyze_OptionAPreferredWhenBothMet(t *testing.T) {
	// 4 at <=50%, 8 at 51-80%, 4 market.
	result, err := newTestEngine(t).Analyze(rentRoll(4, 4, 4, 4), 16)
	require.NoError(t, err)

	assert.Equal(t, "25.0", result.OptionA.Actual.StringFixed(1))
	assert.True(t, result.OptionA.Met)
	assert.True(t, result.OptionB.Met)
	assert.True(t, result.Qualifying.Met)
	assert.True(t, result.MarketRateCap.Met)
	assert.True(t, result.IsCompliant)
	assert.Equal(t, model.StatusCompliant, result.Status)
	assert.Equal(t, model.OptionA, result.Option)
	assert.Empty(t, result.Critical())
}

func TestAnalyze_OptionBWhenOptionAFails(t *testing.T) {
	// 2 at <=50% (12.5%), 7 at <=60% (43.75%), 12 at <=80%.
	result, err := newTestEngine(t).Analyze(rentRoll(2, 5, 5, 4), 16)
	require.NoError(t, err)

	assert.False(t, result.OptionA.Met)
	assert.Equal(t, "12.5", result.OptionA.Actual.StringFixed(1))
	assert.Equal(t, 2, result.OptionA.UnitsNeeded)
	assert.True(t, result.OptionB.Met)
	assert.True(t, result.IsCompliant)
	assert.Equal(t, model.OptionB, result.Option)
}

func TestEvaluate_OptionBExactlyForty(t *testing.T) {
	result, err := newEvaluator(t).Evaluate(StatsFromCounts(10, 1, 4, 8))
	require.NoError(t, err)

	assert.False(t, result.OptionA.Met)
	assert.True(t, result.OptionB.Met)
	assert.True(t, result.IsCompliant)
	assert.Equal(t, model.OptionB, result.Option)
}

func TestEvaluate_QualifyingShortfall(t *testing.T) {
	result, err := newEvaluator(t).Evaluate(StatsFromCounts(10, 2, 4, 6))
	require.NoError(t, err)

	assert.False(t, result.Qualifying.Met)
	assert.Equal(t, 2, result.Qualifying.UnitsNeeded)
	assert.False(t, result.MarketRateCap.Met)
	assert.Equal(t, 2, result.MarketRateCap.UnitsExcess)
	assert.True(t, result.OptionA.Met)
	assert.Equal(t, 0, result.OptionA.UnitsNeeded)
	assert.False(t, result.IsCompliant)
	assert.Equal(t, model.StatusNonCompliant, result.Status)
	assert.Equal(t, model.OptionNone, result.Option)
}

func TestEvaluate_EmptyProperty(t *testing.T) {
	result, err := newTestEngine(t).Analyze(nil, 0)
	require.NoError(t, err)

	assert.False(t, result.IsCompliant)
	assert.Equal(t, model.StatusNonCompliant, result.Status)
	assert.True(t, result.Stats.Degenerate)
	for _, v := range []model.ThresholdVerdict{result.Qualifying, result.MarketRateCap, result.OptionA, result.OptionB} {
		assert.False(t, v.Met, v.Name)
		assert.True(t, v.Actual.IsZero(), v.Name)
	}
	require.Len(t, result.Recommendations, 1)
	assert.Equal(t, model.RecommendationCritical, result.Recommendations[0].Type)
}

func TestEvaluate_ComparesUnroundedRatios(t *testing.T) {
	// 1500/2001 = 74.96% displays as 75.0 but does not meet 75%.
	result, err := newEvaluator(t).Evaluate(StatsFromCounts(2001, 500, 900, 1500))
	require.NoError(t, err)

	assert.Equal(t, "75.0", result.Qualifying.Actual.StringFixed(1))
	assert.False(t, result.Qualifying.Met)
	assert.Equal(t, 1, result.Qualifying.UnitsNeeded)

	assert.Equal(t, "25.0", result.MarketRateCap.Actual.StringFixed(1))
	assert.False(t, result.MarketRateCap.Met)
	assert.Equal(t, 1, result.MarketRateCap.UnitsExcess)
	assert.False(t, result.IsCompliant)
}

func TestEvaluate_Recommendations(t *testing.T) {
	result, err := newEvaluator(t).Evaluate(StatsFromCounts(10, 1, 3, 6))
	require.NoError(t, err)

	require.Len(t, result.Recommendations, 4)
	types := make([]model.RecommendationType, 0, 4)
	for _, r := range result.Recommendations {
		types = append(types, r.Type)
	}
	assert.Equal(t, []model.RecommendationType{
		model.RecommendationCritical,
		model.RecommendationCritical,
		model.RecommendationWarning,
		model.RecommendationWarning,
	}, types)

	assert.Contains(t, result.Recommendations[0].Message, "2 more units")
	assert.Contains(t, result.Recommendations[1].Message, "2 market-rate units")
	assert.Contains(t, result.Recommendations[2].Message, "Option A")
	assert.Contains(t, result.Recommendations[2].Message, "1 more unit needed")
	assert.Contains(t, result.Recommendations[3].Message, "Option B")
	assert.Contains(t, result.Recommendations[3].Message, "1 more unit needed")
	assert.Len(t, result.Critical(), 2)
}

func TestEvaluate_DeepAffordabilityWarningsOnlyWhenBothFail(t *testing.T) {
	result, err := newEvaluator(t).Evaluate(StatsFromCounts(10, 1, 4, 6))
	require.NoError(t, err)

	for _, r := range result.Recommendations {
		assert.NotContains(t, r.Message, "Deep affordability")
	}
}

func TestEvaluate_CostBurdenWarnings(t *testing.T) {
	units := rentRoll(4, 4, 4, 4)
	units[0].MonthlyRent = dec("1500")  // 45% of 40,000
	units[15].MonthlyRent = dec("3000") // market, not flagged

	result, err := newTestEngine(t).Analyze(units, 0)
	require.NoError(t, err)
	require.True(t, result.IsCompliant)

	require.Len(t, result.Recommendations, 1)
	rec := result.Recommendations[0]
	assert.Equal(t, model.RecommendationWarning, rec.Type)
	assert.Equal(t, units[0].UnitNumber, rec.UnitNumber)
	assert.True(t, strings.HasPrefix(rec.Message, "Unit "+units[0].UnitNumber))
	assert.Contains(t, rec.Message, "45.0%")
}

func TestEvaluate_StructuralErrors(t *testing.T) {
	e := newEvaluator(t)

	bad := map[string]*model.AggregateStats{
		"nil":                  nil,
		"negative denominator": {Denominator: -1},
		"negative count":       {Denominator: 4, At50AMI: model.CategoryCount{Count: -1}},
		"count over denominator": {
			Denominator: 2,
			At80OrLess:  model.CategoryCount{Count: 3},
		},
		"tiers not monotonic": {
			Denominator: 10,
			At50AMI:     model.CategoryCount{Count: 5},
			At60OrLess:  model.CategoryCount{Count: 4},
			At80OrLess:  model.CategoryCount{Count: 8},
			MarketRate:  model.CategoryCount{Count: 2},
		},
		"market mismatch": {
			Denominator: 10,
			At80OrLess:  model.CategoryCount{Count: 8},
			MarketRate:  model.CategoryCount{Count: 5},
		},
	}

	for name, stats := range bad {
		t.Run(name, func(t *testing.T) {
			result, err := e.Evaluate(stats)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, common.ErrValidation)
		})
	}
}

func TestEvaluate_IsStateless(t *testing.T) {
	e := newEvaluator(t)

	failing, err := e.Evaluate(StatsFromCounts(10, 0, 0, 0))
	require.NoError(t, err)
	passing, err := e.Evaluate(StatsFromCounts(10, 3, 5, 9))
	require.NoError(t, err)
	again, err := e.Evaluate(StatsFromCounts(10, 0, 0, 0))
	require.NoError(t, err)

	assert.False(t, failing.IsCompliant)
	assert.True(t, passing.IsCompliant)
	assert.Equal(t, failing, again)
}

func TestThresholds_Validate(t *testing.T) {
	assert.NoError(t, DefaultThresholds().Validate())

	th := DefaultThresholds()
	th.OptionB = dec("0")
	assert.ErrorIs(t, th.Validate(), common.ErrInvalidConfig)

	th = DefaultThresholds()
	th.Qualifying = dec("100.5")
	assert.ErrorIs(t, th.Validate(), common.ErrInvalidConfig)

	_, err := NewEngine(nil, th)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestEvaluate_CustomThresholds(t *testing.T) {
	th := DefaultThresholds()
	th.Qualifying = dec("90")
	th.MarketRateCap = dec("10")
	e, err := NewEvaluator(th)
	require.NoError(t, err)

	result, err := e.Evaluate(StatsFromCounts(10, 3, 5, 8))
	require.NoError(t, err)
	assert.False(t, result.Qualifying.Met)
	assert.Equal(t, 1, result.Qualifying.UnitsNeeded)
	assert.False(t, result.MarketRateCap.Met)
	assert.Equal(t, 1, result.MarketRateCap.UnitsExcess)
}

func TestAnalyzePortfolio(t *testing.T) {
	elm := rentRoll(4, 4, 4, 4)
	oak := rentRoll(0, 1, 1, 2)
	oak[0].MonthlyRent = dec("2000") // 43.6% of 55,000

	result, err := newTestEngine(t).AnalyzePortfolio([]PropertyInput{
		{Name: "Elm Court", Units: elm},
		{Name: "Oak Terrace", Units: oak},
	})
	require.NoError(t, err)
	require.Len(t, result.Properties, 2)

	assert.True(t, result.Properties[0].Result.IsCompliant)
	assert.False(t, result.Properties[1].Result.IsCompliant)
	assert.Equal(t, 1, result.CompliantCount())

	// Combined: 20 units, 4 at50 (20%), 9 at60, 14 at80 (70%), 6 market (30%).
	combined := result.Combined
	assert.Equal(t, 20, combined.Stats.Denominator)
	assert.True(t, combined.OptionA.Met)
	assert.False(t, combined.Qualifying.Met)
	assert.Equal(t, 1, combined.Qualifying.UnitsNeeded)
	assert.False(t, combined.IsCompliant)

	var burdened []model.Recommendation
	for _, r := range combined.Recommendations {
		if r.UnitNumber != "" {
			burdened = append(burdened, r)
		}
	}
	require.Len(t, burdened, 1)
	assert.True(t, strings.HasPrefix(burdened[0].Message, "Oak Terrace unit "))
}
