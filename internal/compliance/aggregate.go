package compliance

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/safe-harbor/internal/common"
	"github.com/Veraticus/safe-harbor/internal/model"
)

// PropertyInput is one property's rent roll within a portfolio analysis.
type PropertyInput struct {
	Name  string
	Units []model.UnitIncomeRecord
	// TotalUnits is the property's unit count; zero means len(Units).
	TotalUnits int
}

// Aggregator rolls classified units up into property and portfolio statistics.
type Aggregator struct {
	classifier *Classifier
}

// NewAggregator returns an aggregator that classifies with c.
func NewAggregator(c *Classifier) *Aggregator {
	return &Aggregator{classifier: c}
}

// Aggregate classifies every unit and counts them against totalUnits.
//
// A zero totalUnits uses len(units). A larger totalUnits represents vacant or
// unreported units; they land in the Unverified bucket and count as market rate
// because their income cannot be verified. Any invalid record aborts the whole
// aggregation.
func (a *Aggregator) Aggregate(units []model.UnitIncomeRecord, totalUnits int) (*model.AggregateStats, error) {
	return a.aggregate("", units, totalUnits)
}

func (a *Aggregator) aggregate(property string, units []model.UnitIncomeRecord, totalUnits int) (*model.AggregateStats, error) {
	if totalUnits < 0 {
		return nil, &common.ValidationError{
			Field:  "total_units",
			Value:  strconv.Itoa(totalUnits),
			Reason: "cannot be negative",
		}
	}
	if totalUnits == 0 {
		totalUnits = len(units)
	}
	if totalUnits < len(units) {
		return nil, &common.ValidationError{
			Field:  "total_units",
			Value:  strconv.Itoa(totalUnits),
			Reason: "is less than the " + strconv.Itoa(len(units)) + " recorded units",
		}
	}

	seen := make(map[string]int, len(units))
	classified := make([]model.ClassifiedUnit, 0, len(units))
	for i, record := range units {
		unit, err := a.classifier.ClassifyUnit(record)
		if err != nil {
			return nil, withRow(err, i+1)
		}

		key := strings.TrimSpace(record.UnitNumber)
		if first, dup := seen[key]; dup {
			return nil, &common.ValidationError{
				Row:    i + 1,
				Field:  "unit_number",
				Value:  key,
				Reason: "duplicates row " + strconv.Itoa(first),
			}
		}
		seen[key] = i + 1

		unit.Property = property
		classified = append(classified, unit)
	}

	return buildStats(classified, totalUnits), nil
}

// AggregatePortfolio aggregates each property and rolls them up into a single
// set of statistics whose denominator is the sum of the property denominators.
// Unit numbers only need to be unique within a property.
func (a *Aggregator) AggregatePortfolio(properties []PropertyInput) (*model.AggregateStats, []*model.AggregateStats, error) {
	perProperty := make([]*model.AggregateStats, 0, len(properties))
	var (
		units []model.ClassifiedUnit
		total int
	)

	for _, p := range properties {
		stats, err := a.aggregate(p.Name, p.Units, p.TotalUnits)
		if err != nil {
			return nil, nil, withProperty(err, p.Name)
		}
		perProperty = append(perProperty, stats)
		units = append(units, stats.Units...)
		total += stats.Denominator
	}

	return buildStats(units, total), perProperty, nil
}

// StatsFromCounts builds statistics from tier counts alone, for callers that
// already hold a roll-up (a dashboard summary, for instance) rather than unit rows.
func StatsFromCounts(denominator, at50, at60OrLess, at80OrLess int) *model.AggregateStats {
	stats := &model.AggregateStats{
		Denominator: denominator,
		Degenerate:  denominator == 0,
		ByCategory:  map[model.AMICategory]model.CategoryCount{},
	}
	stats.At50AMI = bucket(at50, denominator)
	stats.At60OrLess = bucket(at60OrLess, denominator)
	stats.At80OrLess = bucket(at80OrLess, denominator)
	stats.MarketRate = bucket(denominator-at80OrLess, denominator)
	return stats
}

func buildStats(units []model.ClassifiedUnit, denominator int) *model.AggregateStats {
	var at50, at60, at80 int
	byCategory := map[model.AMICategory]int{
		model.CategoryVeryLow:  0,
		model.CategoryLow:      0,
		model.CategoryModerate: 0,
		model.CategoryMarket:   0,
	}

	for _, u := range units {
		byCategory[u.Category]++
		if u.QualifiesAt50 {
			at50++
		}
		if u.QualifiesAt60 {
			at60++
		}
		if u.QualifiesAt80 {
			at80++
		}
	}

	stats := &model.AggregateStats{
		Units:       units,
		Recorded:    len(units),
		Denominator: denominator,
		Degenerate:  denominator == 0,
		ByCategory:  make(map[model.AMICategory]model.CategoryCount, len(byCategory)),
		Unverified:  bucket(denominator-len(units), denominator),
		At50AMI:     bucket(at50, denominator),
		At60OrLess:  bucket(at60, denominator),
		At80OrLess:  bucket(at80, denominator),
		MarketRate:  bucket(denominator-at80, denominator),
	}
	for cat, n := range byCategory {
		stats.ByCategory[cat] = bucket(n, denominator)
	}
	return stats
}

func bucket(count, denominator int) model.CategoryCount {
	return model.CategoryCount{Count: count, Percentage: displayPercent(count, denominator)}
}

// displayPercent is count/denominator as a percentage rounded to one decimal.
// It is never used for pass/fail decisions.
func displayPercent(count, denominator int) decimal.Decimal {
	if denominator == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(count)).Mul(hundred).
		DivRound(decimal.NewFromInt(int64(denominator)), 1)
}
