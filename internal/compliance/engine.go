package compliance

import (
	"github.com/Veraticus/safe-harbor/internal/incomelimits"
	"github.com/Veraticus/safe-harbor/internal/model"
)

// Engine runs the classify, aggregate and evaluate pipeline with an explicitly
// injected income limit table and threshold set.
type Engine struct {
	classifier *Classifier
	aggregator *Aggregator
	evaluator  *Evaluator
}

// NewEngine builds an engine. A nil table selects incomelimits.Default().
func NewEngine(table *incomelimits.Table, thresholds Thresholds) (*Engine, error) {
	evaluator, err := NewEvaluator(thresholds)
	if err != nil {
		return nil, err
	}
	classifier := NewClassifier(table)
	return &Engine{
		classifier: classifier,
		aggregator: NewAggregator(classifier),
		evaluator:  evaluator,
	}, nil
}

// Classifier returns the engine's classifier.
func (e *Engine) Classifier() *Classifier { return e.classifier }

// Thresholds returns the engine's thresholds.
func (e *Engine) Thresholds() Thresholds { return e.evaluator.Thresholds() }

// Analyze evaluates one property. Validation errors abort the run; a
// non-compliant property is a normal result.
func (e *Engine) Analyze(units []model.UnitIncomeRecord, totalUnits int) (*model.ComplianceResult, error) {
	stats, err := e.aggregator.Aggregate(units, totalUnits)
	if err != nil {
		return nil, err
	}
	return e.evaluator.Evaluate(stats)
}

// AnalyzePortfolio evaluates each property on its own and the portfolio as a whole.
func (e *Engine) AnalyzePortfolio(properties []PropertyInput) (*model.PortfolioResult, error) {
	combined, perProperty, err := e.aggregator.AggregatePortfolio(properties)
	if err != nil {
		return nil, err
	}

	out := &model.PortfolioResult{Properties: make([]model.PropertyResult, 0, len(properties))}
	for i, stats := range perProperty {
		result, evalErr := e.evaluator.Evaluate(stats)
		if evalErr != nil {
			return nil, withProperty(evalErr, properties[i].Name)
		}
		out.Properties = append(out.Properties, model.PropertyResult{Name: properties[i].Name, Result: result})
	}

	out.Combined, err = e.evaluator.Evaluate(combined)
	if err != nil {
		return nil, err
	}
	return out, nil
}
