package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/safe-harbor/internal/compliance"
	"github.com/Veraticus/safe-harbor/internal/incomelimits"
	"github.com/Veraticus/safe-harbor/internal/model"
)

func unitRecord(unit string, income int64, size int, rent int64) model.UnitIncomeRecord {
	return model.UnitIncomeRecord{
		UnitNumber:        unit,
		HouseholdSize:     size,
		GrossAnnualIncome: decimal.NewFromInt(income),
		MonthlyRent:       decimal.NewFromInt(rent),
	}
}

func analyze(t *testing.T, units []model.UnitIncomeRecord) *model.ComplianceResult {
	t.Helper()
	engine, err := compliance.NewEngine(nil, compliance.DefaultThresholds())
	require.NoError(t, err)
	result, err := engine.Analyze(units, 0)
	require.NoError(t, err)
	return result
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"999.5", "$999.50"},
		{"1000", "$1,000.00"},
		{"76800", "$76,800.00"},
		{"1234567.891", "$1,234,567.89"},
		{"-2500", "-$2,500.00"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatMoney(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "75.0%", FormatPercent(decimal.NewFromInt(75)))
	assert.Equal(t, "43.8%", FormatPercent(decimal.RequireFromString("43.75")))
}

func TestRenderResult(t *testing.T) {
	result := analyze(t, []model.UnitIncomeRecord{
		unitRecord("101", 40000, 2, 1500),
		unitRecord("102", 40000, 2, 900),
		unitRecord("103", 55000, 2, 900),
		unitRecord("104", 100000, 2, 2500),
	})

	var buf bytes.Buffer
	require.NoError(t, RenderResult(&buf, result, ReportOptions{
		Title:     "Elm Court",
		Area:      "Default Metro Area",
		Year:      2025,
		ShowUnits: true,
	}))

	out := buf.String()
	assert.Contains(t, out, "Elm Court")
	assert.Contains(t, out, "Income limits: Default Metro Area (2025)")
	assert.Contains(t, out, "COMPLIANT (Option A)")
	assert.Contains(t, out, "75.0%")
	assert.Contains(t, out, compliance.VerdictQualifying)
	assert.Contains(t, out, "Unit 101")
	assert.Contains(t, out, "$40,000.00")
	assert.Contains(t, out, "Very Low")
}

func TestRenderResult_Degenerate(t *testing.T) {
	engine, err := compliance.NewEngine(nil, compliance.DefaultThresholds())
	require.NoError(t, err)
	result, err := engine.Analyze(nil, 0)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderResult(&buf, result, ReportOptions{}))

	out := buf.String()
	assert.Contains(t, out, "NON_COMPLIANT")
	assert.Contains(t, out, "No units to assess")
}

func TestRenderPortfolio(t *testing.T) {
	engine, err := compliance.NewEngine(nil, compliance.DefaultThresholds())
	require.NoError(t, err)

	portfolio, err := engine.AnalyzePortfolio([]compliance.PropertyInput{
		{Name: "Elm Court", Units: []model.UnitIncomeRecord{
			unitRecord("1", 40000, 2, 900),
			unitRecord("2", 40000, 2, 900),
		}},
		{Name: "Oak Terrace", Units: []model.UnitIncomeRecord{
			unitRecord("1", 100000, 2, 2500),
		}},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderPortfolio(&buf, portfolio, ReportOptions{ShowUnits: true}))

	out := buf.String()
	assert.Contains(t, out, "Portfolio Compliance")
	assert.Contains(t, out, "Properties (1 of 2 compliant)")
	assert.Contains(t, out, "Elm Court")
	assert.Contains(t, out, "Oak Terrace 1")
}

func TestRenderClassification(t *testing.T) {
	engine, err := compliance.NewEngine(nil, compliance.DefaultThresholds())
	require.NoError(t, err)

	unit, err := engine.Classifier().ClassifyUnit(unitRecord("-", 40000, 2, 1200))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderClassification(&buf, unit, engine.Classifier().Table().LimitsFor(2)))

	out := buf.String()
	assert.Contains(t, out, "$96,000.00")
	assert.Contains(t, out, "42%")
	assert.Contains(t, out, "36.0%")
	assert.Contains(t, out, "Rent exceeds 30% of household income")
}

func TestRenderLimits(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderLimits(&buf, incomelimits.Default()))

	out := buf.String()
	assert.Contains(t, out, "Default Metro Area (2025)")
	assert.Contains(t, out, "$48,000.00")
	assert.Contains(t, out, "$57,600.00")
	assert.Contains(t, out, "$76,800.00")
}

func TestRenderSnapshots(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderSnapshots(&buf, nil))
	assert.Contains(t, buf.String(), "No snapshots found")

	buf.Reset()
	snap := model.ComplianceSnapshot{
		ID:           "8d2b3f4e-2c1a-4f5e-9b7d-0a1b2c3d4e5f",
		PropertyName: "Elm Court",
		AnalyzedAt:   time.Date(2025, 4, 2, 9, 30, 0, 0, time.UTC),
		Denominator:  16,
		Status:       model.StatusCompliant,
		Option:       model.OptionB,
		Source:       "elm.csv",
	}
	require.NoError(t, RenderSnapshots(&buf, []model.ComplianceSnapshot{snap}))
	out := buf.String()
	assert.Contains(t, out, snap.ID)
	assert.Contains(t, out, "COMPLIANT (B)")
	assert.Contains(t, out, "elm.csv")
}
