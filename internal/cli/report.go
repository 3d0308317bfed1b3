package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/safe-harbor/internal/incomelimits"
	"github.com/Veraticus/safe-harbor/internal/model"
)

// ReportOptions controls how much of a result is rendered.
type ReportOptions struct {
	Title string
	// Area and Year describe the income limit table the result was computed with.
	Area string
	Year int
	// ShowUnits adds the per-unit classification table.
	ShowUnits bool
}

// RenderResult writes a human-readable compliance report.
func RenderResult(w io.Writer, result *model.ComplianceResult, opts ReportOptions) error {
	var b strings.Builder

	title := opts.Title
	if title == "" {
		title = "Safe Harbor Compliance"
	}
	b.WriteString(FormatTitle(title) + "\n")
	if opts.Area != "" {
		b.WriteString(SubtleStyle.Render(fmt.Sprintf("Income limits: %s (%d)", opts.Area, opts.Year)) + "\n")
	}
	b.WriteString(FormatStatus(result.Status, result.Option) + "\n\n")

	stats := result.Stats
	if stats.Degenerate {
		b.WriteString(FormatWarning("No units to assess") + "\n\n")
	}

	b.WriteString(BoldStyle.Render("AMI tiers") + "\n")
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "TIER\tUNITS\t% OF TOTAL")
	tiers := []struct {
		count model.CategoryCount
		name  string
	}{
		{stats.At50AMI, "≤50% AMI"},
		{stats.At60OrLess, "≤60% AMI"},
		{stats.At80OrLess, "≤80% AMI"},
		{stats.MarketRate, ">80% AMI (market)"},
	}
	for _, tier := range tiers {
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\n", tier.name, tier.count.Count, FormatPercent(tier.count.Percentage))
	}
	_ = tw.Flush()
	fmt.Fprintf(&b, "Total units: %d", stats.Denominator)
	if stats.Unverified.Count > 0 {
		fmt.Fprintf(&b, " (%d without income data, counted as market rate)", stats.Unverified.Count)
	}
	b.WriteString("\n\n")

	b.WriteString(BoldStyle.Render("Thresholds") + "\n")
	tw = tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "TEST\tREQUIRED\tACTUAL\tRESULT")
	verdicts := []struct {
		v   model.ThresholdVerdict
		cmp string
	}{
		{result.Qualifying, "≥"},
		{result.MarketRateCap, "≤"},
		{result.OptionA, "≥"},
		{result.OptionB, "≥"},
	}
	for _, row := range verdicts {
		_, _ = fmt.Fprintf(tw, "%s\t%s %s\t%s\t%s\n",
			row.v.Name, row.cmp, FormatPercent(row.v.Required), FormatPercent(row.v.Actual), verdictDetail(row.v))
	}
	_ = tw.Flush()
	b.WriteString("\n")

	if len(result.Recommendations) > 0 {
		b.WriteString(BoldStyle.Render("Recommendations") + "\n")
		for _, rec := range result.Recommendations {
			if rec.Type == model.RecommendationCritical {
				b.WriteString(CriticalStyle.Render(ErrorIcon+" "+rec.Message) + "\n")
				continue
			}
			b.WriteString(FormatWarning(rec.Message) + "\n")
		}
		b.WriteString("\n")
	}

	if opts.ShowUnits && len(stats.Units) > 0 {
		b.WriteString(BoldStyle.Render("Units") + "\n")
		writeUnitTable(&b, stats.Units)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func verdictDetail(v model.ThresholdVerdict) string {
	detail := FormatMet(v.Met)
	switch {
	case v.UnitsNeeded > 0:
		detail += fmt.Sprintf(" (%d more %s)", v.UnitsNeeded, units(v.UnitsNeeded))
	case v.UnitsExcess > 0:
		detail += fmt.Sprintf(" (%d %s over)", v.UnitsExcess, units(v.UnitsExcess))
	}
	return detail
}

func units(n int) string {
	if n == 1 {
		return "unit"
	}
	return "units"
}

func writeUnitTable(w io.Writer, rows []model.ClassifiedUnit) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "UNIT\tTENANT\tSIZE\tINCOME\tRENT\tAMI\tCATEGORY\tRENT/INCOME")
	for _, u := range rows {
		unit := u.UnitNumber
		if u.Property != "" {
			unit = u.Property + " " + u.UnitNumber
		}
		ratio := "n/a"
		if u.RentToIncomeRatio != nil {
			ratio = FormatPercent(*u.RentToIncomeRatio)
			if u.CostBurdened() {
				ratio += " " + WarningIcon
			}
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%d%%\t%s\t%s\n",
			unit, u.TenantName, u.HouseholdSize,
			FormatMoney(u.GrossAnnualIncome), FormatMoney(u.MonthlyRent),
			u.AMIPercentage, u.Category.Label(), ratio)
	}
	_ = tw.Flush()
}

// RenderPortfolio writes the combined result followed by a per-property summary.
func RenderPortfolio(w io.Writer, portfolio *model.PortfolioResult, opts ReportOptions) error {
	if opts.Title == "" {
		opts.Title = "Portfolio Compliance"
	}
	showUnits := opts.ShowUnits
	opts.ShowUnits = false
	if err := RenderResult(w, portfolio.Combined, opts); err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString(BoldStyle.Render(fmt.Sprintf("Properties (%d of %d compliant)",
		portfolio.CompliantCount(), len(portfolio.Properties))) + "\n")
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "PROPERTY\tUNITS\t≤80%\t>80%\t≤50%\t≤60%\tSTATUS")
	for _, p := range portfolio.Properties {
		s := p.Result.Stats
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
			p.Name, s.Denominator,
			FormatPercent(s.At80OrLess.Percentage), FormatPercent(s.MarketRate.Percentage),
			FormatPercent(s.At50AMI.Percentage), FormatPercent(s.At60OrLess.Percentage),
			statusLabel(p.Result))
	}
	_ = tw.Flush()
	b.WriteString("\n")

	if showUnits && len(portfolio.Combined.Stats.Units) > 0 {
		b.WriteString(BoldStyle.Render("Units") + "\n")
		writeUnitTable(&b, portfolio.Combined.Stats.Units)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func statusLabel(r *model.ComplianceResult) string {
	if r.Option != model.OptionNone {
		return string(r.Status) + " (" + string(r.Option) + ")"
	}
	return string(r.Status)
}

// RenderClassification writes the result of classifying a single household.
func RenderClassification(w io.Writer, unit model.ClassifiedUnit, limits incomelimits.Limits) error {
	var details strings.Builder
	tw := tabwriter.NewWriter(&details, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "Annual income\t%s\n", FormatMoney(unit.GrossAnnualIncome))
	_, _ = fmt.Fprintf(tw, "Household size\t%d\n", unit.HouseholdSize)
	_, _ = fmt.Fprintf(tw, "100%% AMI for size\t%s\n", FormatMoney(limits.AMI100()))
	_, _ = fmt.Fprintf(tw, "AMI percentage\t%d%%\n", unit.AMIPercentage)
	_, _ = fmt.Fprintf(tw, "Category\t%s\n", unit.Category.Label())
	_, _ = fmt.Fprintf(tw, "Qualifies at 50%%\t%s\n", yesNo(unit.QualifiesAt50))
	_, _ = fmt.Fprintf(tw, "Qualifies at 60%%\t%s\n", yesNo(unit.QualifiesAt60))
	_, _ = fmt.Fprintf(tw, "Qualifies at 80%%\t%s\n", yesNo(unit.QualifiesAt80))
	if unit.MonthlyRent.IsPositive() {
		ratio := "n/a (no income)"
		if unit.RentToIncomeRatio != nil {
			ratio = FormatPercent(*unit.RentToIncomeRatio)
		}
		_, _ = fmt.Fprintf(tw, "Monthly rent\t%s\n", FormatMoney(unit.MonthlyRent))
		_, _ = fmt.Fprintf(tw, "Rent to income\t%s\n", ratio)
	}
	_ = tw.Flush()

	var b strings.Builder
	b.WriteString(RenderBox(HarborIcon+" Household classification", strings.TrimRight(details.String(), "\n")) + "\n")
	if unit.CostBurdened() {
		b.WriteString(FormatWarning("Rent exceeds 30% of household income") + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderLimits writes an income limit table.
func RenderLimits(w io.Writer, table *incomelimits.Table) error {
	var b strings.Builder
	b.WriteString(FormatTitle(fmt.Sprintf("Income limits: %s (%d)", table.Area(), table.Year())) + "\n")

	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "SIZE\t50% AMI\t60% AMI\t80% AMI\t100% AMI")
	for _, row := range table.Rows() {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			row.HouseholdSize,
			FormatMoney(row.VeryLow), FormatMoney(row.Low60), FormatMoney(row.Low80), FormatMoney(row.AMI100()))
	}
	_ = tw.Flush()

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderSnapshots writes a snapshot history listing.
func RenderSnapshots(w io.Writer, snapshots []model.ComplianceSnapshot) error {
	if len(snapshots) == 0 {
		_, err := fmt.Fprintln(w, FormatInfo("No snapshots found"))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tPROPERTY\tANALYZED\tUNITS\tSTATUS\tSOURCE")
	for _, s := range snapshots {
		status := string(s.Status)
		if s.Option != model.OptionNone {
			status += " (" + string(s.Option) + ")"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			s.ID, s.PropertyName, s.AnalyzedAt.Local().Format("2006-01-02 15:04"), s.Denominator, status, s.Source)
	}
	return tw.Flush()
}

// FormatPercent renders a percentage with one decimal place.
func FormatPercent(d decimal.Decimal) string {
	return d.StringFixed(1) + "%"
}

// FormatMoney renders an amount as dollars with thousands separators.
func FormatMoney(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	fixed := d.StringFixed(2)
	whole, cents := fixed[:len(fixed)-3], fixed[len(fixed)-2:]

	var grouped strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(r)
	}
	return sign + "$" + grouped.String() + "." + cents
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
