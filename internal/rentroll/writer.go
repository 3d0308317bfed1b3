package rentroll

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/safe-harbor/internal/model"
)

// templateRows are the sample rows shipped in the download template.
var templateRows = []model.UnitIncomeRecord{
	{UnitNumber: "101", TenantName: "Jane Smith", HouseholdSize: 2, GrossAnnualIncome: decimal.NewFromInt(45000), MonthlyRent: decimal.NewFromInt(1100)},
	{UnitNumber: "102", TenantName: "John Doe", HouseholdSize: 1, GrossAnnualIncome: decimal.NewFromInt(38000), MonthlyRent: decimal.NewFromInt(950)},
	{UnitNumber: "103", TenantName: "Maria Garcia", HouseholdSize: 4, GrossAnnualIncome: decimal.NewFromInt(72000), MonthlyRent: decimal.NewFromInt(1450)},
}

// Write serialises records in rent roll format, header first.
func Write(w io.Writer, records []model.UnitIncomeRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, r := range records {
		if err := cw.Write([]string{
			r.UnitNumber,
			r.TenantName,
			strconv.Itoa(r.HouseholdSize),
			r.GrossAnnualIncome.String(),
			r.MonthlyRent.String(),
		}); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Format returns records as rent roll text.
func Format(records []model.UnitIncomeRecord) string {
	var b strings.Builder
	// strings.Builder never returns a write error.
	_ = Write(&b, records)
	return b.String()
}

// Template returns the download template: the header plus sample rows.
func Template() string {
	return Format(templateRows)
}

// NewRecord builds a manually entered record with the same checks applied to parsed rows.
func NewRecord(unit, tenant string, householdSize int, income, rent string) (model.UnitIncomeRecord, error) {
	fields := []string{unit, tenant, strconv.Itoa(householdSize), income, rent}
	rec, err := parseRow(fields)
	if err != nil {
		return model.UnitIncomeRecord{}, err
	}
	return rec, nil
}
