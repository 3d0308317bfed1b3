// Package rentroll converts rent roll text to unit income records and back.
//
// The format is UTF-8 comma separated text whose first line is a header:
//
//	Unit,Tenant Name,Household Size,Annual Income,Monthly Rent
//
// Parsing is all or nothing: the first bad row fails the whole parse.
package rentroll

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/safe-harbor/internal/common"
	"github.com/Veraticus/safe-harbor/internal/model"
)

// Column names, in file order.
const (
	ColumnUnit          = "Unit"
	ColumnTenantName    = "Tenant Name"
	ColumnHouseholdSize = "Household Size"
	ColumnAnnualIncome  = "Annual Income"
	ColumnMonthlyRent   = "Monthly Rent"
)

// Columns is the fixed header of a rent roll.
var Columns = []string{ColumnUnit, ColumnTenantName, ColumnHouseholdSize, ColumnAnnualIncome, ColumnMonthlyRent}

// ParseError identifies the row and column that stopped a parse.
type ParseError struct {
	Err    error
	Column string
	Value  string
	// Row is the 1-based data row, not counting the header.
	Row int
	// Line is the 1-based line in the input.
	Line int
}

func (e *ParseError) Error() string {
	msg := "rent roll"
	if e.Row > 0 {
		msg += fmt.Sprintf(" row %d (line %d)", e.Row, e.Line)
	}
	if e.Column != "" {
		msg += fmt.Sprintf(": %s %q", e.Column, e.Value)
	}
	return msg + ": " + e.Err.Error()
}

// Is matches common.ErrValidation.
func (e *ParseError) Is(target error) bool {
	return target == common.ErrValidation
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse reads a rent roll. The header line is skipped, blank lines are
// ignored and every field is trimmed.
func Parse(r io.Reader) ([]model.UnitIncomeRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	var (
		records []model.UnitIncomeRecord
		header  = true
		row     int
	)

	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			pe := &ParseError{Row: row + 1, Err: err}
			var csvErr *csv.ParseError
			if errors.As(err, &csvErr) {
				pe.Line = csvErr.Line
			}
			return nil, pe
		}
		line, _ := reader.FieldPos(0)

		if blank(fields) {
			continue
		}
		if header {
			header = false
			continue
		}

		row++
		rec, perr := parseRow(fields)
		if perr != nil {
			perr.Row = row
			perr.Line = line
			return nil, perr
		}
		records = append(records, rec)
	}

	return records, nil
}

// ParseString parses rent roll text.
func ParseString(text string) ([]model.UnitIncomeRecord, error) {
	return Parse(strings.NewReader(text))
}

func parseRow(fields []string) (model.UnitIncomeRecord, *ParseError) {
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	if len(fields) != len(Columns) {
		return model.UnitIncomeRecord{}, &ParseError{
			Err: fmt.Errorf("expected %d columns, got %d", len(Columns), len(fields)),
		}
	}

	unit := fields[0]
	if unit == "" {
		return model.UnitIncomeRecord{}, &ParseError{Column: ColumnUnit, Err: errors.New("unit is required")}
	}

	size, err := strconv.Atoi(fields[2])
	if err != nil {
		return model.UnitIncomeRecord{}, &ParseError{Column: ColumnHouseholdSize, Value: fields[2], Err: errors.New("not a whole number")}
	}
	if size < 1 {
		return model.UnitIncomeRecord{}, &ParseError{Column: ColumnHouseholdSize, Value: fields[2], Err: errors.New("must be at least 1")}
	}

	income, perr := parseMoney(ColumnAnnualIncome, fields[3])
	if perr != nil {
		return model.UnitIncomeRecord{}, perr
	}
	rent, perr := parseMoney(ColumnMonthlyRent, fields[4])
	if perr != nil {
		return model.UnitIncomeRecord{}, perr
	}

	return model.UnitIncomeRecord{
		UnitNumber:        unit,
		TenantName:        fields[1],
		HouseholdSize:     size,
		GrossAnnualIncome: income,
		MonthlyRent:       rent,
	}, nil
}

// parseMoney accepts plain decimal numbers and tolerates a leading "$" and
// thousands separators. Exponent forms such as "1e3" are rejected.
func parseMoney(column, raw string) (decimal.Decimal, *ParseError) {
	cleaned := strings.TrimPrefix(strings.TrimSpace(raw), "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" {
		return decimal.Zero, &ParseError{Column: column, Value: raw, Err: errors.New("is required")}
	}
	if strings.ContainsAny(cleaned, "eE") {
		return decimal.Zero, &ParseError{Column: column, Value: raw, Err: errors.New("not a number")}
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, &ParseError{Column: column, Value: raw, Err: errors.New("not a number")}
	}
	if amount.IsNegative() {
		return decimal.Zero, &ParseError{Column: column, Value: raw, Err: errors.New("cannot be negative")}
	}
	return amount, nil
}

func blank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
