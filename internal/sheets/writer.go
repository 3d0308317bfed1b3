package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/Veraticus/safe-harbor/internal/common"
	"github.com/Veraticus/safe-harbor/internal/model"
	"github.com/Veraticus/safe-harbor/internal/service"
)

// Writer implements the ReportWriter interface for Google Sheets.
type Writer struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

// NewWriter creates a new Google Sheets report writer.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// Create the Sheets service
	service, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Writer{
		config:  config,
		service: service,
		logger:  logger,
	}, nil
}

// Write implements the ReportWriter interface.
func (w *Writer) Write(ctx context.Context, snap *model.ComplianceSnapshot) error {
	if snap == nil || snap.Result == nil {
		return errors.New("snapshot has no result to export")
	}

	w.logger.Info("starting report generation",
		"snapshot", snap.ID,
		"property", snap.PropertyName,
		"units", len(snap.Result.Stats.Units))

	// Not retried: a create that failed after landing would duplicate the spreadsheet.
	spreadsheetID, err := w.getOrCreateSpreadsheet(ctx)
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	if clearErr := w.retry(ctx, func() error { return w.clearSheet(ctx, spreadsheetID) }); clearErr != nil {
		return fmt.Errorf("failed to clear sheet: %w", clearErr)
	}

	report := prepareReportData(snap)
	values := report.values

	if err := w.retry(ctx, func() error { return w.writeData(ctx, spreadsheetID, values) }); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}

	// Formatting failures leave the data in place.
	if w.config.EnableFormatting {
		if err := w.retry(ctx, func() error { return w.applyFormatting(ctx, spreadsheetID, report) }); err != nil {
			w.logger.Warn("failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("report generation completed",
		"spreadsheet_id", spreadsheetID,
		"rows_written", len(values))

	return nil
}

// retry runs op under the writer's retry policy, classifying Sheets API errors.
func (w *Writer) retry(ctx context.Context, op func() error) error {
	return common.WithRetry(ctx, func() error {
		return apiError(op())
	}, service.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	})
}

// createSheetsService creates a Google Sheets API service.
func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		client := OAuth2Config{ClientID: config.ClientID, ClientSecret: config.ClientSecret}.clientConfig()
		tokenSource = client.TokenSource(ctx, &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		})
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return srv, nil
}

// getOrCreateSpreadsheet gets an existing spreadsheet or creates a new one.
func (w *Writer) getOrCreateSpreadsheet(ctx context.Context) (string, error) {
	if w.config.SpreadsheetID != "" {
		// Verify the spreadsheet exists and is accessible
		_, err := w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
		}
		return w.config.SpreadsheetID, nil
	}

	// Create a new spreadsheet
	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:    w.config.SpreadsheetName,
			TimeZone: w.config.TimeZone,
		},
		Sheets: []*sheets.Sheet{
			{
				Properties: &sheets.SheetProperties{
					Title: "Compliance",
				},
			},
		},
	}

	created, err := w.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	w.logger.Info("created new spreadsheet",
		"id", created.SpreadsheetId,
		"url", created.SpreadsheetUrl)

	return created.SpreadsheetId, nil
}

// clearSheet clears all data from the sheet.
func (w *Writer) clearSheet(ctx context.Context, spreadsheetID string) error {
	_, err := w.service.Spreadsheets.Values.Clear(spreadsheetID, "A:Z", &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

// reportLayout is the sheet contents plus the row offsets formatting needs.
type reportLayout struct {
	values [][]any
	// unitHeaderRow is the zero-based row of the unit detail header.
	unitHeaderRow int
}

// prepareReportData lays out a snapshot as summary, threshold verdicts,
// tier breakdown, recommendations and unit details.
func prepareReportData(snap *model.ComplianceSnapshot) reportLayout {
	result := snap.Result
	stats := result.Stats

	// Header(2) + Summary(8) + Thresholds(4+verdicts) + Tiers(3+4) + Recs(3) + Units(3)
	estimatedRows := 30 + len(result.Recommendations) + len(stats.Units)
	values := make([][]any, 0, estimatedRows)

	option := string(result.Option)
	if option == "" {
		option = "None"
	}

	values = append(values,
		[]any{
			"Safe Harbor Compliance Report",
			snap.PropertyName,
			snap.AnalyzedAt.Format("Jan 2, 2006 15:04 MST"),
		},
		[]any{}, // Empty row
		[]any{"Summary"},
		[]any{"Status", string(result.Status)},
		[]any{"Deep Affordability Option", option},
		[]any{"Income Limits", fmt.Sprintf("%s (%d)", snap.Area, snap.Year)},
		[]any{"Total Units", stats.Denominator},
		[]any{"Units With Income Data", stats.Recorded},
		[]any{"Unverified Units", stats.Unverified.Count},
		[]any{"Source", snap.Source},
		[]any{}, // Empty row
		[]any{"Threshold Verdicts"},
		[]any{"Threshold", "Required %", "Actual %", "Met", "Units Needed", "Units Over Cap"},
	)

	for _, v := range []model.ThresholdVerdict{result.Qualifying, result.MarketRateCap, result.OptionA, result.OptionB} {
		values = append(values, []any{
			v.Name,
			v.Required.String(),
			v.Actual.String(),
			yesNo(v.Met),
			v.UnitsNeeded,
			v.UnitsExcess,
		})
	}

	values = append(values,
		[]any{}, // Empty row
		[]any{"AMI Tier Breakdown"},
		[]any{"Tier", "Units", "% of Total"},
		[]any{"At or below 50% AMI", stats.At50AMI.Count, stats.At50AMI.Percentage.String()},
		[]any{"At or below 60% AMI", stats.At60OrLess.Count, stats.At60OrLess.Percentage.String()},
		[]any{"At or below 80% AMI", stats.At80OrLess.Count, stats.At80OrLess.Percentage.String()},
		[]any{"Market rate", stats.MarketRate.Count, stats.MarketRate.Percentage.String()},
		[]any{}, // Empty row
		[]any{"Recommendations"},
	)

	if len(result.Recommendations) == 0 {
		values = append(values, []any{"none", "No action required."})
	}
	for _, rec := range result.Recommendations {
		values = append(values, []any{string(rec.Type), rec.Message})
	}

	values = append(values,
		[]any{}, // Empty row
		[]any{}, // Empty row
		[]any{"Unit Details"},
	)
	unitHeaderRow := len(values)
	values = append(values, []any{
		"Unit",
		"Tenant",
		"Household Size",
		"Annual Income",
		"Monthly Rent",
		"AMI %",
		"Category",
		"Rent/Income %",
		"Cost Burdened",
	})

	for _, u := range stats.Units {
		ratio := "n/a"
		if u.RentToIncomeRatio != nil {
			ratio = u.RentToIncomeRatio.String()
		}
		unit := u.UnitNumber
		if u.Property != "" {
			unit = u.Property + " " + u.UnitNumber
		}
		values = append(values, []any{
			unit,
			u.TenantName,
			u.HouseholdSize,
			u.GrossAnnualIncome.InexactFloat64(),
			u.MonthlyRent.InexactFloat64(),
			u.AMIPercentage,
			u.Category.Label(),
			ratio,
			yesNo(u.CostBurdened()),
		})
	}

	return reportLayout{values: values, unitHeaderRow: unitHeaderRow}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// writeData writes the data to the spreadsheet.
func (w *Writer) writeData(ctx context.Context, spreadsheetID string, values [][]any) error {
	// Write in batches to avoid API limits
	for i := 0; i < len(values); i += w.config.BatchSize {
		end := i + w.config.BatchSize
		if end > len(values) {
			end = len(values)
		}

		batch := values[i:end]
		valueRange := &sheets.ValueRange{
			Values: batch,
		}

		rangeStr := fmt.Sprintf("A%d", i+1)
		_, err := w.service.Spreadsheets.Values.Update(spreadsheetID, rangeStr, valueRange).
			ValueInputOption("USER_ENTERED").
			Context(ctx).
			Do()

		if err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, err)
		}

		w.logger.Debug("wrote batch", "start_row", i+1, "rows", len(batch))
	}

	return nil
}

// applyFormatting applies formatting to the spreadsheet.
func (w *Writer) applyFormatting(ctx context.Context, spreadsheetID string, report reportLayout) error {
	totalRows := len(report.values)
	requests := []*sheets.Request{
		// Format header
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          0,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   3,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{
							Bold:     true,
							FontSize: 16,
						},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		},
		// Format section headers
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          0,
					StartRowIndex:    2,
					EndRowIndex:      int64(totalRows),
					StartColumnIndex: 0,
					EndColumnIndex:   1,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{
							Bold: true,
						},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		},
		// Format income and rent columns in the unit table
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          0,
					StartRowIndex:    int64(report.unitHeaderRow + 1),
					EndRowIndex:      int64(totalRows),
					StartColumnIndex: 3,
					EndColumnIndex:   5,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						NumberFormat: &sheets.NumberFormat{
							Type:    "CURRENCY",
							Pattern: "$#,##0.00",
						},
					},
				},
				Fields: "userEnteredFormat.numberFormat",
			},
		},
		// Auto-resize columns
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    0,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   9,
				},
			},
		},
		// Freeze header rows
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId: 0,
					GridProperties: &sheets.GridProperties{
						FrozenRowCount: 1,
					},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
	}

	batchUpdate := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}

	_, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, batchUpdate).Context(ctx).Do()
	return err
}
