package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/Veraticus/pennywise/internal/common"
	"github.com/Veraticus/pennywise/internal/model"
	"github.com/Veraticus/pennywise/internal/service"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Writer implements service.ReportWriter for Google Sheets.
type Writer struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

var _ service.ReportWriter = (*Writer)(nil)

// NewWriter creates a new Google Sheets report writer.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	srv, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Writer{
		config:  config,
		service: srv,
		logger:  logger,
	}, nil
}

// SpreadsheetURL returns the browser URL for a spreadsheet ID.
func SpreadsheetURL(spreadsheetID string) string {
	return "https://docs.google.com/spreadsheets/d/" + spreadsheetID
}

// Write replaces the contents of every report tab with report's data.
func (w *Writer) Write(ctx context.Context, report *service.SpendingReport) error {
	data := BuildTabData(report)

	w.logger.Info("starting sheets export",
		"expenses", len(data.Expenses),
		"categories", len(data.Categories),
		"budgets", len(data.Budgets))

	spreadsheetID, sheetIDs, err := w.getOrCreateSpreadsheet(ctx)
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	retryOpts := service.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts < 1 {
		retryOpts.MaxAttempts = 1
	}

	tabs := tabValues(data)
	rows := 0
	for _, tab := range Tabs {
		values := tabs[tab]
		err := common.WithRetry(ctx, func() error {
			if clearErr := w.clearTab(ctx, spreadsheetID, tab); clearErr != nil {
				return classifyAPIError(clearErr)
			}
			return classifyAPIError(w.writeData(ctx, spreadsheetID, tab, values))
		}, retryOpts)
		if err != nil {
			return fmt.Errorf("failed to write %s tab: %w", tab, err)
		}
		rows += len(values)
	}

	if w.config.EnableFormatting {
		err = common.WithRetry(ctx, func() error {
			return classifyAPIError(w.applyFormatting(ctx, spreadsheetID, formatRequests(sheetIDs, tabs)))
		}, retryOpts)
		if err != nil {
			// Formatting is cosmetic; the data is already written
			w.logger.Warn("failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("sheets export completed",
		"spreadsheet_id", spreadsheetID,
		"url", SpreadsheetURL(spreadsheetID),
		"rows_written", rows)

	return nil
}

// classifyAPIError marks quota errors as rate limits and other client errors
// as permanent so WithRetry does not hammer the API.
func classifyAPIError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %v", common.ErrRateLimit, err)
	case apiErr.Code >= 400 && apiErr.Code < 500:
		return &common.RetryableError{Err: err, Retryable: false}
	default:
		return &common.RetryableError{Err: err, Retryable: true}
	}
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
		client := oauthConfig(config.ClientID, config.ClientSecret, "")
		token := &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		}
		tokenSource = client.TokenSource(ctx, token)
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return srv, nil
}

// getOrCreateSpreadsheet opens the configured spreadsheet, or creates a new
// one, and makes sure every report tab exists. It returns the spreadsheet ID
// and the sheet ID of each tab.
func (w *Writer) getOrCreateSpreadsheet(ctx context.Context) (string, map[string]int64, error) {
	if w.config.SpreadsheetID == "" {
		spreadsheet := &sheets.Spreadsheet{
			Properties: &sheets.SpreadsheetProperties{
				Title:    w.config.SpreadsheetName,
				TimeZone: w.config.TimeZone,
			},
		}
		for _, tab := range Tabs {
			spreadsheet.Sheets = append(spreadsheet.Sheets, &sheets.Sheet{
				Properties: &sheets.SheetProperties{Title: tab},
			})
		}

		created, err := w.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
		if err != nil {
			return "", nil, fmt.Errorf("unable to create spreadsheet: %w", err)
		}

		w.logger.Info("created new spreadsheet",
			"id", created.SpreadsheetId,
			"url", created.SpreadsheetUrl)

		return created.SpreadsheetId, sheetIDsByTitle(created.Sheets), nil
	}

	existing, err := w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do()
	if err != nil {
		return "", nil, fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
	}

	ids := sheetIDsByTitle(existing.Sheets)
	var requests []*sheets.Request
	for _, tab := range missingTabs(ids) {
		requests = append(requests, &sheets.Request{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: tab},
			},
		})
	}
	if len(requests) == 0 {
		return existing.SpreadsheetId, ids, nil
	}

	resp, err := w.service.Spreadsheets.BatchUpdate(existing.SpreadsheetId, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return "", nil, fmt.Errorf("unable to add report tabs: %w", err)
	}
	for _, reply := range resp.Replies {
		if reply.AddSheet != nil && reply.AddSheet.Properties != nil {
			ids[reply.AddSheet.Properties.Title] = reply.AddSheet.Properties.SheetId
		}
	}

	return existing.SpreadsheetId, ids, nil
}

func sheetIDsByTitle(sheetList []*sheets.Sheet) map[string]int64 {
	ids := make(map[string]int64, len(sheetList))
	for _, s := range sheetList {
		if s.Properties != nil {
			ids[s.Properties.Title] = s.Properties.SheetId
		}
	}
	return ids
}

func missingTabs(ids map[string]int64) []string {
	var missing []string
	for _, tab := range Tabs {
		if _, ok := ids[tab]; !ok {
			missing = append(missing, tab)
		}
	}
	return missing
}

// clearTab clears all data from one tab.
func (w *Writer) clearTab(ctx context.Context, spreadsheetID, tab string) error {
	_, err := w.service.Spreadsheets.Values.Clear(spreadsheetID, tabRange(tab, "A:Z"), &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

// writeData writes values to a tab in batches.
func (w *Writer) writeData(ctx context.Context, spreadsheetID, tab string, values [][]any) error {
	batchSize := w.config.BatchSize
	if batchSize <= 0 {
		batchSize = len(values)
	}

	for i := 0; i < len(values); i += batchSize {
		end := min(i+batchSize, len(values))

		batch := values[i:end]
		valueRange := &sheets.ValueRange{
			Values: batch,
		}

		_, err := w.service.Spreadsheets.Values.Update(spreadsheetID, tabRange(tab, fmt.Sprintf("A%d", i+1)), valueRange).
			ValueInputOption("USER_ENTERED").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, err)
		}

		w.logger.Debug("wrote batch", "tab", tab, "start_row", i+1, "rows", len(batch))
	}

	return nil
}

// applyFormatting sends the formatting requests in one batch update.
func (w *Writer) applyFormatting(ctx context.Context, spreadsheetID string, requests []*sheets.Request) error {
	if len(requests) == 0 {
		return nil
	}
	_, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	return err
}

func tabRange(tab, cells string) string {
	return fmt.Sprintf("'%s'!%s", tab, cells)
}

// tabValues renders every tab's rows, header first.
func tabValues(data TabData) map[string][][]any {
	return map[string][][]any{
		TabSummary:    summaryValues(data),
		TabExpenses:   expenseValues(data.Expenses),
		TabCategories: categoryValues(data.Categories),
		TabMonthly:    monthlyValues(data.Months),
		TabBudgets:    budgetValues(data.Budgets),
	}
}

func summaryValues(data TabData) [][]any {
	period := "All time"
	if !data.DateRange.Start.IsZero() {
		period = fmt.Sprintf("%s - %s",
			data.DateRange.Start.Format("Jan 2, 2006"),
			data.DateRange.End.Format("Jan 2, 2006"))
	}

	return [][]any{
		{"Pennywise Expense Report", period},
		{},
		{"User", data.Username},
		{"Generated", data.GeneratedAt.Format(time.RFC3339)},
		{"Total Spent", data.Total.InexactFloat64()},
		{"Expenses", data.ExpenseCount},
		{"Categories", len(data.Categories)},
	}
}

func expenseValues(rows []ExpenseRow) [][]any {
	values := make([][]any, 0, len(rows)+1)
	values = append(values, []any{"Date", "Description", "Category", "Amount", "Source", "Confidence"})
	for _, r := range rows {
		confidence := any("")
		if r.Confidence != nil {
			confidence = *r.Confidence
		}
		values = append(values, []any{
			r.Date.Format(model.DateLayout),
			r.Description,
			r.Category,
			r.Amount.InexactFloat64(),
			r.Source,
			confidence,
		})
	}
	return values
}

func categoryValues(rows []CategoryRow) [][]any {
	values := make([][]any, 0, len(rows)+1)
	values = append(values, []any{"Category", "Amount", "Share"})
	for _, r := range rows {
		values = append(values, []any{r.Category, r.Amount.InexactFloat64(), r.Share.InexactFloat64()})
	}
	return values
}

func monthlyValues(rows []MonthRow) [][]any {
	values := make([][]any, 0, len(rows)+1)
	values = append(values, []any{"Month", "Amount"})
	for _, r := range rows {
		values = append(values, []any{r.Month, r.Amount.InexactFloat64()})
	}
	return values
}

func budgetValues(rows []BudgetRow) [][]any {
	values := make([][]any, 0, len(rows)+1)
	values = append(values, []any{"Month", "Category", "Budget", "Spent", "Remaining", "Status"})
	for _, r := range rows {
		values = append(values, []any{
			r.Month,
			r.Category,
			r.Budget.InexactFloat64(),
			r.Spent.InexactFloat64(),
			r.Remaining.InexactFloat64(),
			r.Status,
		})
	}
	return values
}
