package sheets

import (
	"sort"
	"time"

	"github.com/Veraticus/pennywise/internal/model"
	"github.com/Veraticus/pennywise/internal/service"
	"github.com/shopspring/decimal"
)

// Tab names in the exported spreadsheet.
const (
	TabSummary    = "Summary"
	TabExpenses   = "Expenses"
	TabCategories = "Categories"
	TabMonthly    = "Monthly"
	TabBudgets    = "Budgets"
)

// Tabs lists the spreadsheet tabs in display order.
var Tabs = []string{TabSummary, TabExpenses, TabCategories, TabMonthly, TabBudgets}

// ExpenseRow represents a single row in the Expenses tab.
type ExpenseRow struct {
	Date        time.Time
	Confidence  *float64
	Category    string
	Description string
	Source      string
	Amount      decimal.Decimal
}

// CategoryRow represents a single row in the Categories tab.
type CategoryRow struct {
	Category string
	Amount   decimal.Decimal
	Share    decimal.Decimal // fraction of total spend, 0..1
}

// MonthRow represents a single row in the Monthly tab.
type MonthRow struct {
	Month  string
	Amount decimal.Decimal
}

// BudgetRow represents a single row in the Budgets tab.
type BudgetRow struct {
	Month     string
	Category  string
	Status    string
	Budget    decimal.Decimal
	Spent     decimal.Decimal
	Remaining decimal.Decimal
}

// TabData holds all the data for the complete spreadsheet export.
type TabData struct {
	GeneratedAt  time.Time
	DateRange    service.DateRange
	Username     string
	Total        decimal.Decimal
	Expenses     []ExpenseRow
	Categories   []CategoryRow
	Months       []MonthRow
	Budgets      []BudgetRow
	ExpenseCount int
}

// BuildTabData converts a spending report into spreadsheet rows. Expenses are
// newest first, categories by amount descending, months chronological.
func BuildTabData(report *service.SpendingReport) TabData {
	data := TabData{
		GeneratedAt:  report.GeneratedAt,
		DateRange:    report.DateRange,
		Username:     report.Username,
		Total:        report.TotalSpent.Decimal(),
		ExpenseCount: report.ExpenseCount,
		Expenses:     make([]ExpenseRow, 0, len(report.Expenses)),
		Categories:   make([]CategoryRow, 0, len(report.ByCategory)),
		Months:       make([]MonthRow, 0, len(report.ByMonth)),
		Budgets:      make([]BudgetRow, 0, len(report.Budgets)),
	}

	expenses := make([]model.Expense, len(report.Expenses))
	copy(expenses, report.Expenses)
	sort.SliceStable(expenses, func(i, j int) bool {
		return expenses[i].Date.After(expenses[j].Date)
	})
	for _, e := range expenses {
		data.Expenses = append(data.Expenses, ExpenseRow{
			Date:        e.Date,
			Amount:      e.Amount.Decimal(),
			Category:    e.Category.String(),
			Description: e.Description,
			Source:      string(e.Source),
			Confidence:  e.Confidence,
		})
	}

	for category, amount := range report.ByCategory {
		row := CategoryRow{Category: category.String(), Amount: amount.Decimal()}
		if report.TotalSpent > 0 {
			row.Share = amount.Decimal().Div(report.TotalSpent.Decimal()).Round(4)
		}
		data.Categories = append(data.Categories, row)
	}
	sort.Slice(data.Categories, func(i, j int) bool {
		if !data.Categories[i].Amount.Equal(data.Categories[j].Amount) {
			return data.Categories[i].Amount.GreaterThan(data.Categories[j].Amount)
		}
		return data.Categories[i].Category < data.Categories[j].Category
	})

	for month, amount := range report.ByMonth {
		data.Months = append(data.Months, MonthRow{Month: month, Amount: amount.Decimal()})
	}
	sort.Slice(data.Months, func(i, j int) bool {
		return data.Months[i].Month < data.Months[j].Month
	})

	for _, b := range report.Budgets {
		data.Budgets = append(data.Budgets, BudgetRow{
			Month:     b.Month,
			Category:  b.Category.String(),
			Status:    string(b.Status),
			Budget:    b.Budget.Decimal(),
			Spent:     b.Spent.Decimal(),
			Remaining: b.Remaining.Decimal(),
		})
	}

	return data
}
