// Package report builds spending summaries and renders them as JSON, CSV,
// PNG charts and terminal bar charts.
package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Veraticus/pennywise/internal/model"
	"github.com/Veraticus/pennywise/internal/service"
)

// Builder assembles spending reports from storage.
type Builder struct {
	storage service.Storage
	now     func() time.Time
}

// NewBuilder creates a report builder.
func NewBuilder(storage service.Storage) *Builder {
	return &Builder{storage: storage, now: time.Now}
}

// Build collects the user's expenses, totals and budgets matching filter.
// filter.UserID is set from user.
func (b *Builder) Build(ctx context.Context, user *model.User, filter service.ExpenseFilter) (*service.SpendingReport, error) {
	filter.UserID = user.ID
	// Totals must cover everything the filter matches, not just the listed page
	totalsFilter := filter
	totalsFilter.Limit = 0

	expenses, err := b.storage.ListExpenses(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	byCategory, err := b.storage.GetCategoryTotals(ctx, totalsFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to total categories: %w", err)
	}
	byMonth, err := b.storage.GetMonthlyTotals(ctx, totalsFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to total months: %w", err)
	}
	budgets, err := b.storage.GetBudgetSummaries(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load budgets: %w", err)
	}

	var total model.Money
	for _, amount := range byCategory {
		total += amount
	}

	return &service.SpendingReport{
		GeneratedAt:  b.now(),
		DateRange:    dateRange(filter, expenses),
		ByCategory:   byCategory,
		ByMonth:      byMonth,
		Username:     user.Username,
		Expenses:     expenses,
		Budgets:      budgets,
		TotalSpent:   total,
		ExpenseCount: len(expenses),
	}, nil
}

func dateRange(filter service.ExpenseFilter, expenses []model.Expense) service.DateRange {
	var r service.DateRange
	if filter.Month != "" {
		if start, err := time.Parse(model.MonthLayout, filter.Month); err == nil {
			r.Start = start
			r.End = start.AddDate(0, 1, -1)
		}
	}
	for _, e := range expenses {
		if r.Start.IsZero() || e.Date.Before(r.Start) {
			r.Start = e.Date
		}
		if r.End.IsZero() || e.Date.After(r.End) {
			r.End = e.Date
		}
	}
	if filter.StartDate != nil {
		r.Start = *filter.StartDate
	}
	if filter.EndDate != nil {
		r.End = *filter.EndDate
	}
	return r
}

// Bar is one labelled value in a chart.
type Bar struct {
	Label string
	Value model.Money
}

// CategoryBars orders category totals the way model.Categories lists them,
// followed by any unexpected labels alphabetically. Zero totals are dropped.
func CategoryBars(totals map[model.Category]model.Money) []Bar {
	bars := make([]Bar, 0, len(totals))
	seen := make(map[model.Category]bool, len(totals))
	for _, c := range model.Categories() {
		seen[c] = true
		if amount := totals[c]; amount != 0 {
			bars = append(bars, Bar{Label: string(c), Value: amount})
		}
	}

	var extra []string
	for c, amount := range totals {
		if !seen[c] && amount != 0 {
			extra = append(extra, string(c))
		}
	}
	sort.Strings(extra)
	for _, label := range extra {
		bars = append(bars, Bar{Label: label, Value: totals[model.Category(label)]})
	}
	return bars
}

// MonthBars orders monthly totals chronologically.
func MonthBars(totals map[string]model.Money) []Bar {
	months := make([]string, 0, len(totals))
	for month := range totals {
		months = append(months, month)
	}
	sort.Strings(months)

	bars := make([]Bar, 0, len(months))
	for _, month := range months {
		bars = append(bars, Bar{Label: month, Value: totals[month]})
	}
	return bars
}
