package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/Veraticus/pennywise/internal/model"
	"github.com/Veraticus/pennywise/internal/service"
)

const monthExpr = "substr(date, 1, 7)"

// SaveExpense inserts an expense and sets its ID and CreatedAt.
func (s *store) SaveExpense(ctx context.Context, expense *model.Expense) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateExpense(expense); err != nil {
		return err
	}
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = time.Now().UTC()
	}

	var confidence sql.NullFloat64
	if expense.Confidence != nil {
		confidence = sql.NullFloat64{Float64: *expense.Confidence, Valid: true}
	}

	query, args, err := sq.Insert("expenses").
		Columns("user_id", "date", "category", "amount_cents", "description", "source", "confidence", "created_at").
		Values(
			expense.UserID,
			expense.Date.Format(model.DateLayout),
			string(expense.Category),
			int64(expense.Amount),
			strings.TrimSpace(expense.Description),
			string(expense.Source),
			confidence,
			expense.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	result, err := s.q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	expense.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read expense id: %w", err)
	}
	return nil
}

// ListExpenses returns matching expenses, newest first.
func (s *store) ListExpenses(ctx context.Context, filter service.ExpenseFilter) ([]model.Expense, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateFilter(filter); err != nil {
		return nil, err
	}

	builder := applyFilter(
		sq.Select("id", "user_id", "date", "category", "amount_cents", "description", "source", "confidence", "created_at").
			From("expenses"),
		filter,
	).OrderBy("date DESC", "id DESC")
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var expenses []model.Expense
	for rows.Next() {
		expense, scanErr := scanExpense(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expenses: %w", err)
	}
	return expenses, nil
}

// GetMonthlySpend sums a user's spend in one category for a YYYY-MM month.
func (s *store) GetMonthlySpend(ctx context.Context, userID int64, category model.Category, month string) (model.Money, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateUserID(userID); err != nil {
		return 0, err
	}
	if err := ValidateMonth(month); err != nil {
		return 0, err
	}

	query, args, err := sq.Select("COALESCE(SUM(amount_cents), 0)").
		From("expenses").
		Where(sq.Eq{"user_id": userID, "category": string(category), monthExpr: month}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build query: %w", err)
	}

	var cents int64
	if err := s.q.QueryRowContext(ctx, query, args...).Scan(&cents); err != nil {
		return 0, fmt.Errorf("failed to total monthly spend: %w", err)
	}
	return model.Money(cents), nil
}

// GetCategoryTotals sums matching expenses per category.
func (s *store) GetCategoryTotals(ctx context.Context, filter service.ExpenseFilter) (map[model.Category]model.Money, error) {
	totals := make(map[model.Category]model.Money)
	err := s.groupTotals(ctx, filter, "category", func(key string, cents int64) {
		totals[model.Category(key)] = model.Money(cents)
	})
	if err != nil {
		return nil, err
	}
	return totals, nil
}

// GetMonthlyTotals sums matching expenses per YYYY-MM month.
func (s *store) GetMonthlyTotals(ctx context.Context, filter service.ExpenseFilter) (map[string]model.Money, error) {
	totals := make(map[string]model.Money)
	err := s.groupTotals(ctx, filter, monthExpr, func(key string, cents int64) {
		totals[key] = model.Money(cents)
	})
	if err != nil {
		return nil, err
	}
	return totals, nil
}

func (s *store) groupTotals(ctx context.Context, filter service.ExpenseFilter, groupExpr string, collect func(string, int64)) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateFilter(filter); err != nil {
		return err
	}

	query, args, err := applyFilter(
		sq.Select(groupExpr, "SUM(amount_cents)").From("expenses"),
		filter,
	).GroupBy(groupExpr).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query totals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var key string
		var cents int64
		if err := rows.Scan(&key, &cents); err != nil {
			return fmt.Errorf("failed to scan total: %w", err)
		}
		collect(key, cents)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating totals: %w", err)
	}
	return nil
}

func validateFilter(filter service.ExpenseFilter) error {
	if err := validateUserID(filter.UserID); err != nil {
		return err
	}
	if filter.Month != "" {
		if err := ValidateMonth(filter.Month); err != nil {
			return err
		}
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return fmt.Errorf("%w: end date %s is before start date %s", ErrInvalidDateRange,
			filter.EndDate.Format(model.DateLayout), filter.StartDate.Format(model.DateLayout))
	}
	return nil
}

func applyFilter(builder sq.SelectBuilder, filter service.ExpenseFilter) sq.SelectBuilder {
	builder = builder.Where(sq.Eq{"user_id": filter.UserID})
	if filter.Category != "" {
		builder = builder.Where(sq.Eq{"category": string(filter.Category)})
	}
	if filter.Month != "" {
		builder = builder.Where(sq.Eq{monthExpr: filter.Month})
	}
	if filter.StartDate != nil {
		builder = builder.Where(sq.GtOrEq{"date": filter.StartDate.Format(model.DateLayout)})
	}
	if filter.EndDate != nil {
		builder = builder.Where(sq.LtOrEq{"date": filter.EndDate.Format(model.DateLayout)})
	}
	return builder
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (model.Expense, error) {
	var (
		expense    model.Expense
		date       string
		category   string
		source     string
		cents      int64
		confidence sql.NullFloat64
	)
	if err := row.Scan(
		&expense.ID,
		&expense.UserID,
		&date,
		&category,
		&cents,
		&expense.Description,
		&source,
		&confidence,
		&expense.CreatedAt,
	); err != nil {
		return model.Expense{}, fmt.Errorf("failed to scan expense: %w", err)
	}

	parsed, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return model.Expense{}, fmt.Errorf("expense %d has invalid date %q: %w", expense.ID, date, err)
	}
	expense.Date = parsed
	expense.Category = model.Category(category)
	expense.Source = model.DecisionSource(source)
	expense.Amount = model.Money(cents)
	if confidence.Valid {
		c := confidence.Float64
		expense.Confidence = &c
	}
	return expense, nil
}
