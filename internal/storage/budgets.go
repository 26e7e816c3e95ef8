package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/Veraticus/pennywise/internal/common"
	"github.com/Veraticus/pennywise/internal/model"
)

// SetBudget creates the budget for (user, category, month) or replaces its amount.
func (s *store) SetBudget(ctx context.Context, budget *model.Budget) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateBudget(budget); err != nil {
		return err
	}

	query, args, err := sq.Insert("budgets").
		Columns("user_id", "category", "month", "amount_cents").
		Values(budget.UserID, string(budget.Category), budget.Month, int64(budget.Amount)).
		Suffix("ON CONFLICT(user_id, category, month) DO UPDATE SET amount_cents = excluded.amount_cents").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upsert: %w", err)
	}

	if _, err := s.q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to set budget: %w", err)
	}

	stored, err := s.GetBudget(ctx, budget.UserID, budget.Category, budget.Month)
	if err != nil {
		return err
	}
	budget.ID = stored.ID
	return nil
}

// GetBudget returns common.ErrNotFound when no budget is set.
func (s *store) GetBudget(ctx context.Context, userID int64, category model.Category, month string) (*model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if err := ValidateMonth(month); err != nil {
		return nil, err
	}

	query, args, err := sq.Select("id", "amount_cents").
		From("budgets").
		Where(sq.Eq{"user_id": userID, "category": string(category), "month": month}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	budget := model.Budget{UserID: userID, Category: category, Month: month}
	var cents int64
	err = s.q.QueryRowContext(ctx, query, args...).Scan(&budget.ID, &cents)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get budget: %w", err)
	}
	budget.Amount = model.Money(cents)
	return &budget, nil
}

// GetBudgetSummaries returns every budget of the user with its month's spend,
// newest month first.
func (s *store) GetBudgetSummaries(ctx context.Context, userID int64) ([]model.BudgetSummary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	query, args, err := sq.Select(
		"b.category",
		"b.month",
		"b.amount_cents",
		"COALESCE(SUM(e.amount_cents), 0)",
	).
		From("budgets b").
		LeftJoin("expenses e ON e.user_id = b.user_id AND e.category = b.category AND substr(e.date, 1, 7) = b.month").
		Where(sq.Eq{"b.user_id": userID}).
		GroupBy("b.id").
		OrderBy("b.month DESC", "b.category").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query budgets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var summaries []model.BudgetSummary
	for rows.Next() {
		var (
			category      string
			month         string
			budget, spent int64
		)
		if err := rows.Scan(&category, &month, &budget, &spent); err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		summaries = append(summaries, model.BudgetSummary{
			Category:  model.Category(category),
			Month:     month,
			Budget:    model.Money(budget),
			Spent:     model.Money(spent),
			Remaining: model.Money(budget - spent),
			Status:    model.EvaluateBudget(model.Money(spent), model.Money(budget)),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating budgets: %w", err)
	}
	return summaries, nil
}
