// Package storage provides the SQLite persistence layer for pennywise.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/pennywise/internal/model"
)

// Validation errors.
var (
	ErrNilContext       = errors.New("context cannot be nil")
	ErrEmptyString      = errors.New("string parameter cannot be empty")
	ErrNilParameter     = errors.New("parameter cannot be nil")
	ErrInvalidDateRange = errors.New("start date must be before end date")
	ErrInvalidMonth     = errors.New("month must be formatted as YYYY-MM")
	ErrInvalidExpense   = errors.New("invalid expense")
	ErrInvalidBudget    = errors.New("invalid budget")
	ErrInvalidUserID    = errors.New("invalid user id")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateUserID(id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidUserID, id)
	}
	return nil
}

// ValidateMonth checks that month is a YYYY-MM string.
func ValidateMonth(month string) error {
	if _, err := time.Parse(model.MonthLayout, month); err != nil || len(month) != len(model.MonthLayout) {
		return fmt.Errorf("%w: %q", ErrInvalidMonth, month)
	}
	return nil
}

func validateExpense(expense *model.Expense) error {
	if expense == nil {
		return fmt.Errorf("%w: expense", ErrNilParameter)
	}
	if err := validateUserID(expense.UserID); err != nil {
		return err
	}
	if expense.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidExpense)
	}
	if !expense.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidExpense, expense.Category)
	}
	if expense.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidExpense)
	}
	if !expense.Source.Valid() {
		return fmt.Errorf("%w: unknown source %q", ErrInvalidExpense, expense.Source)
	}
	if expense.Confidence != nil && (*expense.Confidence < 0 || *expense.Confidence > 1) {
		return fmt.Errorf("%w: confidence must be between 0 and 1", ErrInvalidExpense)
	}
	return nil
}

func validateBudget(budget *model.Budget) error {
	if budget == nil {
		return fmt.Errorf("%w: budget", ErrNilParameter)
	}
	if err := validateUserID(budget.UserID); err != nil {
		return err
	}
	if !budget.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidBudget, budget.Category)
	}
	if budget.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidBudget)
	}
	return ValidateMonth(budget.Month)
}
