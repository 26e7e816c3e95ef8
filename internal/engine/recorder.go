package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/pennywise/internal/common"
	"github.com/Veraticus/pennywise/internal/model"
	"github.com/Veraticus/pennywise/internal/service"
)

// ExpenseInput is the user-supplied part of a new expense.
type ExpenseInput struct {
	Date        time.Time
	Category    *model.Category
	Description string
	UserID      int64
	Amount      model.Money
}

// RecordResult is everything produced by adding one expense.
type RecordResult struct {
	Expense  *model.Expense
	Budget   *model.BudgetCheck
	Decision model.CategorizationDecision
}

// Recorder persists expenses and evaluates the affected budget.
type Recorder struct {
	storage service.Storage
	now     func() time.Time
}

// NewRecorder creates a recorder backed by storage.
func NewRecorder(storage service.Storage) *Recorder {
	return &Recorder{storage: storage, now: time.Now}
}

// AddExpense categorizes the input and records it. Categorization runs before
// anything is written, so a failed or cancelled choice leaves storage untouched.
func (r *Recorder) AddExpense(ctx context.Context, categorizer *Categorizer, chooser Chooser, in ExpenseInput) (*RecordResult, error) {
	decision, err := categorizer.CategorizeWith(ctx, in.Description, in.Category, chooser)
	if err != nil {
		return nil, fmt.Errorf("failed to categorize expense: %w", err)
	}
	return r.Record(ctx, in, decision)
}

// Record stores the expense with the given decision, then re-derives the
// month's spend for that category and compares it to the budget.
func (r *Recorder) Record(ctx context.Context, in ExpenseInput, decision model.CategorizationDecision) (*RecordResult, error) {
	if !decision.Category.Valid() {
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownCategory, string(decision.Category))
	}

	date := in.Date
	if date.IsZero() {
		date = r.now()
	}

	expense := &model.Expense{
		UserID:      in.UserID,
		Date:        date,
		Category:    decision.Category,
		Amount:      in.Amount,
		Description: strings.TrimSpace(in.Description),
		Source:      decision.Source,
		Confidence:  decision.Confidence,
	}

	tx, err := r.storage.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.SaveExpense(ctx, expense); err != nil {
		return nil, fmt.Errorf("failed to save expense: %w", err)
	}

	check, err := r.checkBudget(ctx, tx, expense)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit expense: %w", err)
	}

	slog.Info("Recorded expense",
		"id", expense.ID,
		"category", expense.Category,
		"source", expense.Source,
		"budget_status", check.Status)

	return &RecordResult{Expense: expense, Budget: check, Decision: decision}, nil
}

// CheckBudget evaluates the budget for the expense's (user, category, month).
func (r *Recorder) CheckBudget(ctx context.Context, userID int64, category model.Category, month string) (*model.BudgetCheck, error) {
	return r.checkBudget(ctx, r.storage, &model.Expense{UserID: userID, Category: category, Date: monthStart(month)})
}

func (r *Recorder) checkBudget(ctx context.Context, store service.Storage, expense *model.Expense) (*model.BudgetCheck, error) {
	month := expense.Month()
	check := &model.BudgetCheck{
		Category: expense.Category,
		Month:    month,
		Status:   model.BudgetNone,
	}

	budget, err := store.GetBudget(ctx, expense.UserID, expense.Category, month)
	if errors.Is(err, common.ErrNotFound) {
		return check, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load budget: %w", err)
	}

	spent, err := store.GetMonthlySpend(ctx, expense.UserID, expense.Category, month)
	if err != nil {
		return nil, fmt.Errorf("failed to total spend: %w", err)
	}

	check.Budget = budget.Amount
	check.Spent = spent
	check.Status = model.EvaluateBudget(spent, budget.Amount)
	return check, nil
}

func monthStart(month string) time.Time {
	t, err := time.Parse(model.MonthLayout, month)
	if err != nil {
		return time.Time{}
	}
	return t
}
