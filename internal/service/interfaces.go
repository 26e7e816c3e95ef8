// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/pennywise/internal/model"
)

// ExpenseFilter narrows expense queries. Zero values mean "no restriction".
type ExpenseFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Category  model.Category
	Month     string
	UserID    int64
	Limit     int
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// User operations
	CreateUser(ctx context.Context, username string, passwordHash []byte) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)

	// Session operations
	SaveSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, token string) (*model.Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)

	// Expense operations
	SaveExpense(ctx context.Context, expense *model.Expense) error
	ListExpenses(ctx context.Context, filter ExpenseFilter) ([]model.Expense, error)
	GetMonthlySpend(ctx context.Context, userID int64, category model.Category, month string) (model.Money, error)
	GetCategoryTotals(ctx context.Context, filter ExpenseFilter) (map[model.Category]model.Money, error)
	GetMonthlyTotals(ctx context.Context, filter ExpenseFilter) (map[string]model.Money, error)

	// Budget operations
	SetBudget(ctx context.Context, budget *model.Budget) error
	GetBudget(ctx context.Context, userID int64, category model.Category, month string) (*model.Budget, error)
	GetBudgetSummaries(ctx context.Context, userID int64) ([]model.BudgetSummary, error)

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit() error
	Rollback() error
	// Include all Storage methods for use within transaction
	Storage
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DateRange represents a time period with start and end dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// SpendingReport aggregates a user's expenses for export and charting.
type SpendingReport struct {
	GeneratedAt  time.Time
	DateRange    DateRange
	ByCategory   map[model.Category]model.Money
	ByMonth      map[string]model.Money
	Username     string
	Expenses     []model.Expense
	Budgets      []model.BudgetSummary
	TotalSpent   model.Money
	ExpenseCount int
}

// ReportWriter publishes a spending report to an external destination.
type ReportWriter interface {
	Write(ctx context.Context, report *SpendingReport) error
}
