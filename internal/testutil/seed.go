package testutil

import (
	"context"
	"time"

	"github.com/Veraticus/pennywise/internal/model"
)

// Seeder collects expenses and budgets for one user and writes them in Apply.
type Seeder struct {
	db       *TestDB
	expenses []model.Expense
	budgets  []model.Budget
	userID   int64
}

// Seed starts a seeder for userID.
func (db *TestDB) Seed(userID int64) *Seeder {
	return &Seeder{db: db, userID: userID}
}

// Expense queues an explicitly categorized expense. date is YYYY-MM-DD and
// amount is decimal text such as "12.50".
func (s *Seeder) Expense(date string, category model.Category, amount string) *Seeder {
	return s.ExpenseWithDescription(date, category, amount, "")
}

// ExpenseWithDescription queues an expense with a description.
func (s *Seeder) ExpenseWithDescription(date string, category model.Category, amount, description string) *Seeder {
	s.db.t.Helper()
	s.expenses = append(s.expenses, model.Expense{
		UserID:      s.userID,
		Date:        s.mustDate(date),
		Category:    category,
		Amount:      s.mustMoney(amount),
		Description: description,
		Source:      model.SourceExplicit,
	})
	return s
}

// Budget queues a budget for a YYYY-MM month.
func (s *Seeder) Budget(category model.Category, month, amount string) *Seeder {
	s.db.t.Helper()
	s.budgets = append(s.budgets, model.Budget{
		UserID:   s.userID,
		Category: category,
		Month:    month,
		Amount:   s.mustMoney(amount),
	})
	return s
}

// Apply writes everything queued and returns the stored expenses.
func (s *Seeder) Apply() []model.Expense {
	s.db.t.Helper()
	ctx := context.Background()

	for i := range s.budgets {
		if err := s.db.Storage.SetBudget(ctx, &s.budgets[i]); err != nil {
			s.db.t.Fatalf("failed to seed budget: %v", err)
		}
	}
	for i := range s.expenses {
		if err := s.db.Storage.SaveExpense(ctx, &s.expenses[i]); err != nil {
			s.db.t.Fatalf("failed to seed expense: %v", err)
		}
	}
	return s.expenses
}

func (s *Seeder) mustDate(value string) time.Time {
	s.db.t.Helper()
	date, err := time.Parse(model.DateLayout, value)
	if err != nil {
		s.db.t.Fatalf("invalid seed date %q: %v", value, err)
	}
	return date
}

func (s *Seeder) mustMoney(value string) model.Money {
	s.db.t.Helper()
	amount, err := model.ParseMoney(value)
	if err != nil {
		s.db.t.Fatalf("invalid seed amount %q: %v", value, err)
	}
	return amount
}
