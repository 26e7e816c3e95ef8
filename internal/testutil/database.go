// Package testutil provides test utilities for pennywise: a migrated SQLite
// database per test and a fluent builder for seeding users, expenses and budgets.
package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/Veraticus/pennywise/internal/model"
	"github.com/Veraticus/pennywise/internal/service"
	"github.com/Veraticus/pennywise/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
	Path    string
}

// SetupTestDB creates a migrated, file-backed SQLite database in t.TempDir().
// It is closed automatically when the test ends.
//
// Example:
//
//	db := testutil.SetupTestDB(t)
//	user := db.MustCreateUser("alice")
//	db.Seed(user.ID).
//		Expense("2024-03-01", model.CategoryFood, "12.50").
//		Budget(model.CategoryFood, "2024-03", "100").
//		Apply()
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "pennywise.db")
	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{
		Storage: store,
		Path:    path,
		t:       t,
	}
}

// MustCreateUser inserts a user with a placeholder password hash or fails the test.
func (db *TestDB) MustCreateUser(username string) *model.User {
	db.t.Helper()
	user, err := db.Storage.CreateUser(context.Background(), username, []byte("not-a-real-hash"))
	if err != nil {
		db.t.Fatalf("failed to create user %q: %v", username, err)
	}
	return user
}

// WithTransaction executes the given function within a database transaction.
// The transaction is automatically rolled back after the function completes.
func (db *TestDB) WithTransaction(fn func(tx service.Transaction) error) error {
	ctx := context.Background()
	tx, err := db.Storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	return fn(tx)
}

// CountExpenses returns the number of stored expenses for a user.
func (db *TestDB) CountExpenses(userID int64) int {
	db.t.Helper()
	expenses, err := db.Storage.ListExpenses(context.Background(), service.ExpenseFilter{UserID: userID})
	if err != nil {
		db.t.Fatalf("failed to list expenses: %v", err)
	}
	return len(expenses)
}
