package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/pennywise/internal/common"
	"github.com/Veraticus/pennywise/internal/model"
	"github.com/Veraticus/pennywise/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

func createTestUser(t *testing.T, s *SQLiteStorage, username string) *model.User {
	t.Helper()
	user, err := s.CreateUser(context.Background(), username, []byte("hash"))
	require.NoError(t, err)
	return user
}

func day(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := time.Parse(model.DateLayout, value)
	require.NoError(t, err)
	return d
}

func newExpense(t *testing.T, userID int64, date string, category model.Category, cents int64) *model.Expense {
	t.Helper()
	return &model.Expense{
		UserID:      userID,
		Date:        day(t, date),
		Category:    category,
		Amount:      model.Money(cents),
		Description: "test " + string(category),
		Source:      model.SourceExplicit,
	}
}

func TestMigrate_IsIdempotent(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.Migrate(ctx))

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)
}

func TestNewSQLiteStorage_RejectsEmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage("  ")
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestUsers(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	alice, err := store.CreateUser(ctx, " alice ", []byte("hash-a"))
	require.NoError(t, err)
	assert.Positive(t, alice.ID)
	assert.Equal(t, "alice", alice.Username)

	_, err = store.CreateUser(ctx, "alice", []byte("hash-b"))
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)

	byName, err := store.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byName.ID)
	assert.Equal(t, []byte("hash-a"), byName.PasswordHash)

	byID, err := store.GetUserByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	_, err = store.GetUserByUsername(ctx, "bob")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = store.GetUserByID(ctx, 999)
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = store.CreateUser(ctx, "", []byte("x"))
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestSessions(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	user := createTestUser(t, store, "alice")

	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	live := &model.Session{Token: "live", UserID: user.ID, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	stale := &model.Session{Token: "stale", UserID: user.ID, CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}
	require.NoError(t, store.SaveSession(ctx, live))
	require.NoError(t, store.SaveSession(ctx, stale))

	assert.ErrorIs(t, store.SaveSession(ctx, live), common.ErrDuplicateEntry)

	got, err := store.GetSession(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.UserID)
	assert.True(t, got.ExpiresAt.Equal(live.ExpiresAt))
	assert.False(t, got.Expired(now))

	removed, err := store.DeleteExpiredSessions(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	_, err = store.GetSession(ctx, "stale")
	assert.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, store.DeleteSession(ctx, "live"))
	_, err = store.GetSession(ctx, "live")
	assert.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, store.DeleteSession(ctx, "never-existed"))
}

func TestSaveExpense(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	user := createTestUser(t, store, "alice")

	confidence := 0.82
	expense := newExpense(t, user.ID, "2024-03-05", model.CategoryFood, 1250)
	expense.Source = model.SourceAIConfident
	expense.Confidence = &confidence

	require.NoError(t, store.SaveExpense(ctx, expense))
	assert.Positive(t, expense.ID)

	explicit := newExpense(t, user.ID, "2024-03-06", model.CategoryTech, 999)
	require.NoError(t, store.SaveExpense(ctx, explicit))

	expenses, err := store.ListExpenses(ctx, service.ExpenseFilter{UserID: user.ID})
	require.NoError(t, err)
	require.Len(t, expenses, 2)

	// Newest first
	assert.Equal(t, explicit.ID, expenses[0].ID)
	assert.Nil(t, expenses[0].Confidence)
	assert.Equal(t, model.SourceExplicit, expenses[0].Source)

	stored := expenses[1]
	assert.Equal(t, "2024-03-05", stored.Date.Format(model.DateLayout))
	assert.Equal(t, model.CategoryFood, stored.Category)
	assert.Equal(t, model.Money(1250), stored.Amount)
	assert.Equal(t, model.SourceAIConfident, stored.Source)
	require.NotNil(t, stored.Confidence)
	assert.InDelta(t, 0.82, *stored.Confidence, 1e-9)
}

func TestSaveExpense_Validation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	user := createTestUser(t, store, "alice")

	tests := []struct {
		mutate func(*model.Expense)
		name   string
	}{
		{name: "zero amount", mutate: func(e *model.Expense) { e.Amount = 0 }},
		{name: "unknown category", mutate: func(e *model.Expense) { e.Category = "Rent" }},
		{name: "unknown source", mutate: func(e *model.Expense) { e.Source = "guess" }},
		{name: "missing date", mutate: func(e *model.Expense) { e.Date = time.Time{} }},
		{name: "confidence out of range", mutate: func(e *model.Expense) {
			c := 1.5
			e.Confidence = &c
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expense := newExpense(t, user.ID, "2024-03-05", model.CategoryFood, 100)
			tt.mutate(expense)
			assert.ErrorIs(t, store.SaveExpense(ctx, expense), ErrInvalidExpense)
		})
	}

	expense := newExpense(t, 0, "2024-03-05", model.CategoryFood, 100)
	assert.ErrorIs(t, store.SaveExpense(ctx, expense), ErrInvalidUserID)
}

func TestListExpenses_Filters(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")

	for _, e := range []*model.Expense{
		newExpense(t, alice.ID, "2024-02-28", model.CategoryFood, 100),
		newExpense(t, alice.ID, "2024-03-01", model.CategoryFood, 200),
		newExpense(t, alice.ID, "2024-03-15", model.CategoryMusic, 300),
		newExpense(t, alice.ID, "2024-04-01", model.CategoryFood, 400),
		newExpense(t, bob.ID, "2024-03-02", model.CategoryFood, 500),
	} {
		require.NoError(t, store.SaveExpense(ctx, e))
	}

	start := day(t, "2024-03-01")
	end := day(t, "2024-03-31")

	tests := []struct {
		name   string
		filter service.ExpenseFilter
		want   []int64
	}{
		{name: "all for user", filter: service.ExpenseFilter{UserID: alice.ID}, want: []int64{400, 300, 200, 100}},
		{name: "month", filter: service.ExpenseFilter{UserID: alice.ID, Month: "2024-03"}, want: []int64{300, 200}},
		{name: "category", filter: service.ExpenseFilter{UserID: alice.ID, Category: model.CategoryFood}, want: []int64{400, 200, 100}},
		{name: "date range inclusive", filter: service.ExpenseFilter{UserID: alice.ID, StartDate: &start, EndDate: &end}, want: []int64{300, 200}},
		{name: "limit", filter: service.ExpenseFilter{UserID: alice.ID, Limit: 2}, want: []int64{400, 300}},
		{name: "other user", filter: service.ExpenseFilter{UserID: bob.ID}, want: []int64{500}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expenses, err := store.ListExpenses(ctx, tt.filter)
			require.NoError(t, err)
			got := make([]int64, 0, len(expenses))
			for _, e := range expenses {
				got = append(got, int64(e.Amount))
			}
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := store.ListExpenses(ctx, service.ExpenseFilter{UserID: alice.ID, Month: "March"})
	assert.ErrorIs(t, err, ErrInvalidMonth)

	_, err = store.ListExpenses(ctx, service.ExpenseFilter{UserID: alice.ID, StartDate: &end, EndDate: &start})
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestTotals(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	user := createTestUser(t, store, "alice")

	for _, e := range []*model.Expense{
		newExpense(t, user.ID, "2024-03-01", model.CategoryFood, 1000),
		newExpense(t, user.ID, "2024-03-20", model.CategoryFood, 550),
		newExpense(t, user.ID, "2024-03-21", model.CategoryTransport, 300),
		newExpense(t, user.ID, "2024-04-02", model.CategoryFood, 200),
	} {
		require.NoError(t, store.SaveExpense(ctx, e))
	}

	spend, err := store.GetMonthlySpend(ctx, user.ID, model.CategoryFood, "2024-03")
	require.NoError(t, err)
	assert.Equal(t, model.Money(1550), spend)

	none, err := store.GetMonthlySpend(ctx, user.ID, model.CategoryTech, "2024-03")
	require.NoError(t, err)
	assert.Zero(t, none)

	byCategory, err := store.GetCategoryTotals(ctx, service.ExpenseFilter{UserID: user.ID})
	require.NoError(t, err)
	assert.Equal(t, map[model.Category]model.Money{
		model.CategoryFood:      1750,
		model.CategoryTransport: 300,
	}, byCategory)

	byMonth, err := store.GetMonthlyTotals(ctx, service.ExpenseFilter{UserID: user.ID})
	require.NoError(t, err)
	assert.Equal(t, map[string]model.Money{"2024-03": 1850, "2024-04": 200}, byMonth)

	aprilOnly, err := store.GetCategoryTotals(ctx, service.ExpenseFilter{UserID: user.ID, Month: "2024-04"})
	require.NoError(t, err)
	assert.Equal(t, map[model.Category]model.Money{model.CategoryFood: 200}, aprilOnly)
}

func TestBudgets(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	user := createTestUser(t, store, "alice")

	_, err := store.GetBudget(ctx, user.ID, model.CategoryFood, "2024-03")
	assert.ErrorIs(t, err, common.ErrNotFound)

	budget := &model.Budget{UserID: user.ID, Category: model.CategoryFood, Month: "2024-03", Amount: 10000}
	require.NoError(t, store.SetBudget(ctx, budget))
	firstID := budget.ID
	assert.Positive(t, firstID)

	// Setting again replaces the amount in place
	replacement := &model.Budget{UserID: user.ID, Category: model.CategoryFood, Month: "2024-03", Amount: 5000}
	require.NoError(t, store.SetBudget(ctx, replacement))
	assert.Equal(t, firstID, replacement.ID)

	got, err := store.GetBudget(ctx, user.ID, model.CategoryFood, "2024-03")
	require.NoError(t, err)
	assert.Equal(t, model.Money(5000), got.Amount)

	require.NoError(t, store.SetBudget(ctx, &model.Budget{UserID: user.ID, Category: model.CategoryMusic, Month: "2024-04", Amount: 2000}))
	require.NoError(t, store.SaveExpense(ctx, newExpense(t, user.ID, "2024-03-02", model.CategoryFood, 4600)))
	require.NoError(t, store.SaveExpense(ctx, newExpense(t, user.ID, "2024-04-02", model.CategoryMusic, 2500)))

	summaries, err := store.GetBudgetSummaries(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, model.BudgetSummary{
		Category:  model.CategoryMusic,
		Month:     "2024-04",
		Budget:    2000,
		Spent:     2500,
		Remaining: -500,
		Status:    model.BudgetExceeded,
	}, summaries[0])
	assert.Equal(t, model.BudgetSummary{
		Category:  model.CategoryFood,
		Month:     "2024-03",
		Budget:    5000,
		Spent:     4600,
		Remaining: 400,
		Status:    model.BudgetApproaching,
	}, summaries[1])
}

func TestSetBudget_Validation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	user := createTestUser(t, store, "alice")

	err := store.SetBudget(ctx, &model.Budget{UserID: user.ID, Category: model.CategoryFood, Month: "2024-3", Amount: 100})
	assert.ErrorIs(t, err, ErrInvalidMonth)

	err = store.SetBudget(ctx, &model.Budget{UserID: user.ID, Category: model.CategoryFood, Month: "2024-03", Amount: -1})
	assert.ErrorIs(t, err, ErrInvalidBudget)

	err = store.SetBudget(ctx, &model.Budget{UserID: user.ID, Category: "Rent", Month: "2024-03", Amount: 100})
	assert.ErrorIs(t, err, ErrInvalidBudget)

	assert.ErrorIs(t, store.SetBudget(ctx, nil), ErrNilParameter)
}

func TestTransaction_RollbackDiscardsWrites(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	user := createTestUser(t, store, "alice")

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.SaveExpense(ctx, newExpense(t, user.ID, "2024-03-01", model.CategoryFood, 100)))

	spend, err := tx.GetMonthlySpend(ctx, user.ID, model.CategoryFood, "2024-03")
	require.NoError(t, err)
	assert.Equal(t, model.Money(100), spend)
	require.NoError(t, tx.Rollback())

	expenses, err := store.ListExpenses(ctx, service.ExpenseFilter{UserID: user.ID})
	require.NoError(t, err)
	assert.Empty(t, expenses)

	tx, err = store.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.SaveExpense(ctx, newExpense(t, user.ID, "2024-03-01", model.CategoryFood, 100)))
	require.NoError(t, tx.Commit())

	expenses, err = store.ListExpenses(ctx, service.ExpenseFilter{UserID: user.ID})
	require.NoError(t, err)
	assert.Len(t, expenses, 1)

	assert.Error(t, tx.Migrate(ctx))
}

func TestValidateMonth(t *testing.T) {
	for _, good := range []string{"2024-01", "1999-12"} {
		assert.NoError(t, ValidateMonth(good), good)
	}
	for _, bad := range []string{"", "2024-1", "2024-13", "24-01", "2024-01-01", "March"} {
		assert.ErrorIs(t, ValidateMonth(bad), ErrInvalidMonth, bad)
	}
}
