package engine

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/Veraticus/pennywise/internal/model"
	"github.com/Veraticus/pennywise/internal/service"
	"github.com/Veraticus/pennywise/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func march(dayOfMonth int) time.Time {
	return time.Date(2024, time.March, dayOfMonth, 0, 0, 0, 0, time.UTC)
}

func TestRecorder_BudgetBoundaries(t *testing.T) {
	tests := []struct {
		amount string
		want   model.BudgetStatus
	}{
		{amount: "89.99", want: model.BudgetOK},
		{amount: "90.00", want: model.BudgetApproaching},
		{amount: "100.00", want: model.BudgetApproaching},
		{amount: "100.01", want: model.BudgetExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			user := db.MustCreateUser("alice")
			db.Seed(user.ID).Budget(model.CategoryFood, "2024-03", "100").Apply()

			amount, err := model.ParseMoney(tt.amount)
			require.NoError(t, err)

			food := model.CategoryFood
			result, err := NewRecorder(db.Storage).AddExpense(context.Background(),
				NewCategorizer(nil, nil), nil,
				ExpenseInput{UserID: user.ID, Date: march(14), Amount: amount, Description: "groceries", Category: &food})
			require.NoError(t, err)

			require.NotNil(t, result.Budget)
			assert.Equal(t, tt.want, result.Budget.Status)
			assert.Equal(t, amount, result.Budget.Spent)
			assert.Equal(t, model.Money(10000), result.Budget.Budget)
			assert.Equal(t, "2024-03", result.Budget.Month)
		})
	}
}

func TestRecorder_SpendAccumulatesWithinMonth(t *testing.T) {
	db := testutil.SetupTestDB(t)
	user := db.MustCreateUser("alice")
	db.Seed(user.ID).
		Budget(model.CategoryFood, "2024-03", "100").
		Expense("2024-03-01", model.CategoryFood, "60").
		Expense("2024-02-28", model.CategoryFood, "500").
		Expense("2024-03-02", model.CategoryTech, "500").
		Apply()

	result, err := NewRecorder(db.Storage).Record(context.Background(),
		ExpenseInput{UserID: user.ID, Date: march(20), Amount: 3000, Description: "dinner"},
		model.CategorizationDecision{Category: model.CategoryFood, Source: model.SourceExplicit})
	require.NoError(t, err)

	assert.Equal(t, model.Money(9000), result.Budget.Spent)
	assert.Equal(t, model.BudgetApproaching, result.Budget.Status)
}

func TestRecorder_NoBudget(t *testing.T) {
	db := testutil.SetupTestDB(t)
	user := db.MustCreateUser("alice")

	result, err := NewRecorder(db.Storage).AddExpense(context.Background(),
		NewCategorizer(NewMockPredictor("Transport", 0.9), nil), nil,
		ExpenseInput{UserID: user.ID, Date: march(3), Amount: 250, Description: "bus ticket"})
	require.NoError(t, err)

	assert.Equal(t, model.BudgetNone, result.Budget.Status)
	assert.Equal(t, model.CategoryTransport, result.Expense.Category)
	assert.Equal(t, model.SourceAIConfident, result.Expense.Source)
	require.NotNil(t, result.Expense.Confidence)
	assert.InDelta(t, 0.9, *result.Expense.Confidence, 1e-12)

	stored, err := db.Storage.ListExpenses(context.Background(), service.ExpenseFilter{UserID: user.ID})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, model.SourceAIConfident, stored[0].Source)
	assert.Equal(t, "bus ticket", stored[0].Description)
}

func TestRecorder_UncertainPredictionStoresChoice(t *testing.T) {
	db := testutil.SetupTestDB(t)
	user := db.MustCreateUser("alice")
	chooser := NewMockChooser(3)

	result, err := NewRecorder(db.Storage).AddExpense(context.Background(),
		NewCategorizer(NewMockPredictor("Food", 0.4), nil), chooser,
		ExpenseInput{UserID: user.ID, Date: march(3), Amount: 1299, Description: "vinyl record"})
	require.NoError(t, err)

	assert.Equal(t, model.CategoryMusic, result.Expense.Category)
	assert.Equal(t, model.SourceAIUncertainChosen, result.Decision.Source)

	stored, err := db.Storage.ListExpenses(context.Background(), service.ExpenseFilter{UserID: user.ID})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, model.SourceAIUncertainChosen, stored[0].Source)
	require.NotNil(t, stored[0].Confidence)
	assert.InDelta(t, 0.4, *stored[0].Confidence, 1e-9)
}

func TestRecorder_FailedCategorizationWritesNothing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	user := db.MustCreateUser("alice")
	recorder := NewRecorder(db.Storage)
	input := ExpenseInput{UserID: user.ID, Date: march(3), Amount: 500, Description: "mystery"}

	_, err := recorder.AddExpense(context.Background(),
		NewCategorizer(NewMockPredictor("Food", 0.2), nil),
		NewMockChooser().WithErrors(io.EOF), input)
	require.ErrorIs(t, err, io.EOF)

	_, err = recorder.AddExpense(context.Background(), NewCategorizer(nil, nil), nil, input)
	require.ErrorIs(t, err, ErrNoPredictor)

	assert.Zero(t, db.CountExpenses(user.ID))
}

func TestRecorder_InvalidExpenseRollsBack(t *testing.T) {
	db := testutil.SetupTestDB(t)
	user := db.MustCreateUser("alice")

	_, err := NewRecorder(db.Storage).Record(context.Background(),
		ExpenseInput{UserID: user.ID, Date: march(3), Amount: 0},
		model.CategorizationDecision{Category: model.CategoryFood, Source: model.SourceExplicit})
	require.Error(t, err)
	assert.Zero(t, db.CountExpenses(user.ID))
}

func TestRecorder_DefaultsDateToNow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	user := db.MustCreateUser("alice")
	recorder := NewRecorder(db.Storage)
	recorder.now = func() time.Time { return march(31) }

	result, err := recorder.Record(context.Background(),
		ExpenseInput{UserID: user.ID, Amount: 100},
		model.CategorizationDecision{Category: model.CategoryOther, Source: model.SourceExplicit})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-31", result.Expense.Date.Format(model.DateLayout))
}

func TestRecorder_CheckBudget(t *testing.T) {
	db := testutil.SetupTestDB(t)
	user := db.MustCreateUser("alice")
	db.Seed(user.ID).
		Budget(model.CategorySocial, "2024-03", "50").
		Expense("2024-03-05", model.CategorySocial, "20").
		Apply()

	check, err := NewRecorder(db.Storage).CheckBudget(context.Background(), user.ID, model.CategorySocial, "2024-03")
	require.NoError(t, err)
	assert.Equal(t, model.BudgetOK, check.Status)
	assert.Equal(t, model.Money(2000), check.Spent)
}
