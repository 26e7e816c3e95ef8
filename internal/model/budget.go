package model

// Budget is a monthly spending limit for one category.
type Budget struct {
	Category Category
	Month    string
	ID       int64
	UserID   int64
	Amount   Money
}

// BudgetStatus classifies spend against a budget.
type BudgetStatus string

// Budget status constants.
const (
	BudgetNone        BudgetStatus = "none"
	BudgetOK          BudgetStatus = "ok"
	BudgetApproaching BudgetStatus = "approaching"
	BudgetExceeded    BudgetStatus = "exceeded"
)

// ApproachingPercent is the share of a budget at which spend counts as approaching.
const ApproachingPercent = 90

// EvaluateBudget compares spend to a budget. Exceeded requires spend strictly
// above the budget; approaching starts at exactly ApproachingPercent.
func EvaluateBudget(spent, budget Money) BudgetStatus {
	switch {
	case spent > budget:
		return BudgetExceeded
	case int64(spent)*100 >= int64(budget)*ApproachingPercent:
		return BudgetApproaching
	default:
		return BudgetOK
	}
}

// BudgetCheck is the budget state for a (user, category, month) after an insert.
type BudgetCheck struct {
	Category Category
	Month    string
	Status   BudgetStatus
	Budget   Money
	Spent    Money
}

// BudgetSummary is one row of the budget overview.
type BudgetSummary struct {
	Category  Category
	Month     string
	Status    BudgetStatus
	Budget    Money
	Spent     Money
	Remaining Money
}
