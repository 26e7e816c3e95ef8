package cli

import (
	"fmt"

	"github.com/Veraticus/pennywise/internal/model"
)

// FormatBudgetCheck renders the alert for a budget check, or "" when there is
// nothing to report.
func FormatBudgetCheck(check *model.BudgetCheck) string {
	if check == nil {
		return ""
	}
	switch check.Status {
	case model.BudgetExceeded:
		return FormatError(fmt.Sprintf("Exceeded %s budget of %s for %s (spent %s)!",
			check.Category, check.Budget, check.Month, check.Spent))
	case model.BudgetApproaching:
		return FormatWarning(fmt.Sprintf("Approaching %s budget of %s for %s (spent %s)",
			check.Category, check.Budget, check.Month, check.Spent))
	default:
		return ""
	}
}

// FormatDecision describes how an expense was categorized.
func FormatDecision(decision model.CategorizationDecision) string {
	switch decision.Source {
	case model.SourceAIConfident:
		return FormatInfo(fmt.Sprintf("%s AI categorized as: %s (confidence: %.2f)",
			RobotIcon, decision.Category, confidenceOf(decision)))
	case model.SourceAIUncertainChosen:
		return FormatInfo(fmt.Sprintf("Categorized as: %s (your choice; AI confidence %.2f)",
			decision.Category, confidenceOf(decision)))
	default:
		return FormatInfo(fmt.Sprintf("Category: %s", decision.Category))
	}
}

func confidenceOf(decision model.CategorizationDecision) float64 {
	if decision.Confidence == nil {
		return 0
	}
	return *decision.Confidence
}
