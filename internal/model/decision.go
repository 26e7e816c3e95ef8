// Package model defines the core domain models used throughout the application.
package model

// DecisionSource indicates how an expense category was chosen.
type DecisionSource string

// Decision source constants.
const (
	SourceExplicit          DecisionSource = "explicit"
	SourceAIConfident       DecisionSource = "ai-confident"
	SourceAIUncertainChosen DecisionSource = "ai-uncertain-user-chosen"
)

// Valid reports whether s is a known decision source.
func (s DecisionSource) Valid() bool {
	switch s {
	case SourceExplicit, SourceAIConfident, SourceAIUncertainChosen:
		return true
	}
	return false
}

// CategorizationDecision is the outcome of categorizing one expense.
// Confidence is nil when the category was supplied explicitly.
type CategorizationDecision struct {
	Confidence *float64
	Category   Category
	Source     DecisionSource
}

// PendingCategorization describes a prediction that was not confident enough
// to accept and needs a human to pick from Categories.
type PendingCategorization struct {
	Description string
	Predicted   string
	Categories  []Category
	Confidence  float64
}

// TrainingExample is a labeled description used to fit the classifier.
type TrainingExample struct {
	Description string
	Category    string
}
