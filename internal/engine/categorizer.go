// Package engine implements expense categorization and recording.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/pennywise/internal/model"
)

// DefaultConfidenceThreshold is the minimum top-label probability accepted
// without asking a human.
const DefaultConfidenceThreshold = 0.7

// Categorization errors.
var (
	ErrInvalidSelection = errors.New("invalid category selection")
	ErrEmptyDescription = errors.New("description cannot be empty")
	ErrNoPredictor      = errors.New("no classifier available")
	ErrNoChooser        = errors.New("category needs manual selection but no chooser is available")
)

// Outcome is the result of Categorize: either a final Decision, or Pending when
// a human has to choose.
type Outcome struct {
	Decision *model.CategorizationDecision
	Pending  *model.PendingCategorization
}

// NeedsInput reports whether the outcome is waiting on a human choice.
func (o Outcome) NeedsInput() bool {
	return o.Pending != nil
}

// Categorizer decides the category of an expense from an explicit choice or
// from the classifier's prediction.
type Categorizer struct {
	predictor  Predictor
	categories []model.Category
	threshold  float64
}

// CategorizerOption configures a Categorizer.
type CategorizerOption func(*Categorizer)

// WithConfidenceThreshold overrides DefaultConfidenceThreshold. The threshold is inclusive.
func WithConfidenceThreshold(threshold float64) CategorizerOption {
	return func(c *Categorizer) { c.threshold = threshold }
}

// NewCategorizer creates a categorizer. predictor may be nil when every call
// supplies an explicit category.
func NewCategorizer(predictor Predictor, categories []model.Category, opts ...CategorizerOption) *Categorizer {
	if len(categories) == 0 {
		categories = model.Categories()
	}
	c := &Categorizer{
		predictor:  predictor,
		categories: categories,
		threshold:  DefaultConfidenceThreshold,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Threshold returns the confidence threshold in use.
func (c *Categorizer) Threshold() float64 {
	return c.threshold
}

// Categorize returns the decision for description. An explicit category is
// returned as is without consulting the model. Otherwise the top prediction is
// accepted when its probability reaches the threshold and it names a known
// category; anything else comes back as Pending.
func (c *Categorizer) Categorize(_ context.Context, description string, explicit *model.Category) (Outcome, error) {
	if explicit != nil {
		if !explicit.Valid() {
			return Outcome{}, fmt.Errorf("%w: %q", model.ErrUnknownCategory, string(*explicit))
		}
		return Outcome{Decision: &model.CategorizationDecision{
			Category: *explicit,
			Source:   model.SourceExplicit,
		}}, nil
	}

	if strings.TrimSpace(description) == "" {
		return Outcome{}, ErrEmptyDescription
	}
	if c.predictor == nil {
		return Outcome{}, ErrNoPredictor
	}

	label, confidence := c.predictor.Predict(description).Best()
	predicted := model.Category(label)

	if confidence >= c.threshold && c.isKnown(predicted) {
		slog.Debug("accepted prediction", "category", label, "confidence", confidence)
		return Outcome{Decision: &model.CategorizationDecision{
			Category:   predicted,
			Source:     model.SourceAIConfident,
			Confidence: &confidence,
		}}, nil
	}

	if confidence >= c.threshold {
		slog.Warn("Prediction is outside the category set, asking for a choice", "label", label)
	}

	categories := make([]model.Category, len(c.categories))
	copy(categories, c.categories)
	return Outcome{Pending: &model.PendingCategorization{
		Description: description,
		Predicted:   label,
		Confidence:  confidence,
		Categories:  categories,
	}}, nil
}

// CategorizeWith runs Categorize and, when a choice is needed, asks chooser.
// The prompt is repeated for every ErrInvalidSelection; any other chooser
// error ends categorization.
func (c *Categorizer) CategorizeWith(ctx context.Context, description string, explicit *model.Category, chooser Chooser) (model.CategorizationDecision, error) {
	outcome, err := c.Categorize(ctx, description, explicit)
	if err != nil {
		return model.CategorizationDecision{}, err
	}
	if !outcome.NeedsInput() {
		return *outcome.Decision, nil
	}
	if chooser == nil {
		return model.CategorizationDecision{}, ErrNoChooser
	}

	for {
		if err := ctx.Err(); err != nil {
			return model.CategorizationDecision{}, err
		}

		choice, err := chooser.ChooseCategory(ctx, *outcome.Pending)
		if err == nil {
			var decision model.CategorizationDecision
			decision, err = Resolve(*outcome.Pending, choice)
			if err == nil {
				return decision, nil
			}
		}
		if !errors.Is(err, ErrInvalidSelection) {
			return model.CategorizationDecision{}, err
		}
		slog.Debug("invalid category selection, asking again", "error", err)
	}
}

// Resolve maps a 1-indexed choice from the pending category list to a decision.
func Resolve(pending model.PendingCategorization, choice int) (model.CategorizationDecision, error) {
	if choice < 1 || choice > len(pending.Categories) {
		return model.CategorizationDecision{}, fmt.Errorf("%w: %d is not between 1 and %d",
			ErrInvalidSelection, choice, len(pending.Categories))
	}
	confidence := pending.Confidence
	return model.CategorizationDecision{
		Category:   pending.Categories[choice-1],
		Source:     model.SourceAIUncertainChosen,
		Confidence: &confidence,
	}, nil
}

func (c *Categorizer) isKnown(category model.Category) bool {
	for _, known := range c.categories {
		if known == category {
			return true
		}
	}
	return false
}
