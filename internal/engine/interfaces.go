package engine

import (
	"context"

	"github.com/Veraticus/pennywise/internal/classifier"
	"github.com/Veraticus/pennywise/internal/model"
)

// Predictor defines the contract for scoring a description against the model labels.
type Predictor interface {
	Predict(description string) classifier.Distribution
}

// Chooser defines the contract for asking a human to pick a category when the
// model is not confident. It returns a 1-indexed position in pending.Categories.
// Implementations return an error wrapping ErrInvalidSelection for malformed
// input so the caller can ask again.
type Chooser interface {
	ChooseCategory(ctx context.Context, pending model.PendingCategorization) (int, error)
}
