package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/Veraticus/pennywise/internal/classifier"
	"github.com/Veraticus/pennywise/internal/model"
)

// MockChooser is a test implementation of the Chooser interface that replays
// scripted answers in order.
type MockChooser struct {
	errs    []error
	answers []int
	calls   []model.PendingCategorization
	mu      sync.Mutex
}

// NewMockChooser creates a chooser that answers with the given 1-indexed choices.
func NewMockChooser(answers ...int) *MockChooser {
	return &MockChooser{answers: answers}
}

// WithErrors makes the first len(errs) calls fail with the given errors; a nil
// entry falls through to the next scripted answer.
func (m *MockChooser) WithErrors(errs ...error) *MockChooser {
	m.errs = errs
	return m
}

// ChooseCategory implements Chooser.
func (m *MockChooser) ChooseCategory(_ context.Context, pending model.PendingCategorization) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	call := len(m.calls)
	m.calls = append(m.calls, pending)

	if call < len(m.errs) && m.errs[call] != nil {
		return 0, m.errs[call]
	}
	if len(m.answers) == 0 {
		return 0, fmt.Errorf("mock chooser: no answer scripted for call %d", call+1)
	}
	answer := m.answers[0]
	m.answers = m.answers[1:]
	return answer, nil
}

// Calls returns every pending categorization the chooser was asked about.
func (m *MockChooser) Calls() []model.PendingCategorization {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.PendingCategorization, len(m.calls))
	copy(out, m.calls)
	return out
}

// MockPredictor returns a fixed distribution and counts calls.
type MockPredictor struct {
	Distribution classifier.Distribution
	calls        int
	mu           sync.Mutex
}

// Predict implements Predictor.
func (m *MockPredictor) Predict(_ string) classifier.Distribution {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.Distribution
}

// CallCount returns how many predictions were requested.
func (m *MockPredictor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// NewMockPredictor builds a predictor whose top label is label with probability p,
// spreading the remainder evenly over the other categories.
func NewMockPredictor(label string, p float64) *MockPredictor {
	cats := model.CategoryNames()
	dist := classifier.Distribution{{Label: label, Probability: p}}
	others := 0
	for _, c := range cats {
		if c != label {
			others++
		}
	}
	for _, c := range cats {
		if c == label {
			continue
		}
		dist = append(dist, classifier.Score{Label: c, Probability: (1 - p) / float64(others)})
	}
	return &MockPredictor{Distribution: dist}
}
