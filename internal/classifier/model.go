package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/pennywise/internal/model"
)

// artifactVersion is bumped whenever the on-disk layout changes.
const artifactVersion = 1

// Classifier errors.
var (
	ErrEmptyTrainingData = errors.New("no usable training examples")
	ErrSingleLabel       = errors.New("training data needs at least two distinct categories")
	ErrCorruptModel      = errors.New("model artifact is corrupt")
)

// Score is the probability assigned to one label.
type Score struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

// Distribution is a probability distribution over model labels, in label order.
type Distribution []Score

// Best returns the most probable label. Ties go to the earliest label.
func (d Distribution) Best() (string, float64) {
	if len(d) == 0 {
		return "", 0
	}
	best := d[0]
	for _, s := range d[1:] {
		if s.Probability > best.Probability {
			best = s
		}
	}
	return best.Label, best.Probability
}

// Model is a fitted TF-IDF + logistic regression classifier. It is read-only
// once trained or loaded.
type Model struct {
	TrainedAt  time.Time           `json:"trained_at"`
	Vectorizer *Vectorizer         `json:"vectorizer"`
	Regression *logisticRegression `json:"regression"`
	Labels     []string            `json:"labels"`
	Examples   int                 `json:"examples"`
	Version    int                 `json:"version"`
}

// Train fits a model on the given examples.
func Train(ctx context.Context, examples []model.TrainingExample, opts TrainOptions) (*Model, error) {
	opts = opts.withDefaults()

	docs := make([]string, 0, len(examples))
	rawLabels := make([]string, 0, len(examples))
	labelSet := make(map[string]struct{})
	for _, ex := range examples {
		desc := strings.TrimSpace(ex.Description)
		label := strings.TrimSpace(ex.Category)
		if desc == "" || label == "" {
			continue
		}
		docs = append(docs, desc)
		rawLabels = append(rawLabels, label)
		labelSet[label] = struct{}{}
	}
	if len(docs) == 0 {
		return nil, ErrEmptyTrainingData
	}
	if len(labelSet) < 2 {
		return nil, ErrSingleLabel
	}

	labels := make([]string, 0, len(labelSet))
	for l := range labelSet {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	labelIndex := make(map[string]int, len(labels))
	for i, l := range labels {
		labelIndex[l] = i
	}

	vectorizer := FitVectorizer(docs)
	xs := make([]sparseVector, len(docs))
	ys := make([]int, len(docs))
	for i, doc := range docs {
		xs[i] = vectorizer.Transform(doc)
		ys[i] = labelIndex[rawLabels[i]]
	}

	lr := newLogisticRegression(len(labels), vectorizer.Size())
	if err := lr.fit(ctx, xs, ys, opts); err != nil {
		return nil, fmt.Errorf("failed to fit classifier: %w", err)
	}

	return &Model{
		Labels:     labels,
		Vectorizer: vectorizer,
		Regression: lr,
		TrainedAt:  time.Now().UTC(),
		Examples:   len(docs),
		Version:    artifactVersion,
	}, nil
}

// Predict returns the probability of every label for text.
func (m *Model) Predict(text string) Distribution {
	probs := m.Regression.probabilities(m.Vectorizer.Transform(text))
	dist := make(Distribution, len(m.Labels))
	for i, label := range m.Labels {
		dist[i] = Score{Label: label, Probability: probs[i]}
	}
	return dist
}

// UnknownLabels returns the model labels that are not in categories.
func (m *Model) UnknownLabels(categories []model.Category) []string {
	known := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		known[string(c)] = struct{}{}
	}
	var unknown []string
	for _, l := range m.Labels {
		if _, ok := known[l]; !ok {
			unknown = append(unknown, l)
		}
	}
	return unknown
}

func (m *Model) validate() error {
	if m.Vectorizer == nil || m.Regression == nil || len(m.Labels) == 0 {
		return fmt.Errorf("%w: missing components", ErrCorruptModel)
	}
	if len(m.Regression.Bias) != len(m.Labels) || len(m.Regression.Weights) != len(m.Labels) {
		return fmt.Errorf("%w: %d labels but %d classes", ErrCorruptModel, len(m.Labels), len(m.Regression.Bias))
	}
	for _, row := range m.Regression.Weights {
		if len(row) != m.Vectorizer.Size() {
			return fmt.Errorf("%w: weight width %d, vocabulary %d", ErrCorruptModel, len(row), m.Vectorizer.Size())
		}
	}
	for _, idx := range m.Vectorizer.Vocabulary {
		if idx < 0 || idx >= m.Vectorizer.Size() {
			return fmt.Errorf("%w: vocabulary index %d out of range", ErrCorruptModel, idx)
		}
	}
	return nil
}

// LoadModel reads a model artifact from path.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("failed to read model %s: %w", path, err)
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptModel, err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Save writes the model to path atomically: a temp file in the same directory
// is written, synced and renamed over the destination.
func (m *Model) Save(path string) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal model: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp model file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write model: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close model file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to move model into place: %w", err)
	}
	return nil
}
