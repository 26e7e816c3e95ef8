package classifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/pennywise/internal/model"
	"github.com/gofrs/flock"
	"github.com/schollz/progressbar/v3"
)

// Provider errors.
var (
	ErrMissingTrainingData = errors.New("no trained model and no training data found")
	ErrUnknownLabel        = errors.New("model predicts labels outside the category set")
)

// Provider loads the persisted model, training and persisting one on first use.
type Provider struct {
	progress     io.Writer
	modelPath    string
	trainingPath string
	categories   []model.Category
	train        TrainOptions
	lockRetry    time.Duration
	strictLabels bool
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithTrainOptions overrides the regression hyperparameters.
func WithTrainOptions(opts TrainOptions) ProviderOption {
	return func(p *Provider) { p.train = opts }
}

// WithStrictLabels controls whether models whose labels fall outside the
// category set are rejected. Enabled by default.
func WithStrictLabels(strict bool) ProviderOption {
	return func(p *Provider) { p.strictLabels = strict }
}

// WithProgress renders a training progress bar to w.
func WithProgress(w io.Writer) ProviderOption {
	return func(p *Provider) { p.progress = w }
}

// WithCategories replaces the category list returned alongside the model.
func WithCategories(categories []model.Category) ProviderOption {
	return func(p *Provider) { p.categories = categories }
}

// NewProvider creates a provider for the given model artifact and training CSV.
func NewProvider(modelPath, trainingPath string, opts ...ProviderOption) *Provider {
	p := &Provider{
		modelPath:    modelPath,
		trainingPath: trainingPath,
		categories:   model.Categories(),
		train:        DefaultTrainOptions(),
		lockRetry:    100 * time.Millisecond,
		strictLabels: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ModelPath returns the artifact location.
func (p *Provider) ModelPath() string {
	return p.modelPath
}

// GetModel returns the persisted model, training it from the training data if
// no artifact exists yet. Concurrent callers are serialized on a lock file, and
// the loser of a race loads the winner's artifact instead of retraining.
func (p *Provider) GetModel(ctx context.Context) (*Model, []model.Category, error) {
	if m, err := p.loadIfPresent(); err != nil || m != nil {
		return m, p.categories, err
	}

	unlock, err := p.lock(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer unlock()

	if m, err := p.loadIfPresent(); err != nil || m != nil {
		return m, p.categories, err
	}

	m, err := p.trainAndSave(ctx)
	if err != nil {
		return nil, nil, err
	}
	return m, p.categories, nil
}

// Retrain fits a fresh model from the training data and replaces the artifact.
func (p *Provider) Retrain(ctx context.Context) (*Model, error) {
	unlock, err := p.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return p.trainAndSave(ctx)
}

func (p *Provider) loadIfPresent() (*Model, error) {
	if _, err := os.Stat(p.modelPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat model: %w", err)
	}

	m, err := LoadModel(p.modelPath)
	if err != nil {
		return nil, err
	}
	if err := p.checkLabels(m); err != nil {
		return nil, err
	}
	slog.Debug("loaded classifier", "path", p.modelPath, "labels", len(m.Labels), "trained_at", m.TrainedAt)
	return m, nil
}

func (p *Provider) trainAndSave(ctx context.Context) (*Model, error) {
	examples, err := ReadTrainingFile(p.trainingPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingTrainingData, p.trainingPath)
		}
		return nil, fmt.Errorf("failed to load training data: %w", err)
	}

	slog.Info("Training classifier", "examples", len(examples), "training_file", p.trainingPath)

	opts := p.train.withDefaults()
	var bar *progressbar.ProgressBar
	if p.progress != nil {
		bar = progressbar.NewOptions(opts.Epochs,
			progressbar.OptionSetWriter(p.progress),
			progressbar.OptionSetDescription("Training classifier"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
		)
		opts.OnEpoch = func(int) { _ = bar.Add(1) }
	}

	m, err := Train(ctx, examples, opts)
	if bar != nil {
		_ = bar.Finish()
		_, _ = fmt.Fprintln(p.progress)
	}
	if err != nil {
		return nil, err
	}

	if err := p.checkLabels(m); err != nil {
		return nil, err
	}

	if err := m.Save(p.modelPath); err != nil {
		return nil, err
	}
	slog.Info("Saved classifier", "path", p.modelPath, "labels", strings.Join(m.Labels, ","))
	return m, nil
}

func (p *Provider) checkLabels(m *Model) error {
	unknown := m.UnknownLabels(p.categories)
	if len(unknown) == 0 {
		return nil
	}
	if p.strictLabels {
		return fmt.Errorf("%w: %s", ErrUnknownLabel, strings.Join(unknown, ", "))
	}
	slog.Warn("Classifier has labels outside the category set; those predictions will need manual selection",
		"labels", unknown)
	return nil
}

func (p *Provider) lock(ctx context.Context) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(p.modelPath), 0750); err != nil {
		return nil, fmt.Errorf("failed to create model directory: %w", err)
	}

	fl := flock.New(p.modelPath + ".lock")
	locked, err := fl.TryLockContext(ctx, p.lockRetry)
	if err != nil {
		return nil, fmt.Errorf("failed to lock model: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("failed to lock model: %s", fl.Path())
	}
	return func() {
		if err := fl.Unlock(); err != nil {
			slog.Warn("Failed to release model lock", "error", err)
		}
	}, nil
}
