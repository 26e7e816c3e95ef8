package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/Veraticus/pennywise/internal/auth"
	"github.com/Veraticus/pennywise/internal/classifier"
	"github.com/Veraticus/pennywise/internal/cli"
	"github.com/Veraticus/pennywise/internal/common"
	"github.com/Veraticus/pennywise/internal/config"
	"github.com/Veraticus/pennywise/internal/engine"
	"github.com/Veraticus/pennywise/internal/model"
	"github.com/Veraticus/pennywise/internal/storage"
	"github.com/Veraticus/pennywise/internal/tui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// initStorage opens the configured database and brings its schema up to date.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := config.ExpandPath(viper.GetString("database.path"))

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func sessionFile() *auth.SessionFile {
	return auth.NewSessionFile(config.ExpandPath(viper.GetString("session.path")))
}

func newAuthService(store *storage.SQLiteStorage) *auth.Service {
	var opts []auth.Option
	if ttl := viper.GetDuration("session.ttl"); ttl > 0 {
		opts = append(opts, auth.WithSessionTTL(ttl))
	}
	return auth.NewService(store, opts...)
}

func addUserIDFlag(cmd *cobra.Command) {
	cmd.Flags().Int64("user-id", 0, "act as this user id instead of the logged-in user")
}

// resolveUser picks the user from --user-id, falling back to the saved session.
func resolveUser(cmd *cobra.Command, store *storage.SQLiteStorage) (*model.User, error) {
	ctx := cmd.Context()

	if userID, _ := cmd.Flags().GetInt64("user-id"); userID > 0 {
		user, err := store.GetUserByID(ctx, userID)
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewUserError(fmt.Sprintf("no user with id %d", userID), err)
		}
		return user, err
	}

	token, err := sessionFile().Load()
	if err != nil {
		if errors.Is(err, auth.ErrNotLoggedIn) {
			return nil, common.NewUserError("not logged in; run `pennywise login` or pass --user-id", err)
		}
		return nil, err
	}

	user, err := newAuthService(store).ResolveUser(ctx, token)
	if errors.Is(err, auth.ErrSessionExpired) {
		_ = sessionFile().Remove()
		return nil, common.NewUserError("session expired; run `pennywise login` again", err)
	}
	return user, err
}

func newProvider(progress io.Writer) *classifier.Provider {
	trainOpts := classifier.DefaultTrainOptions()
	if v := viper.GetInt("classifier.epochs"); v > 0 {
		trainOpts.Epochs = v
	}
	if v := viper.GetFloat64("classifier.learning_rate"); v > 0 {
		trainOpts.LearningRate = v
	}
	if v := viper.GetFloat64("classifier.c"); v > 0 {
		trainOpts.C = v
	}

	opts := []classifier.ProviderOption{
		classifier.WithTrainOptions(trainOpts),
		classifier.WithStrictLabels(viper.GetBool("classifier.strict_labels")),
	}
	if progress != nil {
		opts = append(opts, classifier.WithProgress(progress))
	}

	return classifier.NewProvider(
		config.ExpandPath(viper.GetString("classifier.model_path")),
		config.ExpandPath(viper.GetString("classifier.training_path")),
		opts...,
	)
}

// newCategorizer builds a categorizer. The model is only loaded, and trained
// if needed, when some expense actually lacks a category.
func newCategorizer(ctx context.Context, progress io.Writer, needModel bool) (*engine.Categorizer, error) {
	value, err := confidenceThreshold()
	if err != nil {
		return nil, err
	}
	threshold := engine.WithConfidenceThreshold(value)
	if !needModel {
		return engine.NewCategorizer(nil, model.Categories(), threshold), nil
	}

	m, categories, err := newProvider(progress).GetModel(ctx)
	if err != nil {
		if errors.Is(err, classifier.ErrMissingTrainingData) {
			return nil, common.NewUserError(
				"no trained model found; provide training data (classifier.training_path) or pass --category", err)
		}
		return nil, fmt.Errorf("failed to load classifier: %w", err)
	}
	return engine.NewCategorizer(m, categories, threshold), nil
}

// confidenceThreshold reads classifier.confidence_threshold, a probability.
func confidenceThreshold() (float64, error) {
	value := viper.GetFloat64("classifier.confidence_threshold")
	if value < 0 || value > 1 || math.IsNaN(value) {
		return 0, common.NewUserError(
			fmt.Sprintf("classifier.confidence_threshold must be between 0 and 1, got %v", value), common.ErrInvalidConfig)
	}
	return value, nil
}

// newChooser returns the human fallback configured by ui.chooser.
func newChooser(cmd *cobra.Command) engine.Chooser {
	switch strings.ToLower(viper.GetString("ui.chooser")) {
	case "tui":
		return tui.New(tui.WithIO(cmd.InOrStdin(), cmd.OutOrStdout()))
	default:
		return cli.NewCLIPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
	}
}

func parseCategoryFlag(value string) (*model.Category, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	category, err := model.ParseCategory(value)
	if err != nil {
		return nil, common.NewUserError(
			fmt.Sprintf("unknown category %q (choose from %s)", value, strings.Join(model.CategoryNames(), ", ")), err)
	}
	return &category, nil
}

func parseDateFlag(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	date, err := time.ParseInLocation(model.DateLayout, value, time.Local)
	if err != nil {
		return time.Time{}, common.NewUserError(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", value), err)
	}
	return date, nil
}

func parseAmountFlag(value string) (model.Money, error) {
	amount, err := model.ParseMoney(value)
	if err != nil {
		return 0, common.NewUserError(fmt.Sprintf("invalid amount %q", value), err)
	}
	return amount, nil
}

func closeStorage(store *storage.SQLiteStorage) {
	if err := store.Close(); err != nil {
		slog.Warn("Failed to close database", "error", err)
	}
}

func writeln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}
