package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Veraticus/pennywise/internal/common"
	"github.com/Veraticus/pennywise/internal/engine"
	"github.com/Veraticus/pennywise/internal/model"
	"github.com/schollz/progressbar/v3"
)

// CategorizerSource supplies the model-backed categorizer. It is called at
// most once, and only when some row has no usable category.
type CategorizerSource func(ctx context.Context) (*engine.Categorizer, error)

// Options controls an import run.
type Options struct {
	Progress io.Writer
	DryRun   bool
}

// Preview is the planned categorization of one row in a dry run.
type Preview struct {
	Decision *model.CategorizationDecision
	Pending  *model.PendingCategorization
	Row      Row
}

// Result reports what an import did.
type Result struct {
	Recorded []*engine.RecordResult
	Previews []Preview
}

// Alerts returns the budget checks that crossed a threshold, newest last.
func (r *Result) Alerts() []*model.BudgetCheck {
	latest := make(map[string]int)
	var alerts []*model.BudgetCheck
	for _, rec := range r.Recorded {
		check := rec.Budget
		if check == nil || (check.Status != model.BudgetApproaching && check.Status != model.BudgetExceeded) {
			continue
		}
		key := string(check.Category) + "|" + check.Month
		if i, ok := latest[key]; ok {
			alerts[i] = check
			continue
		}
		latest[key] = len(alerts)
		alerts = append(alerts, check)
	}
	return alerts
}

// Importer categorizes rows and records them for a user.
type Importer struct {
	recorder    *engine.Recorder
	source      CategorizerSource
	chooser     engine.Chooser
	explicit    *engine.Categorizer
	categorizer *engine.Categorizer
}

// New creates an importer.
func New(recorder *engine.Recorder, source CategorizerSource, chooser engine.Chooser) *Importer {
	return &Importer{
		recorder: recorder,
		source:   source,
		chooser:  chooser,
		explicit: engine.NewCategorizer(nil, model.Categories()),
	}
}

// Run categorizes every row and then records them. All choices are made
// before the first write, so an aborted choice imports nothing.
func (im *Importer) Run(ctx context.Context, userID int64, rows []Row, opts Options) (*Result, error) {
	if len(rows) == 0 {
		return nil, common.ErrNoExpenses
	}

	result := &Result{}
	decisions := make([]model.CategorizationDecision, len(rows))

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if category, err := model.ParseCategory(row.Category); err == nil {
			outcome, err := im.explicit.Categorize(ctx, row.Text(), &category)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", row.Line, err)
			}
			decisions[i] = *outcome.Decision
			if opts.DryRun {
				result.Previews = append(result.Previews, Preview{Row: row, Decision: outcome.Decision})
			}
			continue
		}

		categorizer, err := im.modelCategorizer(ctx)
		if err != nil {
			return nil, err
		}

		if opts.DryRun {
			outcome, err := categorizer.Categorize(ctx, row.Text(), nil)
			if err != nil {
				return nil, fmt.Errorf("row %q: %w", row.Text(), err)
			}
			result.Previews = append(result.Previews, Preview{Row: row, Decision: outcome.Decision, Pending: outcome.Pending})
			continue
		}

		decision, err := categorizer.CategorizeWith(ctx, row.Text(), nil, im.chooser)
		if err != nil {
			return nil, fmt.Errorf("failed to categorize %q: %w", row.Text(), err)
		}
		decisions[i] = decision
	}

	if opts.DryRun {
		return result, nil
	}

	bar := newProgressBar(opts.Progress, len(rows))
	for i, row := range rows {
		description := row.Description
		if description == "" {
			description = row.Category
		}
		rec, err := im.recorder.Record(ctx, engine.ExpenseInput{
			Date:        row.Date,
			Description: description,
			UserID:      userID,
			Amount:      row.Amount,
		}, decisions[i])
		if err != nil {
			return result, fmt.Errorf("failed to record %q after %d of %d rows: %w", row.Text(), i, len(rows), err)
		}
		result.Recorded = append(result.Recorded, rec)
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
		_, _ = fmt.Fprintln(opts.Progress)
	}

	slog.Info("Import complete", "recorded", len(result.Recorded))
	return result, nil
}

func (im *Importer) modelCategorizer(ctx context.Context) (*engine.Categorizer, error) {
	if im.categorizer != nil {
		return im.categorizer, nil
	}
	if im.source == nil {
		return nil, engine.ErrNoPredictor
	}
	categorizer, err := im.source(ctx)
	if err != nil {
		return nil, err
	}
	im.categorizer = categorizer
	return categorizer, nil
}

func newProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	if w == nil {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Importing expenses"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
	)
}
