package main

import (
	"fmt"

	"github.com/Veraticus/pennywise/internal/cli"
	"github.com/Veraticus/pennywise/internal/common"
	"github.com/Veraticus/pennywise/internal/model"
	"github.com/Veraticus/pennywise/internal/report"
	"github.com/Veraticus/pennywise/internal/service"
	"github.com/Veraticus/pennywise/internal/storage"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("month", "m", "", "only expenses in this month (YYYY-MM)")
	cmd.Flags().StringP("category", "c", "", "only expenses in this category")
	cmd.Flags().String("from", "", "only expenses on or after this date (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "only expenses on or before this date (YYYY-MM-DD)")
	addUserIDFlag(cmd)
}

// buildFilter reads the filter flags. UserID is filled in by report.Builder.
func buildFilter(cmd *cobra.Command) (service.ExpenseFilter, error) {
	var filter service.ExpenseFilter

	month, _ := cmd.Flags().GetString("month")
	if month != "" {
		if err := storage.ValidateMonth(month); err != nil {
			return filter, common.NewUserError(fmt.Sprintf("invalid month %q, expected YYYY-MM", month), err)
		}
		filter.Month = month
	}

	categoryFlag, _ := cmd.Flags().GetString("category")
	category, err := parseCategoryFlag(categoryFlag)
	if err != nil {
		return filter, err
	}
	if category != nil {
		filter.Category = *category
	}

	from, _ := cmd.Flags().GetString("from")
	start, err := parseDateFlag(from)
	if err != nil {
		return filter, err
	}
	if !start.IsZero() {
		filter.StartDate = &start
	}

	to, _ := cmd.Flags().GetString("to")
	end, err := parseDateFlag(to)
	if err != nil {
		return filter, err
	}
	if !end.IsZero() {
		filter.EndDate = &end
	}

	if cmd.Flags().Lookup("limit") != nil {
		filter.Limit, _ = cmd.Flags().GetInt("limit")
	}

	return filter, nil
}

func viewExpensesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view-expenses",
		Short: "List expenses with per-category totals",
		Args:  cobra.NoArgs,
		RunE:  runViewExpenses,
	}
	addFilterFlags(cmd)
	cmd.Flags().IntP("limit", "n", 0, "show at most this many expenses (0 for all)")
	return cmd
}

func runViewExpenses(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	filter, err := buildFilter(cmd)
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStorage(store)

	user, err := resolveUser(cmd, store)
	if err != nil {
		return err
	}

	r, err := report.NewBuilder(store).Build(ctx, user, filter)
	if err != nil {
		return err
	}
	if len(r.Expenses) == 0 {
		writeln(out, cli.FormatInfo("No expenses found."))
		return nil
	}

	writeln(out, cli.FormatTitle("Expense Summary"))
	for _, bar := range report.CategoryBars(r.ByCategory) {
		writeln(out, fmt.Sprintf("  %-10s %10s", bar.Label, bar.Value))
	}
	writeln(out, fmt.Sprintf("  %-10s %10s", "Total", r.TotalSpent))
	writeln(out)
	writeln(out, cli.FormatTitle("Detailed Expenses"))
	writeln(out, renderExpenseTable(r.Expenses))

	return nil
}

func renderExpenseTable(expenses []model.Expense) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("Date", "Category", "Amount", "Description", "Source")

	for _, e := range expenses {
		source := string(e.Source)
		if e.Confidence != nil {
			source = fmt.Sprintf("%s (%.2f)", e.Source, *e.Confidence)
		}
		t.Row(e.Date.Format(model.DateLayout), string(e.Category), e.Amount.String(), e.Description, source)
	}

	t.StyleFunc(func(row, _ int) lipgloss.Style {
		if row == table.HeaderRow {
			return cli.TableHeaderStyle
		}
		return cli.TableCellStyle
	})

	return t.Render()
}
