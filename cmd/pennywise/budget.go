package main

import (
	"fmt"
	"time"

	"github.com/Veraticus/pennywise/internal/cli"
	"github.com/Veraticus/pennywise/internal/common"
	"github.com/Veraticus/pennywise/internal/model"
	"github.com/Veraticus/pennywise/internal/storage"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func setBudgetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-budget",
		Short: "Set a monthly budget for a category",
		Long: `Set the budget for one category and month. Setting it again replaces
the amount.

Example:
  pennywise set-budget -c Food -a 400 --month 2024-03`,
		Args: cobra.NoArgs,
		RunE: runSetBudget,
	}

	cmd.Flags().StringP("category", "c", "", "category (required)")
	cmd.Flags().StringP("amount", "a", "", "budget amount (required)")
	cmd.Flags().StringP("month", "m", "", "month YYYY-MM (default: current month)")
	addUserIDFlag(cmd)
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func runSetBudget(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	categoryFlag, _ := cmd.Flags().GetString("category")
	amountFlag, _ := cmd.Flags().GetString("amount")
	month, _ := cmd.Flags().GetString("month")

	category, err := parseCategoryFlag(categoryFlag)
	if err != nil {
		return err
	}
	if category == nil {
		return common.NewUserError("a category is required", model.ErrUnknownCategory)
	}
	amount, err := parseAmountFlag(amountFlag)
	if err != nil {
		return err
	}
	if month == "" {
		month = time.Now().Format(model.MonthLayout)
	}
	if err := storage.ValidateMonth(month); err != nil {
		return common.NewUserError(fmt.Sprintf("invalid month %q, expected YYYY-MM", month), err)
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

	budget := &model.Budget{
		UserID:   user.ID,
		Category: *category,
		Month:    month,
		Amount:   amount,
	}
	if err := store.SetBudget(ctx, budget); err != nil {
		return err
	}

	writeln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Budget set: %s for %s in %s", amount, *category, month)))
	return nil
}

func viewBudgetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view-budget",
		Short: "Show budgets with spend and remaining amounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			user, err := resolveUser(cmd, store)
			if err != nil {
				return err
			}

			summaries, err := store.GetBudgetSummaries(ctx, user.ID)
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				writeln(cmd.OutOrStdout(), cli.FormatInfo("No budgets set."))
				return nil
			}

			writeln(cmd.OutOrStdout(), cli.FormatTitle("Budget Summary"))
			writeln(cmd.OutOrStdout(), renderBudgetTable(summaries))
			return nil
		},
	}
	addUserIDFlag(cmd)
	return cmd
}

func statusStyle(status model.BudgetStatus) lipgloss.Style {
	switch status {
	case model.BudgetExceeded:
		return cli.TableCellStyle.Foreground(cli.ErrorColor)
	case model.BudgetApproaching:
		return cli.TableCellStyle.Foreground(cli.WarningColor)
	default:
		return cli.TableCellStyle.Foreground(cli.SuccessColor)
	}
}

func renderBudgetTable(summaries []model.BudgetSummary) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("Category", "Month", "Budget", "Spent", "Remaining", "Status")

	for _, s := range summaries {
		t.Row(string(s.Category), s.Month, s.Budget.String(), s.Spent.String(), s.Remaining.String(), string(s.Status))
	}

	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return cli.TableHeaderStyle
		}
		if col == 5 && row >= 0 && row < len(summaries) {
			return statusStyle(summaries[row].Status)
		}
		return cli.TableCellStyle
	})

	return t.Render()
}
