package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/pennywise/internal/cli"
	"github.com/Veraticus/pennywise/internal/common"
	"github.com/Veraticus/pennywise/internal/engine"
	"github.com/spf13/cobra"
)

func addCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an expense",
		Long: `Add an expense for the current user.

Without --category the description is classified automatically. Predictions
at or above classifier.confidence_threshold are accepted; anything less
confident asks you to pick the category from a numbered menu.

Examples:
  pennywise add -d "Lunch at Chipotle" -a 12.50
  pennywise add -d "Spotify" -a 9.99 -c Music --date 2024-03-01`,
		Args: cobra.NoArgs,
		RunE: runAdd,
	}

	cmd.Flags().StringP("description", "d", "", "what the money was spent on (required)")
	cmd.Flags().StringP("amount", "a", "", "amount spent, e.g. 12.50 (required)")
	cmd.Flags().StringP("category", "c", "", "category; skips automatic categorization")
	cmd.Flags().String("date", "", "expense date YYYY-MM-DD (default: today)")
	addUserIDFlag(cmd)
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func runAdd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	description, _ := cmd.Flags().GetString("description")
	amountFlag, _ := cmd.Flags().GetString("amount")
	categoryFlag, _ := cmd.Flags().GetString("category")
	dateFlag, _ := cmd.Flags().GetString("date")

	amount, err := parseAmountFlag(amountFlag)
	if err != nil {
		return err
	}
	category, err := parseCategoryFlag(categoryFlag)
	if err != nil {
		return err
	}
	date, err := parseDateFlag(dateFlag)
	if err != nil {
		return err
	}
	if category == nil && strings.TrimSpace(description) == "" {
		return common.NewUserError("a description is required to categorize the expense", engine.ErrEmptyDescription)
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

	categorizer, err := newCategorizer(ctx, cmd.ErrOrStderr(), category == nil)
	if err != nil {
		return err
	}

	result, err := engine.NewRecorder(store).AddExpense(ctx, categorizer, newChooser(cmd), engine.ExpenseInput{
		Date:        date,
		Category:    category,
		Description: description,
		UserID:      user.ID,
		Amount:      amount,
	})
	if err != nil {
		return err
	}

	writeln(out, cli.FormatDecision(result.Decision))
	if alert := cli.FormatBudgetCheck(result.Budget); alert != "" {
		writeln(out, alert)
	}
	writeln(out, cli.FormatSuccess(fmt.Sprintf("Expense added successfully! %s for %s on %s",
		result.Expense.Amount, result.Expense.Category, result.Expense.Date.Format("2006-01-02"))))

	return nil
}
