package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/Veraticus/pennywise/internal/cli"
	"github.com/Veraticus/pennywise/internal/common"
	"github.com/Veraticus/pennywise/internal/config"
	"github.com/Veraticus/pennywise/internal/engine"
	"github.com/Veraticus/pennywise/internal/importer"
	"github.com/Veraticus/pennywise/internal/model"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import expenses from files",
		Long: `Import expenses from a CSV file or from OFX/QFX bank statements.

Rows without a known category are categorized automatically. Every row is
categorized before anything is saved, so cancelling a prompt imports nothing.`,
	}
	cmd.AddCommand(importCSVCmd())
	cmd.AddCommand(importOFXCmd())
	return cmd
}

func addImportFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("dry-run", false, "show how rows would be categorized without saving")
	addUserIDFlag(cmd)
}

func importCSVCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "csv <file>",
		Short: "Import expenses from a CSV file",
		Long: `Import a CSV file with date, category and amount columns and an optional
description column. Dates may be YYYY-MM-DD, YYYY/MM/DD or MM/DD/YYYY.`,
		Example: `  pennywise import csv expenses.csv
  pennywise import csv expenses.csv --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.ExpandPath(args[0])
			rows, err := importer.ReadCSVFile(path)
			if err != nil {
				return common.NewUserError(fmt.Sprintf("could not read %s", filepath.Base(path)), err)
			}
			return runImport(cmd, rows)
		},
	}
	addImportFlags(cmd)
	return cmd
}

func importOFXCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ofx <files...>",
		Short: "Import debits from OFX/QFX bank statements",
		Long: `Import every debit from one or more OFX or QFX statements. Credits are skipped,
and a transaction that appears in overlapping statements is imported once.
Transfers and card payments are skipped unless --include-transfers is given.`,
		Example: `  pennywise import ofx ~/Downloads/checking_jan.qfx
  pennywise import ofx ~/Downloads/*.qfx --dry-run`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := importer.ExpandPatterns(args)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return common.NewUserError("no statement files found", common.ErrNoExpenses)
			}

			transfers := importer.DefaultTransferDetector()
			if include, _ := cmd.Flags().GetBool("include-transfers"); include {
				transfers = nil
			}

			rows, statements, err := importer.ReadStatements(cmd.Context(), files, transfers)
			if err != nil {
				return err
			}
			for _, s := range statements {
				writeln(cmd.OutOrStdout(), cli.FormatInfo(fmt.Sprintf("%s: %d debits (%d duplicates, %d transfers skipped)",
					filepath.Base(s.Path), s.Debits, s.Duplicates, s.Transfers)))
			}
			if len(rows) == 0 {
				writeln(cmd.OutOrStdout(), cli.FormatInfo("No new debits to import."))
				return nil
			}
			return runImport(cmd, rows)
		},
	}
	addImportFlags(cmd)
	cmd.Flags().Bool("include-transfers", false, "import transfers and card payments as expenses")
	return cmd
}

func runImport(cmd *cobra.Command, rows []importer.Row) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStorage(store)

	user, err := resolveUser(cmd, store)
	if err != nil {
		return err
	}

	source := func(ctx context.Context) (*engine.Categorizer, error) {
		return newCategorizer(ctx, cmd.ErrOrStderr(), true)
	}
	im := importer.New(engine.NewRecorder(store), source, newChooser(cmd))

	result, err := im.Run(ctx, user.ID, rows, importer.Options{
		Progress: cmd.ErrOrStderr(),
		DryRun:   dryRun,
	})
	if err != nil {
		return err
	}

	if dryRun {
		writeln(out, renderPreviewTable(result.Previews))
		writeln(out, cli.FormatInfo(fmt.Sprintf("Dry run: %d expenses would be imported.", len(result.Previews))))
		return nil
	}

	for _, check := range result.Alerts() {
		writeln(out, cli.FormatBudgetCheck(check))
	}
	writeln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d expenses.", len(result.Recorded))))
	return nil
}

func renderPreviewTable(previews []importer.Preview) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("Date", "Description", "Amount", "Category")

	for _, p := range previews {
		category := ""
		switch {
		case p.Decision != nil && p.Decision.Confidence != nil:
			category = fmt.Sprintf("%s (%.2f)", p.Decision.Category, *p.Decision.Confidence)
		case p.Decision != nil:
			category = string(p.Decision.Category)
		case p.Pending != nil:
			category = fmt.Sprintf("ask (best guess %s, %.2f)", p.Pending.Predicted, p.Pending.Confidence)
		}
		t.Row(p.Row.Date.Format(model.DateLayout), p.Row.Text(), p.Row.Amount.String(), category)
	}

	t.StyleFunc(func(row, _ int) lipgloss.Style {
		if row == table.HeaderRow {
			return cli.TableHeaderStyle
		}
		return cli.TableCellStyle
	})

	return t.Render()
}
