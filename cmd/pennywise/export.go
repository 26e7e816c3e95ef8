package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Veraticus/pennywise/internal/cli"
	"github.com/Veraticus/pennywise/internal/config"
	"github.com/Veraticus/pennywise/internal/model"
	"github.com/Veraticus/pennywise/internal/report"
	"github.com/Veraticus/pennywise/internal/service"
	"github.com/Veraticus/pennywise/internal/sheets"
	"github.com/spf13/cobra"
)

// newReportWriter builds the Sheets writer; tests replace it.
var newReportWriter = func(ctx context.Context) (service.ReportWriter, string, error) {
	cfg, err := config.LoadSheetsConfig()
	if err != nil {
		return nil, "", fmt.Errorf("google sheets is not configured (run `pennywise auth sheets`): %w", err)
	}
	writer, err := sheets.NewWriter(ctx, *cfg, slog.Default())
	if err != nil {
		return nil, "", err
	}
	return writer, cfg.SpreadsheetName, nil
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export expenses",
		Long:  `Export expenses as CSV or JSON, or write a full report to Google Sheets.`,
	}
	cmd.AddCommand(exportFileCmd("csv", report.WriteCSV))
	cmd.AddCommand(exportFileCmd("json", report.WriteJSON))
	cmd.AddCommand(exportSheetsCmd())
	return cmd
}

func exportFileCmd(format string, write func(io.Writer, []model.Expense) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   format,
		Short: fmt.Sprintf("Export expenses as %s", format),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := buildReport(cmd)
			if err != nil {
				return err
			}

			output, _ := cmd.Flags().GetString("output")
			if output == "" || output == "-" {
				return write(cmd.OutOrStdout(), r.Expenses)
			}

			output = config.ExpandPath(output)
			f, err := os.Create(output) //nolint:gosec // path comes from the user
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			if err := write(f, r.Expenses); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			writeln(cmd.ErrOrStderr(), cli.FormatSuccess(fmt.Sprintf("Exported %d expenses to %s", len(r.Expenses), output)))
			return nil
		},
	}
	addFilterFlags(cmd)
	cmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	return cmd
}

func exportSheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Write a spending report to Google Sheets",
		Long: `Write expenses, category totals, monthly totals and budget status to a
Google spreadsheet. Each run replaces the contents of the report tabs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := buildReport(cmd)
			if err != nil {
				return err
			}

			writer, name, err := newReportWriter(cmd.Context())
			if err != nil {
				return err
			}

			writeln(cmd.OutOrStdout(), cli.FormatInfo(fmt.Sprintf("Exporting %d expenses to %q...", r.ExpenseCount, name)))
			if err := writer.Write(cmd.Context(), r); err != nil {
				return fmt.Errorf("failed to export to google sheets: %w", err)
			}
			writeln(cmd.OutOrStdout(), cli.FormatSuccess("Google Sheets export complete"))
			return nil
		},
	}
	addFilterFlags(cmd)
	return cmd
}

// buildReport resolves the user and builds a report from the filter flags.
func buildReport(cmd *cobra.Command) (*service.SpendingReport, error) {
	ctx := cmd.Context()

	filter, err := buildFilter(cmd)
	if err != nil {
		return nil, err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return nil, err
	}
	defer closeStorage(store)

	user, err := resolveUser(cmd, store)
	if err != nil {
		return nil, err
	}

	return report.NewBuilder(store).Build(ctx, user, filter)
}
