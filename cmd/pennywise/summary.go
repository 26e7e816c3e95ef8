package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/pennywise/internal/cli"
	"github.com/Veraticus/pennywise/internal/config"
	"github.com/Veraticus/pennywise/internal/report"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const terminalChartWidth = 40

func viewSummaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view-summary",
		Short: "Summarize spending by category and month",
		Long: `Print category and monthly totals, write them as JSON and render bar charts.

The JSON summary goes to summary.json_path. Bar charts go to summary.chart_path
and summary.monthly_chart_path, and the category share pie chart to
summary.pie_chart_path. Chart format follows the file extension.`,
		Args: cobra.NoArgs,
		RunE: runViewSummary,
	}
	addFilterFlags(cmd)
	cmd.Flags().Bool("no-charts", false, "skip writing chart images")
	cmd.Flags().Bool("open", false, "open the category chart after writing it")
	cmd.Flags().String("json", "", "write the JSON summary here instead of summary.json_path")
	return cmd
}

func runViewSummary(cmd *cobra.Command, _ []string) error {
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
	if r.ExpenseCount == 0 {
		writeln(out, cli.FormatInfo("No expenses found."))
		return nil
	}

	categoryBars := report.CategoryBars(r.ByCategory)
	monthBars := report.MonthBars(r.ByMonth)

	writeln(out, report.RenderBarChart("Spending by Category", categoryBars, terminalChartWidth))
	writeln(out)
	writeln(out, report.RenderBarChart("Monthly Spending", monthBars, terminalChartWidth))
	writeln(out)
	writeln(out, fmt.Sprintf("%s across %d expenses", cli.FormatTitle("Total "+r.TotalSpent.String()), r.ExpenseCount))

	jsonPath, _ := cmd.Flags().GetString("json")
	if jsonPath == "" {
		jsonPath = viper.GetString("summary.json_path")
	}
	jsonPath = config.ExpandPath(jsonPath)
	if err := report.NewSummary(r).WriteFile(jsonPath); err != nil {
		return err
	}
	writeln(out, cli.FormatSuccess("Summary written to "+jsonPath))

	if noCharts, _ := cmd.Flags().GetBool("no-charts"); noCharts {
		return nil
	}

	categoryChart := config.ExpandPath(viper.GetString("summary.chart_path"))
	monthlyChart := config.ExpandPath(viper.GetString("summary.monthly_chart_path"))
	charts := []struct {
		path string
		bars []report.Bar
		opts report.ChartOptions
	}{
		{categoryChart, categoryBars, report.CategoryChartOptions},
		{monthlyChart, monthBars, report.MonthlyChartOptions},
	}
	for _, c := range charts {
		if err := report.SaveBarChart(c.path, c.bars, c.opts); err != nil {
			if errors.Is(err, report.ErrNoData) {
				continue
			}
			return err
		}
		writeln(out, cli.FormatSuccess("Chart written to "+c.path))
	}

	pieChart := config.ExpandPath(viper.GetString("summary.pie_chart_path"))
	switch err := report.SavePieChart(pieChart, categoryBars, report.BreakdownChartTitle); {
	case err == nil:
		writeln(out, cli.FormatSuccess("Chart written to "+pieChart))
	case !errors.Is(err, report.ErrNoData):
		return err
	}

	if open, _ := cmd.Flags().GetBool("open"); open {
		if err := report.OpenFile(categoryChart); err != nil {
			slog.Warn("Failed to open chart", "path", categoryChart, "error", err)
		}
	}

	return nil
}
