package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/pennywise/internal/common"
	"github.com/Veraticus/pennywise/internal/model"
	"github.com/Veraticus/pennywise/internal/service"
	"github.com/Veraticus/pennywise/internal/sheets"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupCLI isolates configuration, database and session files in a temp dir.
func setupCLI(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("PENNYWISE_SUMMARY_CHART_PATH", filepath.Join(dir, "summary.png"))
	t.Setenv("PENNYWISE_SUMMARY_MONTHLY_CHART_PATH", filepath.Join(dir, "monthly.png"))
	t.Setenv("PENNYWISE_SUMMARY_PIE_CHART_PATH", filepath.Join(dir, "expense_chart.png"))
	t.Setenv("PENNYWISE_SUMMARY_JSON_PATH", filepath.Join(dir, "summary.json"))
	t.Setenv("PENNYWISE_CLASSIFIER_TRAINING_PATH", filepath.Join(dir, "training_data.csv"))
	return dir
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	viper.Reset()

	cmd := newRootCmd()
	cmd.SilenceErrors = true
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCLI(t, "", args...)
	require.NoError(t, err, out)
	return out
}

func findCommand(t *testing.T, root *cobra.Command, path ...string) *cobra.Command {
	t.Helper()
	cmd, rest, err := root.Find(path)
	require.NoError(t, err)
	require.Empty(t, rest)
	require.Equal(t, path[len(path)-1], cmd.Name())
	return cmd
}

func TestCommandTree(t *testing.T) {
	root := newRootCmd()

	tests := []struct {
		path  []string
		flags []string
	}{
		{[]string{"register"}, []string{"username", "password"}},
		{[]string{"login"}, []string{"username", "password"}},
		{[]string{"logout"}, nil},
		{[]string{"whoami"}, []string{"user-id"}},
		{[]string{"add"}, []string{"description", "amount", "category", "date", "user-id"}},
		{[]string{"set-budget"}, []string{"category", "amount", "month", "user-id"}},
		{[]string{"view-budget"}, []string{"user-id"}},
		{[]string{"view-expenses"}, []string{"month", "category", "from", "to", "limit", "user-id"}},
		{[]string{"view-summary"}, []string{"month", "category", "no-charts", "open", "json"}},
		{[]string{"export", "csv"}, []string{"output", "month"}},
		{[]string{"export", "json"}, []string{"output", "month"}},
		{[]string{"export", "sheets"}, []string{"month", "category"}},
		{[]string{"import", "csv"}, []string{"dry-run", "user-id"}},
		{[]string{"import", "ofx"}, []string{"dry-run", "user-id", "include-transfers"}},
		{[]string{"model", "train"}, []string{"force"}},
		{[]string{"model", "predict"}, nil},
		{[]string{"model", "info"}, nil},
		{[]string{"auth", "sheets"}, []string{"open"}},
		{[]string{"migrate"}, []string{"status"}},
		{[]string{"version"}, nil},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.path, " "), func(t *testing.T) {
			cmd := findCommand(t, root, tt.path...)
			for _, flag := range tt.flags {
				assert.NotNil(t, cmd.Flags().Lookup(flag), "missing --%s", flag)
			}
		})
	}

	for _, flag := range []string{"config", "log-level", "log-format", "db"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), "missing --%s", flag)
	}
}

func TestBuildFilter(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
		check   func(t *testing.T, f service.ExpenseFilter)
	}{
		{
			name: "no flags",
			check: func(t *testing.T, f service.ExpenseFilter) {
				assert.Equal(t, service.ExpenseFilter{}, f)
			},
		},
		{
			name: "month category and limit",
			args: []string{"-m", "2024-03", "-c", "food", "-n", "5"},
			check: func(t *testing.T, f service.ExpenseFilter) {
				assert.Equal(t, "2024-03", f.Month)
				assert.Equal(t, model.CategoryFood, f.Category)
				assert.Equal(t, 5, f.Limit)
			},
		},
		{
			name: "date range",
			args: []string{"--from", "2024-01-01", "--to", "2024-01-31"},
			check: func(t *testing.T, f service.ExpenseFilter) {
				require.NotNil(t, f.StartDate)
				require.NotNil(t, f.EndDate)
				assert.Equal(t, 1, f.StartDate.Day())
				assert.Equal(t, 31, f.EndDate.Day())
			},
		},
		{name: "bad month", args: []string{"-m", "2024-13"}, wantErr: true},
		{name: "bad category", args: []string{"-c", "rent"}, wantErr: true},
		{name: "bad date", args: []string{"--from", "01/02/2024"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := viewExpensesCmd()
			require.NoError(t, cmd.ParseFlags(tt.args))

			filter, err := buildFilter(cmd)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, common.IsUserError(err))
				return
			}
			require.NoError(t, err)
			tt.check(t, filter)
		})
	}
}

func TestParseFlagHelpers(t *testing.T) {
	category, err := parseCategoryFlag("")
	require.NoError(t, err)
	assert.Nil(t, category)

	category, err = parseCategoryFlag("TECH")
	require.NoError(t, err)
	assert.Equal(t, model.CategoryTech, *category)

	_, err = parseCategoryFlag("groceries")
	assert.ErrorIs(t, err, model.ErrUnknownCategory)

	date, err := parseDateFlag("")
	require.NoError(t, err)
	assert.True(t, date.IsZero())

	date, err = parseDateFlag("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, time.February, date.Month())

	amount, err := parseAmountFlag("12,50")
	require.NoError(t, err)
	assert.Equal(t, model.Money(1250), amount)

	amount, err = parseAmountFlag("1,234")
	require.NoError(t, err)
	assert.Equal(t, model.Money(123400), amount)

	_, err = parseAmountFlag("1e3")
	assert.ErrorIs(t, err, model.ErrInvalidAmount)

	_, err = parseAmountFlag("0")
	assert.ErrorIs(t, err, model.ErrInvalidAmount)
}

func TestCLI_ExpenseLifecycle(t *testing.T) {
	setupCLI(t)

	out := mustRun(t, "register", "-u", "alice", "-p", "secret")
	assert.Contains(t, out, "User alice registered successfully!")

	_, err := runCLI(t, "", "register", "-u", "alice", "-p", "other")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Username already exists.")

	_, err = runCLI(t, "", "login", "-u", "alice", "-p", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid username or password.")

	_, err = runCLI(t, "", "whoami")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")

	mustRun(t, "login", "-u", "alice", "-p", "secret")
	assert.Contains(t, mustRun(t, "whoami"), "alice")

	month := time.Now().Format("2006-01")
	out = mustRun(t, "set-budget", "-c", "food", "-a", "100")
	assert.Contains(t, out, "Budget set: $100.00 for Food in "+month)

	out = mustRun(t, "add", "-d", "Groceries", "-a", "95", "-c", "Food")
	assert.Contains(t, out, "Expense added successfully!")
	assert.Contains(t, out, "Approaching Food budget")

	out = mustRun(t, "add", "-d", "Dinner", "-a", "10", "-c", "food")
	assert.Contains(t, out, "Exceeded Food budget")

	out = mustRun(t, "view-budget")
	assert.Contains(t, out, "Food")
	assert.Contains(t, out, "$105.00")

	out = mustRun(t, "view-expenses", "-c", "food")
	assert.Contains(t, out, "Groceries")
	assert.Contains(t, out, "Dinner")

	out = mustRun(t, "export", "csv")
	assert.True(t, strings.HasPrefix(out, "date,"), out)
	assert.Contains(t, out, "Groceries")

	mustRun(t, "logout")
	_, err = runCLI(t, "", "whoami")
	require.Error(t, err)
}

func TestCLI_AddWithoutModelNeedsCategory(t *testing.T) {
	setupCLI(t)
	mustRun(t, "register", "-u", "bob", "-p", "pw")

	_, err := runCLI(t, "", "add", "-d", "Bus ticket", "-a", "2.50", "--user-id", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no trained model found")

	_, err = runCLI(t, "", "add", "-d", "Bus ticket", "-a", "-1", "-c", "Transport", "--user-id", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid amount")

	_, err = runCLI(t, "", "add", "-d", "Bus ticket", "-a", "1", "-c", "Rent", "--user-id", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown category")
}

func TestCLI_ConfidenceThresholdOutOfRange(t *testing.T) {
	for _, value := range []string{"70", "-0.1"} {
		t.Run(value, func(t *testing.T) {
			setupCLI(t)
			mustRun(t, "register", "-u", "dana", "-p", "pw")
			t.Setenv("PENNYWISE_CLASSIFIER_CONFIDENCE_THRESHOLD", value)

			_, err := runCLI(t, "", "add", "-d", "Bus ticket", "-a", "2", "-c", "Transport", "--user-id", "1")
			require.Error(t, err)
			assert.True(t, common.IsUserError(err))
			require.ErrorIs(t, err, common.ErrInvalidConfig)
			assert.Contains(t, err.Error(), "between 0 and 1")
		})
	}

	setupCLI(t)
	mustRun(t, "register", "-u", "erin", "-p", "pw")
	t.Setenv("PENNYWISE_CLASSIFIER_CONFIDENCE_THRESHOLD", "1")
	mustRun(t, "add", "-d", "Bus ticket", "-a", "2", "-c", "Transport", "--user-id", "1")
}

func TestCLI_ModelTrainPredictAndAdd(t *testing.T) {
	dir := setupCLI(t)
	training := "description,category\n" +
		"lunch burger,Food\npizza dinner,Food\ngroceries market,Food\nsandwich lunch,Food\n" +
		"bus ticket,Transport\ntaxi ride,Transport\ntrain ticket,Transport\nmetro card,Transport\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "training_data.csv"), []byte(training), 0600))

	out := mustRun(t, "model", "train")
	assert.Contains(t, out, "8 examples")
	assert.FileExists(t, filepath.Join(dir, "pennywise", "model.json"))

	out = mustRun(t, "model", "info")
	assert.Contains(t, out, "Food, Transport")

	out = mustRun(t, "model", "predict", "bus", "ticket")
	assert.Contains(t, out, "Transport")

	mustRun(t, "register", "-u", "carol", "-p", "pw")
	// A low-confidence guess falls back to the menu; answer 2 (Transport).
	out, err := runCLI(t, "2\n", "add", "-d", "zzz unseen words", "-a", "3", "--user-id", "1")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Expense added successfully!")
	assert.Contains(t, out, "Transport")
}

func TestCLI_ImportCSV(t *testing.T) {
	dir := setupCLI(t)
	mustRun(t, "register", "-u", "dana", "-p", "pw")

	file := filepath.Join(dir, "expenses.csv")
	require.NoError(t, os.WriteFile(file, []byte("date,category,amount,description\n"+
		"2024-03-01,Food,12.00,Lunch\n"+
		"2024-03-02,Tech,99.99,Headphones\n"), 0600))

	out := mustRun(t, "import", "csv", file, "--dry-run", "--user-id", "1")
	assert.Contains(t, out, "Dry run: 2 expenses would be imported.")
	assert.Contains(t, out, "Headphones")

	out = mustRun(t, "import", "csv", file, "--user-id", "1")
	assert.Contains(t, out, "Imported 2 expenses.")

	out = mustRun(t, "view-expenses", "-m", "2024-03", "--user-id", "1")
	assert.Contains(t, out, "$111.99")

	_, err := runCLI(t, "", "import", "csv", filepath.Join(dir, "missing.csv"), "--user-id", "1")
	require.Error(t, err)
}

func TestCLI_ViewSummary(t *testing.T) {
	dir := setupCLI(t)
	mustRun(t, "register", "-u", "erin", "-p", "pw")
	mustRun(t, "add", "-d", "Lunch", "-a", "12", "-c", "Food", "--date", "2024-01-10", "--user-id", "1")
	mustRun(t, "add", "-d", "Taxi", "-a", "30", "-c", "Transport", "--date", "2024-02-10", "--user-id", "1")

	out := mustRun(t, "view-summary", "--user-id", "1")
	assert.Contains(t, out, "Spending by Category")
	assert.Contains(t, out, "$42.00")

	data, err := os.ReadFile(filepath.Join(dir, "summary.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"category_summary":{"Food":12,"Transport":30},"monthly_summary":{"2024-01":12,"2024-02":30}}`, string(data))
	assert.FileExists(t, filepath.Join(dir, "summary.png"))
	assert.FileExists(t, filepath.Join(dir, "monthly.png"))
	assert.FileExists(t, filepath.Join(dir, "expense_chart.png"))
}

func TestCLI_ExportSheets(t *testing.T) {
	setupCLI(t)
	mustRun(t, "register", "-u", "frank", "-p", "pw")
	mustRun(t, "add", "-d", "Concert", "-a", "45", "-c", "Social", "--user-id", "1")

	mock := sheets.NewMockWriter()
	original := newReportWriter
	newReportWriter = func(context.Context) (service.ReportWriter, string, error) {
		return mock, "Test Sheet", nil
	}
	t.Cleanup(func() { newReportWriter = original })

	out := mustRun(t, "export", "sheets", "--user-id", "1")
	assert.Contains(t, out, "Google Sheets export complete")
	require.Equal(t, 1, mock.WriteCallCount)
	assert.Equal(t, "frank", mock.LastReport.Username)
	assert.Equal(t, model.Money(4500), mock.LastReport.TotalSpent)

	mock.SetWriteError(errors.New("quota exhausted"))
	_, err := runCLI(t, "", "export", "sheets", "--user-id", "1")
	assert.ErrorContains(t, err, "quota exhausted")
}

func TestCLI_Migrate(t *testing.T) {
	setupCLI(t)

	out := mustRun(t, "migrate", "--status")
	assert.Contains(t, out, "Current version: 0")
	assert.Contains(t, out, "Migrations pending")

	mustRun(t, "migrate")
	out = mustRun(t, "migrate", "--status")
	assert.NotContains(t, out, "Migrations pending")
}
