package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/Veraticus/pennywise/internal/cli"
	"github.com/Veraticus/pennywise/internal/common"
	"github.com/Veraticus/pennywise/internal/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	version = "dev"
	rootCmd = newRootCmd()
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pennywise",
		Short: cli.CoinIcon + " Personal expense tracker with AI categorization",
		Long: `pennywise: track expenses from the command line.

Expenses are categorized automatically by a text classifier trained on your
own examples. When the classifier is unsure you pick the category yourself.
Set monthly budgets per category and get warned before you blow them.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/pennywise/config.yaml)")
	cmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	cmd.PersistentFlags().String("db", "", "database path (default: $HOME/.config/pennywise/pennywise.db)")

	_ = viper.BindPFlag("logging.level", cmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", cmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("database.path", cmd.PersistentFlags().Lookup("db"))

	cmd.AddCommand(registerCmd())
	cmd.AddCommand(loginCmd())
	cmd.AddCommand(logoutCmd())
	cmd.AddCommand(whoamiCmd())
	cmd.AddCommand(addCmd())
	cmd.AddCommand(setBudgetCmd())
	cmd.AddCommand(viewBudgetCmd())
	cmd.AddCommand(viewExpensesCmd())
	cmd.AddCommand(viewSummaryCmd())
	cmd.AddCommand(exportCmd())
	cmd.AddCommand(importCmd())
	cmd.AddCommand(modelCmd())
	cmd.AddCommand(authCmd())
	cmd.AddCommand(migrateCmd())
	cmd.AddCommand(versionCmd())

	return cmd
}

func main() {
	interrupts := cli.NewInterruptHandler(os.Stderr)
	ctx, cancel := context.WithCancel(context.Background())
	ctx = interrupts.HandleInterrupts(ctx)

	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		if interrupts.WasInterrupted() && errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, cli.FormatError(err.Error()))
		os.Exit(1)
	}
}

func setDefaults() {
	viper.SetDefault("database.path", config.DefaultPath("pennywise.db"))
	viper.SetDefault("classifier.model_path", config.DefaultPath("model.json"))
	viper.SetDefault("classifier.training_path", "training_data.csv")
	viper.SetDefault("classifier.confidence_threshold", 0.7)
	viper.SetDefault("classifier.strict_labels", true)
	viper.SetDefault("classifier.epochs", 500)
	viper.SetDefault("classifier.learning_rate", 1.0)
	viper.SetDefault("classifier.c", 100.0)
	viper.SetDefault("session.path", config.DefaultPath("session"))
	viper.SetDefault("session.ttl", "720h")
	viper.SetDefault("ui.chooser", "prompt")
	viper.SetDefault("summary.json_path", "summary.json")
	viper.SetDefault("summary.chart_path", "summary.png")
	viper.SetDefault("summary.monthly_chart_path", "monthly.png")
	viper.SetDefault("summary.pie_chart_path", "expense_chart.png")
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "console")
}

func initConfig(_ *cobra.Command, _ []string) error {
	// .env values never override variables already set in the environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(config.DefaultDir())
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("PENNYWISE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := common.SetupLogger(os.Stderr, viper.GetString("logging.level"), viper.GetString("logging.format")); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pennywise %s\n", version)
		},
	}
}
