package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/pennywise/internal/classifier"
	"github.com/Veraticus/pennywise/internal/cli"
	"github.com/Veraticus/pennywise/internal/common"
	"github.com/Veraticus/pennywise/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func modelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Train and inspect the categorization model",
	}
	cmd.AddCommand(modelTrainCmd())
	cmd.AddCommand(modelPredictCmd())
	cmd.AddCommand(modelInfoCmd())
	return cmd
}

func modelTrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the model from classifier.training_path",
		Long: `Fit the classifier on the training CSV (description and category columns) and
save it to classifier.model_path. An existing model is kept unless --force is
given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			force, _ := cmd.Flags().GetBool("force")
			provider := newProvider(cmd.ErrOrStderr())

			var (
				m   *classifier.Model
				err error
			)
			if force {
				m, err = provider.Retrain(ctx)
			} else {
				m, _, err = provider.GetModel(ctx)
			}
			if err != nil {
				return trainingError(err)
			}

			writeln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Model ready at %s (%d examples, %d categories, trained %s)",
				provider.ModelPath(), m.Examples, len(m.Labels), m.TrainedAt.Local().Format("2006-01-02 15:04"))))
			return nil
		},
	}
	cmd.Flags().Bool("force", false, "retrain even if a model already exists")
	return cmd
}

func modelPredictCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "predict <description>",
		Short: "Show category probabilities for a description",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, err := newProvider(cmd.ErrOrStderr()).GetModel(cmd.Context())
			if err != nil {
				return trainingError(err)
			}

			threshold, err := confidenceThreshold()
			if err != nil {
				return err
			}

			text := strings.Join(args, " ")
			dist := m.Predict(text)
			best, p := dist.Best()

			out := cmd.OutOrStdout()
			writeln(out, cli.FormatTitle(fmt.Sprintf("%s %q", cli.RobotIcon, text)))
			for _, s := range dist {
				marker := " "
				if s.Label == best {
					marker = "*"
				}
				writeln(out, fmt.Sprintf("%s %-10s %.4f", marker, s.Label, s.Probability))
			}
			if p >= threshold {
				writeln(out, cli.FormatSuccess(fmt.Sprintf("Would be categorized as %s", best)))
			} else {
				writeln(out, cli.FormatWarning(fmt.Sprintf("Below the %.2f threshold; you would be asked to choose", threshold)))
			}
			return nil
		},
	}
}

func modelInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Describe the saved model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			provider := newProvider(nil)
			m, err := classifier.LoadModel(provider.ModelPath())
			if err != nil {
				return common.NewUserError("no usable model at "+provider.ModelPath()+"; run `pennywise model train`", err)
			}

			out := cmd.OutOrStdout()
			writeln(out, cli.FormatTitle("Model"))
			writeln(out, fmt.Sprintf("  Path:       %s", provider.ModelPath()))
			writeln(out, fmt.Sprintf("  Trained:    %s", m.TrainedAt.Local().Format("2006-01-02 15:04")))
			writeln(out, fmt.Sprintf("  Examples:   %d", m.Examples))
			writeln(out, fmt.Sprintf("  Vocabulary: %d terms", m.Vectorizer.Size()))
			writeln(out, fmt.Sprintf("  Labels:     %s", strings.Join(m.Labels, ", ")))
			if unknown := m.UnknownLabels(model.Categories()); len(unknown) > 0 {
				writeln(out, cli.FormatWarning("Labels outside the category list: "+strings.Join(unknown, ", ")))
			}
			return nil
		},
	}
}

func trainingError(err error) error {
	if errors.Is(err, classifier.ErrMissingTrainingData) {
		return common.NewUserError("no training data found at "+viper.GetString("classifier.training_path"), err)
	}
	return fmt.Errorf("failed to train classifier: %w", err)
}
