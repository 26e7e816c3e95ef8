package classifier

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Veraticus/pennywise/internal/model"
)

// ErrMissingColumn is returned when the training CSV lacks a required column.
var ErrMissingColumn = errors.New("training data is missing a required column")

// ReadTrainingData parses labeled examples from CSV. The header must name a
// description and a category column; other columns are ignored.
func ReadTrainingData(r io.Reader) ([]model.TrainingExample, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyTrainingData
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read training header: %w", err)
	}

	descCol, catCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))) {
		case "description":
			descCol = i
		case "category":
			catCol = i
		}
	}
	if descCol < 0 {
		return nil, fmt.Errorf("%w: description", ErrMissingColumn)
	}
	if catCol < 0 {
		return nil, fmt.Errorf("%w: category", ErrMissingColumn)
	}

	var examples []model.TrainingExample
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read training row %d: %w", line, err)
		}
		if descCol >= len(record) || catCol >= len(record) {
			slog.Debug("skipping short training row", "line", line)
			continue
		}
		desc := strings.TrimSpace(record[descCol])
		cat := strings.TrimSpace(record[catCol])
		if desc == "" || cat == "" {
			slog.Debug("skipping incomplete training row", "line", line)
			continue
		}
		examples = append(examples, model.TrainingExample{Description: desc, Category: cat})
	}

	if len(examples) == 0 {
		return nil, ErrEmptyTrainingData
	}
	return examples, nil
}

// ReadTrainingFile opens path and parses it with ReadTrainingData.
func ReadTrainingFile(path string) ([]model.TrainingExample, error) {
	f, err := os.Open(path) // #nosec G304
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return ReadTrainingData(f)
}
