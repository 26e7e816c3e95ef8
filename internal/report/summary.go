package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Veraticus/pennywise/internal/service"
)

// Summary is the JSON summary document.
type Summary struct {
	CategorySummary map[string]float64 `json:"category_summary"`
	MonthlySummary  map[string]float64 `json:"monthly_summary"`
}

// NewSummary converts a report's totals to dollars.
func NewSummary(r *service.SpendingReport) Summary {
	s := Summary{
		CategorySummary: make(map[string]float64, len(r.ByCategory)),
		MonthlySummary:  make(map[string]float64, len(r.ByMonth)),
	}
	for category, amount := range r.ByCategory {
		s.CategorySummary[string(category)] = amount.Float()
	}
	for month, amount := range r.ByMonth {
		s.MonthlySummary[month] = amount.Float()
	}
	return s
}

// Encode writes the summary as indented JSON.
func (s Summary) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	return nil
}

// WriteFile writes the summary to path, creating parent directories.
func (s Summary) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create summary directory: %w", err)
	}
	f, err := os.Create(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	if err := s.Encode(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
