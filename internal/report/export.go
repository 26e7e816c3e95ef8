package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/Veraticus/pennywise/internal/model"
)

// CSVHeader is the first row of a CSV export.
var CSVHeader = []string{"date", "category", "amount", "description", "source", "confidence"}

// WriteCSV writes expenses as CSV with CSVHeader.
func WriteCSV(w io.Writer, expenses []model.Expense) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, e := range expenses {
		confidence := ""
		if e.Confidence != nil {
			confidence = strconv.FormatFloat(*e.Confidence, 'f', 4, 64)
		}
		record := []string{
			e.Date.Format(model.DateLayout),
			string(e.Category),
			e.Amount.Decimal().StringFixed(2),
			e.Description,
			string(e.Source),
			confidence,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// expenseJSON is the exported shape of an expense.
type expenseJSON struct {
	Confidence  *float64 `json:"confidence,omitempty"`
	Date        string   `json:"date"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Source      string   `json:"source"`
	ID          int64    `json:"id"`
	Amount      float64  `json:"amount"`
}

// WriteJSON writes expenses as an indented JSON array.
func WriteJSON(w io.Writer, expenses []model.Expense) error {
	out := make([]expenseJSON, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, expenseJSON{
			ID:          e.ID,
			Date:        e.Date.Format(model.DateLayout),
			Category:    string(e.Category),
			Amount:      e.Amount.Float(),
			Description: e.Description,
			Source:      string(e.Source),
			Confidence:  e.Confidence,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode expenses: %w", err)
	}
	return nil
}
