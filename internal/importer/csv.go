// Package importer turns CSV exports and bank statements into categorized
// expenses.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Veraticus/pennywise/internal/common"
	"github.com/Veraticus/pennywise/internal/model"
)

// ErrMissingColumn is returned when an import CSV lacks a required column.
var ErrMissingColumn = errors.New("import file is missing a required column")

// dateLayouts are the date formats accepted in import files.
var dateLayouts = []string{model.DateLayout, "2006/01/02", "01/02/2006", time.RFC3339}

// Row is one expense waiting to be categorized and recorded. Category holds
// the raw category text, which may be empty or not a known category.
type Row struct {
	Date        time.Time
	Category    string
	Description string
	Reference   string
	Amount      model.Money
	Line        int
}

// Text is what the classifier sees for this row: the description, or the
// category text when there is no description.
func (r Row) Text() string {
	if d := strings.TrimSpace(r.Description); d != "" {
		return d
	}
	return strings.TrimSpace(r.Category)
}

// ReadCSV parses rows with date, category and amount columns and an optional
// description column. Columns may appear in any order.
func ReadCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, common.ErrNoExpenses
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read import header: %w", err)
	}

	cols := map[string]int{"date": -1, "category": -1, "amount": -1, "description": -1}
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, ok := cols[key]; ok {
			cols[key] = i
		}
	}
	for _, required := range []string{"date", "category", "amount"} {
		if cols[required] < 0 {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	field := func(record []string, name string) string {
		i := cols[name]
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read import row: %w", err)
		}
		line, _ := reader.FieldPos(0)
		if strings.TrimSpace(strings.Join(record, "")) == "" {
			continue
		}

		date, err := parseDate(field(record, "date"))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		amount, err := model.ParseMoney(field(record, "amount"))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		row := Row{
			Line:        line,
			Date:        date,
			Category:    field(record, "category"),
			Description: field(record, "description"),
			Amount:      amount,
		}
		if row.Text() == "" {
			return nil, fmt.Errorf("line %d: row needs a category or a description", line)
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, common.ErrNoExpenses
	}
	return rows, nil
}

// ReadCSVFile opens path and parses it with ReadCSV.
func ReadCSVFile(path string) ([]Row, error) {
	f, err := os.Open(path) // #nosec G304
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return ReadCSV(f)
}

func parseDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
}
