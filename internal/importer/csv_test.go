package importer

import (
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/pennywise/internal/common"
	"github.com/Veraticus/pennywise/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	input := `date,category,amount,description
2024-01-15,Food,12.50,Lunch
2024-01-16, transport ,3.00,
2024/01/17,Snacks,4.25,vending machine

01/18/2024,Coffee,2.10,
`
	rows, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, "Food", rows[0].Category)
	assert.Equal(t, model.Money(1250), rows[0].Amount)
	assert.Equal(t, "Lunch", rows[0].Text())

	assert.Equal(t, "transport", rows[1].Category)
	assert.Equal(t, "transport", rows[1].Text(), "category text stands in for a missing description")

	assert.Equal(t, time.January, rows[2].Date.Month())
	assert.Equal(t, 17, rows[2].Date.Day())
	assert.Equal(t, "vending machine", rows[2].Text())

	assert.Equal(t, 18, rows[3].Date.Day())
	assert.Equal(t, 6, rows[3].Line)
}

func TestReadCSV_ColumnOrderAndCase(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader("\ufeffAmount,Description,Category,Date\n9.99,Spotify,Music,2024-03-01\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Spotify", rows[0].Description)
	assert.Equal(t, model.Money(999), rows[0].Amount)
}

func TestReadCSV_GroupedAmounts(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader("date,category,amount\n2024-03-01,Tech,\"1,234.56\"\n2024-03-02,Food,\"3,50\"\n"))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, model.Money(123456), rows[0].Amount)
	assert.Equal(t, model.Money(350), rows[1].Amount)

	_, err = ReadCSV(strings.NewReader("date,category,amount\n2024-03-01,Tech,2e2\n"))
	assert.ErrorIs(t, err, model.ErrInvalidAmount)
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
		message string
	}{
		{name: "empty file", input: "", wantErr: common.ErrNoExpenses},
		{name: "header only", input: "date,category,amount\n", wantErr: common.ErrNoExpenses},
		{name: "missing amount column", input: "date,category\n2024-01-01,Food\n", wantErr: ErrMissingColumn},
		{name: "bad date", input: "date,category,amount\nyesterday,Food,1\n", message: "line 2"},
		{name: "bad amount", input: "date,category,amount\n2024-01-01,Food,-3\n", wantErr: model.ErrInvalidAmount},
		{name: "nothing to categorize", input: "date,category,amount,description\n2024-01-01,,3,\n", message: "needs a category or a description"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.message != "" {
				assert.Contains(t, err.Error(), tt.message)
			}
		})
	}
}
