package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"bizbook/internal/domain/reports"
)

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	err := WriteXLSX(&buf, reports.Table{
		Title:   "Expenses",
		Headers: []string{"Category", "Count", "Total"},
		Rows: [][]any{
			{"Rent", int64(2), 1200.5},
			{"Travel", int64(1), 80.0},
		},
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Report"}, f.GetSheetList())

	cells := map[string]string{
		"A1": "Expenses",
		"A3": "Category",
		"C3": "Total",
		"A4": "Rent",
		"B4": "2",
		"C4": "1200.5",
		"A5": "Travel",
		"C5": "80",
	}
	for cell, want := range cells {
		got, err := f.GetCellValue("Report", cell)
		require.NoError(t, err)
		assert.Equal(t, want, got, cell)
	}
}

func TestFilename(t *testing.T) {
	at := time.Date(2024, 3, 9, 18, 0, 0, 0, time.UTC)
	assert.Equal(t, "profit-loss-2024-03-09.xlsx", Filename("profit-loss", at))
}
