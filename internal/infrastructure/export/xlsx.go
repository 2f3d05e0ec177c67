// Package export renders report tables as XLSX workbooks.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"bizbook/internal/domain/reports"
)

// ContentType is the MIME type of an XLSX workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const sheetName = "Report"

// Filename returns "<name>-<date>.xlsx".
func Filename(name string, at time.Time) string {
	return fmt.Sprintf("%s-%s.xlsx", name, at.Format(time.DateOnly))
}

// WriteXLSX writes the table as a single-sheet workbook: title in A1,
// headers on row 3 and data from row 4.
func WriteXLSX(w io.Writer, t reports.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	if err := f.SetCellValue(sheetName, "A1", t.Title); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	if err := setRow(f, 3, toAny(t.Headers)); err != nil {
		return err
	}
	if len(t.Headers) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(t.Headers), 3)
		if err := f.SetCellStyle(sheetName, "A3", last, bold); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetName, "A1", "A1", bold); err != nil {
			return err
		}
	}

	for i, row := range t.Rows {
		if err := setRow(f, 4+i, row); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}

func toAny(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}
