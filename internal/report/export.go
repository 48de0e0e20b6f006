package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"hotel_booking/internal/domain"
)

// ToDelimitedText writes a header row and one CSV row per booking. Fields containing
// commas, quotes or newlines are quoted.
func ToDelimitedText(w io.Writer, bookings []domain.Booking, cols []Column) error {
	if len(cols) == 0 {
		cols = DefaultColumns
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(headers(cols)); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, b := range bookings {
		if err := cw.Write(row(b, cols)); err != nil {
			return fmt.Errorf("write csv row %s: %w", b.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

const SheetName = "Bookings"

// ToWorkbook writes the same rows as ToDelimitedText into a single-sheet XLSX file.
func ToWorkbook(w io.Writer, bookings []domain.Booking, cols []Column) error {
	if len(cols) == 0 {
		cols = DefaultColumns
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := setRow(f, 1, headers(cols)); err != nil {
		return err
	}
	if err := styleHeader(f, len(cols)); err != nil {
		return err
	}

	for i, b := range bookings {
		if err := setRow(f, i+2, row(b, cols)); err != nil {
			return err
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(cols))
	if err != nil {
		return fmt.Errorf("last column: %w", err)
	}
	if err := f.SetColWidth(SheetName, "A", lastCol, 20); err != nil {
		return fmt.Errorf("column width: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func styleHeader(f *excelize.File, ncols int) error {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(ncols, 1)
	if err != nil {
		return fmt.Errorf("header range: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", last, style); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, n int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	row := make([]any, len(values))
	for i, v := range values {
		row[i] = v
	}
	if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
		return fmt.Errorf("set row %d: %w", n, err)
	}
	return nil
}
