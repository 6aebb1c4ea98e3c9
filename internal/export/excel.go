// Package export writes a studio's availability grid to an Excel workbook.
package export

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"harmonix/internal/availability"
	"harmonix/internal/slots"
)

// BookedMark is written into cells of unavailable slots.
const BookedMark = "booked"

// Workbook wraps an excelize file with a row cursor on one active sheet.
type Workbook struct {
	file       *excelize.File
	sheet      string
	currentRow int
}

// NewWorkbook creates an empty workbook.
func NewWorkbook() *Workbook {
	return &Workbook{file: excelize.NewFile()}
}

// AddSheet renames the default sheet on first use and creates new ones after that.
func (w *Workbook) AddSheet(name string) error {
	// Excel limits sheet names to 31 chars.
	if len(name) > 31 {
		name = name[:31]
	}

	if w.sheet == "" {
		if err := w.file.SetSheetName("Sheet1", name); err != nil {
			return fmt.Errorf("rename sheet %s: %w", name, err)
		}
	} else if _, err := w.file.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}

	w.sheet = name
	w.currentRow = 1
	return nil
}

// WriteHeader writes bold column headers to the active sheet.
func (w *Workbook) WriteHeader(columns []string) error {
	row := make([]any, len(columns))
	for i, c := range columns {
		row[i] = c
	}
	first := w.currentRow
	if err := w.WriteRow(row); err != nil {
		return err
	}

	style, err := w.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil && len(columns) > 0 {
		startCell, _ := excelize.CoordinatesToCellName(1, first)
		endCell, _ := excelize.CoordinatesToCellName(len(columns), first)
		_ = w.file.SetCellStyle(w.sheet, startCell, endCell, style)
	}
	return nil
}

// WriteRow writes values to the next row of the active sheet.
func (w *Workbook) WriteRow(row []any) error {
	if w.sheet == "" {
		return fmt.Errorf("no active sheet")
	}
	for i, val := range row {
		cell, err := excelize.CoordinatesToCellName(i+1, w.currentRow)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(w.sheet, cell, val); err != nil {
			return err
		}
	}
	w.currentRow++
	return nil
}

// SaveToFile writes the workbook to disk.
func (w *Workbook) SaveToFile(path string) error {
	return w.file.SaveAs(path)
}

// Close releases resources.
func (w *Workbook) Close() error {
	return w.file.Close()
}

// WriteAvailability fills one sheet with a row per fetched date and a column per
// fixed slot. Dates are sorted; booked cells carry BookedMark.
func WriteAvailability(w *Workbook, snap availability.Snapshot) error {
	sheet := "availability"
	if snap.StudioID != "" {
		sheet = "studio " + snap.StudioID
	}
	if err := w.AddSheet(sheet); err != nil {
		return err
	}

	day := slots.Day()
	header := make([]string, 0, len(day)+1)
	header = append(header, "date")
	for _, s := range day {
		header = append(header, s.Value)
	}
	if err := w.WriteHeader(header); err != nil {
		return err
	}

	dates := make([]string, 0, len(snap.Days))
	seen := make(map[string]bool)
	for _, d := range snap.Days {
		if !seen[d.Date] {
			seen[d.Date] = true
			dates = append(dates, d.Date)
		}
	}
	sort.Strings(dates)

	for _, date := range dates {
		v := slots.NewValidator(slots.Input{Days: snap.Days, Date: date})
		row := make([]any, 0, len(day)+1)
		row = append(row, date)
		for _, s := range day {
			if v.IsAvailable(s.Value) {
				row = append(row, "")
			} else {
				row = append(row, BookedMark)
			}
		}
		if err := w.WriteRow(row); err != nil {
			return fmt.Errorf("write %s: %w", date, err)
		}
	}
	return nil
}
