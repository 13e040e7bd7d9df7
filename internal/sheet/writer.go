package sheet

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// defaultSheet is the sheet excelize creates in every new workbook.
const defaultSheet = "Sheet1"

// Writer builds a workbook sheet by sheet.
type Writer struct {
	f      *excelize.File
	sheets []string
}

// NewWriter starts an empty workbook.
func NewWriter() *Writer {
	return &Writer{f: excelize.NewFile()}
}

// File exposes the underlying workbook for additions such as charts.
func (w *Writer) File() *excelize.File {
	return w.f
}

// Sheets lists the sheets added so far, in order.
func (w *Writer) Sheets() []string {
	return append([]string(nil), w.sheets...)
}

// AddTable appends a sheet holding header in row 1 and rows below it.
// Cells may be string, int, float64, time.Time or nil.
func (w *Writer) AddTable(name string, header []string, rows [][]any) error {
	if len(w.sheets) == 0 {
		if err := w.f.SetSheetName(defaultSheet, name); err != nil {
			return fmt.Errorf("rename sheet %q: %w", name, err)
		}
	} else if _, err := w.f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %q: %w", name, err)
	}
	w.sheets = append(w.sheets, name)

	hdr := make([]any, len(header))
	for i, h := range header {
		hdr[i] = h
	}
	if err := w.f.SetSheetRow(name, "A1", &hdr); err != nil {
		return fmt.Errorf("write header of %q: %w", name, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		r := row
		if err := w.f.SetSheetRow(name, cell, &r); err != nil {
			return fmt.Errorf("write row %d of %q: %w", i+2, name, err)
		}
	}
	return nil
}

// SaveAs writes the workbook to path. The file is written next to the
// target under a temporary name and renamed into place, so a failed write
// leaves no partial file behind.
func (w *Writer) SaveAs(path string) error {
	if len(w.sheets) > 0 {
		w.f.SetActiveSheet(0)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".qatally-*.xlsx")
	if err != nil {
		return fmt.Errorf("create temp workbook: %w", err)
	}
	tmpName := tmp.Name()
	_ = tmp.Close()

	if err := w.f.SaveAs(tmpName); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write workbook: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("set workbook mode: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("move workbook into place: %w", err)
	}
	return nil
}

// Close releases the workbook.
func (w *Writer) Close() error {
	return w.f.Close()
}
