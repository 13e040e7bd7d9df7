// Package sheet reads and writes spreadsheet workbooks.
//
// Reading yields one sheet as a header row plus string cells. Values are read
// raw, so dates arrive as Excel serial numbers and numbers without display
// formatting; coercion is left to callers.
package sheet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrSheetNotFound is returned when a workbook lacks the requested sheet.
var ErrSheetNotFound = errors.New("sheet not found")

// Table is one sheet: trimmed header names and data rows padded to the
// header width. Fully blank rows are skipped.
type Table struct {
	Header []string
	Rows   [][]string
}

// Index maps each header name to its first column position.
func (t *Table) Index() map[string]int {
	idx := make(map[string]int, len(t.Header))
	for i, h := range t.Header {
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	return idx
}

// Missing returns the names from want that are not in the header, in order.
func (t *Table) Missing(want []string) []string {
	idx := t.Index()
	var missing []string
	for _, w := range want {
		if _, ok := idx[w]; !ok {
			missing = append(missing, w)
		}
	}
	return missing
}

// SheetNames lists the sheets of the workbook at path.
func SheetNames(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

// Read loads one sheet of the workbook at path. A missing sheet yields an
// error wrapping ErrSheetNotFound.
func Read(path, sheetName string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	idx, err := f.GetSheetIndex(sheetName)
	if err != nil || idx < 0 {
		return nil, fmt.Errorf("%q: %w", sheetName, ErrSheetNotFound)
	}

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheetName, err)
	}
	return fromRows(rows), nil
}

// fromRows turns raw rows into a Table. The first row is the header.
// Blank header cells are named "Unnamed: <col>" so every column is addressable.
func fromRows(rows [][]string) *Table {
	t := &Table{}
	if len(rows) == 0 {
		return t
	}

	t.Header = make([]string, len(rows[0]))
	for i, h := range rows[0] {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		t.Header[i] = h
	}

	width := len(t.Header)
	for _, raw := range rows[1:] {
		if isBlank(raw) {
			continue
		}
		row := make([]string, width)
		copy(row, raw)
		t.Rows = append(t.Rows, row)
	}
	return t
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
