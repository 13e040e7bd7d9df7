// Package fixture writes small workbooks for tests.
package fixture

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/dkoosis/qatally/internal/config"
	"github.com/dkoosis/qatally/internal/sheet"
)

// Row is one line of a report sheet in the default layout.
type Row struct {
	ID     string
	Name   string
	Date   time.Time
	Status string
	Bug    string
	QA     string
}

// Day returns midnight UTC of the given day in January 2024.
func Day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

// WriteReport writes a report workbook holding rows on sheetName, using the
// default column names.
func WriteReport(t testing.TB, path, sheetName string, rows []Row) {
	t.Helper()
	cfg := config.Default()
	header := []string{cfg.TestIDColumn, cfg.TestNameColumn, cfg.DateColumn, cfg.ResultColumn, cfg.BugNoColumn, cfg.QANoColumn}
	data := make([][]any, len(rows))
	for i, r := range rows {
		var date any
		if !r.Date.IsZero() {
			date = r.Date
		}
		data[i] = []any{r.ID, r.Name, date, r.Status, r.Bug, r.QA}
	}
	WriteSheet(t, path, sheetName, header, data)
}

// WriteSheet writes a one-sheet workbook.
func WriteSheet(t testing.TB, path, sheetName string, header []string, rows [][]any) {
	t.Helper()
	w := sheet.NewWriter()
	defer w.Close()
	if err := w.AddTable(sheetName, header, rows); err != nil {
		t.Fatalf("fixture %s: %v", path, err)
	}
	if err := w.SaveAs(path); err != nil {
		t.Fatalf("fixture %s: %v", path, err)
	}
}

// WriteDefectList writes the default defect list with entries numbered
// 1..n on the list sheet.
func WriteDefectList(t testing.TB, path string, n int) {
	t.Helper()
	cfg := config.Default()
	rows := make([][]any, n)
	for i := range n {
		no := i + 1
		rows[i] = []any{no, "open", fmt.Sprintf("defect %d", no), fmt.Sprintf("JIRA-%d", no)}
	}
	WriteSheet(t, path, cfg.ListSheet, cfg.BugFileColumns, rows)
}

// WriteQuestionList writes the default question list with entries numbered
// 1..n on the list sheet.
func WriteQuestionList(t testing.TB, path string, n int) {
	t.Helper()
	cfg := config.Default()
	rows := make([][]any, n)
	for i := range n {
		no := i + 1
		rows[i] = []any{no, fmt.Sprintf("question %d", no), "tester", fmt.Sprintf("answer %d", no), "closed"}
	}
	WriteSheet(t, path, cfg.ListSheet, cfg.QAFileColumns, rows)
}

// HappyBugRefs and HappyQARefs are the references each happy-path report
// carries on its two NG rows and two QA rows.
var (
	HappyBugRefs = [3][2]int{{1, 2}, {1, 3}, {2, 2}}
	HappyQARefs  = [3][2]int{{1, 1}, {2, 9}, {3, 3}}
)

// HappyRows builds the ten rows of happy-path report i (0..2): six OK, two
// NG with defect references and two QA with question references. Rows 0-3
// fall on Day(5), rows 4-7 on Day(6), rows 8-9 on Day(7).
func HappyRows(i int) []Row {
	rows := make([]Row, 10)
	for k := range rows {
		r := Row{
			ID:     fmt.Sprintf("F%d-%02d", i+1, k+1),
			Name:   fmt.Sprintf("case %d", k+1),
			Date:   Day(5 + k/4),
			Status: "OK",
		}
		switch {
		case k == 6 || k == 7:
			r.Status = "NG"
			r.Bug = fmt.Sprintf("内部バグ#%d", HappyBugRefs[i][k-6])
		case k >= 8:
			r.Status = "QA"
			r.QA = fmt.Sprintf("内部QA#%d", HappyQARefs[i][k-8])
		}
		rows[k] = r
	}
	return rows
}

// HappyTree writes three reports plus five-entry defect and question lists
// into dir and returns the report paths.
func HappyTree(t testing.TB, dir string) []string {
	t.Helper()
	cfg := config.Default()
	paths := make([]string, 3)
	for i := range paths {
		paths[i] = filepath.Join(dir, fmt.Sprintf("report_%d.xlsx", i+1))
		WriteReport(t, paths[i], cfg.SheetName, HappyRows(i))
	}
	WriteDefectList(t, filepath.Join(dir, cfg.BugFileName), 5)
	WriteQuestionList(t, filepath.Join(dir, cfg.QAFileName), 5)
	return paths
}
