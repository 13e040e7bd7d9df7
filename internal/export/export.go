// Package export writes a result bundle as one multi-sheet workbook.
package export

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dkoosis/qatally/internal/config"
	"github.com/dkoosis/qatally/internal/pipeline"
	"github.com/dkoosis/qatally/internal/record"
	"github.com/dkoosis/qatally/internal/sheet"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the exported workbook.
const (
	SheetSummary    = "試験表別結果一覧"
	SheetMerged     = "統合シート"
	SheetDaily      = "日々のOK数グラフ"
	SheetCumulative = "OK累計グラフ"
	SheetDefects    = "内部バグ一覧"
	SheetQuestions  = "内部QA一覧"
)

// FileName is the default export name for a run at now.
func FileName(now time.Time) string {
	return "result_" + now.Format("20060102_1504") + ".xlsx"
}

// Path resolves the export target: out when set, else FileName(now) in dir.
func Path(out, dir string, now time.Time) string {
	if out != "" {
		return out
	}
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, FileName(now))
}

// tabular is a table that can be laid out on a sheet.
type tabular interface {
	Header() []string
	Values() [][]any
}

type sheetSpec struct {
	name  string
	table tabular
	chart excelize.ChartType
	title string
}

// layout lists the sheets to write in order. The defect and question
// sheets are present only when they have rows.
func layout(b *pipeline.Bundle, cfg *config.Config) []sheetSpec {
	specs := []sheetSpec{
		{name: SheetSummary, table: b.Summary},
		{name: SheetMerged, table: mergedTable{set: b.Merged, dateColumn: cfg.DateColumn}},
		{name: SheetDaily, table: b.Daily, chart: excelize.Col, title: "日付別 OK件数"},
		{name: SheetCumulative, table: b.Cumulative, chart: excelize.Line, title: "OKの累積グラフ"},
	}
	if b.Defects.Len() > 0 {
		specs = append(specs, sheetSpec{name: SheetDefects, table: b.Defects})
	}
	if b.Questions.Len() > 0 {
		specs = append(specs, sheetSpec{name: SheetQuestions, table: b.Questions})
	}
	return specs
}

// SheetNames returns the sheets Write would produce for b.
func SheetNames(b *pipeline.Bundle, cfg *config.Config) []string {
	specs := layout(b, cfg)
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.name
	}
	return names
}

// Write saves b to path. The file appears whole or not at all.
func Write(path string, b *pipeline.Bundle, cfg *config.Config) error {
	w := sheet.NewWriter()
	defer w.Close()

	for _, s := range layout(b, cfg) {
		rows := s.table.Values()
		if err := w.AddTable(s.name, s.table.Header(), rows); err != nil {
			return err
		}
		if s.title != "" && len(rows) > 0 {
			if err := addSeriesChart(w.File(), s.name, s.chart, s.title, len(rows)); err != nil {
				return fmt.Errorf("chart on %q: %w", s.name, err)
			}
		}
	}
	if err := w.SaveAs(path); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	return nil
}

// addSeriesChart plots column B against the dates in column A.
func addSeriesChart(f *excelize.File, name string, typ excelize.ChartType, title string, n int) error {
	last := n + 1
	return f.AddChart(name, "D2", &excelize.Chart{
		Type: typ,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("'%s'!$B$1", name),
			Categories: fmt.Sprintf("'%s'!$A$2:$A$%d", name, last),
			Values:     fmt.Sprintf("'%s'!$B$2:$B$%d", name, last),
		}},
		Title:  []excelize.RichTextRun{{Text: title}},
		Legend: excelize.ChartLegend{Position: "none"},
	})
}

// mergedTable lays the merged set out with its column union. Cells a
// source lacked stay empty; the date column holds the parsed date.
type mergedTable struct {
	set        *record.Set
	dateColumn string
}

func (m mergedTable) Header() []string {
	if m.set == nil {
		return nil
	}
	return m.set.Columns
}

func (m mergedTable) Values() [][]any {
	if m.set == nil {
		return nil
	}
	out := make([][]any, len(m.set.Records))
	for i, r := range m.set.Records {
		row := make([]any, len(m.set.Columns))
		for j, c := range m.set.Columns {
			if c == m.dateColumn {
				row[j] = r.Date
				continue
			}
			if v, ok := r.Get(c); ok {
				row[j] = v
			}
		}
		out[i] = row
	}
	return out
}
