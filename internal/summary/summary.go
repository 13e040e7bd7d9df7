// Package summary builds the per-file status count table.
package summary

import (
	"math"
	"time"

	"github.com/dkoosis/qatally/internal/config"
	"github.com/dkoosis/qatally/internal/ingest"
)

// DateLabel is the layout of the total row's label.
const DateLabel = "2006/01/02"

// Row is one file, or the total.
type Row struct {
	Label      string
	Counts     map[string]int
	Total      int
	Completion float64 // percent, one decimal
	IsTotal    bool
}

// Table is the summary: one row per file then the total row.
type Table struct {
	FileColumn       string
	TotalColumn      string
	CompletionColumn string
	Statuses         []string
	Rows             []Row
}

// Len returns the number of rows, total included.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Header returns the column names in order.
func (t *Table) Header() []string {
	if t.Len() == 0 {
		return nil
	}
	h := make([]string, 0, len(t.Statuses)+3)
	h = append(h, t.FileColumn)
	h = append(h, t.Statuses...)
	return append(h, t.TotalColumn, t.CompletionColumn)
}

// Values returns the rows as sheet cells.
func (t *Table) Values() [][]any {
	out := make([][]any, len(t.Rows))
	for i, r := range t.Rows {
		row := make([]any, 0, len(t.Statuses)+3)
		row = append(row, r.Label)
		for _, s := range t.Statuses {
			row = append(row, r.Counts[s])
		}
		out[i] = append(row, r.Total, r.Completion)
	}
	return out
}

// Totals returns the total row, or false for an empty table.
func (t *Table) Totals() (Row, bool) {
	if t.Len() == 0 {
		return Row{}, false
	}
	return t.Rows[len(t.Rows)-1], true
}

// Build makes the summary from per-file counts. The total row is labelled
// with now formatted as DateLabel. No counts yields an empty table.
func Build(counts []ingest.FileCount, cfg *config.Config, now time.Time) *Table {
	t := &Table{
		FileColumn:       cfg.FileNameColumn,
		TotalColumn:      cfg.TotalItemsColumn,
		CompletionColumn: cfg.ProgressColumn,
		Statuses:         cfg.Statuses,
	}
	if len(counts) == 0 {
		return t
	}

	total := Row{Label: now.Format(DateLabel), Counts: make(map[string]int, len(cfg.Statuses)), IsTotal: true}
	for _, fc := range counts {
		row := Row{Label: fc.File, Counts: make(map[string]int, len(cfg.Statuses))}
		for _, s := range cfg.Statuses {
			row.Counts[s] = fc.Counts[s]
			total.Counts[s] += fc.Counts[s]
		}
		t.Rows = append(t.Rows, finish(row, cfg))
	}
	t.Rows = append(t.Rows, finish(total, cfg))
	return t
}

func finish(r Row, cfg *config.Config) Row {
	for _, s := range cfg.Statuses {
		r.Total += r.Counts[s]
	}
	r.Completion = Completion(r.Counts[cfg.StatusOK], r.Total, r.Counts[cfg.StatusNotTested])
	return r
}

// Completion is ok / (total - notTested) as a percentage rounded to one
// decimal, or 0 when the denominator is not positive.
func Completion(ok, total, notTested int) float64 {
	denom := total - notTested
	if denom <= 0 {
		return 0
	}
	return math.Round(float64(ok)/float64(denom)*1000) / 10
}
