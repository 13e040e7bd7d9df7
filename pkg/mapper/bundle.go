// Package mapper converts a pipeline result into report patterns.
package mapper

import (
	"cmp"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/dkoosis/qatally/internal/config"
	"github.com/dkoosis/qatally/internal/export"
	"github.com/dkoosis/qatally/internal/okcount"
	"github.com/dkoosis/qatally/internal/pipeline"
	"github.com/dkoosis/qatally/internal/record"
	"github.com/dkoosis/qatally/internal/summary"
	"github.com/dkoosis/qatally/internal/xref"
	"github.com/dkoosis/qatally/pkg/pattern"
)

const (
	kindSuccess = "success"
	kindError   = "error"
	kindWarning = "warning"
	kindInfo    = "info"

	// DefaultTop caps each leaderboard.
	DefaultTop = 10
)

// BreakdownLabel titles the per-day status table.
const BreakdownLabel = "日別ステータス"

// Options tunes FromBundle.
type Options struct {
	Top int // leaderboard size; 0 means DefaultTop
}

// FromBundle maps a finished run to patterns in display order: run summary,
// per-file progress, anomalies, defect and question leaderboards, the daily
// OK sparkline and the per-day status breakdown. Empty sections are omitted.
func FromBundle(b *pipeline.Bundle, rep *pipeline.Report, cfg *config.Config, opts Options) []pattern.Pattern {
	top := opts.Top
	if top <= 0 {
		top = DefaultTop
	}

	patterns := []pattern.Pattern{runSummary(b, rep)}
	if t := summaryTable(b.Summary); t != nil {
		patterns = append(patterns, t)
	}
	if s := anomalySummary(rep); s != nil {
		patterns = append(patterns, s)
	}
	if lb := leaderboard(export.SheetDefects, b.Defects, top); lb != nil {
		patterns = append(patterns, lb)
	}
	if lb := leaderboard(export.SheetQuestions, b.Questions, top); lb != nil {
		patterns = append(patterns, lb)
	}
	if sp := dailySparkline(b.Daily); sp != nil {
		patterns = append(patterns, sp)
	}
	if t := breakdownTable(okcount.BreakdownOf(b.Merged, cfg.DateColumn, cfg.Statuses)); t != nil {
		patterns = append(patterns, t)
	}
	return patterns
}

func runSummary(b *pipeline.Bundle, rep *pipeline.Report) *pattern.Summary {
	filesKind := kindSuccess
	if rep.Ingested == 0 {
		filesKind = kindError
	}
	metrics := []pattern.SummaryItem{
		{Label: "files", Value: fmt.Sprintf("%d/%d", rep.Ingested, rep.Found), Kind: filesKind},
		{Label: "rows", Value: strconv.Itoa(b.Merged.Len()), Kind: kindInfo},
	}
	if tot, ok := b.Summary.Totals(); ok {
		metrics = append(metrics, pattern.SummaryItem{
			Label: "completion",
			Value: formatPercent(tot.Completion),
			Kind:  kindInfo,
		})
	}
	if n := len(rep.Skipped); n > 0 {
		metrics = append(metrics, pattern.SummaryItem{Label: "skipped", Value: strconv.Itoa(n), Kind: kindWarning})
	}
	if n := len(rep.Anomalies); n > 0 {
		metrics = append(metrics, pattern.SummaryItem{Label: "anomalies", Value: strconv.Itoa(n), Kind: kindWarning})
	}
	if rep.Err != nil {
		metrics = append(metrics, pattern.SummaryItem{Label: "input", Value: rep.Err.Error(), Kind: kindError})
	}
	return &pattern.Summary{
		Label:   "qatally: " + filepath.Base(rep.Root),
		Kind:    pattern.SummaryKindRun,
		Metrics: metrics,
	}
}

func summaryTable(t *summary.Table) *pattern.Table {
	if t.Len() == 0 {
		return nil
	}
	out := &pattern.Table{Label: export.SheetSummary, Columns: t.Header()}
	for i, vals := range t.Values() {
		out.Rows = append(out.Rows, pattern.TableRow{Cells: cells(vals), Total: t.Rows[i].IsTotal})
	}
	return out
}

// anomalySummary lists row anomalies per kind and every skipped file.
func anomalySummary(rep *pipeline.Report) *pattern.Summary {
	if len(rep.Anomalies) == 0 && len(rep.Skipped) == 0 {
		return nil
	}
	s := &pattern.Summary{Label: "anomalies", Kind: pattern.SummaryKindAnomalies}
	counts := record.CountByKind(rep.Anomalies)
	for _, k := range record.Kinds {
		if n := counts[k]; n > 0 {
			s.Metrics = append(s.Metrics, pattern.SummaryItem{
				Label: string(k),
				Value: plural(n, "row"),
				Kind:  kindWarning,
			})
		}
	}
	for _, sk := range rep.Skipped {
		s.Metrics = append(s.Metrics, pattern.SummaryItem{
			Label: filepath.Base(sk.File),
			Value: "skipped: " + sk.Reason,
			Kind:  kindError,
		})
	}
	return s
}

// leaderboard ranks references by how many rows cite them. Ties keep the
// table's own order.
func leaderboard(label string, t *xref.Table, top int) *pattern.Leaderboard {
	if t.Len() == 0 {
		return nil
	}
	rows := slices.Clone(t.Rows)
	slices.SortStableFunc(rows, func(a, b xref.Row) int {
		return cmp.Compare(b.Count, a.Count)
	})

	lb := &pattern.Leaderboard{
		Label:      label,
		MetricName: "rows",
		TotalCount: len(rows),
		ShowRank:   true,
	}
	for i, r := range rows[:min(top, len(rows))] {
		lb.Items = append(lb.Items, pattern.LeaderboardItem{
			Name:    r.Ref,
			Metric:  plural(r.Count, "row"),
			Value:   float64(r.Count),
			Rank:    i + 1,
			Context: r.TestNames,
		})
	}
	return lb
}

func dailySparkline(t *okcount.Table) *pattern.Sparkline {
	if t.Len() == 0 {
		return nil
	}
	vals := make([]float64, len(t.Points))
	for i, p := range t.Points {
		vals[i] = float64(p.Count)
	}
	return &pattern.Sparkline{
		Label:  "daily " + t.ValueColumn,
		Values: vals,
		From:   t.Points[0].Date.Format(time.DateOnly),
		To:     t.Points[len(t.Points)-1].Date.Format(time.DateOnly),
	}
}

func breakdownTable(b *okcount.Breakdown) *pattern.Table {
	if len(b.Rows) == 0 {
		return nil
	}
	cols := make([]string, 0, len(b.Statuses)+2)
	cols = append(cols, b.DateColumn)
	cols = append(cols, b.Statuses...)
	cols = append(cols, okcount.ConsumedColumn)

	out := &pattern.Table{Label: BreakdownLabel, Columns: cols}
	for _, r := range b.Rows {
		row := make([]string, 0, len(cols))
		row = append(row, r.Label)
		for _, s := range b.Statuses {
			row = append(row, strconv.Itoa(r.Counts[s]))
		}
		row = append(row, strconv.Itoa(r.Consumed))
		out.Rows = append(out.Rows, pattern.TableRow{Cells: row, Total: r.Label == okcount.TotalLabel})
	}
	return out
}

func cells(vals []any) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = formatCell(v)
	}
	return out
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', 1, 64)
	case time.Time:
		return x.Format(time.DateOnly)
	default:
		return fmt.Sprint(x)
	}
}

func formatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', 1, 64) + "%"
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return strconv.Itoa(n) + " " + unit + "s"
}
