package mapper

import (
	"context"
	"errors"
	"testing"

	"github.com/dkoosis/qatally/internal/config"
	"github.com/dkoosis/qatally/internal/export"
	"github.com/dkoosis/qatally/internal/fixture"
	"github.com/dkoosis/qatally/internal/ingest"
	"github.com/dkoosis/qatally/internal/pipeline"
	"github.com/dkoosis/qatally/internal/record"
	"github.com/dkoosis/qatally/internal/summary"
	"github.com/dkoosis/qatally/pkg/pattern"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, root string) (*pipeline.Bundle, *pipeline.Report, *config.Config) {
	t.Helper()
	cfg := config.Default()
	cfg.Root = root
	b, rep, err := pipeline.Run(context.Background(), cfg, pipeline.Options{})
	require.NoError(t, err)
	return b, rep, cfg
}

func find[T pattern.Pattern](t *testing.T, ps []pattern.Pattern, label string) T {
	t.Helper()
	for _, p := range ps {
		if v, ok := p.(T); ok {
			switch x := any(v).(type) {
			case *pattern.Table:
				if x.Label == label {
					return v
				}
			case *pattern.Leaderboard:
				if x.Label == label {
					return v
				}
			case *pattern.Summary:
				if x.Label == label {
					return v
				}
			case *pattern.Sparkline:
				if x.Label == label {
					return v
				}
			}
		}
	}
	t.Fatalf("no %T labelled %q", *new(T), label)
	var zero T
	return zero
}

func TestFromBundle_HappyPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fixture.HappyTree(t, dir)
	b, rep, cfg := run(t, dir)

	ps := FromBundle(b, rep, cfg, Options{})
	require.Len(t, ps, 6)

	sum, ok := ps[0].(*pattern.Summary)
	require.True(t, ok)
	assert.Equal(t, pattern.SummaryKindRun, sum.Kind)
	assert.Equal(t, []pattern.SummaryItem{
		{Label: "files", Value: "5/5", Kind: "success"},
		{Label: "rows", Value: "30", Kind: "info"},
		{Label: "completion", Value: "60.0%", Kind: "info"},
	}, sum.Metrics)

	tbl := find[*pattern.Table](t, ps, export.SheetSummary)
	assert.Equal(t, b.Summary.Header(), tbl.Columns)
	require.Len(t, tbl.Rows, 4)
	assert.Equal(t, "report_1.xlsx", tbl.Rows[0].Cells[0])
	last := tbl.Rows[3]
	assert.True(t, last.Total)
	assert.Equal(t, "30", last.Cells[len(last.Cells)-2])
	assert.Equal(t, "60.0", last.Cells[len(last.Cells)-1])

	bugs := find[*pattern.Leaderboard](t, ps, export.SheetDefects)
	require.Len(t, bugs.Items, 3)
	assert.Equal(t, "内部バグ#2", bugs.Items[0].Name)
	assert.Equal(t, "3 rows", bugs.Items[0].Metric)
	assert.Equal(t, "case 7, case 8", bugs.Items[0].Context)
	assert.Equal(t, "内部バグ#1", bugs.Items[1].Name)
	assert.Equal(t, "1 row", bugs.Items[2].Metric)

	qas := find[*pattern.Leaderboard](t, ps, export.SheetQuestions)
	names := make([]string, len(qas.Items))
	for i, it := range qas.Items {
		names[i] = it.Name
	}
	assert.Equal(t, []string{"内部QA#1", "内部QA#3", "内部QA#2", "内部QA#9"}, names)

	sp := find[*pattern.Sparkline](t, ps, "daily OK")
	assert.Equal(t, []float64{12, 6, 0}, sp.Values)
	assert.Equal(t, "2024-01-05", sp.From)
	assert.Equal(t, "2024-01-07", sp.To)

	bd := find[*pattern.Table](t, ps, BreakdownLabel)
	assert.Equal(t, []string{cfg.DateColumn, "OK", "NG", "QA", "消化項目数"}, bd.Columns)
	require.Len(t, bd.Rows, 4)
	assert.Equal(t, []string{"2024-01-06", "6", "6", "0", "12"}, bd.Rows[1].Cells)
	assert.Equal(t, []string{"累計", "18", "6", "6", "30"}, bd.Rows[3].Cells)
	assert.True(t, bd.Rows[3].Total)
}

func TestFromBundle_TopLimitsLeaderboards(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fixture.HappyTree(t, dir)
	b, rep, cfg := run(t, dir)

	lb := find[*pattern.Leaderboard](t, FromBundle(b, rep, cfg, Options{Top: 1}), export.SheetQuestions)
	require.Len(t, lb.Items, 1)
	assert.Equal(t, 4, lb.TotalCount)
}

func TestFromBundle_EmptyFolder(t *testing.T) {
	t.Parallel()

	b, rep, cfg := run(t, t.TempDir())
	ps := FromBundle(b, rep, cfg, Options{})

	require.Len(t, ps, 1)
	sum := ps[0].(*pattern.Summary)
	assert.Equal(t, pattern.SummaryItem{Label: "files", Value: "0/0", Kind: "error"}, sum.Metrics[0])
	assert.Equal(t, "input", sum.Metrics[len(sum.Metrics)-1].Label)
}

func TestAnomalySummary(t *testing.T) {
	t.Parallel()

	rep := &pipeline.Report{
		Anomalies: []record.Anomaly{
			{Kind: record.InvalidStatus, File: "a.xlsx", TestID: "1", Value: "??"},
			{Kind: record.InvalidStatus, File: "a.xlsx", TestID: "2", Value: "??"},
			{Kind: record.MissingDefect, File: "b.xlsx", TestID: "3"},
		},
		Skipped: []ingest.Skipped{{File: "/in/stray.xlsx", Reason: `sheet "試験表" not found`}},
	}
	s := anomalySummary(rep)
	require.NotNil(t, s)
	assert.Equal(t, []pattern.SummaryItem{
		{Label: "invalid-status", Value: "2 rows", Kind: "warning"},
		{Label: "defect-without-reference", Value: "1 row", Kind: "warning"},
		{Label: "stray.xlsx", Value: `skipped: sheet "試験表" not found`, Kind: "error"},
	}, s.Metrics)

	assert.Nil(t, anomalySummary(&pipeline.Report{}))
}

func TestRunSummary_FlagsInputError(t *testing.T) {
	t.Parallel()

	b := &pipeline.Bundle{Summary: &summary.Table{}}
	s := runSummary(b, &pipeline.Report{Root: "/in", Err: errors.New("boom")})
	assert.Equal(t, "qatally: in", s.Label)
	assert.Equal(t, pattern.SummaryItem{Label: "input", Value: "boom", Kind: "error"}, s.Metrics[len(s.Metrics)-1])
}

func TestFormatCell(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", formatCell(nil))
	assert.Equal(t, "7", formatCell(7))
	assert.Equal(t, "58.3", formatCell(58.3))
	assert.Equal(t, "2024-01-05", formatCell(fixture.Day(5)))
	assert.Equal(t, "true", formatCell(true))
}
