package metrics

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dkoosis/qatally/internal/config"
	"github.com/dkoosis/qatally/internal/fixture"
	"github.com/dkoosis/qatally/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func happyRun(t *testing.T) (*pipeline.Bundle, *pipeline.Report) {
	t.Helper()
	dir := t.TempDir()
	fixture.HappyTree(t, dir)
	cfg := config.Default()
	cfg.Root = dir
	b, rep, err := pipeline.Run(context.Background(), cfg, pipeline.Options{})
	require.NoError(t, err)
	return b, rep
}

func TestObserve_SetsGauges(t *testing.T) {
	t.Parallel()

	b, rep := happyRun(t)
	g := New()
	g.Observe(b, rep)

	assert.Equal(t, 18.0, testutil.ToFloat64(g.statusItems.WithLabelValues("total", "OK")))
	assert.Equal(t, 6.0, testutil.ToFloat64(g.statusItems.WithLabelValues("report_2.xlsx", "OK")))
	assert.Equal(t, 60.0, testutil.ToFloat64(g.completion.WithLabelValues("total")))
	assert.Equal(t, 3.0, testutil.ToFloat64(g.defectRefs.WithLabelValues("内部バグ#2")))
	assert.Equal(t, 1.0, testutil.ToFloat64(g.questionRefs.WithLabelValues("内部QA#9")))
	assert.Equal(t, 30.0, testutil.ToFloat64(g.records))
	assert.Zero(t, testutil.ToFloat64(g.skipped))
}

func TestObserve_KeepsSameNamedReportsApart(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Root = dir
	for i, sub := range []string{"team1", "team2"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, sub), 0o755))
		fixture.WriteReport(t, filepath.Join(dir, sub, "a.xlsx"), cfg.SheetName, fixture.HappyRows(i)[:i+1])
	}
	b, rep, err := pipeline.Run(context.Background(), cfg, pipeline.Options{})
	require.NoError(t, err)

	g := New()
	g.Observe(b, rep)

	assert.Equal(t, 1.0, testutil.ToFloat64(g.statusItems.WithLabelValues("team1/a.xlsx", "OK")))
	assert.Equal(t, 2.0, testutil.ToFloat64(g.statusItems.WithLabelValues("team2/a.xlsx", "OK")))
	assert.Equal(t, 3.0, testutil.ToFloat64(g.statusItems.WithLabelValues("total", "OK")))
}

func TestWriteFile_WritesTextFormat(t *testing.T) {
	t.Parallel()

	b, rep := happyRun(t)
	g := New()
	g.Observe(b, rep)

	path := filepath.Join(t.TempDir(), "qatally.prom")
	require.NoError(t, g.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "# TYPE qatally_completion_percent gauge")
	assert.Contains(t, text, `qatally_completion_percent{file="total"} 60`)
	assert.True(t, strings.Contains(text, "qatally_files_skipped 0"))
}
