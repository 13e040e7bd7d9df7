package summary

import (
	"testing"
	"time"

	"github.com/dkoosis/qatally/internal/config"
	"github.com/dkoosis/qatally/internal/ingest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var runDate = time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)

func TestBuild_AddsTotalRowAndCompletion(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	counts := []ingest.FileCount{
		{File: "a.xlsx", Counts: map[string]int{"OK": 6, "NG": 2, "QA": 2}},
		{File: "b.xlsx", Counts: map[string]int{"OK": 1, "NT": 3, "BK": 1}},
	}

	got := Build(counts, cfg, runDate)

	require.Equal(t, 3, got.Len())
	assert.Equal(t, []string{"file_name", "OK", "NG", "BK", "NY", "TS", "QA", "NT", "総項目数", "進捗率(%)"}, got.Header())

	assert.Equal(t, []any{"a.xlsx", 6, 2, 0, 0, 0, 2, 0, 10, 60.0}, got.Values()[0])
	assert.Equal(t, []any{"b.xlsx", 1, 0, 1, 0, 0, 0, 3, 5, 50.0}, got.Values()[1])

	total, ok := got.Totals()
	require.True(t, ok)
	assert.True(t, total.IsTotal)
	assert.Equal(t, "2024/03/09", total.Label)
	assert.Equal(t, 15, total.Total)
	assert.Equal(t, 7, total.Counts["OK"])
	assert.Equal(t, 58.3, total.Completion)
}

func TestBuild_EmptyInput(t *testing.T) {
	t.Parallel()

	got := Build(nil, config.Default(), runDate)
	assert.Zero(t, got.Len())
	assert.Empty(t, got.Header())
	_, ok := got.Totals()
	assert.False(t, ok)
}

func TestCompletion(t *testing.T) {
	t.Parallel()

	cases := []struct {
		ok, total, nt int
		want          float64
	}{
		{18, 30, 0, 60},
		{1, 3, 0, 33.3},
		{2, 3, 0, 66.7},
		{0, 5, 5, 0},
		{0, 0, 0, 0},
		{3, 4, 1, 100},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Completion(tc.ok, tc.total, tc.nt))
	}
}
