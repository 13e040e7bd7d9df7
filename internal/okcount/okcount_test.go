package okcount

import (
	"testing"
	"time"

	"github.com/dkoosis/qatally/internal/record"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(day int) time.Time { return time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC) }

func series(counts ...int) *Table {
	t := &Table{DateColumn: "実施日", ValueColumn: OKColumn}
	for i, c := range counts {
		t.Points = append(t.Points, Point{Date: d(i + 1), Count: c})
	}
	return t
}

func TestCompute_CumulativeIsRunningSum(t *testing.T) {
	t.Parallel()

	in := series(5, 3, 7)
	got := Compute(Cumulative, in)

	assert.Equal(t, []string{"実施日", "OK_cumulative"}, got.Header())
	assert.Equal(t, []int{5, 8, 15}, got.Counts())
	assert.Equal(t, []int{5, 3, 7}, in.Counts(), "input is not modified")
}

func TestCompute_CumulativeSumLaw(t *testing.T) {
	t.Parallel()

	inputs := [][]int{{0}, {1, 1, 1, 1}, {4, 0, 0, 9, 2}, {10, 20, 30}}
	for _, counts := range inputs {
		got := Compute(Cumulative, series(counts...)).Counts()
		sum := 0
		for i, c := range counts {
			sum += c
			assert.Equal(t, sum, got[i])
		}
	}
}

func TestCompute_DailyPassesThrough(t *testing.T) {
	t.Parallel()

	in := series(5, 3, 7)
	got := Compute(Daily, in)

	assert.Equal(t, []string{"実施日", "OK"}, got.Header())
	if diff := cmp.Diff(in.Points, got.Points); diff != "" {
		t.Errorf("daily mismatch (-want +got):\n%s", diff)
	}
}

func TestCompute_EmptyInEmptyOut(t *testing.T) {
	t.Parallel()

	for _, s := range []Strategy{Cumulative, Daily} {
		got := Compute(s, &Table{DateColumn: "実施日", ValueColumn: OKColumn})
		assert.Zero(t, got.Len(), s.String())
	}
}

func TestPivot_CountsOKPerDayAndZeroFillsOtherDays(t *testing.T) {
	t.Parallel()

	set := &record.Set{Records: []record.Record{
		{TestID: "a", Status: "OK", Date: d(3).Add(15 * time.Hour)},
		{TestID: "b", Status: "OK", Date: d(3)},
		{TestID: "", Status: "OK", Date: d(3)},
		{TestID: "c", Status: "NG", Date: d(2)},
		{TestID: "d", Status: "OK", Date: d(4)},
	}}

	got := Pivot(set, "実施日", "OK")

	require.Equal(t, 3, got.Len())
	assert.Equal(t, []int{0, 2, 1}, got.Counts())
	assert.Equal(t, d(2), got.Points[0].Date)
	assert.Equal(t, []string{"実施日", "OK"}, got.Header())
}

func TestPivot_KeysDaysByCalendarDateAcrossZones(t *testing.T) {
	t.Parallel()

	tokyo := time.FixedZone("JST", 9*60*60)
	set := &record.Set{Records: []record.Record{
		{TestID: "a", Status: "OK", Date: d(5)},
		{TestID: "b", Status: "OK", Date: time.Date(2024, 1, 5, 0, 0, 0, 0, tokyo)},
		{TestID: "c", Status: "NG", Date: time.Date(2024, 1, 5, 18, 30, 0, 0, time.Local)},
	}}

	got := Pivot(set, "実施日", "OK")
	require.Equal(t, 1, got.Len())
	assert.Equal(t, d(5), got.Points[0].Date)
	assert.Equal(t, []int{2}, got.Counts())

	bd := BreakdownOf(set, "実施日", []string{"OK", "NG"})
	require.NotEmpty(t, bd.Rows)
	assert.Equal(t, 2, bd.Rows[0].Counts["OK"])
	assert.Equal(t, 1, bd.Rows[0].Counts["NG"])
}

func TestPivot_SynthesizesOKColumn_When_NoOKRows(t *testing.T) {
	t.Parallel()

	set := &record.Set{Records: []record.Record{{TestID: "a", Status: "NG", Date: d(1)}}}
	got := Pivot(set, "実施日", "OK")
	assert.Equal(t, []int{0}, got.Counts())
}

func TestPivot_EmptySet(t *testing.T) {
	t.Parallel()

	assert.Zero(t, Pivot(&record.Set{}, "実施日", "OK").Len())
}

func TestBreakdownOf(t *testing.T) {
	t.Parallel()

	set := &record.Set{Records: []record.Record{
		{TestID: "a", Status: "OK", Date: d(2)},
		{TestID: "b", Status: "NG", Date: d(2)},
		{TestID: "c", Status: "OK", Date: d(1)},
		{TestID: "d", Status: "??", Date: d(1)},
		{TestID: "e", Status: "", Date: d(1)},
	}}

	b := BreakdownOf(set, "実施日", []string{"OK", "NG", "NT"})

	assert.Equal(t, []string{"OK", "NG", "??"}, b.Statuses)
	require.Len(t, b.Rows, 3)
	assert.Equal(t, "2024-01-01", b.Rows[0].Label)
	assert.Equal(t, 2, b.Rows[0].Consumed)
	assert.Equal(t, TotalLabel, b.Rows[2].Label)
	assert.Equal(t, map[string]int{"OK": 2, "NG": 1, "??": 1}, b.Rows[2].Counts)
	assert.Equal(t, 4, b.Rows[2].Consumed)
}

func TestBreakdownOf_EmptySet(t *testing.T) {
	t.Parallel()

	assert.Empty(t, BreakdownOf(&record.Set{}, "実施日", []string{"OK"}).Rows)
}
