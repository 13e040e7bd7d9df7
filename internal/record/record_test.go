package record

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(src string, cells map[string]string) Record {
	return Record{Source: src, TestID: cells["A"], Cells: cells}
}

func TestUnify_ReturnsEmptySet_When_NoInputs(t *testing.T) {
	t.Parallel()

	got := Unify()
	require.NotNil(t, got)
	assert.Empty(t, got.Columns)
	assert.Equal(t, 0, got.Len())
}

func TestUnify_UnionsColumnsAndLeavesMissingCellsNull(t *testing.T) {
	t.Parallel()

	a := &Set{
		Columns: []string{"A", "B"},
		Records: []Record{
			rec("a.xlsx", map[string]string{"A": "1", "B": "3"}),
			rec("a.xlsx", map[string]string{"A": "2", "B": "4"}),
		},
	}
	b := &Set{
		Columns: []string{"A", "C"},
		Records: []Record{
			rec("b.xlsx", map[string]string{"A": "5", "C": "7"}),
			rec("b.xlsx", map[string]string{"A": "6", "C": "8"}),
		},
	}

	got := Unify(a, nil, b)

	if diff := cmp.Diff([]string{"A", "B", "C"}, got.Columns); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, 4, got.Len())

	var ids []string
	for _, r := range got.Records {
		ids = append(ids, r.TestID)
	}
	assert.Equal(t, []string{"1", "2", "5", "6"}, ids)

	for _, r := range got.Records[2:] {
		_, ok := r.Get("B")
		assert.False(t, ok, "B is null for rows from b.xlsx")
	}
	for _, r := range got.Records[:2] {
		_, ok := r.Get("C")
		assert.False(t, ok, "C is null for rows from a.xlsx")
	}
	v, ok := got.Records[3].Get("C")
	assert.True(t, ok)
	assert.Equal(t, "8", v)
}

func TestSet_Filter_DoesNotMutateReceiver(t *testing.T) {
	t.Parallel()

	s := &Set{
		Columns: []string{"A"},
		Records: []Record{{Status: "OK"}, {Status: "NG"}, {Status: "BK"}},
	}
	got := s.Filter("NG", "BK")

	assert.Equal(t, 2, got.Len())
	assert.Equal(t, 3, s.Len())
	got.Columns[0] = "changed"
	assert.Equal(t, "A", s.Columns[0])
}

func TestList_Lookup_FirstEntryWins(t *testing.T) {
	t.Parallel()

	l := &List{Entries: []Entry{
		{No: 1, RawNo: "1", Cells: map[string]string{"x": "first"}},
		{No: 1, RawNo: "1.0", Cells: map[string]string{"x": "second"}},
		{No: 2, RawNo: "2"},
	}}
	idx := l.Lookup()
	assert.Len(t, idx, 2)
	assert.Equal(t, "first", idx[1].Cells["x"])
}

func TestCountByKind(t *testing.T) {
	t.Parallel()

	got := CountByKind([]Anomaly{
		{Kind: InvalidStatus}, {Kind: MissingDefect}, {Kind: MissingDefect},
	})
	assert.Equal(t, 1, got[InvalidStatus])
	assert.Equal(t, 2, got[MissingDefect])
	assert.Equal(t, 0, got[MissingQuestion])
}
