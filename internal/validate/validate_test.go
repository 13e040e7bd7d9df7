package validate

import (
	"errors"
	"testing"
	"time"

	"github.com/dkoosis/qatally/internal/config"
	"github.com/dkoosis/qatally/internal/record"
	"github.com/dkoosis/qatally/internal/sheet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reportHeader = []string{"試験項目ID", "試験名", "実施日", "試験結果", "バグ_DB_No", "Q&A_DB_No"}

func TestReport_RejectsFile_When_RequiredColumnsMissing(t *testing.T) {
	t.Parallel()

	tbl := &sheet.Table{Header: []string{"試験項目ID", "試験結果"}}
	_, err := Report("a.xlsx", tbl, config.Default())

	var mce *MissingColumnsError
	require.True(t, errors.As(err, &mce))
	assert.Equal(t, "a.xlsx", mce.File)
	assert.Equal(t, []string{"実施日", "バグ_DB_No", "Q&A_DB_No"}, mce.Columns)
}

func TestReport_DropsRowsWithUnparseableDates(t *testing.T) {
	t.Parallel()

	tbl := &sheet.Table{
		Header: reportHeader,
		Rows: [][]string{
			{"T-1", "login", "45296", "OK", "", ""},
			{"T-2", "logout", "??", "OK", "", ""},
			{"T-3", "signup", "2024/01/06", "OK", "", ""},
			{"T-4", "reset", "", "OK", "", ""},
		},
	}
	res, err := Report("a.xlsx", tbl, config.Default())
	require.NoError(t, err)

	require.Equal(t, 2, res.Set.Len())
	assert.Equal(t, "2024-01-05", res.Set.Records[0].Date.Format(time.DateOnly))
	assert.Equal(t, "2024-01-06", res.Set.Records[1].Date.Format(time.DateOnly))

	require.Len(t, res.Dropped, 2)
	assert.Equal(t, Dropped{Row: 3, Column: "実施日", Value: "??"}, res.Dropped[0])
	assert.Equal(t, 5, res.Dropped[1].Row)
}

func TestReport_RecordsEveryAnomalyAndKeepsRows(t *testing.T) {
	t.Parallel()

	tbl := &sheet.Table{
		Header: reportHeader,
		Rows: [][]string{
			{"T-1", "a", "45296", "ＯＫ", "", ""},
			{"T-2", "b", "45296", "XX", "", ""},
			{"T-3", "c", "45296", "NG", "", ""},
			{"T-4", "d", "45296", "BK", "", ""},
			{"T-5", "e", "45296", "NG", "garbage", ""},
			{"T-6", "f", "45296", "QA", "", ""},
			{"T-7", "g", "45296", "QA", "", "内部QA#1"},
			{"T-8", "h", "45296", "", "", ""},
		},
	}
	res, err := Report("r.xlsx", tbl, config.Default())
	require.NoError(t, err)

	assert.Equal(t, 8, res.Set.Len(), "anomalies never drop rows")
	assert.Equal(t, "OK", res.Set.Records[0].Status, "status is width-folded")

	assert.ElementsMatch(t, []record.Anomaly{
		{Kind: record.InvalidStatus, File: "r.xlsx", TestID: "T-2", Value: "XX"},
		{Kind: record.MissingDefect, File: "r.xlsx", TestID: "T-3"},
		{Kind: record.MissingDefect, File: "r.xlsx", TestID: "T-4"},
		{Kind: record.MissingQuestion, File: "r.xlsx", TestID: "T-6"},
	}, res.Anomalies)
}

func TestReport_SynthesizesTestName_When_ColumnAbsent(t *testing.T) {
	t.Parallel()

	tbl := &sheet.Table{
		Header: []string{"試験項目ID", "実施日", "試験結果", "バグ_DB_No", "Q&A_DB_No", "備考"},
		Rows:   [][]string{{"T-1", "45296", "OK", "", "", "x"}},
	}
	res, err := Report("a.xlsx", tbl, config.Default())
	require.NoError(t, err)

	assert.Contains(t, res.Set.Columns, "試験名")
	r := res.Set.Records[0]
	name, ok := r.Get("試験名")
	assert.True(t, ok)
	assert.Empty(t, name)
	assert.Equal(t, "x", r.Cells["備考"])
}

func TestList_CoercesNoAndKeepsRawText(t *testing.T) {
	t.Parallel()

	tbl := &sheet.Table{
		Header: []string{"No", "ステータス", "概要", "JIRA#"},
		Rows: [][]string{
			{"1", "open", "crash", "J-1"},
			{"2.0", "closed", "typo", "J-2"},
			{"abc", "open", "bad", ""},
			{"", "open", "empty", ""},
			{"3.5", "open", "fraction", ""},
			{"４", "open", "wide", "J-4"},
		},
	}
	res, err := List("bugs.xlsx", tbl, config.Default().BugListColumns())
	require.NoError(t, err)

	var nos []int
	var raws []string
	for _, e := range res.List.Entries {
		nos = append(nos, e.No)
		raws = append(raws, e.RawNo)
	}
	assert.Equal(t, []int{1, 2, 4}, nos)
	assert.Equal(t, []string{"1", "2.0", "４"}, raws)
	assert.Len(t, res.Dropped, 3)
	assert.Equal(t, "crash", res.List.Entries[0].Cells["概要"])
}

func TestList_RejectsFile_When_NoColumnMissing(t *testing.T) {
	t.Parallel()

	tbl := &sheet.Table{Header: []string{"ステータス", "概要", "JIRA#"}}
	_, err := List("bugs.xlsx", tbl, config.Default().BugListColumns())

	var mce *MissingColumnsError
	require.ErrorAs(t, err, &mce)
	assert.Equal(t, []string{"No"}, mce.Columns)
}

func TestParseNo(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"7", 7, true},
		{" 12 ", 12, true},
		{"12.0", 12, true},
		{"1e1", 10, true},
		{"12.5", 0, false},
		{"NaN", 0, false},
		{"", 0, false},
		{"#3", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseNo(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{name: "serial with time", in: "45296.5", want: "2024-01-05 12:00", ok: true},
		{name: "iso text", in: "2024-01-05", want: "2024-01-05 00:00", ok: true},
		{name: "slashed text", in: "2024/01/05", want: "2024-01-05 00:00", ok: true},
		{name: "compact digits are not a serial", in: "20240105", want: "2024-01-05 00:00", ok: true},
		{name: "full-width digits", in: "２０２４/０１/０５", want: "2024-01-05 00:00", ok: true},
		{name: "negative serial", in: "-3"},
		{name: "garbage", in: "??"},
		{name: "empty", in: "  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ParseDate(tt.in)
			require.Equal(t, tt.ok, ok)
			if !tt.ok {
				return
			}
			assert.Equal(t, tt.want, got.Format("2006-01-02 15:04"))
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}
