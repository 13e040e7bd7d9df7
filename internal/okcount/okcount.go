// Package okcount builds the date-indexed OK tables and the per-day status
// breakdown.
package okcount

import (
	"fmt"
	"slices"
	"time"

	"github.com/dkoosis/qatally/internal/record"
)

// Column names of the derived series.
const (
	OKColumn         = "OK"
	CumulativeColumn = "OK_cumulative"
)

// Point is one day of a series.
type Point struct {
	Date  time.Time
	Count int
}

// Table is a date-indexed count series, ascending by day.
type Table struct {
	DateColumn  string
	ValueColumn string
	Points      []Point
}

// Len returns the number of days.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Points)
}

// Header returns the table's column names.
func (t *Table) Header() []string {
	return []string{t.DateColumn, t.ValueColumn}
}

// Values returns the rows as sheet cells.
func (t *Table) Values() [][]any {
	rows := make([][]any, len(t.Points))
	for i, p := range t.Points {
		rows[i] = []any{p.Date, p.Count}
	}
	return rows
}

// Counts returns the series values in order.
func (t *Table) Counts() []int {
	out := make([]int, len(t.Points))
	for i, p := range t.Points {
		out[i] = p.Count
	}
	return out
}

// day keys t by its wall-clock calendar day, always in UTC.
func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Pivot counts, per calendar day, the records with status ok and a non-empty
// test id. Days whose records carry only other statuses appear with 0. A set
// without records yields an empty table.
func Pivot(set *record.Set, dateColumn, ok string) *Table {
	t := &Table{DateColumn: dateColumn, ValueColumn: OKColumn}
	if set.Len() == 0 {
		return t
	}

	counts := make(map[time.Time]int)
	for _, r := range set.Records {
		if r.Date.IsZero() {
			continue
		}
		d := day(r.Date)
		if _, seen := counts[d]; !seen {
			counts[d] = 0
		}
		if r.Status == ok && r.TestID != "" {
			counts[d]++
		}
	}

	days := make([]time.Time, 0, len(counts))
	for d := range counts {
		days = append(days, d)
	}
	slices.SortFunc(days, time.Time.Compare)

	t.Points = make([]Point, len(days))
	for i, d := range days {
		t.Points[i] = Point{Date: d, Count: counts[d]}
	}
	return t
}

// Strategy selects how an OK series is derived from the pivot.
type Strategy int

const (
	// Cumulative is the running sum of OK counts in row order.
	Cumulative Strategy = iota
	// Daily passes the per-day OK counts through unchanged.
	Daily
)

func (s Strategy) String() string {
	switch s {
	case Cumulative:
		return "cumulative"
	case Daily:
		return "daily"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// Compute derives a new series from an OK pivot. The input is not modified.
// An empty input yields an empty table.
func Compute(s Strategy, in *Table) *Table {
	out := &Table{DateColumn: in.DateColumn, ValueColumn: in.ValueColumn}
	if in.Len() == 0 {
		return out
	}
	out.Points = slices.Clone(in.Points)
	switch s {
	case Cumulative:
		out.ValueColumn = CumulativeColumn
		sum := 0
		for i := range out.Points {
			sum += out.Points[i].Count
			out.Points[i].Count = sum
		}
	case Daily:
		out.ValueColumn = OKColumn
	}
	return out
}
