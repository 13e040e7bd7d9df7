package okcount

import (
	"slices"
	"time"

	"github.com/dkoosis/qatally/internal/record"
)

// TotalLabel marks the trailing total row of a breakdown.
const TotalLabel = "累計"

// ConsumedColumn is the per-row sum of every status count.
const ConsumedColumn = "消化項目数"

// BreakdownRow is one day of status counts, or the total row.
type BreakdownRow struct {
	Label    string // yyyy-mm-dd, or TotalLabel
	Counts   map[string]int
	Consumed int
}

// Breakdown is a per-day count of each status.
type Breakdown struct {
	DateColumn string
	Statuses   []string
	Rows       []BreakdownRow
}

// BreakdownOf counts records per day and status. Columns are the statuses
// that occur, ordered as in statuses and then by first appearance. Days
// ascend and a total row closes the table. Records without a test id or
// status are not counted; an empty set yields no rows.
func BreakdownOf(set *record.Set, dateColumn string, statuses []string) *Breakdown {
	b := &Breakdown{DateColumn: dateColumn}
	if set.Len() == 0 {
		return b
	}

	byDay := make(map[time.Time]map[string]int)
	var days []time.Time
	present := make(map[string]bool)
	var extra []string
	for _, r := range set.Records {
		if r.Date.IsZero() || r.TestID == "" || r.Status == "" {
			continue
		}
		d := day(r.Date)
		counts, ok := byDay[d]
		if !ok {
			counts = make(map[string]int)
			byDay[d] = counts
			days = append(days, d)
		}
		counts[r.Status]++
		if !present[r.Status] {
			present[r.Status] = true
			if !slices.Contains(statuses, r.Status) {
				extra = append(extra, r.Status)
			}
		}
	}
	if len(days) == 0 {
		return b
	}

	for _, s := range statuses {
		if present[s] {
			b.Statuses = append(b.Statuses, s)
		}
	}
	b.Statuses = append(b.Statuses, extra...)

	slices.SortFunc(days, time.Time.Compare)
	total := BreakdownRow{Label: TotalLabel, Counts: make(map[string]int, len(b.Statuses))}
	for _, d := range days {
		row := BreakdownRow{Label: d.Format(time.DateOnly), Counts: make(map[string]int, len(b.Statuses))}
		for _, s := range b.Statuses {
			n := byDay[d][s]
			row.Counts[s] = n
			row.Consumed += n
			total.Counts[s] += n
		}
		total.Consumed += row.Consumed
		b.Rows = append(b.Rows, row)
	}
	b.Rows = append(b.Rows, total)
	return b
}
