// Package record holds the row types shared by every pipeline stage: test
// records from report sheets, entries from the external lists, and the
// anomalies found while validating them.
package record

import (
	"slices"
	"time"
)

// Record is one validated row of a test report.
type Record struct {
	Source      string // base name of the report file
	TestID      string
	TestName    string
	Date        time.Time
	Status      string
	DefectRef   string
	QuestionRef string

	// Cells holds every source cell by header name. A column the source
	// sheet lacks has no key, which reads as null.
	Cells map[string]string
}

// Get returns the cell under col and whether the record's source had it.
func (r Record) Get(col string) (string, bool) {
	v, ok := r.Cells[col]
	return v, ok
}

// Set is an ordered collection of records sharing a column list.
type Set struct {
	Columns []string
	Records []Record
}

// Len returns the number of records.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Records)
}

// Filter returns a new set holding the records whose status is in statuses.
// The receiver is left untouched.
func (s *Set) Filter(statuses ...string) *Set {
	out := &Set{Columns: slices.Clone(s.Columns)}
	for _, r := range s.Records {
		if slices.Contains(statuses, r.Status) {
			out.Records = append(out.Records, r)
		}
	}
	return out
}

// Unify concatenates sets in the given order. Columns are the union in
// first-seen order; a record keeps only the cells its source had, so the
// columns other sources introduced read as null for it. Unifying nothing
// yields an empty set with no columns.
func Unify(sets ...*Set) *Set {
	out := &Set{}
	seen := make(map[string]bool)
	n := 0
	for _, s := range sets {
		if s == nil {
			continue
		}
		for _, c := range s.Columns {
			if !seen[c] {
				seen[c] = true
				out.Columns = append(out.Columns, c)
			}
		}
		n += len(s.Records)
	}
	if n == 0 {
		return out
	}
	out.Records = make([]Record, 0, n)
	for _, s := range sets {
		if s == nil {
			continue
		}
		out.Records = append(out.Records, s.Records...)
	}
	return out
}

// Entry is one row of an external defect or question list.
type Entry struct {
	No    int    // numeric identifier
	RawNo string // identifier as written in the sheet
	Cells map[string]string
}

// List is a loaded external list. Entries keep sheet order.
type List struct {
	Source  string
	Columns []string
	Entries []Entry
}

// Lookup indexes entries by No. When a number repeats, the first entry wins.
func (l *List) Lookup() map[int]Entry {
	idx := make(map[int]Entry, len(l.Entries))
	for _, e := range l.Entries {
		if _, dup := idx[e.No]; !dup {
			idx[e.No] = e
		}
	}
	return idx
}

// AnomalyKind classifies a row-level data quality issue.
type AnomalyKind string

const (
	InvalidStatus   AnomalyKind = "invalid-status"
	MissingQuestion AnomalyKind = "question-without-reference"
	MissingDefect   AnomalyKind = "defect-without-reference"
)

// Kinds lists every anomaly kind in reporting order.
var Kinds = []AnomalyKind{InvalidStatus, MissingQuestion, MissingDefect}

// Anomaly records one problem row. The row itself stays in its set.
type Anomaly struct {
	Kind   AnomalyKind `json:"kind"`
	File   string      `json:"file"`
	TestID string      `json:"test_id"`
	Value  string      `json:"value,omitempty"`
}

// CountByKind tallies anomalies per kind.
func CountByKind(as []Anomaly) map[AnomalyKind]int {
	counts := make(map[AnomalyKind]int, len(Kinds))
	for _, a := range as {
		counts[a.Kind]++
	}
	return counts
}
