// Package xref builds the defect and question cross-reference tables.
//
// Report rows carry free-text references such as "内部バグ#12". The builder
// groups the relevant rows by reference, extracts the numeric key with the
// configured regex and joins the groups against the external list. One
// function serves both tables; a Variant carries what differs between them.
package xref

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/dkoosis/qatally/internal/config"
	"github.com/dkoosis/qatally/internal/record"
)

// Join is the side of the join every output row is anchored on.
type Join int

const (
	// ListAnchored keeps every external list entry, referenced or not.
	ListAnchored Join = iota
	// PivotAnchored keeps only references observed in reports.
	PivotAnchored
)

// Variant parameterizes Build.
type Variant struct {
	Name           string
	RefColumn      string
	Ref            func(record.Record) string // reads the reference off a record
	Pattern        *regexp.Regexp
	Template       string
	Join           Join
	Statuses       []string
	ListColumns    []string
	OutputColumns  []string
	CountColumn    string
	TestNameColumn string
}

// DefectVariant reads the defect settings from cfg: failed and blocked rows,
// anchored on the defect list.
func DefectVariant(cfg *config.Config) (Variant, error) {
	re, err := regexp.Compile(cfg.BugRegex)
	if err != nil {
		return Variant{}, fmt.Errorf("bug_regex: %w", err)
	}
	return Variant{
		Name:           "defect",
		RefColumn:      cfg.BugNoColumn,
		Ref:            func(r record.Record) string { return r.DefectRef },
		Pattern:        re,
		Template:       cfg.BugPatternTemplate,
		Join:           ListAnchored,
		Statuses:       cfg.DefectStatuses(),
		ListColumns:    cfg.BugListColumns(),
		OutputColumns:  slices.Clone(cfg.BugOutputColumns),
		CountColumn:    cfg.CountColumn,
		TestNameColumn: cfg.TestNameColumn,
	}, nil
}

// QuestionVariant reads the question settings from cfg: has-question rows,
// anchored on the observed references.
func QuestionVariant(cfg *config.Config) (Variant, error) {
	re, err := regexp.Compile(cfg.QARegex)
	if err != nil {
		return Variant{}, fmt.Errorf("qa_regex: %w", err)
	}
	return Variant{
		Name:           "question",
		RefColumn:      cfg.QANoColumn,
		Ref:            func(r record.Record) string { return r.QuestionRef },
		Pattern:        re,
		Template:       cfg.QAPatternTemplate,
		Join:           PivotAnchored,
		Statuses:       []string{cfg.StatusQuestion},
		ListColumns:    cfg.QAListColumns(),
		OutputColumns:  slices.Clone(cfg.QAOutputColumns),
		CountColumn:    cfg.CountColumn,
		TestNameColumn: cfg.TestNameColumn,
	}, nil
}

// Render substitutes n into the template's placeholder.
func Render(template string, n int) string {
	return strings.Replace(template, config.Placeholder, strconv.Itoa(n), 1)
}

// Extract parses the first capture group of re in s as an integer.
func Extract(re *regexp.Regexp, s string) (int, bool) {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Row is one reference in a cross-reference table.
type Row struct {
	Ref       string
	Count     int
	TestNames string
	Cells     map[string]string // list cells, nil when no entry matched
}

// Table is a finished cross-reference table.
type Table struct {
	Columns        []string
	RefColumn      string
	CountColumn    string
	TestNameColumn string
	Rows           []Row
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Header returns the output columns in order.
func (t *Table) Header() []string {
	return t.Columns
}

// Values projects each row onto the output columns.
func (t *Table) Values() [][]any {
	out := make([][]any, len(t.Rows))
	for i, r := range t.Rows {
		row := make([]any, len(t.Columns))
		for j, c := range t.Columns {
			switch c {
			case t.RefColumn:
				row[j] = r.Ref
			case t.CountColumn:
				row[j] = r.Count
			case t.TestNameColumn:
				row[j] = r.TestNames
			default:
				row[j] = r.Cells[c]
			}
		}
		out[i] = row
	}
	return out
}

// group is one distinct reference value observed in the filtered records.
type group struct {
	ref   string
	key   int
	count int
	names string
}

// pivot groups records by raw reference, sorted by reference. Empty
// references and those the pattern does not match are left out.
func pivot(records []record.Record, v Variant) []group {
	type acc struct {
		count int
		names map[string]bool
	}
	byRef := make(map[string]*acc)
	for _, r := range records {
		ref := v.Ref(r)
		if ref == "" {
			continue
		}
		a, ok := byRef[ref]
		if !ok {
			a = &acc{names: make(map[string]bool)}
			byRef[ref] = a
		}
		a.count++
		if r.TestName != "" {
			a.names[r.TestName] = true
		}
	}

	refs := make([]string, 0, len(byRef))
	for ref := range byRef {
		refs = append(refs, ref)
	}
	slices.Sort(refs)

	groups := make([]group, 0, len(refs))
	for _, ref := range refs {
		key, ok := Extract(v.Pattern, ref)
		if !ok {
			continue
		}
		a := byRef[ref]
		names := make([]string, 0, len(a.names))
		for n := range a.names {
			names = append(names, n)
		}
		slices.Sort(names)
		groups = append(groups, group{ref: ref, key: key, count: a.count, names: strings.Join(names, ", ")})
	}
	return groups
}

// Build produces the cross-reference table for v from the merged set and
// the external list. list may be nil when it could not be loaded; the
// table then holds the pivot alone. Rows with a zero count are dropped.
func Build(set *record.Set, list *record.List, v Variant) *Table {
	t := &Table{
		Columns:        slices.Clone(v.OutputColumns),
		RefColumn:      v.RefColumn,
		CountColumn:    v.CountColumn,
		TestNameColumn: v.TestNameColumn,
	}
	var records []record.Record
	if set != nil {
		records = set.Filter(v.Statuses...).Records
	}
	groups := pivot(records, v)

	switch {
	case list == nil:
		if v.Join == PivotAnchored {
			t.Columns = []string{v.RefColumn, v.CountColumn, v.TestNameColumn}
		}
		for _, g := range groups {
			t.Rows = append(t.Rows, Row{Ref: g.ref, Count: g.count, TestNames: g.names})
		}
	case v.Join == ListAnchored:
		byKey := make(map[int][]group)
		for _, g := range groups {
			byKey[g.key] = append(byKey[g.key], g)
		}
		for _, e := range list.Entries {
			matched := byKey[e.No]
			if len(matched) == 0 {
				t.Rows = append(t.Rows, Row{Ref: Render(v.Template, e.No), Cells: e.Cells})
				continue
			}
			for _, g := range matched {
				t.Rows = append(t.Rows, Row{Ref: Render(v.Template, e.No), Count: g.count, TestNames: g.names, Cells: e.Cells})
			}
		}
	default:
		idx := list.Lookup()
		for _, g := range groups {
			row := Row{Ref: g.ref, Count: g.count, TestNames: g.names}
			if e, ok := idx[g.key]; ok {
				row.Cells = e.Cells
			}
			t.Rows = append(t.Rows, row)
		}
	}

	t.Rows = slices.DeleteFunc(t.Rows, func(r Row) bool { return r.Count == 0 })
	return t
}
