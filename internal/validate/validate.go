// Package validate turns raw sheet tables into clean record sets.
//
// Validation never touches shared state: every call returns the cleaned set
// together with the anomalies it found and the rows it had to drop, and the
// caller decides what to log and accumulate.
package validate

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/dkoosis/qatally/internal/config"
	"github.com/dkoosis/qatally/internal/record"
	"github.com/dkoosis/qatally/internal/sheet"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/width"
)

// MissingColumnsError rejects a whole file whose header lacks required columns.
type MissingColumnsError struct {
	File    string
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: missing required columns: %s", e.File, strings.Join(e.Columns, ", "))
}

// Dropped describes a row removed because a required value could not be coerced.
type Dropped struct {
	Row    int    // 1-based sheet row, header is row 1
	Column string
	Value  string
}

// ReportResult is the outcome of validating one report sheet.
type ReportResult struct {
	Set       *record.Set
	Anomalies []record.Anomaly
	Dropped   []Dropped
}

// ListResult is the outcome of validating one external list sheet.
type ListResult struct {
	List    *record.List
	Dropped []Dropped
}

// Report validates a report sheet read from file. It fails only when
// required columns are missing; bad rows are dropped or flagged instead.
func Report(file string, tbl *sheet.Table, cfg *config.Config) (*ReportResult, error) {
	if missing := tbl.Missing(cfg.ReportRequiredColumns()); len(missing) > 0 {
		return nil, &MissingColumnsError{File: file, Columns: missing}
	}

	idx := tbl.Index()
	columns := slices.Clone(tbl.Header)
	_, hasName := idx[cfg.TestNameColumn]
	if !hasName {
		columns = append(columns, cfg.TestNameColumn)
	}

	res := &ReportResult{Set: &record.Set{Columns: dedupe(columns)}}
	for i, row := range tbl.Rows {
		cell := func(col string) string {
			if j, ok := idx[col]; ok {
				return strings.TrimSpace(row[j])
			}
			return ""
		}

		rawDate := cell(cfg.DateColumn)
		date, ok := ParseDate(rawDate)
		if !ok {
			res.Dropped = append(res.Dropped, Dropped{Row: i + 2, Column: cfg.DateColumn, Value: rawDate})
			continue
		}

		r := record.Record{
			Source:      file,
			TestID:      cell(cfg.TestIDColumn),
			TestName:    cell(cfg.TestNameColumn),
			Date:        date,
			Status:      Fold(cell(cfg.ResultColumn)),
			DefectRef:   cell(cfg.BugNoColumn),
			QuestionRef: cell(cfg.QANoColumn),
			Cells:       make(map[string]string, len(columns)),
		}
		for j, h := range tbl.Header {
			if _, dup := r.Cells[h]; !dup {
				r.Cells[h] = row[j]
			}
		}
		r.Cells[cfg.ResultColumn] = r.Status
		if !hasName {
			r.Cells[cfg.TestNameColumn] = ""
		}

		res.Anomalies = append(res.Anomalies, anomalies(r, cfg)...)
		res.Set.Records = append(res.Set.Records, r)
	}
	return res, nil
}

// anomalies flags a record without changing it.
func anomalies(r record.Record, cfg *config.Config) []record.Anomaly {
	var out []record.Anomaly
	if r.Status != "" && !slices.Contains(cfg.Statuses, r.Status) {
		out = append(out, record.Anomaly{Kind: record.InvalidStatus, File: r.Source, TestID: r.TestID, Value: r.Status})
	}
	if r.Status == cfg.StatusQuestion && r.QuestionRef == "" {
		out = append(out, record.Anomaly{Kind: record.MissingQuestion, File: r.Source, TestID: r.TestID})
	}
	if slices.Contains(cfg.DefectStatuses(), r.Status) && r.DefectRef == "" {
		out = append(out, record.Anomaly{Kind: record.MissingDefect, File: r.Source, TestID: r.TestID})
	}
	return out
}

// List validates an external list sheet against its required columns.
// Rows whose No is not an integer are dropped.
func List(file string, tbl *sheet.Table, required []string) (*ListResult, error) {
	if missing := tbl.Missing(required); len(missing) > 0 {
		return nil, &MissingColumnsError{File: file, Columns: missing}
	}

	idx := tbl.Index()
	noCol := idx[config.ListKeyColumn]
	res := &ListResult{List: &record.List{Source: file, Columns: slices.Clone(tbl.Header)}}
	for i, row := range tbl.Rows {
		raw := strings.TrimSpace(row[noCol])
		n, ok := ParseNo(raw)
		if !ok {
			res.Dropped = append(res.Dropped, Dropped{Row: i + 2, Column: config.ListKeyColumn, Value: raw})
			continue
		}
		e := record.Entry{No: n, RawNo: raw, Cells: make(map[string]string, len(tbl.Header))}
		for j, h := range tbl.Header {
			if _, dup := e.Cells[h]; !dup {
				e.Cells[h] = row[j]
			}
		}
		res.List.Entries = append(res.List.Entries, e)
	}
	return res, nil
}

// Fold trims s and maps full-width characters to their half-width forms,
// so "ＯＫ " and "OK" compare equal.
func Fold(s string) string {
	return strings.TrimSpace(width.Fold.String(s))
}

// maxSerial is the Excel serial of 9999-12-31, the last date a cell can hold.
const maxSerial = 2958465

// ParseDate accepts an Excel serial number or a free-text date. Text without
// an offset is read as UTC, the zone serials convert to, so both cell kinds
// land on the same calendar day. Numbers past maxSerial, such as 20240105,
// are parsed as text.
func ParseDate(s string) (time.Time, bool) {
	s = Fold(s)
	if s == "" {
		return time.Time{}, false
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial <= maxSerial {
		if serial <= 0 {
			return time.Time{}, false
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParseNo coerces an external list identifier to an integer. Integral
// floats such as "12.0" are accepted.
func ParseNo(s string) (int, bool) {
	s = Fold(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

func dedupe(cols []string) []string {
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		if !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}
