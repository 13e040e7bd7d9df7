// Package ingest discovers spreadsheet files under a root directory,
// classifies each as a report or an external list, and loads it through the
// row validator.
//
// Files are read in parallel with a bounded pool. Everything that outlives a
// single file (record sets, counts, anomalies, list snapshots) is gathered
// afterwards in discovery order, so results match a sequential read.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/dkoosis/qatally/internal/config"
	"github.com/dkoosis/qatally/internal/logging"
	"github.com/dkoosis/qatally/internal/record"
	"github.com/dkoosis/qatally/internal/sheet"
	"github.com/dkoosis/qatally/internal/validate"
	"github.com/sourcegraph/conc/pool"
)

// ErrNoInput means no file under the root could be ingested.
var ErrNoInput = errors.New("no valid spreadsheet files found")

// Role is what a file contributes to the run.
type Role int

const (
	RoleReport Role = iota
	RoleDefectList
	RoleQuestionList
)

func (r Role) String() string {
	switch r {
	case RoleDefectList:
		return "defect-list"
	case RoleQuestionList:
		return "question-list"
	default:
		return "report"
	}
}

// Classify decides a file's role by exact base-name match.
func Classify(path string, cfg *config.Config) Role {
	switch filepath.Base(path) {
	case cfg.BugFileName:
		return RoleDefectList
	case cfg.QAFileName:
		return RoleQuestionList
	default:
		return RoleReport
	}
}

// FileCount is the per-status tally of one ingested report.
type FileCount struct {
	File   string // slash path relative to the root
	Counts map[string]int
}

// Skipped names a file left out of the run and why.
type Skipped struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// Result is everything ingestion produced for one root.
type Result struct {
	Reports   []*record.Set // discovery order
	Defects   *record.List  // nil when no defect list was loaded
	Questions *record.List  // nil when no question list was loaded
	Counts    []FileCount
	Anomalies []record.Anomaly
	Skipped   []Skipped
	Found     int // files discovered
	Ingested  int // files loaded successfully
}

// Options tunes a run.
type Options struct {
	Parallelism int
	Logger      *slog.Logger
}

// loaded is the outcome of reading one file, filled in by a pool worker.
type loaded struct {
	path    string
	role    Role
	report  *validate.ReportResult
	list    *validate.ListResult
	err     error
	dropped []validate.Dropped
}

// Ingest loads every matching file under root. Per-file failures are logged
// and recorded in Result.Skipped. The only error returned is for a root that
// cannot be walked; an empty or unusable tree yields an empty Result, with
// ErrNoInput logged once.
func Ingest(ctx context.Context, root string, cfg *config.Config, opts Options) (*Result, error) {
	log := logging.OrDiscard(opts.Logger)

	files, unreadable, err := Discover(root, cfg.Include, cfg.Exclude)
	if err != nil {
		return &Result{}, err
	}
	res := &Result{Found: len(files), Skipped: unreadable}
	for _, s := range unreadable {
		log.Warn("directory skipped", "dir", s.File, "reason", s.Reason)
	}
	log.Debug("discovered files", "root", root, "count", len(files))

	slots := make([]loaded, len(files))
	workers := opts.Parallelism
	if workers < 1 {
		workers = 1
	}
	p := pool.New().WithMaxGoroutines(workers)
	for i, path := range files {
		p.Go(func() {
			if ctx.Err() != nil {
				slots[i] = loaded{path: path, err: ctx.Err()}
				return
			}
			slots[i] = load(path, cfg)
		})
	}
	p.Wait()

	for _, l := range slots {
		res.accumulate(l, root, cfg, log)
	}

	if res.Ingested == 0 {
		log.Error(ErrNoInput.Error(), "root", root, "found", res.Found)
	}
	return res, nil
}

func load(path string, cfg *config.Config) loaded {
	l := loaded{path: path, role: Classify(path, cfg)}
	name := filepath.Base(path)

	sheetName := cfg.SheetName
	if l.role != RoleReport {
		sheetName = cfg.ListSheet
	}
	tbl, err := sheet.Read(path, sheetName)
	if err != nil {
		l.err = err
		return l
	}

	switch l.role {
	case RoleDefectList:
		l.list, l.err = validate.List(name, tbl, cfg.BugListColumns())
	case RoleQuestionList:
		l.list, l.err = validate.List(name, tbl, cfg.QAListColumns())
	default:
		l.report, l.err = validate.Report(name, tbl, cfg)
	}
	switch {
	case l.list != nil:
		l.dropped = l.list.Dropped
	case l.report != nil:
		l.dropped = l.report.Dropped
	}
	return l
}

// accumulate is the single point where per-file results join the run.
func (r *Result) accumulate(l loaded, root string, cfg *config.Config, log *slog.Logger) {
	name := filepath.Base(l.path)
	if l.err != nil {
		reason := l.err.Error()
		var mce *validate.MissingColumnsError
		switch {
		case errors.Is(l.err, sheet.ErrSheetNotFound):
			reason = fmt.Sprintf("sheet %q not found", sheetFor(l.role, cfg))
		case errors.As(l.err, &mce):
			reason = fmt.Sprintf("missing columns: %v", mce.Columns)
		}
		r.Skipped = append(r.Skipped, Skipped{File: l.path, Reason: reason})
		log.Warn("file skipped", "file", name, "role", l.role.String(), "reason", reason)
		return
	}

	for _, d := range l.dropped {
		log.Debug("row dropped", "file", name, "row", d.Row, "column", d.Column, "value", d.Value)
	}
	if len(l.dropped) > 0 {
		log.Info("rows dropped", "file", name, "count", len(l.dropped))
	}

	switch l.role {
	case RoleDefectList:
		r.Defects = l.list.List
	case RoleQuestionList:
		r.Questions = l.list.List
	default:
		r.Reports = append(r.Reports, l.report.Set)
		r.Counts = append(r.Counts, FileCount{File: relLabel(root, l.path), Counts: CountStatuses(l.report.Set, cfg.Statuses)})
		r.Anomalies = append(r.Anomalies, l.report.Anomalies...)
	}
	r.Ingested++
	log.Info("file loaded", "file", name, "role", l.role.String())
}

// relLabel names a report by its slash path under root, so equal base names
// in different folders stay apart.
func relLabel(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.Base(path)
	}
	return filepath.ToSlash(rel)
}

func sheetFor(role Role, cfg *config.Config) string {
	if role == RoleReport {
		return cfg.SheetName
	}
	return cfg.ListSheet
}

// CountStatuses tallies records per recognized status code. Every code is
// present in the result, zero when unused; unrecognized codes are ignored.
func CountStatuses(set *record.Set, statuses []string) map[string]int {
	counts := make(map[string]int, len(statuses))
	for _, s := range statuses {
		counts[s] = 0
	}
	for _, rec := range set.Records {
		if slices.Contains(statuses, rec.Status) {
			counts[rec.Status]++
		}
	}
	return counts
}

// LoadList reads an external list file outside the scanned tree.
func LoadList(path string, role Role, cfg *config.Config) (*record.List, error) {
	required := cfg.BugListColumns()
	if role == RoleQuestionList {
		required = cfg.QAListColumns()
	}
	tbl, err := sheet.Read(path, cfg.ListSheet)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	res, err := validate.List(filepath.Base(path), tbl, required)
	if err != nil {
		return nil, err
	}
	return res.List, nil
}
