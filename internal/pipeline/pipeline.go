// Package pipeline runs one batch: ingest a folder, unify the reports and
// derive every table of the result bundle.
package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/dkoosis/qatally/internal/config"
	"github.com/dkoosis/qatally/internal/ingest"
	"github.com/dkoosis/qatally/internal/logging"
	"github.com/dkoosis/qatally/internal/okcount"
	"github.com/dkoosis/qatally/internal/record"
	"github.com/dkoosis/qatally/internal/summary"
	"github.com/dkoosis/qatally/internal/xref"
	"github.com/google/uuid"
)

// Bundle holds the seven result tables. It is not modified after Run returns.
type Bundle struct {
	Summary    *summary.Table
	Merged     *record.Set
	Defects    *xref.Table
	Questions  *xref.Table
	OKByDate   *okcount.Table
	Cumulative *okcount.Table
	Daily      *okcount.Table
}

// Empty reports whether the bundle carries no data rows at all.
func (b *Bundle) Empty() bool {
	return b.Summary.Len() == 0 && b.Merged.Len() == 0 && b.Defects.Len() == 0 &&
		b.Questions.Len() == 0 && b.OKByDate.Len() == 0 && b.Cumulative.Len() == 0 && b.Daily.Len() == 0
}

// Report describes how a run went.
type Report struct {
	RunID     string
	Root      string
	StartedAt time.Time
	Duration  time.Duration
	Found     int
	Ingested  int
	Anomalies []record.Anomaly
	Skipped   []ingest.Skipped
	Err       error // top-level input error, already logged
}

// Options tunes Run.
type Options struct {
	Logger *slog.Logger
	Now    func() time.Time
}

// Run executes one pipeline pass over cfg.Root. Input problems never fail
// the run: they are logged, noted in the Report, and yield empty tables.
// Only configuration errors are returned.
func Run(ctx context.Context, cfg *config.Config, opts Options) (*Bundle, *Report, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	dv, err := xref.DefectVariant(cfg)
	if err != nil {
		return nil, nil, err
	}
	qv, err := xref.QuestionVariant(cfg)
	if err != nil {
		return nil, nil, err
	}

	rep := &Report{RunID: uuid.NewString(), Root: cfg.Root, StartedAt: now()}
	log := logging.OrDiscard(opts.Logger).With("run_id", rep.RunID)
	log.Info("run started", "root", cfg.Root)

	res, err := ingest.Ingest(ctx, cfg.Root, cfg, ingest.Options{Parallelism: cfg.Parallelism, Logger: log})
	if err != nil {
		rep.Err = err
		log.Error("invalid input folder", "root", cfg.Root, "error", err)
	} else if res.Ingested == 0 {
		rep.Err = ingest.ErrNoInput
	}
	rep.Found, rep.Ingested = res.Found, res.Ingested
	rep.Anomalies, rep.Skipped = res.Anomalies, res.Skipped

	defects := res.Defects
	if defects == nil {
		defects = fallbackList(cfg, cfg.BugListDir, cfg.BugFileName, ingest.RoleDefectList, log)
	}
	questions := res.Questions
	if questions == nil {
		questions = fallbackList(cfg, cfg.QAListDir, cfg.QAFileName, ingest.RoleQuestionList, log)
	}

	merged := record.Unify(res.Reports...)
	okTable := okcount.Pivot(merged, cfg.DateColumn, cfg.StatusOK)
	b := &Bundle{
		Summary:    summary.Build(res.Counts, cfg, rep.StartedAt),
		Merged:     merged,
		Defects:    xref.Build(merged, defects, dv),
		Questions:  xref.Build(merged, questions, qv),
		OKByDate:   okTable,
		Cumulative: okcount.Compute(okcount.Cumulative, okTable),
		Daily:      okcount.Compute(okcount.Daily, okTable),
	}

	reportAnomalies(log, rep.Anomalies)
	rep.Duration = now().Sub(rep.StartedAt)
	log.Info("run finished",
		"files", rep.Found, "ingested", rep.Ingested, "skipped", len(rep.Skipped),
		"records", merged.Len(), "anomalies", len(rep.Anomalies), "duration", rep.Duration)
	return b, rep, nil
}

// fallbackList looks for an external list outside the scanned tree.
func fallbackList(cfg *config.Config, dir, name string, role ingest.Role, log *slog.Logger) *record.List {
	if dir == "" || sameDir(dir, cfg.Root) {
		log.Warn("external list not found", "file", name)
		return nil
	}
	path, ok := ingest.FindFile(dir, name)
	if !ok {
		log.Warn("external list not found", "file", name, "dir", dir)
		return nil
	}
	list, err := ingest.LoadList(path, role, cfg)
	if err != nil {
		log.Warn("external list unreadable", "file", path, "error", err)
		return nil
	}
	log.Info("file loaded", "file", name, "role", role.String(), "dir", dir)
	return list
}

func sameDir(a, b string) bool {
	aa, errA := filepath.Abs(a)
	bb, errB := filepath.Abs(b)
	return errA == nil && errB == nil && aa == bb
}

// reportAnomalies logs one count per kind and one entry per anomaly.
func reportAnomalies(log *slog.Logger, as []record.Anomaly) {
	if len(as) == 0 {
		return
	}
	counts := record.CountByKind(as)
	for _, k := range record.Kinds {
		if counts[k] > 0 {
			log.Warn("anomalies found", "kind", string(k), "count", counts[k])
		}
	}
	for _, a := range as {
		log.Warn("anomaly", "kind", string(a.Kind), "file", a.File, "test_id", a.TestID, "value", a.Value)
	}
}

// IsInputError reports whether err describes unusable input rather than a
// configuration problem.
func IsInputError(err error) bool {
	return errors.Is(err, ingest.ErrNoInput) || errors.Is(err, ingest.ErrNotDir) || errors.Is(err, fs.ErrNotExist)
}
