package mapper

import (
	"strconv"

	"github.com/dkoosis/qatally/internal/config"
	"github.com/dkoosis/qatally/internal/pipeline"
	"github.com/dkoosis/qatally/pkg/pattern"
)

// Compare reports how the summary totals moved between two runs. It returns
// nil when either run has no summary or nothing changed.
func Compare(prev, cur *pipeline.Bundle, cfg *config.Config) *pattern.Comparison {
	if prev == nil || cur == nil {
		return nil
	}
	before, ok := prev.Summary.Totals()
	if !ok {
		return nil
	}
	after, ok := cur.Summary.Totals()
	if !ok {
		return nil
	}

	c := &pattern.Comparison{Label: "since last run"}
	count := func(label string, b, a int, higherIsBetter bool) {
		if a == b {
			return
		}
		c.Changes = append(c.Changes, pattern.ComparisonItem{
			Label:          label,
			Before:         strconv.Itoa(b),
			After:          strconv.Itoa(a),
			Change:         float64(a - b),
			HigherIsBetter: higherIsBetter,
		})
	}
	count(cfg.TotalItemsColumn, before.Total, after.Total, true)
	count(cfg.StatusOK, before.Counts[cfg.StatusOK], after.Counts[cfg.StatusOK], true)
	for _, s := range cfg.DefectStatuses() {
		count(s, before.Counts[s], after.Counts[s], false)
	}
	count(cfg.StatusQuestion, before.Counts[cfg.StatusQuestion], after.Counts[cfg.StatusQuestion], false)
	if after.Completion != before.Completion {
		c.Changes = append(c.Changes, pattern.ComparisonItem{
			Label:          cfg.ProgressColumn,
			Before:         formatPercent(before.Completion),
			After:          formatPercent(after.Completion),
			Change:         after.Completion - before.Completion,
			Unit:           "pt",
			HigherIsBetter: true,
		})
	}
	if len(c.Changes) == 0 {
		return nil
	}
	return c
}
