// Package metrics publishes run results as Prometheus gauges in the
// node_exporter textfile format.
package metrics

import (
	"fmt"

	"github.com/dkoosis/qatally/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "qatally"

// Gauges is the set of progress gauges for one run. Each run uses a fresh
// registry so stale label values never survive into the next file.
type Gauges struct {
	reg *prometheus.Registry

	statusItems  *prometheus.GaugeVec
	completion   *prometheus.GaugeVec
	defectRefs   *prometheus.GaugeVec
	questionRefs *prometheus.GaugeVec
	anomalies    *prometheus.GaugeVec
	skipped      prometheus.Gauge
	records      prometheus.Gauge
	lastRun      prometheus.Gauge
}

// New registers the gauges on a private registry.
func New() *Gauges {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Gauges{
		reg: reg,
		statusItems: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "status_items",
			Help:      "Test items per report file and status code",
		}, []string{"file", "status"}),
		completion: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "completion_percent",
			Help:      "OK items over executable items, in percent",
		}, []string{"file"}),
		defectRefs: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "defect_references",
			Help:      "Failed or blocked rows referencing each defect",
		}, []string{"ref"}),
		questionRefs: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "question_references",
			Help:      "Question rows referencing each question",
		}, []string{"ref"}),
		anomalies: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "anomalies",
			Help:      "Row anomalies found in the last run by kind",
		}, []string{"kind"}),
		skipped: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "files_skipped",
			Help:      "Files left out of the last run",
		}),
		records: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records",
			Help:      "Rows in the merged record set",
		}),
		lastRun: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run started",
		}),
	}
}

// Observe sets every gauge from a finished run.
func (g *Gauges) Observe(b *pipeline.Bundle, rep *pipeline.Report) {
	for _, row := range b.Summary.Rows {
		file := row.Label
		if row.IsTotal {
			file = "total"
		}
		for status, n := range row.Counts {
			g.statusItems.WithLabelValues(file, status).Set(float64(n))
		}
		g.completion.WithLabelValues(file).Set(row.Completion)
	}
	for _, r := range b.Defects.Rows {
		g.defectRefs.WithLabelValues(r.Ref).Add(float64(r.Count))
	}
	for _, r := range b.Questions.Rows {
		g.questionRefs.WithLabelValues(r.Ref).Add(float64(r.Count))
	}
	for _, a := range rep.Anomalies {
		g.anomalies.WithLabelValues(string(a.Kind)).Inc()
	}
	g.skipped.Set(float64(len(rep.Skipped)))
	g.records.Set(float64(b.Merged.Len()))
	g.lastRun.Set(float64(rep.StartedAt.Unix()))
}

// Gather exposes the registry, mainly for tests.
func (g *Gauges) Gather() prometheus.Gatherer {
	return g.reg
}

// WriteFile writes the gauges to path atomically.
func (g *Gauges) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, g.reg); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
