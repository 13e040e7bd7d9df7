package pattern

// SummaryKind tells renderers what a summary describes.
type SummaryKind string

const (
	SummaryKindRun       SummaryKind = "run"
	SummaryKindAnomalies SummaryKind = "anomalies"
)

// Summary represents high-level metrics and counts.
type Summary struct {
	Label   string        `json:"label"`
	Kind    SummaryKind   `json:"kind"`
	Metrics []SummaryItem `json:"metrics"`
}

// SummaryItem is a single metric in a summary.
type SummaryItem struct {
	Label string `json:"label"` // e.g., "files", "completion"
	Value string `json:"value"` // formatted value
	Kind  string `json:"kind"`  // "success", "error", "warning", "info"; affects coloring
}

func (s *Summary) Type() PatternType { return PatternTypeSummary }
