package pattern

// Comparison represents metric changes between two consecutive runs.
type Comparison struct {
	Label   string           `json:"label"`
	Changes []ComparisonItem `json:"changes"`
}

// ComparisonItem is a single before/after delta.
type ComparisonItem struct {
	Label          string  `json:"label"`
	Before         string  `json:"before"`
	After          string  `json:"after"`
	Change         float64 `json:"change"`
	Unit           string  `json:"unit,omitempty"`
	HigherIsBetter bool    `json:"higher_is_better"` // flips the arrow coloring
}

func (c *Comparison) Type() PatternType { return PatternTypeComparison }
