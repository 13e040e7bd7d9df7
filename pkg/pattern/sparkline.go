package pattern

// Sparkline represents a word-sized trend graphic using Unicode blocks.
type Sparkline struct {
	Label  string    `json:"label"`
	Values []float64 `json:"values"`
	Min    float64   `json:"min,omitempty"` // 0 = auto-detect
	Max    float64   `json:"max,omitempty"` // 0 = auto-detect
	Unit   string    `json:"unit,omitempty"`
	From   string    `json:"from,omitempty"` // first x label, e.g. a date
	To     string    `json:"to,omitempty"`   // last x label
}

func (s *Sparkline) Type() PatternType { return PatternTypeSparkline }
