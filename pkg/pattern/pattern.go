// Package pattern defines the semantic data types for qatally's report views.
// Patterns are pure data; renderers decide presentation.
package pattern

// PatternType identifies the kind of visualization pattern.
type PatternType string

const (
	PatternTypeSummary     PatternType = "summary"
	PatternTypeLeaderboard PatternType = "leaderboard"
	PatternTypeTable       PatternType = "table"
	PatternTypeSparkline   PatternType = "sparkline"
	PatternTypeComparison  PatternType = "comparison"
)

// Pattern is the interface all visualization patterns implement.
type Pattern interface {
	Type() PatternType
}
