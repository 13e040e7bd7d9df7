package pattern

// Table is a grid of pre-formatted cells, such as the per-file progress
// summary or the per-day status breakdown.
type Table struct {
	Label   string     `json:"label"`
	Columns []string   `json:"columns"`
	Rows    []TableRow `json:"rows"`
}

// TableRow is one line of a Table. Total rows are emphasized.
type TableRow struct {
	Cells []string `json:"cells"`
	Total bool     `json:"total,omitempty"`
}

func (t *Table) Type() PatternType { return PatternTypeTable }
