package query

// Result is a materialized tabular result: ordered columns and rows of
// display-ready string values. Nulls render as empty strings.
type Result struct {
	Columns []string
	Rows    [][]string
}

// RowCount returns the number of materialized rows.
func (r *Result) RowCount() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// Empty reports whether the result has no rows.
func (r *Result) Empty() bool {
	return r.RowCount() == 0
}
