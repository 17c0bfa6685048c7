package query

import "context"

// CountRows returns the number of rows the current filter state matches,
// without materializing them. Row counting is advisory: a build error is
// real (invalid state), but an engine failure comes back wrapped as
// ProbeUnavailableError so the caller can degrade to "unknown".
func CountRows(ctx context.Context, ex Executor, src Source, state *FilterState) (int64, error) {
	q, err := Build(src, state, ModeCount)
	if err != nil {
		return 0, err
	}
	n, err := ex.Count(ctx, q)
	if err != nil {
		return 0, &ProbeUnavailableError{Err: err}
	}
	return n, nil
}

// DistinctValues returns up to limit distinct non-null values of one
// column, for offering filter choices. Advisory like CountRows.
func DistinctValues(ctx context.Context, ex Executor, src Source, column string, limit int) ([]string, error) {
	res, err := ex.Execute(ctx, BuildDistinct(src, column, limit), 0)
	if err != nil {
		return nil, &ProbeUnavailableError{Err: err}
	}
	values := make([]string, 0, res.RowCount())
	for _, row := range res.Rows {
		if len(row) > 0 {
			values = append(values, row[0])
		}
	}
	return values, nil
}
