package query

import (
	"fmt"
	"sort"
	"strings"
)

// Mode selects the shape of the built query.
type Mode int

const (
	// ModeData projects the derived shard date plus the selected columns.
	ModeData Mode = iota
	// ModeCount projects only a row count and ignores the column selection.
	ModeCount
)

// DateColumn is the name of the virtual attribute derived from each
// shard's filename. It is not a stored column but can be projected and
// filtered like one.
const DateColumn = "shard_date"

// dateTokenPattern matches the date embedded in shard filenames. The
// first match wins when a filename contains more than one token; a shard
// with no token yields an empty derived date, which any BETWEEN clause
// excludes.
const dateTokenPattern = `(\d{4}-\d{2}-\d{2})`

// dateExpr extracts the shard date from the filename pseudo-column.
func dateExpr() string {
	return fmt.Sprintf("regexp_extract(filename, '%s', 1)", dateTokenPattern)
}

// escapeLiteral doubles embedded single quotes so a user-chosen value
// cannot break out of its quoted literal. This is the only injection
// defense in a string-built query, so every literal goes through here.
func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// quoteIdent quotes a column identifier, doubling embedded double quotes.
// Identifiers are also validated against the discovered schema before a
// build, so this is belt and braces.
func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// sourceExpr renders the multi-file CSV scan: explicit delimiter and
// encoding, schema union by column name, the originating filename exposed
// as a pseudo-column, and malformed rows skipped rather than aborting.
func sourceExpr(src Source) string {
	return fmt.Sprintf(
		"read_csv('%s', delim = '%s', header = true, union_by_name = true, filename = true, ignore_errors = true, encoding = '%s')",
		escapeLiteral(src.Glob()), escapeLiteral(src.Delimiter), escapeLiteral(src.Encoding))
}

// Build maps (source, filter state) to query text. The output is
// deterministic: equal inputs produce byte-identical text, which keeps
// fingerprint-based caching meaningful when the cached query is shown for
// audit. The row limit is never part of the built text; the execution
// gateway appends it.
//
// Validate the state against the discovered schema before calling Build;
// Build only re-checks conditions it cannot produce valid text without.
func Build(src Source, state *FilterState, mode Mode) (string, error) {
	var projection string
	switch mode {
	case ModeData:
		if len(state.Columns) == 0 {
			return "", &BuildError{Reason: "no columns selected"}
		}
		parts := make([]string, 0, len(state.Columns)+1)
		parts = append(parts, fmt.Sprintf("%s AS %s", dateExpr(), DateColumn))
		for _, col := range state.Columns {
			parts = append(parts, quoteIdent(col))
		}
		projection = strings.Join(parts, ", ")
	case ModeCount:
		projection = "COUNT(*)"
	default:
		return "", &BuildError{Reason: fmt.Sprintf("unsupported mode %d", mode)}
	}

	clauses, err := whereClauses(state)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s\nFROM %s", projection, sourceExpr(src))
	if len(clauses) > 0 {
		fmt.Fprintf(&b, "\nWHERE %s", strings.Join(clauses, "\n  AND "))
	}
	text := b.String()
	if mode == ModeData && state.Sample.Enabled {
		if state.Sample.Size <= 0 {
			return "", &BuildError{Reason: "sampling enabled with non-positive size"}
		}
		// The sample wraps the filtered query as a subquery. Attached to
		// the outer SELECT directly, the engine pushes the sample down to
		// the scan and draws it before the WHERE clause runs, so a
		// selective filter would shrink the sample below Size. Wrapped,
		// reservoir sampling yields exactly Size rows from the filtered
		// set, before any limit.
		text = fmt.Sprintf("SELECT * FROM (\n%s\n) USING SAMPLE reservoir(%d ROWS)", text, state.Sample.Size)
	}
	return text, nil
}

// whereClauses renders the filter conjunction: the date-range clause when
// both bounds are set, then one IN clause per value filter in column
// order. Values within a clause are sorted so equal filter sets render
// identically regardless of insertion order.
func whereClauses(state *FilterState) ([]string, error) {
	var clauses []string

	if state.Dates.Complete() {
		clauses = append(clauses, fmt.Sprintf("%s BETWEEN '%s' AND '%s'",
			dateExpr(), escapeLiteral(state.Dates.Start), escapeLiteral(state.Dates.End)))
	}

	cols := make([]string, 0, len(state.Filters))
	for col := range state.Filters {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	for _, col := range cols {
		vals := state.Filters[col]
		if len(vals) == 0 {
			return nil, &BuildError{Reason: fmt.Sprintf("filter on %q has no values", col)}
		}
		sorted := make([]string, len(vals))
		copy(sorted, vals)
		sort.Strings(sorted)
		quoted := make([]string, len(sorted))
		for i, v := range sorted {
			quoted[i] = "'" + escapeLiteral(v) + "'"
		}
		clauses = append(clauses, fmt.Sprintf("%s IN (%s)", quoteIdent(col), strings.Join(quoted, ", ")))
	}

	return clauses, nil
}

// BuildDistinct returns a probe query for the distinct non-null values of
// one column, capped at limit. Used to offer filter value choices without
// materializing the whole column.
func BuildDistinct(src Source, column string, limit int) string {
	return fmt.Sprintf("SELECT DISTINCT %s\nFROM %s\nWHERE %s IS NOT NULL\nORDER BY %s\nLIMIT %d",
		quoteIdent(column), sourceExpr(src), quoteIdent(column), quoteIdent(column), limit)
}
