package query

import (
	"fmt"
	"path/filepath"
	"slices"
	"time"
)

// Source describes a directory of homogeneous CSV shards. Each shard's
// filename carries a YYYY-MM-DD date token; all shards share a column
// schema when read with union-by-name semantics.
type Source struct {
	Dir       string
	Delimiter string // single character field delimiter, e.g. ","
	Encoding  string // "utf-8", "latin-1" or "utf-16"
}

// Glob returns the shard file pattern under the source directory.
func (s Source) Glob() string {
	return filepath.Join(s.Dir, "*.csv")
}

// DateRange bounds the derived shard date, inclusive on both ends.
// Bounds use the "2006-01-02" layout. A range with only one bound set is
// treated as no constraint; both bounds are required jointly.
type DateRange struct {
	Start string
	End   string
}

// Complete reports whether both bounds are set.
func (r DateRange) Complete() bool {
	return r.Start != "" && r.End != ""
}

// Sampling requests an engine-level random subset of the filtered rows.
type Sampling struct {
	Enabled bool
	Size    int
}

// FilterState holds the user's current declarative filter configuration.
// It is treated as immutable within one build call: mutations happen in
// the owning layer, which must recompute the fingerprint before the next
// cache check.
type FilterState struct {
	// Columns is the ordered projection, a non-empty subset of the
	// discovered schema. Order is preserved in the generated query.
	Columns []string

	// Filters maps a column name to the set of accepted literal values.
	// A column with no entry is unconstrained. Matching is case-sensitive
	// and values are compared exactly as entered, without trimming.
	Filters map[string][]string

	// Dates bounds the filename-derived shard date.
	Dates DateRange

	// Sample requests a bounded random subset before the row limit.
	Sample Sampling

	// RowLimit caps materialized rows. It is applied by the execution
	// gateway, never baked into the built query text.
	RowLimit int
}

// Clone returns a deep copy so the owning layer can mutate freely without
// aliasing a state that is mid-build.
func (s *FilterState) Clone() *FilterState {
	c := &FilterState{
		Columns:  slices.Clone(s.Columns),
		Dates:    s.Dates,
		Sample:   s.Sample,
		RowLimit: s.RowLimit,
	}
	if s.Filters != nil {
		c.Filters = make(map[string][]string, len(s.Filters))
		for col, vals := range s.Filters {
			c.Filters[col] = slices.Clone(vals)
		}
	}
	return c
}

// Validate rejects state that must not reach the builder: an empty
// projection, a column missing from the discovered schema, a filter entry
// with no values, a malformed date bound, or a non-positive sample size.
func (s *FilterState) Validate(schema []string) error {
	if len(s.Columns) == 0 {
		return &BuildError{Reason: "no columns selected"}
	}
	known := make(map[string]bool, len(schema))
	for _, col := range schema {
		known[col] = true
	}
	for _, col := range s.Columns {
		if !known[col] {
			return &SchemaMismatchError{Column: col}
		}
	}
	for col, vals := range s.Filters {
		if !known[col] {
			return &SchemaMismatchError{Column: col}
		}
		if len(vals) == 0 {
			return &BuildError{Reason: fmt.Sprintf("filter on %q has no values", col)}
		}
	}
	for _, bound := range []string{s.Dates.Start, s.Dates.End} {
		if bound == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", bound); err != nil {
			return &BuildError{Reason: fmt.Sprintf("invalid date bound %q", bound)}
		}
	}
	if s.Sample.Enabled && s.Sample.Size <= 0 {
		return &BuildError{Reason: "sampling enabled with non-positive size"}
	}
	if s.RowLimit < 0 {
		return &BuildError{Reason: "negative row limit"}
	}
	return nil
}
