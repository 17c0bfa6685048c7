package query

import (
	"fmt"
	"sort"

	"github.com/mitchellh/hashstructure/v2"
)

// Fingerprint is a deterministic summary of the effective query
// configuration. It is the sole cache key: two states that would build
// the same query against the same source fingerprint identically.
type Fingerprint uint64

func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x", uint64(f))
}

// fingerprintInput is the canonical form that gets hashed. Filter value
// sets are sorted copies so insertion order never changes the hash, and
// an incomplete date range hashes as absent because the builder ignores a
// lone bound.
type fingerprintInput struct {
	Dir        string
	Delimiter  string
	Encoding   string
	Columns    []string
	Filters    map[string][]string
	DateStart  string
	DateEnd    string
	SampleOn   bool
	SampleSize int
	RowLimit   int
}

// ComputeFingerprint hashes the source and filter state. Sensitive to:
// source location, column order, filter value sets, date bounds, sampling
// and row limit. Insensitive to filter value ordering and map iteration
// order, so semantically equal states never invalidate the cache.
func ComputeFingerprint(src Source, state *FilterState) (Fingerprint, error) {
	in := fingerprintInput{
		Dir:       src.Dir,
		Delimiter: src.Delimiter,
		Encoding:  src.Encoding,
		Columns:   state.Columns,
		Filters:   canonicalFilters(state.Filters),
		RowLimit:  state.RowLimit,
	}
	if state.Dates.Complete() {
		in.DateStart = state.Dates.Start
		in.DateEnd = state.Dates.End
	}
	if state.Sample.Enabled {
		in.SampleOn = true
		in.SampleSize = state.Sample.Size
	}

	h, err := hashstructure.Hash(in, hashstructure.FormatV2, nil)
	if err != nil {
		return 0, fmt.Errorf("hash filter state: %w", err)
	}
	return Fingerprint(h), nil
}

// canonicalFilters copies the filter map with each value set sorted.
// Entries with no values are dropped; they are rejected by Validate
// before a build, and an empty set means the filter is not applied.
func canonicalFilters(filters map[string][]string) map[string][]string {
	if len(filters) == 0 {
		return nil
	}
	canon := make(map[string][]string, len(filters))
	for col, vals := range filters {
		if len(vals) == 0 {
			continue
		}
		sorted := make([]string, len(vals))
		copy(sorted, vals)
		sort.Strings(sorted)
		canon[col] = sorted
	}
	return canon
}
