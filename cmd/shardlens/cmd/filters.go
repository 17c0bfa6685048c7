package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shardlens/shardlens/internal/preset"
	"github.com/shardlens/shardlens/internal/query"
	"github.com/shardlens/shardlens/internal/session"
)

// filterFlags are the filter-state flags shared by query, count, export
// and preset save.
type filterFlags struct {
	columns    []string
	filters    []string
	start      string
	end        string
	sampleSize int
	limit      int
	presetName string
}

func (f *filterFlags) register(cmd *cobra.Command, withLimit bool) {
	cmd.Flags().StringSliceVarP(&f.columns, "column", "c", nil, "columns to project (default: all discovered columns)")
	cmd.Flags().StringArrayVarP(&f.filters, "filter", "f", nil, "value filter, col=v1,v2 (repeatable)")
	cmd.Flags().StringVar(&f.start, "start", "", "start of shard date range (YYYY-MM-DD, requires --end)")
	cmd.Flags().StringVar(&f.end, "end", "", "end of shard date range (YYYY-MM-DD, requires --start)")
	cmd.Flags().StringVar(&f.presetName, "preset", "", "apply a saved filter preset before other flags")
	if withLimit {
		cmd.Flags().IntVar(&f.sampleSize, "sample", 0, "random sample of N rows, drawn before the row limit")
		cmd.Flags().IntVar(&f.limit, "limit", 0, "row limit (default: query.default_limit from config)")
	}
}

// parseValueFilters turns repeated col=v1,v2 flags into a filter map.
func parseValueFilters(raw []string) (map[string][]string, error) {
	filters := map[string][]string{}
	for _, entry := range raw {
		col, vals, ok := strings.Cut(entry, "=")
		if !ok || col == "" {
			return nil, fmt.Errorf("bad --filter %q: expected col=v1,v2", entry)
		}
		values := strings.Split(vals, ",")
		if len(values) == 1 && values[0] == "" {
			return nil, fmt.Errorf("bad --filter %q: no values", entry)
		}
		filters[col] = append(filters[col], values...)
	}
	return filters, nil
}

// apply folds preset and flags into the session's filter state. Flags win
// over preset values; unset flags leave the session's defaults alone.
func (f *filterFlags) apply(sess *session.Session, store *preset.Store) error {
	state := sess.State()

	if f.presetName != "" {
		presets, err := store.Load()
		if err != nil {
			return err
		}
		p, ok := presets[f.presetName]
		if !ok {
			return fmt.Errorf("preset %q not found", f.presetName)
		}
		if p.Filters != nil {
			state.Filters = p.Filters
		}
		state.Dates = query.DateRange{Start: p.DateStart, End: p.DateEnd}
	}

	if len(f.columns) > 0 {
		state.Columns = f.columns
	}
	if len(f.filters) > 0 {
		filters, err := parseValueFilters(f.filters)
		if err != nil {
			return err
		}
		for col, vals := range filters {
			state.Filters[col] = vals
		}
	}
	if f.start != "" || f.end != "" {
		state.Dates = query.DateRange{Start: f.start, End: f.end}
	}
	if f.sampleSize > 0 {
		state.Sample = query.Sampling{Enabled: true, Size: f.sampleSize}
	}
	if f.limit > 0 {
		state.RowLimit = f.limit
	}

	return sess.SetState(state)
}
