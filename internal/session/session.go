// Package session owns the mutable pieces of an analysis: one filter
// state, one result cache and one engine connection. Everything else in
// the core is a pure function over these.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shardlens/shardlens/internal/query"
)

// Session is the single explicit state object the UI layer (CLI commands,
// HTTP handlers) calls into. Execution is never triggered by staleness
// detection alone: callers adjust state as often as they like and pay for
// a scan only when they call Refresh.
type Session struct {
	mu     sync.Mutex
	src    query.Source
	schema []string
	state  *query.FilterState
	cache  *query.ResultCache
	exec   query.Executor
	logger *slog.Logger
}

// New creates a session over a discovered source. The initial state
// projects all discovered columns with no filters.
func New(src query.Source, schema []string, defaultLimit int, exec query.Executor, logger *slog.Logger) *Session {
	cols := make([]string, len(schema))
	copy(cols, schema)
	return &Session{
		src:    src,
		schema: schema,
		state: &query.FilterState{
			Columns:  cols,
			Filters:  map[string][]string{},
			RowLimit: defaultLimit,
		},
		cache:  query.NewResultCache(),
		exec:   exec,
		logger: logger,
	}
}

// Source returns the source the session queries.
func (s *Session) Source() query.Source {
	return s.src
}

// Schema returns the discovered column names.
func (s *Session) Schema() []string {
	return s.schema
}

// State returns a copy of the current filter state. Mutate the copy and
// hand it back via SetState; the session never exposes its own instance.
func (s *Session) State() *query.FilterState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// SetState replaces the filter state after validating it against the
// discovered schema. It does not execute anything and does not touch the
// cache: the old result stays visible (stale) until the next Refresh.
func (s *Session) SetState(state *query.FilterState) error {
	if err := state.Validate(s.schema); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state.Clone()
	return nil
}

// Fingerprint computes the fingerprint of the current configuration.
func (s *Session) Fingerprint() (query.Fingerprint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return query.ComputeFingerprint(s.src, s.state)
}

// Stale reports whether the cached result (if any) was produced by a
// different configuration than current. An empty cache is always stale.
func (s *Session) Stale() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fp, err := query.ComputeFingerprint(s.src, s.state)
	if err != nil {
		return false, err
	}
	return s.cache.IsStale(fp), nil
}

// Cached returns the current cache entry, if any.
func (s *Session) Cached() (query.CacheEntry, bool) {
	return s.cache.Get()
}

// Refresh is the explicit execution trigger: it builds the query for the
// current state, runs it through the gateway with the state's row limit
// and replaces the cache entry. On engine failure the previous entry is
// left untouched; stale-but-valid beats empty.
func (s *Session) Refresh(ctx context.Context) (query.CacheEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.state.Validate(s.schema); err != nil {
		return query.CacheEntry{}, err
	}
	fp, err := query.ComputeFingerprint(s.src, s.state)
	if err != nil {
		return query.CacheEntry{}, err
	}
	text, err := query.Build(s.src, s.state, query.ModeData)
	if err != nil {
		return query.CacheEntry{}, err
	}

	start := time.Now()
	result, err := s.exec.Execute(ctx, text, s.state.RowLimit)
	if err != nil {
		s.logger.Error("query execution failed", "fingerprint", fp, "error", err)
		return query.CacheEntry{}, err
	}
	s.logger.Debug("query executed",
		"fingerprint", fp,
		"rows", result.RowCount(),
		"elapsed", time.Since(start))

	s.cache.Put(fp, text, result)
	return query.CacheEntry{Fingerprint: fp, Query: text, Result: result}, nil
}

// Count runs the advisory row-count probe for the current state.
func (s *Session) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	state := s.state.Clone()
	s.mu.Unlock()
	return query.CountRows(ctx, s.exec, s.src, state)
}

// DistinctValues runs the advisory distinct-values probe for one column.
func (s *Session) DistinctValues(ctx context.Context, column string, limit int) ([]string, error) {
	known := false
	for _, c := range s.schema {
		if c == column {
			known = true
			break
		}
	}
	if !known {
		return nil, &query.SchemaMismatchError{Column: column}
	}
	return query.DistinctValues(ctx, s.exec, s.src, column, limit)
}

// ApplyFilters swaps in a saved filter configuration (value filters and
// date range), keeping the current projection, sampling and row limit.
func (s *Session) ApplyFilters(filters map[string][]string, dates query.DateRange) error {
	s.mu.Lock()
	next := s.state.Clone()
	s.mu.Unlock()

	next.Filters = filters
	if next.Filters == nil {
		next.Filters = map[string][]string{}
	}
	next.Dates = dates
	return s.SetState(next)
}

// Clear resets value filters and the date range and invalidates the
// cache. Projection, sampling and row limit survive a clear.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Filters = map[string][]string{}
	s.state.Dates = query.DateRange{}
	s.cache.Invalidate()
}

// Export re-executes the cached query text with an export-specific row
// limit. It fails when nothing has been executed yet: export always hands
// over what the user last saw, re-bounded.
func (s *Session) Export(ctx context.Context, rowLimit int) (*query.Result, error) {
	entry, ok := s.cache.Get()
	if !ok {
		return nil, fmt.Errorf("nothing to export: no query has been executed")
	}
	return s.exec.Execute(ctx, entry.Query, rowLimit)
}
