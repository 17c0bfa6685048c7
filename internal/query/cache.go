package query

import "sync"

// CacheEntry is the single cached result set: the fingerprint that
// produced it, the query text that was executed (kept for display and
// audit) and the tabular result.
type CacheEntry struct {
	Fingerprint Fingerprint
	Query       string
	Result      *Result
}

// ResultCache is a single-slot store for the last executed result.
// Staleness detection never triggers execution: the cache only reports
// whether the stored entry matches the current fingerprint, and the
// owning layer decides when to pay for a re-scan.
type ResultCache struct {
	mu    sync.Mutex
	entry *CacheEntry
}

func NewResultCache() *ResultCache {
	return &ResultCache{}
}

// Get returns the current entry, if any.
func (c *ResultCache) Get() (CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entry == nil {
		return CacheEntry{}, false
	}
	return *c.entry, true
}

// Put replaces the entry wholesale. The previous entry is discarded in
// full; there is no merging or partial update.
func (c *ResultCache) Put(fp Fingerprint, queryText string, result *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = &CacheEntry{Fingerprint: fp, Query: queryText, Result: result}
}

// Invalidate clears the cache. Used on an explicit filter reset.
func (c *ResultCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = nil
}

// IsStale reports whether the cache is empty or was produced by a
// different configuration than current.
func (c *ResultCache) IsStale(current Fingerprint) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entry == nil || c.entry.Fingerprint != current
}
