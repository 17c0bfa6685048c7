package query

import "fmt"

// SchemaMismatchError reports a requested column that is not part of the
// discovered shard schema. It is raised before any query text is built so
// the analytical engine never sees the bad column reference.
type SchemaMismatchError struct {
	Column string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("column %q is not part of the discovered schema", e.Column)
}

// BuildError reports filter state that cannot be turned into query text,
// e.g. an empty projection or a value filter with no accepted values.
type BuildError struct {
	Reason string
}

func (e *BuildError) Error() string {
	return "build query: " + e.Reason
}

// EngineError reports a failure from the analytical engine at execution
// time. The engine's message is preserved verbatim for display; the query
// text that failed is kept for audit.
type EngineError struct {
	Query string
	Err   error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("engine: %v", e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// ProbeUnavailableError marks an advisory probe (row count, distinct
// values) that failed. Callers degrade to "unknown" rather than treating
// this as fatal.
type ProbeUnavailableError struct {
	Err error
}

func (e *ProbeUnavailableError) Error() string {
	return fmt.Sprintf("probe unavailable: %v", e.Err)
}

func (e *ProbeUnavailableError) Unwrap() error { return e.Err }
