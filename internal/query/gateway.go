package query

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"
	"strconv"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"
)

// Executor sends built query text to the analytical engine. The gateway
// never retries and never returns partial results: either a complete
// result set bounded by the limit, or an error.
type Executor interface {
	// Execute runs a data query. When rowLimit is positive it is appended
	// to the query text at execution time, so the same built query can
	// serve both a preview run and a larger export run.
	Execute(ctx context.Context, queryText string, rowLimit int) (*Result, error)

	// Count runs a count-shaped query and returns its single value.
	Count(ctx context.Context, queryText string) (int64, error)

	Close() error
}

// Gateway is the DuckDB-backed Executor. It holds an in-memory database
// pinned to a single connection: session settings don't propagate across
// pooled connections, and a single connection also serializes access so
// the engine is never reentered concurrently.
type Gateway struct {
	db *sql.DB
}

// OpenGateway opens an in-memory DuckDB instance. The engine scans shards
// with as many threads as the Go runtime is allowed to use.
func OpenGateway() (*Gateway, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	db.SetMaxOpenConns(1)

	threads := runtime.GOMAXPROCS(0)
	if _, err := db.Exec("SET threads = " + strconv.Itoa(threads)); err != nil {
		db.Close()
		return nil, fmt.Errorf("set threads: %w", err)
	}
	return &Gateway{db: db}, nil
}

// Close releases the engine connection.
func (g *Gateway) Close() error {
	return g.db.Close()
}

// Execute runs queryText, appending a LIMIT clause when rowLimit > 0, and
// materializes the full bounded result set.
func (g *Gateway) Execute(ctx context.Context, queryText string, rowLimit int) (*Result, error) {
	q := queryText
	if rowLimit > 0 {
		q = fmt.Sprintf("%s\nLIMIT %d", q, rowLimit)
	}

	rows, err := g.db.QueryContext(ctx, q)
	if err != nil {
		return nil, &EngineError{Query: q, Err: err}
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, &EngineError{Query: q, Err: err}
	}

	result := &Result{Columns: cols}
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &EngineError{Query: q, Err: err}
		}
		row := make([]string, len(cols))
		for i, v := range values {
			row[i] = formatValue(v)
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &EngineError{Query: q, Err: err}
	}
	return result, nil
}

// Count runs a count-shaped query and scans its single row.
func (g *Gateway) Count(ctx context.Context, queryText string) (int64, error) {
	var n int64
	if err := g.db.QueryRowContext(ctx, queryText).Scan(&n); err != nil {
		return 0, &EngineError{Query: queryText, Err: err}
	}
	return n, nil
}

// formatValue renders an engine value for display. CSV columns come back
// with inferred types, so numbers, booleans and timestamps all need a
// stable textual form.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case bool:
		return strconv.FormatBool(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32)
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format("2006-01-02")
		}
		return val.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(val)
	}
}
