// Package export converts a cached tabular result into a downloadable
// byte stream.
//
// Supported formats:
//   - CSV: header row plus one record per row
//   - JSON Lines: one JSON object per row, keyed by column name
package export

import (
	"fmt"
	"io"

	"github.com/shardlens/shardlens/internal/query"
)

// Formatter writes a tabular result in one concrete format.
type Formatter interface {
	// Format writes the result to the formatter's output.
	Format(res *query.Result) error

	// SetOutput changes the output writer.
	SetOutput(w io.Writer)
}

// New returns the formatter for a format name ("csv" or "jsonl").
func New(format string, w io.Writer) (Formatter, error) {
	switch format {
	case "csv":
		return NewCSVFormatter(w), nil
	case "jsonl", "json":
		return NewJSONFormatter(w), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q (supported: csv, jsonl)", format)
	}
}
