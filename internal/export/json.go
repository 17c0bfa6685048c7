package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/shardlens/shardlens/internal/query"
)

// JSONFormatter writes a result as JSON Lines: one object per row, keyed
// by column name.
type JSONFormatter struct {
	writer io.Writer
}

func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{writer: w}
}

func (j *JSONFormatter) SetOutput(w io.Writer) {
	j.writer = w
}

func (j *JSONFormatter) Format(res *query.Result) error {
	enc := json.NewEncoder(j.writer)
	for _, row := range res.Rows {
		obj := make(map[string]string, len(res.Columns))
		for i, col := range res.Columns {
			if i < len(row) {
				obj[col] = row[i]
			}
		}
		if err := enc.Encode(obj); err != nil {
			return fmt.Errorf("encode JSON row: %w", err)
		}
	}
	return nil
}
