package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/shardlens/shardlens/internal/query"
)

// CSVFormatter writes a result as CSV with a header row.
type CSVFormatter struct {
	writer io.Writer
}

func NewCSVFormatter(w io.Writer) *CSVFormatter {
	return &CSVFormatter{writer: w}
}

func (c *CSVFormatter) SetOutput(w io.Writer) {
	c.writer = w
}

func (c *CSVFormatter) Format(res *query.Result) error {
	w := csv.NewWriter(c.writer)

	if err := w.Write(res.Columns); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	for _, row := range res.Rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush CSV writer: %w", err)
	}
	return nil
}
