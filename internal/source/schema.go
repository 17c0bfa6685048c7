package source

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"unicode/utf8"

	"github.com/shardlens/shardlens/internal/query"
)

// Schema is the discovered column layout plus a small preview sample from
// the representative shard.
type Schema struct {
	Columns []string
	Preview [][]string
}

// Discover reads the representative shard (the first shard in path
// order) just far enough to learn the column names and previewRows rows
// for display. It never scans the rest of the collection; union-by-name
// reconciliation is the engine's job at query time.
func Discover(src query.Source, previewRows int) (*Schema, error) {
	shards, err := Shards(src.Dir)
	if err != nil {
		return nil, err
	}
	rep := shards[0]

	f, err := os.Open(rep.Path)
	if err != nil {
		return nil, &UnavailableError{Dir: src.Dir, Reason: "cannot open representative shard", Err: err}
	}
	defer f.Close()

	dec, err := decoder(src.Encoding)
	if err != nil {
		return nil, &UnavailableError{Dir: src.Dir, Reason: "bad encoding", Err: err}
	}

	delim, _ := utf8.DecodeRuneInString(src.Delimiter)
	if delim == utf8.RuneError {
		return nil, &UnavailableError{Dir: src.Dir, Reason: "bad delimiter"}
	}

	r := csv.NewReader(dec.Reader(f))
	r.Comma = delim
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, &UnavailableError{Dir: src.Dir, Reason: "cannot parse representative shard", Err: err}
	}
	if len(header) == 0 {
		return nil, &UnavailableError{Dir: src.Dir, Reason: "representative shard has no header"}
	}

	schema := &Schema{Columns: header}
	for i := 0; i < previewRows; i++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// A malformed preview row is not fatal; the engine skips
			// malformed rows at scan time too.
			continue
		}
		schema.Preview = append(schema.Preview, row)
	}
	return schema, nil
}
