// Package source enumerates shard files and discovers their shared
// schema. A source is a directory of CSV files, one per date, where the
// date is embedded in the filename as a YYYY-MM-DD token.
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
)

// datePattern matches the date token embedded in shard filenames.
var datePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// Shard is one file in the collection.
type Shard struct {
	Path string
	// Date is the filename-embedded date token, or "" when the filename
	// carries none. When a filename carries several tokens the first wins,
	// matching what the query engine's regexp extraction does.
	Date string
}

// UnavailableError reports an unusable source location: a missing or
// unreadable directory, no matching shards, or a representative shard
// that cannot be parsed.
type UnavailableError struct {
	Dir    string
	Reason string
	Err    error
}

func (e *UnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("source %s unavailable: %s: %v", e.Dir, e.Reason, e.Err)
	}
	return fmt.Sprintf("source %s unavailable: %s", e.Dir, e.Reason)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// DateFromFilename extracts the first date token from a filename, or ""
// when there is none.
func DateFromFilename(name string) string {
	return datePattern.FindString(filepath.Base(name))
}

// Shards lists the CSV shards under dir, sorted by path. It fails with
// UnavailableError when the directory is missing or holds no shards.
func Shards(dir string) ([]Shard, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, &UnavailableError{Dir: dir, Reason: "directory not accessible", Err: err}
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, &UnavailableError{Dir: dir, Reason: "bad shard pattern", Err: err}
	}
	if len(paths) == 0 {
		return nil, &UnavailableError{Dir: dir, Reason: "no CSV shards found"}
	}
	sort.Strings(paths)

	shards := make([]Shard, len(paths))
	for i, p := range paths {
		shards[i] = Shard{Path: p, Date: DateFromFilename(p)}
	}
	return shards, nil
}
