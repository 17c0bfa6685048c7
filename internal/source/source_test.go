package source

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shardlens/shardlens/internal/query"
)

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestDateFromFilename(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"asg-2000-01-31.csv", "2000-01-31"},
		{"2021-12-01_sales.csv", "2021-12-01"},
		{"no-date-here.csv", ""},
		// First match wins when a name carries two tokens.
		{"backup-2020-01-01-of-2019-12-31.csv", "2020-01-01"},
		{"/some/dir/data-2022-06-15.csv", "2022-06-15"},
	}
	for _, tc := range cases {
		if got := DateFromFilename(tc.name); got != tc.want {
			t.Errorf("DateFromFilename(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestShardsSortedWithDates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "data-2021-01-02.csv", []byte("id\n1\n"))
	writeFile(t, dir, "data-2021-01-01.csv", []byte("id\n1\n"))
	writeFile(t, dir, "notes.txt", []byte("ignored"))

	shards, err := Shards(dir)
	if err != nil {
		t.Fatalf("Shards: %v", err)
	}
	if len(shards) != 2 {
		t.Fatalf("got %d shards, want 2", len(shards))
	}
	if shards[0].Date != "2021-01-01" || shards[1].Date != "2021-01-02" {
		t.Errorf("shards not sorted by path: %+v", shards)
	}
}

func TestShardsUnavailable(t *testing.T) {
	t.Run("missing dir", func(t *testing.T) {
		_, err := Shards(filepath.Join(t.TempDir(), "nope"))
		var ue *UnavailableError
		if !errors.As(err, &ue) {
			t.Fatalf("expected UnavailableError, got %T: %v", err, err)
		}
	})
	t.Run("empty dir", func(t *testing.T) {
		_, err := Shards(t.TempDir())
		var ue *UnavailableError
		if !errors.As(err, &ue) {
			t.Fatalf("expected UnavailableError, got %T: %v", err, err)
		}
	})
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "data-2021-01-01.csv",
		[]byte("id,region,amount\n1,EU,100\n2,US,200\n3,EU,300\n4,US,400\n5,EU,500\n6,US,600\n"))
	writeFile(t, dir, "data-2021-01-02.csv", []byte("id,region\n7,EU\n"))

	src := query.Source{Dir: dir, Delimiter: ",", Encoding: "utf-8"}
	schema, err := Discover(src, 5)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	wantCols := []string{"id", "region", "amount"}
	if diff := cmp.Diff(wantCols, schema.Columns); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
	// Preview comes from the first shard only, capped at 5 rows.
	if len(schema.Preview) != 5 {
		t.Fatalf("preview rows = %d, want 5", len(schema.Preview))
	}
	if schema.Preview[0][1] != "EU" {
		t.Errorf("unexpected first preview row: %v", schema.Preview[0])
	}
}

func TestDiscoverLatin1(t *testing.T) {
	dir := t.TempDir()
	// "café" with an ISO-8859-1 encoded é (0xE9).
	writeFile(t, dir, "data-2021-01-01.csv", []byte("id,name\n1,caf\xe9\n"))

	src := query.Source{Dir: dir, Delimiter: ",", Encoding: "latin-1"}
	schema, err := Discover(src, 5)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(schema.Preview) != 1 || schema.Preview[0][1] != "café" {
		t.Errorf("latin-1 preview not decoded: %v", schema.Preview)
	}
}

func TestDiscoverSemicolonDelimiter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "data-2021-01-01.csv", []byte("id;region\n1;EU\n"))

	src := query.Source{Dir: dir, Delimiter: ";", Encoding: "utf-8"}
	schema, err := Discover(src, 5)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(schema.Columns) != 2 || schema.Columns[1] != "region" {
		t.Errorf("columns = %v", schema.Columns)
	}
}

func TestResolveEncoding(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "plain.csv", []byte("id,name\n1,hello world this is plain ascii text\n"))

	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"utf-8", "utf-8", false},
		{"UTF8", "utf-8", false},
		{"latin1", "latin-1", false},
		{"ISO-8859-1", "latin-1", false},
		{"utf-16", "utf-16", false},
		{"ebcdic", "", true},
	}
	for _, tc := range cases {
		got, err := ResolveEncoding(tc.in, filepath.Join(dir, "plain.csv"))
		if tc.wantErr {
			if err == nil {
				t.Errorf("ResolveEncoding(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ResolveEncoding(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ResolveEncoding(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	// Sniffing plain ASCII resolves to utf-8.
	got, err := ResolveEncoding("auto", filepath.Join(dir, "plain.csv"))
	if err != nil {
		t.Fatalf("ResolveEncoding(auto): %v", err)
	}
	if got != "utf-8" {
		t.Errorf("sniffed encoding = %q, want utf-8", got)
	}
}
