package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExportCommandBoundsFileIndependently(t *testing.T) {
	dir := t.TempDir()
	shard := "id,region\n1,EU\n2,EU\n3,EU\n4,EU\n"
	if err := os.WriteFile(filepath.Join(dir, "data-2021-01-01.csv"), []byte(shard), 0o644); err != nil {
		t.Fatalf("write shard: %v", err)
	}
	out := filepath.Join(t.TempDir(), "out.csv")

	rootCmd.SetArgs([]string{
		"export",
		"--source", dir,
		"--home", t.TempDir(),
		"--output", out,
		"--format", "csv",
		"--limit", "2",
	})
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("export command: %v", err)
	}

	raw, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read export file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header plus 2 rows:\n%s", len(lines), raw)
	}
	if lines[0] != "shard_date,id,region" {
		t.Errorf("header = %q", lines[0])
	}
}
