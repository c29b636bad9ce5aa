package logbook

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestTailReturnsRecentLinesAndTotal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.log")
	book, err := New(path)
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	for i := 0; i < 5; i++ {
		book.Info("switch-%d", i)
	}
	lines, total := book.Tail(3)
	if total != 5 {
		t.Fatalf("total lines = %d, want 5", total)
	}
	if len(lines) != 3 {
		t.Fatalf("len(lines) = %d, want 3", len(lines))
	}
	for idx, want := range []string{"switch-2", "switch-3", "switch-4"} {
		if !strings.Contains(lines[idx], want) {
			t.Fatalf("line %d = %q, missing %s", idx, lines[idx], want)
		}
	}
}

func TestReopenLoadsExistingEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "session.log")
	book, err := New(path)
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	book.Warn("suspended at %d", 12)
	book.Error("audio start: %s", "no device")

	reopened, err := New(path)
	if err != nil {
		t.Fatalf("reopen logbook: %v", err)
	}
	lines, total := reopened.Tail(10)
	if total != 2 || len(lines) != 2 {
		t.Fatalf("expected 2 persisted lines, got %d (total %d)", len(lines), total)
	}
	if !strings.Contains(lines[0], "WARN") || !strings.Contains(lines[1], "ERROR") {
		t.Fatalf("unexpected levels: %q", lines)
	}
}

func TestRecentIsBounded(t *testing.T) {
	book, err := New(filepath.Join(t.TempDir(), "session.log"))
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	book.keep = 4
	for i := 0; i < 10; i++ {
		book.Info("tick %d", i)
	}
	lines, total := book.Tail(100)
	if total != 10 || len(lines) != 4 {
		t.Fatalf("expected 4 retained of 10, got %d of %d", len(lines), total)
	}
	if !strings.HasSuffix(lines[3], "tick 9") {
		t.Fatalf("last line = %q", lines[3])
	}
}

func TestNilLogbookIsSafe(t *testing.T) {
	var book *Logbook
	book.Info("ignored")
	if lines, total := book.Tail(3); lines != nil || total != 0 {
		t.Fatalf("expected empty tail from nil logbook")
	}
}
