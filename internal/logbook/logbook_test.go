package logbook

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestTailReturnsRecentLinesAndTotal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "moderation.log")
	book, err := New(path)
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	for i := 0; i < 5; i++ {
		book.Info("entry-%d", i)
	}
	lines, total := book.Tail(3)
	if total != 5 {
		t.Fatalf("total lines = %d, want 5", total)
	}
	if len(lines) != 3 {
		t.Fatalf("len(lines) = %d, want 3", len(lines))
	}
	for idx, want := range []string{"entry-2", "entry-3", "entry-4"} {
		if !strings.Contains(lines[idx], want) {
			t.Fatalf("line %d = %q, missing %s", idx, lines[idx], want)
		}
	}
}

func TestRecordWritesActionOnOneLine(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	book, err := New(filepath.Join(t.TempDir(), "logs", "moderation.log"), WithClock(func() time.Time { return fixed }))
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	book.Record(ActionApprove, "Alice", "Hi\nthere")
	lines, total := book.Tail(10)
	if total != 1 || len(lines) != 1 {
		t.Fatalf("expected a single entry, got %d (%v)", total, lines)
	}
	want := `2024-05-01T12:00:00Z INFO  APPROVE "Hi\nthere" by Alice`
	if lines[0] != want {
		t.Fatalf("line = %q, want %q", lines[0], want)
	}
}

func TestTailMissingFile(t *testing.T) {
	book, err := New(filepath.Join(t.TempDir(), "never.log"))
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	lines, total := book.Tail(5)
	if lines != nil || total != 0 {
		t.Fatalf("expected empty tail, got %v / %d", lines, total)
	}
	var nilBook *Logbook
	nilBook.Info("ignored")
	if got, _ := nilBook.Tail(1); got != nil {
		t.Fatalf("nil logbook should tail nothing")
	}
}

func TestLevelsAreRecorded(t *testing.T) {
	book, err := New(filepath.Join(t.TempDir(), "moderation.log"))
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	book.Info("healed %d", 1)
	book.Warn("not saved: %s", "disk full")
	book.Error("pending not rewritten")
	lines, _ := book.Tail(3)
	for idx, want := range []string{"INFO  healed 1", "WARN  not saved: disk full", "ERROR pending not rewritten"} {
		if !strings.Contains(lines[idx], want) {
			t.Fatalf("line %d = %q, missing %q", idx, lines[idx], want)
		}
	}
}
