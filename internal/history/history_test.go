package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testJournal(t *testing.T) *Journal {
	t.Helper()
	return NewJournal(filepath.Join(t.TempDir(), "history.jsonl"), zerolog.Nop())
}

func record(ts time.Time, id string) CycleRecord {
	return CycleRecord{Time: ts, CycleID: id, Outcome: "completed", Pages: 1, Fetched: 3}
}

func TestAppendAndReadRecent(t *testing.T) {
	j := testJournal(t)

	base := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if err := j.Append(record(base.Add(time.Duration(i)*time.Minute), "c")); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	records, err := j.ReadRecent(3)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if !records[0].Time.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("expected chronological tail, got %v", records[0].Time)
	}
}

func TestReadBetweenBounds(t *testing.T) {
	j := testJournal(t)

	base := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		if err := j.Append(record(base.Add(time.Duration(i)*time.Hour), "c")); err != nil {
			t.Fatal(err)
		}
	}

	records, err := j.ReadBetween(base.Add(time.Hour), base.Add(3*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("expected half-open window [from,to), got %d records", len(records))
	}
}

func TestReadMissingJournal(t *testing.T) {
	j := testJournal(t)

	records, err := j.ReadRecent(10)
	if err != nil {
		t.Fatalf("missing journal should read empty: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

func TestReadSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")
	content := `{"time":"2026-08-31T10:00:00Z","cycle_id":"a","outcome":"completed"}
not json at all
{"time":"2026-08-31T10:15:00Z","cycle_id":"b","outcome":"completed"}
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	j := NewJournal(path, zerolog.Nop())
	records, err := j.ReadRecent(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("malformed line should be skipped, got %d records", len(records))
	}
}
