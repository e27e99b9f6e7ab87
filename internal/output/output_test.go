package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/emotibit-data/biometric.report/internal/record"
	"github.com/emotibit-data/biometric.report/internal/timeutil"
)

func mustDecode(t *testing.T, line string) record.Record {
	t.Helper()
	rec, err := record.Decode(line)
	if err != nil {
		t.Fatalf("Decode(%q) failed: %v", line, err)
	}
	return rec
}

func TestCSVWriter(t *testing.T) {
	var buf bytes.Buffer
	clock := timeutil.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	w := NewCSVWriter(&buf, clock)

	if err := w.WriteRecord(mustDecode(t, "1024,5,3,EA,1,90,0.12,0.15,0.14")); err != nil {
		t.Fatalf("WriteRecord failed: %v", err)
	}
	if err := w.WriteRecord(mustDecode(t, "1040,6,1,HR,1,90,72.5")); err != nil {
		t.Fatalf("WriteRecord failed: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("failed to re-read CSV: %v", err)
	}

	want := [][]string{
		Header,
		{"1024", "5", "3", "EA", "1", "90", "[0.12,0.15,0.14]"},
		{"1040", "6", "1", "HR", "1", "90", "[72.5]"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("CSV output mismatch (-want +got):\n%s", diff)
	}
}

func TestCSVWriterPeriodicFlush(t *testing.T) {
	var buf bytes.Buffer
	clock := timeutil.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	w := NewCSVWriter(&buf, clock)

	if err := w.WriteRecord(mustDecode(t, "1024,5,1,EA,1,90,0.12")); err != nil {
		t.Fatalf("WriteRecord failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("buffered output flushed too early (%d bytes)", buf.Len())
	}

	clock.Advance(3 * time.Second)
	if err := w.WriteRecord(mustDecode(t, "1040,6,1,EA,1,90,0.13")); err != nil {
		t.Fatalf("WriteRecord failed: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("output not flushed after flush interval elapsed")
	}
}

func TestJSONLWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONLWriter(&buf)

	if err := w.WriteRecord(mustDecode(t, "1024,5,3,EA,1,90,0.12,0.15,0.14")); err != nil {
		t.Fatalf("WriteRecord failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}

	var got jsonlRow
	if err := json.Unmarshal([]byte(lines[0]), &got); err != nil {
		t.Fatalf("failed to unmarshal JSONL row: %v", err)
	}
	want := jsonlRow{
		TimestampMS:   1024,
		Packet:        5,
		NumDatapoints: 3,
		TypeTag:       "EA",
		Version:       1,
		Reliability:   90,
		Payload:       []float64{0.12, 0.15, 0.14},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("JSONL row mismatch (-want +got):\n%s", diff)
	}
}
