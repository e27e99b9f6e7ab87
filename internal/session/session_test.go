package session

import (
	"testing"

	"github.com/emotibit-data/biometric.report/internal/record"
)

func rec(t *testing.T, timestamp int64, packet uint64) record.Record {
	t.Helper()
	return record.Record{
		Timestamp:      timestamp,
		PacketNumber:   packet,
		DataPointCount: 1,
		TypeTag:        "EA",
		Version:        1,
		Reliability:    90,
		Payload:        []float64{0.1},
	}
}

func TestTrackerSingleSession(t *testing.T) {
	tr := NewTracker()

	first := tr.Observe(rec(t, 100, 1))
	second := tr.Observe(rec(t, 110, 2))
	if first == "" {
		t.Fatal("Observe returned empty session ID")
	}
	if first != second {
		t.Errorf("consecutive records split sessions: %q vs %q", first, second)
	}

	s, ok := tr.Current()
	if !ok {
		t.Fatal("Current() reported no open session")
	}
	if s.Records != 2 || s.FirstPacket != 1 || s.LastPacket != 2 {
		t.Errorf("session = %+v", s)
	}
	if s.DroppedPackets != 0 {
		t.Errorf("DroppedPackets = %d, want 0", s.DroppedPackets)
	}
}

func TestTrackerCountsDroppedPackets(t *testing.T) {
	tr := NewTracker()
	tr.Observe(rec(t, 100, 1))
	tr.Observe(rec(t, 110, 2))
	tr.Observe(rec(t, 150, 6)) // packets 3,4,5 lost

	s, _ := tr.Current()
	if s.DroppedPackets != 3 {
		t.Errorf("DroppedPackets = %d, want 3", s.DroppedPackets)
	}
	if s.Records != 3 {
		t.Errorf("Records = %d, want 3", s.Records)
	}
}

func TestTrackerTimestampResetStartsNewSession(t *testing.T) {
	tr := NewTracker()

	var closed []Session
	tr.OnClose = func(s Session) { closed = append(closed, s) }

	a := tr.Observe(rec(t, 5000, 40))
	tr.Observe(rec(t, 5100, 41))
	b := tr.Observe(rec(t, 90, 1)) // device rebooted

	if a == b {
		t.Error("reboot did not start a new session")
	}
	if len(closed) != 1 {
		t.Fatalf("OnClose called %d times, want 1", len(closed))
	}
	if closed[0].Records != 2 || closed[0].LastPacket != 41 {
		t.Errorf("closed session = %+v", closed[0])
	}

	s, _ := tr.Current()
	if s.FirstTimestamp != 90 || s.FirstPacket != 1 || s.Records != 1 {
		t.Errorf("new session = %+v", s)
	}
}

func TestTrackerPacketRegressionStartsNewSession(t *testing.T) {
	tr := NewTracker()
	a := tr.Observe(rec(t, 100, 10))
	b := tr.Observe(rec(t, 200, 10)) // repeat packet number, timestamp advanced
	if a == b {
		t.Error("packet number regression did not start a new session")
	}
}

func TestTrackerFlush(t *testing.T) {
	tr := NewTracker()

	var closed []Session
	tr.OnClose = func(s Session) { closed = append(closed, s) }

	tr.Flush() // nothing open, no callback
	if len(closed) != 0 {
		t.Fatalf("Flush on empty tracker fired OnClose")
	}

	tr.Observe(rec(t, 100, 1))
	tr.Flush()
	if len(closed) != 1 {
		t.Fatalf("OnClose called %d times after Flush, want 1", len(closed))
	}
	if _, ok := tr.Current(); ok {
		t.Error("session still open after Flush")
	}
}
