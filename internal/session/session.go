// Package session groups decoded records into device sessions. The raw
// timestamp is milliseconds since boot and the packet number is strictly
// increasing per session, so a regression in either marks a reboot and
// therefore a session boundary. Packet-number gaps within a session
// count dropped packets.
package session

import (
	"github.com/google/uuid"

	"github.com/emotibit-data/biometric.report/internal/record"
)

// Session is one continuous device run.
type Session struct {
	ID             string `json:"session_id"`
	FirstTimestamp int64  `json:"first_timestamp_ms"`
	LastTimestamp  int64  `json:"last_timestamp_ms"`
	FirstPacket    uint64 `json:"first_packet"`
	LastPacket     uint64 `json:"last_packet"`
	Records        int    `json:"records"`
	DroppedPackets uint64 `json:"dropped_packets"`
}

// Tracker assigns records to sessions. It is not safe for concurrent
// use; feed it from a single goroutine in record arrival order.
type Tracker struct {
	current *Session

	// OnClose, if set, is called with the finished session whenever a
	// boundary is detected and on Flush.
	OnClose func(Session)
}

// NewTracker returns a Tracker with no open session.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Observe assigns rec to a session, opening a new one when the record's
// timestamp or packet number regresses, and returns the ID of the
// session the record belongs to.
func (t *Tracker) Observe(rec record.Record) string {
	if t.current != nil && t.isBoundary(rec) {
		t.closeCurrent()
	}

	if t.current == nil {
		t.current = &Session{
			ID:             uuid.NewString(),
			FirstTimestamp: rec.Timestamp,
			FirstPacket:    rec.PacketNumber,
			LastTimestamp:  rec.Timestamp,
			// LastPacket set below
		}
	} else if rec.PacketNumber > t.current.LastPacket+1 {
		t.current.DroppedPackets += rec.PacketNumber - t.current.LastPacket - 1
	}

	t.current.LastTimestamp = rec.Timestamp
	t.current.LastPacket = rec.PacketNumber
	t.current.Records++
	return t.current.ID
}

// isBoundary reports whether rec cannot belong to the open session.
func (t *Tracker) isBoundary(rec record.Record) bool {
	return rec.Timestamp < t.current.LastTimestamp || rec.PacketNumber <= t.current.LastPacket
}

// Current returns a copy of the open session, or false when none is
// open.
func (t *Tracker) Current() (Session, bool) {
	if t.current == nil {
		return Session{}, false
	}
	return *t.current, true
}

// Flush closes the open session, if any. Call it once the input stream
// ends.
func (t *Tracker) Flush() {
	if t.current != nil {
		t.closeCurrent()
	}
}

func (t *Tracker) closeCurrent() {
	if t.OnClose != nil {
		t.OnClose(*t.current)
	}
	t.current = nil
}
