package db

import (
	"fmt"

	"github.com/emotibit-data/biometric.report/internal/session"
)

// UpsertSession writes the session row, replacing any previous state for
// the same session ID. The ingest pipeline calls this both while a
// session is open (periodic checkpoints) and when it closes.
func (db *DB) UpsertSession(s session.Session) error {
	_, err := db.Exec(`
		INSERT INTO sessions (session_id, first_timestamp_ms, last_timestamp_ms, first_packet, last_packet, record_count, dropped_packets)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			last_timestamp_ms = excluded.last_timestamp_ms,
			last_packet       = excluded.last_packet,
			record_count      = excluded.record_count,
			dropped_packets   = excluded.dropped_packets`,
		s.ID, s.FirstTimestamp, s.LastTimestamp, s.FirstPacket, s.LastPacket, s.Records, s.DroppedPackets,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert session %s: %w", s.ID, err)
	}
	return nil
}

// Sessions returns all stored sessions, oldest first.
func (db *DB) Sessions() ([]session.Session, error) {
	rows, err := db.Query(`
		SELECT session_id, first_timestamp_ms, last_timestamp_ms, first_packet, last_packet, record_count, dropped_packets
		FROM sessions
		ORDER BY write_timestamp, session_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []session.Session
	for rows.Next() {
		var s session.Session
		if err := rows.Scan(&s.ID, &s.FirstTimestamp, &s.LastTimestamp, &s.FirstPacket, &s.LastPacket, &s.Records, &s.DroppedPackets); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}
