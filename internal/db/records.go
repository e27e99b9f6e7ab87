package db

import (
	"encoding/json"
	"fmt"

	"github.com/emotibit-data/biometric.report/internal/record"
)

// StoredRecord is one decoded record as persisted, together with its
// session assignment and row metadata.
type StoredRecord struct {
	ID             int64     `json:"id"`
	SessionID      string    `json:"session_id"`
	Timestamp      int64     `json:"timestamp_ms"`
	PacketNumber   uint64    `json:"packet_number"`
	DataPointCount int       `json:"num_datapoints"`
	TypeTag        string    `json:"type_tag"`
	Label          string    `json:"label,omitempty"`
	Version        int       `json:"version"`
	Reliability    int       `json:"reliability"`
	Payload        []float64 `json:"payload"`
	WriteTimestamp int64     `json:"write_timestamp"`
}

// Record converts the stored row back to its wire-format value.
func (s StoredRecord) Record() record.Record {
	return record.Record{
		Timestamp:      s.Timestamp,
		PacketNumber:   s.PacketNumber,
		DataPointCount: s.DataPointCount,
		TypeTag:        s.TypeTag,
		Version:        s.Version,
		Reliability:    s.Reliability,
		Payload:        s.Payload,
	}
}

// InsertRecord persists one decoded record under the given session.
func (db *DB) InsertRecord(sessionID string, rec record.Record) error {
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO records (session_id, timestamp_ms, packet_number, num_datapoints, type_tag, version, reliability, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, rec.Timestamp, rec.PacketNumber, rec.DataPointCount, rec.TypeTag, rec.Version, rec.Reliability, string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

// InsertRecords persists a batch of records under one session in a
// single transaction.
func (db *DB) InsertRecords(sessionID string, records []record.Record) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO records (session_id, timestamp_ms, packet_number, num_datapoints, type_tag, version, reliability, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		payload, err := json.Marshal(rec.Payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		if _, err := stmt.Exec(sessionID, rec.Timestamp, rec.PacketNumber, rec.DataPointCount, rec.TypeTag, rec.Version, rec.Reliability, string(payload)); err != nil {
			return fmt.Errorf("failed to insert record packet %d: %w", rec.PacketNumber, err)
		}
	}

	return tx.Commit()
}

// ListRecordsOptions filters ListRecords. Zero values mean "no filter";
// Limit defaults to 100.
type ListRecordsOptions struct {
	TypeTag   string
	SessionID string
	Limit     int
}

// ListRecords returns stored records in packet order, newest session
// activity last.
func (db *DB) ListRecords(opts ListRecordsOptions) ([]StoredRecord, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, session_id, timestamp_ms, packet_number, num_datapoints, type_tag, version, reliability, payload, write_timestamp
		FROM records
		WHERE (? = '' OR type_tag = ?)
		  AND (? = '' OR session_id = ?)
		ORDER BY id
		LIMIT ?`

	rows, err := db.Query(query, opts.TypeTag, opts.TypeTag, opts.SessionID, opts.SessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []StoredRecord
	for rows.Next() {
		var s StoredRecord
		var payload string
		if err := rows.Scan(&s.ID, &s.SessionID, &s.Timestamp, &s.PacketNumber, &s.DataPointCount, &s.TypeTag, &s.Version, &s.Reliability, &payload, &s.WriteTimestamp); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &s.Payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payload for record %d: %w", s.ID, err)
		}
		s.Label, _ = record.Lookup(s.TypeTag)
		records = append(records, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// TagCount is the number of stored records carrying one type tag.
type TagCount struct {
	TypeTag string `json:"type_tag"`
	Label   string `json:"label,omitempty"`
	Count   int64  `json:"count"`
}

// TagCounts returns per-tag record counts, sorted by tag. Tags missing
// from the tag table report an empty label rather than being dropped.
func (db *DB) TagCounts() ([]TagCount, error) {
	rows, err := db.Query(`SELECT type_tag, COUNT(*) FROM records GROUP BY type_tag ORDER BY type_tag`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tag counts: %w", err)
	}
	defer rows.Close()

	var counts []TagCount
	for rows.Next() {
		var tc TagCount
		if err := rows.Scan(&tc.TypeTag, &tc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan tag count: %w", err)
		}
		tc.Label, _ = record.Lookup(tc.TypeTag)
		counts = append(counts, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return counts, nil
}

// TimestampsByTag returns every stored device timestamp grouped by type
// tag, in insertion order. This feeds the sampling-rate analysis.
func (db *DB) TimestampsByTag() (map[string][]int64, error) {
	rows, err := db.Query(`SELECT type_tag, timestamp_ms FROM records ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query timestamps: %w", err)
	}
	defer rows.Close()

	byTag := make(map[string][]int64)
	for rows.Next() {
		var tag string
		var ts int64
		if err := rows.Scan(&tag, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan timestamp: %w", err)
		}
		byTag[tag] = append(byTag[tag], ts)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return byTag, nil
}

// PacketGap is a run of packet numbers missing from a stored session.
type PacketGap struct {
	SessionID   string `json:"session_id"`
	AfterPacket uint64 `json:"after_packet"`
	NextPacket  uint64 `json:"next_packet"`
	Missing     uint64 `json:"missing"`
}

// FindPacketGaps finds dropped-packet runs within a session by comparing
// consecutive stored packet numbers.
func (db *DB) FindPacketGaps(sessionID string) ([]PacketGap, error) {
	query := `
	WITH ordered AS (
		SELECT
			packet_number,
			LAG(packet_number) OVER (ORDER BY packet_number) AS prev_packet
		FROM (SELECT DISTINCT packet_number FROM records WHERE session_id = ?)
	)
	SELECT prev_packet, packet_number
	FROM ordered
	WHERE prev_packet IS NOT NULL
	  AND packet_number > prev_packet + 1
	ORDER BY prev_packet`

	rows, err := db.Query(query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query packet gaps: %w", err)
	}
	defer rows.Close()

	var gaps []PacketGap
	for rows.Next() {
		var gap PacketGap
		if err := rows.Scan(&gap.AfterPacket, &gap.NextPacket); err != nil {
			return nil, fmt.Errorf("failed to scan packet gap: %w", err)
		}
		gap.SessionID = sessionID
		gap.Missing = gap.NextPacket - gap.AfterPacket - 1
		gaps = append(gaps, gap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return gaps, nil
}
