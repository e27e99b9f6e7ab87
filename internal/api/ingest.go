package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/emotibit-data/biometric.report/internal/db"
	"github.com/emotibit-data/biometric.report/internal/record"
	"github.com/emotibit-data/biometric.report/internal/session"
	"github.com/emotibit-data/biometric.report/internal/stream"
)

// IngestResult reports what one ingest request did.
type IngestResult struct {
	Lines    int               `json:"lines"`
	Decoded  int               `json:"decoded"`
	Headers  int               `json:"headers"`
	Skipped  int               `json:"skipped"`
	Reasons  map[string]int    `json:"skip_reasons,omitempty"`
	Sessions []session.Session `json:"sessions"`
}

// IngestLines decodes the body of raw record lines, assigns sessions,
// and persists records and session rows. It is shared by the HTTP
// ingest endpoint and the CLI pipeline.
func IngestLines(database *db.DB, records []record.Record, stats stream.Stats) (IngestResult, error) {
	result := IngestResult{
		Lines:   stats.Lines,
		Decoded: stats.Decoded,
		Headers: stats.Headers,
		Skipped: stats.Skipped,
		Reasons: stats.SkippedByReason,
	}

	// Session boundaries follow record order, so group contiguous runs
	// by session ID and batch-insert each run.
	tracker := session.NewTracker()
	tracker.OnClose = func(s session.Session) {
		result.Sessions = append(result.Sessions, s)
	}

	var batch []record.Record
	var batchSession string
	flushBatch := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := database.InsertRecords(batchSession, batch); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	for _, rec := range records {
		id := tracker.Observe(rec)
		if id != batchSession {
			if err := flushBatch(); err != nil {
				return result, err
			}
			batchSession = id
		}
		batch = append(batch, rec)
	}
	if err := flushBatch(); err != nil {
		return result, err
	}
	tracker.Flush()

	for _, s := range result.Sessions {
		if err := database.UpsertSession(s); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (s *Server) ingest(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	records, stats, err := stream.DecodeAll(r.Body)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest,
			fmt.Sprintf("Failed to decode records: %v", err))
		return
	}

	result, err := IngestLines(s.db, records, stats)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to store records: %v", err))
		return
	}

	if err := json.NewEncoder(w).Encode(result); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write ingest result")
		return
	}
}
