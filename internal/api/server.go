package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/emotibit-data/biometric.report/internal/db"
	"github.com/emotibit-data/biometric.report/internal/record"
	"github.com/emotibit-data/biometric.report/internal/units"
	"github.com/emotibit-data/biometric.report/internal/version"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	db    *db.DB
	units string
}

// NewServer wires the HTTP API to a database. units is the temperature
// unit for API responses; stored payload values are always Celsius.
func NewServer(database *db.DB, units string) *Server {
	return &Server{
		db:    database,
		units: units,
	}
}

// convertRecordTemperature converts the payload of a temperature record
// (T0, T1, TH) out of Celsius. Non-temperature tags pass through.
func convertRecordTemperature(rec db.StoredRecord, targetUnits string) db.StoredRecord {
	if !record.IsTemperature(rec.TypeTag) || targetUnits == units.Celsius {
		return rec
	}
	converted := make([]float64, len(rec.Payload))
	for i, v := range rec.Payload {
		converted[i] = units.ConvertTemperature(v, targetUnits)
	}
	rec.Payload = converted
	return rec
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/records", s.listRecords)
	mux.HandleFunc("/api/tags", s.listTags)
	mux.HandleFunc("/api/sessions", s.listSessions)
	mux.HandleFunc("/api/gaps", s.listPacketGaps)
	mux.HandleFunc("/api/rates", s.showRates)
	mux.HandleFunc("/api/rates/chart", s.showRateChart)
	mux.HandleFunc("/api/ingest", s.ingest)
	mux.HandleFunc("/api/config", s.showConfig)
	mux.HandleFunc("/api/version", s.showVersion)
	return mux
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) listRecords(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	opts := db.ListRecordsOptions{
		TypeTag:   r.URL.Query().Get("tag"),
		SessionID: r.URL.Query().Get("session"),
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		limit, err := strconv.Atoi(l)
		if err != nil || limit < 1 {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
		opts.Limit = limit
	}

	targetUnits := s.units
	if u := r.URL.Query().Get("units"); u != "" {
		if !units.IsValid(u) {
			s.writeJSONError(w, http.StatusBadRequest,
				fmt.Sprintf("Invalid 'units' parameter: must be one of %s", units.GetValidUnitsString()))
			return
		}
		targetUnits = u
	}

	records, err := s.db.ListRecords(opts)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to retrieve records: %v", err))
		return
	}

	// Apply unit conversion to temperature payloads
	for i := range records {
		records[i] = convertRecordTemperature(records[i], targetUnits)
	}

	if err := json.NewEncoder(w).Encode(records); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write records")
		return
	}
}

func (s *Server) listTags(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	counts, err := s.db.TagCounts()
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to retrieve tag counts: %v", err))
		return
	}

	if err := json.NewEncoder(w).Encode(counts); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write tag counts")
		return
	}
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	sessions, err := s.db.Sessions()
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to retrieve sessions: %v", err))
		return
	}

	if err := json.NewEncoder(w).Encode(sessions); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write sessions")
		return
	}
}

func (s *Server) listPacketGaps(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		s.writeJSONError(w, http.StatusBadRequest, "Missing 'session' parameter")
		return
	}

	gaps, err := s.db.FindPacketGaps(sessionID)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to retrieve packet gaps: %v", err))
		return
	}

	if err := json.NewEncoder(w).Encode(gaps); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write packet gaps")
		return
	}
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	config := map[string]interface{}{
		"units": s.units,
	}

	if err := json.NewEncoder(w).Encode(config); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write config")
		return
	}
}

func (s *Server) showVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	info := map[string]string{
		"version":    version.Version,
		"git_sha":    version.GitSHA,
		"build_time": version.BuildTime,
	}

	if err := json.NewEncoder(w).Encode(info); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write version")
		return
	}
}
