package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/emotibit-data/biometric.report/internal/analysis"
	"github.com/emotibit-data/biometric.report/internal/report"
)

// tagRates loads every stored timestamp grouped by tag and computes the
// sampling-rate statistics over them.
func (s *Server) tagRates() ([]analysis.TagRate, error) {
	byTag, err := s.db.TimestampsByTag()
	if err != nil {
		return nil, fmt.Errorf("failed to load timestamps: %w", err)
	}
	return analysis.Rates(byTag), nil
}

func (s *Server) showRates(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	rates, err := s.tagRates()
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to compute sampling rates: %v", err))
		return
	}

	if err := json.NewEncoder(w).Encode(rates); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write sampling rates")
		return
	}
}

func (s *Server) showRateChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Content-Type", "application/json")
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	rates, err := s.tagRates()
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to compute sampling rates: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.RenderRateChart(w, rates); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to render chart")
		return
	}
}
