// Package output writes decoded records to parsed output files: flat
// CSV, JSONL, or the per-uid/per-tag directory tree used by the parsed
// data pipeline (parsed/<uid>/<tag>/<yyyymmdd>.csv).
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/emotibit-data/biometric.report/internal/record"
	"github.com/emotibit-data/biometric.report/internal/timeutil"
)

// Header is the column header emitted at the top of every parsed CSV.
var Header = []string{"timestamp_ms", "packet", "num_datapoints", "type_tag", "version", "reliability", "payload"}

// flushInterval bounds how stale buffered CSV output may get while a
// long ingest run is in progress.
const flushInterval = 2 * time.Second

// row renders a record as parsed CSV cells. The payload cell is a
// compact JSON array so the variable arity survives a single column.
func row(rec record.Record) ([]string, error) {
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return []string{
		strconv.FormatInt(rec.Timestamp, 10),
		strconv.FormatUint(rec.PacketNumber, 10),
		strconv.Itoa(rec.DataPointCount),
		rec.TypeTag,
		strconv.Itoa(rec.Version),
		strconv.Itoa(rec.Reliability),
		string(payload),
	}, nil
}

// CSVWriter writes parsed records as CSV with periodic flushing, so a
// reader tailing the file during a long run sees recent records.
type CSVWriter struct {
	writer    *csv.Writer
	clock     timeutil.Clock
	lastFlush time.Time
	wroteHdr  bool
}

// NewCSVWriter wraps w. Pass timeutil.RealClock{} outside tests.
func NewCSVWriter(w io.Writer, clock timeutil.Clock) *CSVWriter {
	return &CSVWriter{
		writer:    csv.NewWriter(w),
		clock:     clock,
		lastFlush: clock.Now(),
	}
}

// WriteRecord appends one record, emitting the header first if needed.
func (w *CSVWriter) WriteRecord(rec record.Record) error {
	if !w.wroteHdr {
		if err := w.writer.Write(Header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		w.wroteHdr = true
	}

	cells, err := row(rec)
	if err != nil {
		return err
	}
	if err := w.writer.Write(cells); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}

	if w.clock.Since(w.lastFlush) > flushInterval {
		w.writer.Flush()
		if err := w.writer.Error(); err != nil {
			return fmt.Errorf("failed to flush: %w", err)
		}
		w.lastFlush = w.clock.Now()
	}
	return nil
}

// Flush forces buffered rows out.
func (w *CSVWriter) Flush() error {
	w.writer.Flush()
	return w.writer.Error()
}

// JSONLWriter writes one JSON object per record per line.
type JSONLWriter struct {
	enc *json.Encoder
}

// jsonlRow mirrors the CSV columns in JSONL form.
type jsonlRow struct {
	TimestampMS   int64     `json:"timestamp_ms"`
	Packet        uint64    `json:"packet"`
	NumDatapoints int       `json:"num_datapoints"`
	TypeTag       string    `json:"type_tag"`
	Version       int       `json:"version"`
	Reliability   int       `json:"reliability"`
	Payload       []float64 `json:"payload"`
}

// NewJSONLWriter wraps w.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	return &JSONLWriter{enc: json.NewEncoder(w)}
}

// WriteRecord appends one record as a JSON line.
func (w *JSONLWriter) WriteRecord(rec record.Record) error {
	return w.enc.Encode(jsonlRow{
		TimestampMS:   rec.Timestamp,
		Packet:        rec.PacketNumber,
		NumDatapoints: rec.DataPointCount,
		TypeTag:       rec.TypeTag,
		Version:       rec.Version,
		Reliability:   rec.Reliability,
		Payload:       rec.Payload,
	})
}
