// Package stream decodes raw record lines from an io.Reader. The
// decoder itself is a pure per-line function; this package supplies the
// caller-side policy around it: skip-and-continue on malformed lines
// (the default, tolerating device hiccups) or abort on the first error.
package stream

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/emotibit-data/biometric.report/internal/monitoring"
	"github.com/emotibit-data/biometric.report/internal/record"
)

// headerPrefix marks the optional column header line at the top of raw
// files. Header lines are skipped without being counted as errors.
const headerPrefix = "EMOTIBIT_TIMESTAMP"

// Stats summarises one decoding pass.
type Stats struct {
	Lines   int `json:"lines"`   // total lines seen, headers included
	Decoded int `json:"decoded"` // well-formed records
	Headers int `json:"headers"` // header lines skipped
	Skipped int `json:"skipped"` // malformed lines skipped

	// SkippedByReason breaks Skipped down by error kind:
	// "empty_line", "malformed_field", "arity_mismatch".
	SkippedByReason map[string]int `json:"skipped_by_reason,omitempty"`
}

func (s *Stats) countSkip(err error) {
	s.Skipped++
	if s.SkippedByReason == nil {
		s.SkippedByReason = make(map[string]int)
	}
	s.SkippedByReason[Reason(err)]++
}

// Reason maps a decode error to a stable token for stats and logs.
func Reason(err error) string {
	var (
		malformed *record.MalformedFieldError
		arity     *record.ArityMismatchError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, record.ErrEmptyLine):
		return "empty_line"
	case errors.As(err, &arity):
		return "arity_mismatch"
	case errors.As(err, &malformed):
		return "malformed_field"
	default:
		return "unknown"
	}
}

// Decoder reads raw lines from an io.Reader and decodes them one at a
// time. A Decoder is single-use and not safe for concurrent use; run
// separate Decoders for parallel streams (records are independent and
// the tag table is read-only, so that needs no synchronization).
type Decoder struct {
	scan *bufio.Scanner

	// SkipInvalid selects the error policy. When true (the default from
	// NewDecoder) malformed lines are counted, reported via OnError, and
	// skipped. When false the first decode error aborts the pass.
	SkipInvalid bool

	// OnError, if set, is called for every malformed line regardless of
	// policy.
	OnError func(lineNo int, line string, err error)

	stats  Stats
	lineNo int
}

// maxLineSize caps how long a raw line may grow before scanning fails.
// High-rate tags batch many datapoints per record, so lines can run well
// past bufio.Scanner's default 64 KiB token limit.
const maxLineSize = 4 * 1024 * 1024

// NewDecoder returns a Decoder with the skip-and-continue policy.
func NewDecoder(r io.Reader) *Decoder {
	scan := bufio.NewScanner(r)
	scan.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Decoder{
		scan:        scan,
		SkipInvalid: true,
	}
}

// Next returns the next well-formed record. It reports io.EOF once the
// input is exhausted. Under the abort policy the first malformed line is
// returned as an error annotated with its line number.
func (d *Decoder) Next() (record.Record, error) {
	for d.scan.Scan() {
		d.lineNo++
		line := d.scan.Text()
		d.stats.Lines++

		if strings.HasPrefix(line, headerPrefix) {
			d.stats.Headers++
			continue
		}

		rec, err := record.Decode(line)
		if err != nil {
			d.stats.countSkip(err)
			if d.OnError != nil {
				d.OnError(d.lineNo, line, err)
			}
			if !d.SkipInvalid {
				return record.Record{}, fmt.Errorf("line %d: %w", d.lineNo, err)
			}
			continue
		}

		d.stats.Decoded++
		return rec, nil
	}
	if err := d.scan.Err(); err != nil {
		return record.Record{}, err
	}
	return record.Record{}, io.EOF
}

// Stats returns the counts accumulated so far.
func (d *Decoder) Stats() Stats {
	return d.stats
}

// Run decodes until the input is exhausted or the context is cancelled,
// sending each well-formed record to out. The channel is not closed; the
// caller owns it.
func (d *Decoder) Run(ctx context.Context, out chan<- record.Record) error {
	for {
		rec, err := d.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		select {
		case out <- rec:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// DecodeAll reads the whole input with the skip-and-continue policy and
// returns the decoded records together with pass statistics. Skipped
// lines are reported through monitoring.Logf.
func DecodeAll(r io.Reader) ([]record.Record, Stats, error) {
	d := NewDecoder(r)
	d.OnError = func(lineNo int, line string, err error) {
		monitoring.Logf("skipping line %d (%s): %v", lineNo, Reason(err), err)
	}

	var records []record.Record
	for {
		rec, err := d.Next()
		if err == io.EOF {
			return records, d.Stats(), nil
		}
		if err != nil {
			return records, d.Stats(), err
		}
		records = append(records, rec)
	}
}
