// Package record implements the EmotiBit raw data format: one
// comma-delimited line per record carrying a device timestamp, a packet
// number, a datapoint count, a two-letter type tag, the protocol version,
// a reliability score, and a variable-length numeric payload.
package record

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Record is one decoded line of raw EmotiBit output. Records are
// constructed by Decode and must be treated as immutable afterwards;
// they carry no persistence responsibility of their own.
type Record struct {
	// Timestamp is milliseconds since device boot. It is not wall-clock
	// time and resets when the device reboots, so cross-session ordering
	// needs an external session boundary (see internal/session).
	Timestamp int64

	// PacketNumber is strictly increasing within one device session.
	// Gaps indicate dropped packets.
	PacketNumber uint64

	// DataPointCount is the declared number of payload values. It always
	// equals len(Payload) for a Record returned by Decode.
	DataPointCount int

	// TypeTag identifies the signal carried in the payload. Unknown tags
	// are preserved as-is; the device may grow new tags in future
	// firmware.
	TypeTag string

	// Version is the protocol version in effect when the record was
	// produced. It affects payload semantics for at least one tag (ER is
	// merged into EA from version 3 onward, see ERRetired).
	Version int

	// Reliability is a reserved 0-100 advisory score with no defined
	// semantics yet. It is passed through unmodified, not validated.
	Reliability int

	// Payload holds the datapoint values in wire order.
	Payload []float64
}

// ErrEmptyLine reports a line with fewer than the 7 fields every record
// carries (6 scalars plus at least one payload value).
var ErrEmptyLine = errors.New("line has fewer than 7 fields")

// MalformedFieldError reports a required numeric field that did not
// parse.
type MalformedFieldError struct {
	Field string // field name, e.g. "timestamp" or "payload"
	Value string // raw text that failed to parse
}

func (e *MalformedFieldError) Error() string {
	return fmt.Sprintf("malformed %s field %q", e.Field, e.Value)
}

// ArityMismatchError reports a payload whose length disagrees with the
// declared datapoint count. The decoder never truncates or pads.
type ArityMismatchError struct {
	Declared int
	Actual   int
}

func (e *ArityMismatchError) Error() string {
	return fmt.Sprintf("payload arity mismatch: declared %d datapoints, found %d", e.Declared, e.Actual)
}

// scalar field positions on the wire
const (
	fieldTimestamp = iota
	fieldPacketNumber
	fieldDataPointCount
	fieldTypeTag
	fieldVersion
	fieldReliability
	payloadStart
)

// Decode parses one line of raw output into a Record. It is a pure
// function: decode errors are local to the line and never affect
// subsequent lines, and it is safe to call from multiple goroutines.
//
// The delimiter is a comma. Trailing whitespace and newline variance
// (\n, \r\n) are tolerated. Everything after the sixth field is payload;
// empty trailing cells (a line ending in a comma) are dropped before the
// arity check, matching the device's own tooling.
func Decode(line string) (Record, error) {
	fields := strings.Split(strings.TrimRight(line, " \t\r\n"), ",")
	if len(fields) <= payloadStart {
		return Record{}, ErrEmptyLine
	}

	timestamp, err := strconv.ParseInt(strings.TrimSpace(fields[fieldTimestamp]), 10, 64)
	if err != nil {
		return Record{}, &MalformedFieldError{Field: "timestamp", Value: fields[fieldTimestamp]}
	}
	packetNumber, err := strconv.ParseUint(strings.TrimSpace(fields[fieldPacketNumber]), 10, 64)
	if err != nil {
		return Record{}, &MalformedFieldError{Field: "packet_number", Value: fields[fieldPacketNumber]}
	}
	dataPointCount, err := strconv.ParseUint(strings.TrimSpace(fields[fieldDataPointCount]), 10, 31)
	if err != nil {
		return Record{}, &MalformedFieldError{Field: "datapoint_count", Value: fields[fieldDataPointCount]}
	}
	version, err := strconv.Atoi(strings.TrimSpace(fields[fieldVersion]))
	if err != nil {
		return Record{}, &MalformedFieldError{Field: "version", Value: fields[fieldVersion]}
	}
	reliability, err := strconv.Atoi(strings.TrimSpace(fields[fieldReliability]))
	if err != nil {
		return Record{}, &MalformedFieldError{Field: "reliability", Value: fields[fieldReliability]}
	}

	payload := make([]float64, 0, len(fields)-payloadStart)
	for _, cell := range fields[payloadStart:] {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return Record{}, &MalformedFieldError{Field: "payload", Value: cell}
		}
		payload = append(payload, v)
	}

	if len(payload) != int(dataPointCount) {
		return Record{}, &ArityMismatchError{Declared: int(dataPointCount), Actual: len(payload)}
	}

	return Record{
		Timestamp:      timestamp,
		PacketNumber:   packetNumber,
		DataPointCount: int(dataPointCount),
		TypeTag:        strings.TrimSpace(fields[fieldTypeTag]),
		Version:        version,
		Reliability:    reliability,
		Payload:        payload,
	}, nil
}

// Encode renders the record back to its wire form. Decoding the result
// yields a Record equal to r field for field.
func (r Record) Encode() string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(r.Timestamp, 10))
	b.WriteByte(',')
	b.WriteString(strconv.FormatUint(r.PacketNumber, 10))
	b.WriteByte(',')
	b.WriteString(strconv.Itoa(r.DataPointCount))
	b.WriteByte(',')
	b.WriteString(r.TypeTag)
	b.WriteByte(',')
	b.WriteString(strconv.Itoa(r.Version))
	b.WriteByte(',')
	b.WriteString(strconv.Itoa(r.Reliability))
	if len(r.Payload) == 0 {
		// A zero-datapoint record still needs a seventh field on the
		// wire; the empty cell is dropped again on decode.
		b.WriteByte(',')
	}
	for _, v := range r.Payload {
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
	}
	return b.String()
}

// Label returns the human-readable signal description for the record's
// type tag, or the empty string when the tag is not in the table.
func (r Record) Label() string {
	label, _ := Lookup(r.TypeTag)
	return label
}
