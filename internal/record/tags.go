package record

import "sort"

// ERMergedIntoEAVersion is the protocol version from which the separate
// electrodermal response channel (ER) is folded into EA. Devices
// reporting this version or later never emit ER records; consumers must
// treat the tag's absence as expected rather than as data loss.
const ERMergedIntoEAVersion = 3

// tagTable maps two-letter type tags to signal descriptions. It is
// read-only after initialization and safe for concurrent lookup. The set
// is non-exhaustive: firmware may emit tags that are not listed here,
// and such records still decode (Lookup simply reports no label).
var tagTable = map[string]string{
	"EA": "Electrodermal Activity",
	"EL": "Electrodermal Level",
	"ER": "Electrodermal Response",
	"PI": "PPG Infrared",
	"PR": "PPG Red",
	"PG": "PPG Green",
	"T0": "Temperature 0",
	"T1": "Temperature 1",
	"TH": "Thermopile Temperature",
	"AX": "Accelerometer X",
	"AY": "Accelerometer Y",
	"AZ": "Accelerometer Z",
	"GX": "Gyroscope X",
	"GY": "Gyroscope Y",
	"GZ": "Gyroscope Z",
	"MX": "Magnetometer X",
	"MY": "Magnetometer Y",
	"MZ": "Magnetometer Z",
	"SA": "Skin Conductance Response Amplitude",
	"SR": "Skin Conductance Response Rise Time",
	"SF": "Skin Conductance Response Frequency",
	"HR": "Heart Rate",
	"BI": "Heartbeat Interval",
	"H0": "Humidity 0",

	// control and housekeeping tags
	"BV": "Battery Voltage",
	"B%": "Battery Percentage",
	"DC": "Data Clipping",
	"DO": "Data Overflow",
	"TL": "Local Timestamp",
	"TU": "UTC Timestamp",
	"TX": "Crosstime",
	"EM": "EmotiBit Mode",
}

// Lookup returns the signal description for a type tag. Unknown tags are
// not an error; they report ok == false so callers can surface a label
// gap instead of rejecting the record.
func Lookup(tag string) (label string, ok bool) {
	label, ok = tagTable[tag]
	return label, ok
}

// KnownTags returns the tags in the table in sorted order.
func KnownTags() []string {
	tags := make([]string, 0, len(tagTable))
	for tag := range tagTable {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// ERRetired reports whether the given protocol version folds ER into EA.
func ERRetired(version int) bool {
	return version >= ERMergedIntoEAVersion
}

// IsTemperature reports whether the tag carries a temperature reading in
// degrees Celsius. Used by the API layer for unit conversion.
func IsTemperature(tag string) bool {
	switch tag {
	case "T0", "T1", "TH":
		return true
	}
	return false
}
