// Package analysis computes per-tag sampling-rate statistics from
// decoded record timestamps. Rates are estimated from the intervals
// between consecutive records of the same tag, which is the only rate
// information the raw format carries.
package analysis

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/emotibit-data/biometric.report/internal/record"
)

// TagRate summarises the observed sampling behaviour of one type tag.
type TagRate struct {
	Tag              string  `json:"tag"`
	Label            string  `json:"label,omitempty"`
	Samples          int     `json:"samples"`
	MeanIntervalMS   float64 `json:"mean_interval_ms"`
	MedianIntervalMS float64 `json:"median_interval_ms"`
	StdevIntervalMS  float64 `json:"stdev_interval_ms"`
	EstimatedHz      float64 `json:"estimated_hz"`
}

// Collect groups record timestamps by type tag.
func Collect(records []record.Record) map[string][]int64 {
	byTag := make(map[string][]int64)
	for _, rec := range records {
		byTag[rec.TypeTag] = append(byTag[rec.TypeTag], rec.Timestamp)
	}
	return byTag
}

// Rates computes rate statistics for every tag, sorted by tag. Tags with
// fewer than two records report their sample count and zero statistics.
func Rates(timestampsByTag map[string][]int64) []TagRate {
	rates := make([]TagRate, 0, len(timestampsByTag))
	for tag, timestamps := range timestampsByTag {
		rate := TagRate{Tag: tag, Samples: len(timestamps)}
		rate.Label, _ = record.Lookup(tag)

		if iv := intervals(timestamps); len(iv) > 0 {
			rate.MeanIntervalMS = stat.Mean(iv, nil)
			rate.MedianIntervalMS = median(iv)
			if len(iv) > 1 {
				rate.StdevIntervalMS = stat.StdDev(iv, nil)
			}
			if rate.MeanIntervalMS > 0 {
				rate.EstimatedHz = 1000.0 / rate.MeanIntervalMS
			}
		}
		rates = append(rates, rate)
	}

	sort.Slice(rates, func(i, j int) bool { return rates[i].Tag < rates[j].Tag })
	return rates
}

// median returns the middle value of sorted input, averaging the two
// middle values for an even count.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// intervals returns the sorted positive deltas between consecutive
// timestamps. Zero and negative deltas (duplicate packets, clock
// weirdness) are filtered out.
func intervals(timestamps []int64) []float64 {
	if len(timestamps) < 2 {
		return nil
	}
	sorted := make([]int64, len(timestamps))
	copy(sorted, timestamps)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	iv := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		if d := sorted[i] - sorted[i-1]; d > 0 {
			iv = append(iv, float64(d))
		}
	}
	// median needs sorted input; deltas of a sorted series are not
	// themselves sorted.
	sort.Float64s(iv)
	return iv
}
