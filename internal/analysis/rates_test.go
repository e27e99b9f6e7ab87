package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emotibit-data/biometric.report/internal/record"
)

func TestCollect(t *testing.T) {
	records := []record.Record{
		{TypeTag: "EA", Timestamp: 100},
		{TypeTag: "HR", Timestamp: 105},
		{TypeTag: "EA", Timestamp: 150},
	}
	byTag := Collect(records)
	require.Len(t, byTag, 2)
	assert.Equal(t, []int64{100, 150}, byTag["EA"])
	assert.Equal(t, []int64{105}, byTag["HR"])
}

func TestRatesSteadySignal(t *testing.T) {
	// 15 Hz signal: one record every ~66.67ms, emitted here at a fixed
	// 66ms cadence.
	timestamps := make([]int64, 100)
	for i := range timestamps {
		timestamps[i] = int64(i) * 66
	}

	rates := Rates(map[string][]int64{"EA": timestamps})
	require.Len(t, rates, 1)

	r := rates[0]
	assert.Equal(t, "EA", r.Tag)
	assert.Equal(t, "Electrodermal Activity", r.Label)
	assert.Equal(t, 100, r.Samples)
	assert.InDelta(t, 66.0, r.MeanIntervalMS, 1e-9)
	assert.InDelta(t, 66.0, r.MedianIntervalMS, 1e-9)
	assert.InDelta(t, 0.0, r.StdevIntervalMS, 1e-9)
	assert.InDelta(t, 1000.0/66.0, r.EstimatedHz, 1e-9)
}

func TestRatesUnsortedInputAndDuplicates(t *testing.T) {
	// Out-of-order delivery plus a duplicated timestamp; the duplicate
	// interval (0) must be filtered, not averaged in.
	rates := Rates(map[string][]int64{"HR": {300, 100, 200, 200, 400}})
	require.Len(t, rates, 1)

	r := rates[0]
	assert.Equal(t, 5, r.Samples)
	assert.InDelta(t, 100.0, r.MeanIntervalMS, 1e-9)
	assert.InDelta(t, 10.0, r.EstimatedHz, 1e-9)
}

func TestRatesEvenIntervalCountMedian(t *testing.T) {
	// Four intervals (10, 20, 30, 40): the median averages the two
	// middle values rather than picking a sample element.
	rates := Rates(map[string][]int64{"EA": {0, 10, 30, 60, 100}})
	require.Len(t, rates, 1)

	r := rates[0]
	assert.Equal(t, 5, r.Samples)
	assert.InDelta(t, 25.0, r.MeanIntervalMS, 1e-9)
	assert.InDelta(t, 25.0, r.MedianIntervalMS, 1e-9)
}

func TestRatesTooFewSamples(t *testing.T) {
	rates := Rates(map[string][]int64{"ZZ": {42}})
	require.Len(t, rates, 1)

	r := rates[0]
	assert.Equal(t, 1, r.Samples)
	assert.Empty(t, r.Label)
	assert.Zero(t, r.MeanIntervalMS)
	assert.Zero(t, r.EstimatedHz)
	assert.False(t, math.IsNaN(r.StdevIntervalMS))
}

func TestRatesSortedByTag(t *testing.T) {
	rates := Rates(map[string][]int64{
		"PI": {0, 10},
		"AX": {0, 10},
		"EA": {0, 10},
	})
	require.Len(t, rates, 3)
	assert.Equal(t, "AX", rates[0].Tag)
	assert.Equal(t, "EA", rates[1].Tag)
	assert.Equal(t, "PI", rates[2].Tag)
}
