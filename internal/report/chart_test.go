package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/emotibit-data/biometric.report/internal/analysis"
)

func TestRenderRateChart(t *testing.T) {
	rates := []analysis.TagRate{
		{Tag: "EA", Label: "Electrodermal Activity", Samples: 100, MeanIntervalMS: 66.0, EstimatedHz: 15.15},
		{Tag: "PI", Label: "PPG Infrared", Samples: 500, MeanIntervalMS: 40.0, EstimatedHz: 25.0},
		{Tag: "ZZ", Samples: 2, MeanIntervalMS: 1000.0, EstimatedHz: 1.0},
	}

	var buf bytes.Buffer
	if err := RenderRateChart(&buf, rates); err != nil {
		t.Fatalf("RenderRateChart failed: %v", err)
	}

	html := buf.String()
	for _, want := range []string{
		"Sampling Rate by Type Tag",
		"Mean Interval by Type Tag",
		"EA (Electrodermal Activity)",
		"PI (PPG Infrared)",
		"ZZ", // unlabelled tag still charted
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered chart missing %q", want)
		}
	}
}

func TestRenderRateChartEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderRateChart(&buf, nil); err != nil {
		t.Fatalf("RenderRateChart with no rates failed: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("expected HTML output even with no rates")
	}
}
