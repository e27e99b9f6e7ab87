// Package report renders HTML charts of sampling-rate statistics using
// go-echarts. The output is self-contained HTML suitable for serving
// from the API or writing to a file from the CLI.
package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/emotibit-data/biometric.report/internal/analysis"
)

// RenderRateChart writes an HTML page with two bar charts: estimated
// sampling rate (Hz) and mean inter-record interval (ms) per type tag.
func RenderRateChart(w io.Writer, rates []analysis.TagRate) error {
	tags := make([]string, 0, len(rates))
	hz := make([]opts.BarData, 0, len(rates))
	intervalMS := make([]opts.BarData, 0, len(rates))
	for _, r := range rates {
		name := r.Tag
		if r.Label != "" {
			name = fmt.Sprintf("%s (%s)", r.Tag, r.Label)
		}
		tags = append(tags, name)
		hz = append(hz, opts.BarData{Value: r.EstimatedHz})
		intervalMS = append(intervalMS, opts.BarData{Value: r.MeanIntervalMS})
	}

	rateBar := charts.NewBar()
	rateBar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Sampling Rate by Type Tag", Subtitle: "estimated Hz from inter-record intervals"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	rateBar.SetXAxis(tags).
		AddSeries("estimated Hz", hz,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	intervalBar := charts.NewBar()
	intervalBar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Mean Interval by Type Tag", Subtitle: "milliseconds between consecutive records"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	intervalBar.SetXAxis(tags).
		AddSeries("mean interval (ms)", intervalMS)

	page := components.NewPage()
	page.AddCharts(rateBar, intervalBar)

	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render rate chart: %w", err)
	}
	return nil
}
