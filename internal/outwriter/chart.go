package outwriter

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/huangsam/statdash/schema"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Chart dimensions in pixels.
const (
	chartWidth    = 1200
	chartHeight   = 600
	maxChartTicks = 12
)

var errNothingToChart = errors.New("page has no values to chart")

// writePageChart renders every series of the page as a line over the period axis.
// Periods map to x positions by index since period keys are not uniformly spaced.
func writePageChart(w io.Writer, result schema.PageResult) error {
	if len(result.Rows) < 2 {
		return fmt.Errorf("chart needs at least two periods (received %d)", len(result.Rows))
	}

	yMin, yMax := math.Inf(1), math.Inf(-1)
	var series []chart.Series
	for i, meta := range result.Series {
		var xs, ys []float64
		for x, row := range result.Rows {
			if v := row.ValuesByID[meta.ID].Value; v != nil {
				xs = append(xs, float64(x))
				ys = append(ys, *v)
				yMin, yMax = math.Min(yMin, *v), math.Max(yMax, *v)
			}
		}
		if len(xs) == 0 {
			continue
		}
		series = append(series, chart.ContinuousSeries{
			Name:    seriesLabel(meta),
			XValues: xs,
			YValues: ys,
			Style:   seriesStyle(meta.Color, i),
		})
	}
	if len(series) == 0 {
		return errNothingToChart
	}

	// A flat line still needs a non-zero y range
	yRange := &chart.ContinuousRange{Min: yMin, Max: yMax}
	if yMin == yMax {
		pad := math.Max(math.Abs(yMin)*0.1, 1)
		yRange = &chart.ContinuousRange{Min: yMin - pad, Max: yMax + pad}
	}

	ch := chart.Chart{
		Title:      result.Title,
		Width:      chartWidth,
		Height:     chartHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Ticks: periodTicks(result.Rows)},
		YAxis:      chart.YAxis{Range: yRange},
		Series:     series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// periodTicks labels at most maxChartTicks evenly spread periods.
func periodTicks(rows []schema.AlignedRow) []chart.Tick {
	step := max(1, (len(rows)+maxChartTicks-1)/maxChartTicks)
	ticks := make([]chart.Tick, 0, maxChartTicks+1)
	for i := 0; i < len(rows); i += step {
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: rows[i].Period})
	}
	return ticks
}

// seriesStyle uses the configured hex color or falls back to the palette.
func seriesStyle(hex string, index int) chart.Style {
	col := chart.GetDefaultColor(index)
	if hex = strings.TrimPrefix(strings.TrimSpace(hex), "#"); hex != "" {
		col = drawing.ColorFromHex(hex)
	}
	return chart.Style{
		StrokeColor: col,
		StrokeWidth: 2,
		DotColor:    col,
		DotWidth:    2,
	}
}
