package visualization

import (
	"bytes"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/cmorling/stockpilot/internal/models"
)

// RenderPNG renders the chart configuration to a PNG line chart: closing
// price with both moving average overlays. Returns raw PNG bytes.
func (s *Service) RenderPNG(cfg *models.ChartConfig) ([]byte, error) {
	if len(cfg.Dates) < 2 {
		return nil, fmt.Errorf("need at least 2 data points, got %d", len(cfg.Dates))
	}

	xValues := make([]time.Time, len(cfg.Dates))
	for i, d := range cfg.Dates {
		t, err := time.Parse(dateLayout, d)
		if err != nil {
			return nil, fmt.Errorf("bad chart date %q: %w", d, err)
		}
		xValues[i] = t
	}

	series := []chart.Series{
		chart.TimeSeries{
			Name: "Close",
			Style: chart.Style{
				StrokeColor: drawing.ColorFromHex("2563eb"), // blue-600
				StrokeWidth: 2.0,
			},
			XValues: xValues,
			YValues: cfg.Closes,
		},
	}

	if ma := maSeries(xValues, cfg.ShortMA); ma != nil {
		series = append(series, chart.TimeSeries{
			Name: fmt.Sprintf("MA %d", cfg.ShortWindow),
			Style: chart.Style{
				StrokeColor: drawing.ColorFromHex("f59e0b"), // amber-500
				StrokeWidth: 1.5,
			},
			XValues: ma.x,
			YValues: ma.y,
		})
	}

	if ma := maSeries(xValues, cfg.LongMA); ma != nil {
		series = append(series, chart.TimeSeries{
			Name: fmt.Sprintf("MA %d", cfg.LongWindow),
			Style: chart.Style{
				StrokeColor:     drawing.ColorFromHex("9ca3af"), // gray-400
				StrokeWidth:     1.5,
				StrokeDashArray: []float64{5.0, 3.0},
			},
			XValues: ma.x,
			YValues: ma.y,
		})
	}

	graph := chart.Chart{
		Title:  cfg.Label,
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 06")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.2f", f)
				}
				return ""
			},
		},
		Series: series,
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}

type alignedMA struct {
	x []time.Time
	y []float64
}

// maSeries drops the undefined prefix of a moving average overlay. Nil
// when too few points remain to draw a line.
func maSeries(xValues []time.Time, values []*float64) *alignedMA {
	out := &alignedMA{}
	for i, v := range values {
		if v == nil {
			continue
		}
		out.x = append(out.x, xValues[i])
		out.y = append(out.y, *v)
	}
	if len(out.x) < 2 {
		return nil
	}
	return out
}
