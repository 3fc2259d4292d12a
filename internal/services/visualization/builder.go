// Package visualization assembles chart output from analysis results.
package visualization

import (
	"context"
	"fmt"
	"strings"

	"github.com/cmorling/stockpilot/internal/common"
	"github.com/cmorling/stockpilot/internal/interfaces"
	"github.com/cmorling/stockpilot/internal/models"
)

const dateLayout = "2006-01-02"

// Service maps market data and analysis results to a declarative chart
// configuration for the browser, and renders a server-side PNG of the
// same chart on demand.
type Service struct {
	logger *common.Logger
}

var _ interfaces.VisualizationService = (*Service)(nil)

// NewService creates a visualization service.
func NewService(logger *common.Logger) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Service{logger: logger}
}

// Build produces the chart configuration. All arrays are index-aligned
// with the bar dates; moving average slots are nil until their window
// fills so the renderer draws a gap instead of a false zero line.
func (s *Service) Build(data *models.MarketData, result *models.AnalysisResult) *models.ChartConfig {
	bars := data.Bars
	ind := result.Indicators

	cfg := &models.ChartConfig{
		Symbol:      data.Symbol,
		Dates:       make([]string, len(bars)),
		Closes:      make([]float64, len(bars)),
		Volumes:     make([]int64, len(bars)),
		ShortMA:     alignSeries(ind.ShortMA, len(bars)),
		LongMA:      alignSeries(ind.LongMA, len(bars)),
		ShortWindow: ind.ShortMA.Window,
		LongWindow:  ind.LongMA.Window,
		Label:       fmt.Sprintf("%s %s", data.Symbol, data.Period.Description()),
	}

	for i, bar := range bars {
		cfg.Dates[i] = bar.Date.Format(dateLayout)
		cfg.Closes[i] = bar.Close
		cfg.Volumes[i] = bar.Volume
	}

	if last, ok := bars.Latest(); ok {
		cfg.Annotation = models.ChartAnnotation{
			Date:  last.Date.Format(dateLayout),
			Price: last.Close,
			Label: fmt.Sprintf("%s (%s)", result.Recommendation.Action, result.Recommendation.Confidence),
		}
	}

	return cfg
}

// alignSeries expands an offset-aligned moving average into a slice the
// length of the source series, nil where undefined.
func alignSeries(ma models.SMASeries, length int) []*float64 {
	out := make([]*float64, length)
	for i := 0; i < length; i++ {
		if v, ok := ma.At(i); ok {
			value := v
			out[i] = &value
		}
	}
	return out
}

// Insights describes what the chart shows in plain language. It is
// deterministic and derived entirely from the chart configuration.
func (s *Service) Insights(_ context.Context, data *models.MarketData, result *models.AnalysisResult, cfg *models.ChartConfig) string {
	ind := result.Indicators

	var sb strings.Builder
	fmt.Fprintf(&sb, "The chart plots %d daily closes for %s", len(cfg.Dates), cfg.Symbol)
	if len(cfg.Dates) > 0 {
		fmt.Fprintf(&sb, " from %s to %s", cfg.Dates[0], cfg.Dates[len(cfg.Dates)-1])
	}
	sb.WriteString(". ")

	switch {
	case ind.ShortMA.Defined() && ind.LongMA.Defined():
		fmt.Fprintf(&sb, "The %d-day and %d-day moving averages overlay the price line. ",
			cfg.ShortWindow, cfg.LongWindow)
	case ind.LongMA.Defined():
		fmt.Fprintf(&sb, "The %d-day moving average overlays the price line. ", cfg.LongWindow)
	}

	if shortMA, ok := ind.ShortMA.Latest(); ok {
		if longMA, hasLong := ind.LongMA.Latest(); hasLong {
			relation := "above"
			if shortMA < longMA {
				relation = "below"
			}
			fmt.Fprintf(&sb, "The short average currently sits %s the long average, ", relation)
			direction := "an upward"
			if ind.TrendDelta < 0 {
				direction = "a downward"
			}
			fmt.Fprintf(&sb, "consistent with %s trend. ", direction)
		}
	}

	fmt.Fprintf(&sb, "The last bar is annotated with the %s signal.", result.Recommendation.Action)
	return sb.String()
}
