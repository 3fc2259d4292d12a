// Package interfaces defines service contracts for Stockpilot
package interfaces

import (
	"context"

	"github.com/cmorling/stockpilot/internal/models"
)

// CollectorService fetches a normalized price series for one request.
type CollectorService interface {
	// Fetch returns market data for the symbol and period, consulting the
	// response cache first and falling back across providers on failure.
	Fetch(ctx context.Context, symbol string, period models.Period) (*models.MarketData, error)
}

// AnalysisEngine computes indicators and a recommendation from market data.
type AnalysisEngine interface {
	// Analyze is a pure function of its input apart from the best-effort
	// narrative call; it never errors for a non-empty series.
	Analyze(ctx context.Context, data *models.MarketData) (*models.AnalysisResult, error)
}

// VisualizationService assembles chart output from analysis results.
type VisualizationService interface {
	// Build maps the series, indicators, and recommendation to a chart
	// configuration. Pure function, no I/O.
	Build(data *models.MarketData, result *models.AnalysisResult) *models.ChartConfig

	// Insights describes what the chart shows
	Insights(ctx context.Context, data *models.MarketData, result *models.AnalysisResult, cfg *models.ChartConfig) string

	// RenderPNG renders the chart configuration to a PNG image
	RenderPNG(cfg *models.ChartConfig) ([]byte, error)
}

// PipelineService runs the collector, analysis, and visualization stages
// in sequence for one request.
type PipelineService interface {
	Run(ctx context.Context, symbol string, period models.Period) (*models.AnalysisReport, error)
}
