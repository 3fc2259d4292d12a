package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmorling/stockpilot/internal/common"
	"github.com/cmorling/stockpilot/internal/models"
)

type stubCollector struct {
	data *models.MarketData
	err  error
}

func (c *stubCollector) Fetch(_ context.Context, symbol string, period models.Period) (*models.MarketData, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.data, nil
}

type stubEngine struct {
	result *models.AnalysisResult
	err    error
}

func (e *stubEngine) Analyze(_ context.Context, _ *models.MarketData) (*models.AnalysisResult, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.result, nil
}

type stubViz struct{}

func (stubViz) Build(_ *models.MarketData, _ *models.AnalysisResult) *models.ChartConfig {
	return &models.ChartConfig{Symbol: "AAPL"}
}

func (stubViz) Insights(_ context.Context, _ *models.MarketData, _ *models.AnalysisResult, _ *models.ChartConfig) string {
	return "chart insights"
}

func (stubViz) RenderPNG(_ *models.ChartConfig) ([]byte, error) {
	return nil, errors.New("not rendered in pipeline")
}

func testData() *models.MarketData {
	return &models.MarketData{
		Symbol: "AAPL",
		Period: models.Period1Y,
		Bars: models.PriceSeries{
			{Date: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), Close: 100},
			{Date: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), Close: 101},
		},
	}
}

func testResult() *models.AnalysisResult {
	return &models.AnalysisResult{
		Recommendation: models.Recommendation{
			Action:     models.ActionBuy,
			Confidence: models.ConfidenceHigh,
			Rationale:  "price above trend",
		},
		Indicators: &models.IndicatorSet{LatestClose: 101},
		Narrative:  "narrative text",
	}
}

func TestRun_Success(t *testing.T) {
	svc := NewService(
		&stubCollector{data: testData()},
		&stubEngine{result: testResult()},
		stubViz{},
		common.NewSilentLogger(),
	)

	report, err := svc.Run(context.Background(), "AAPL", models.Period1Y)
	require.NoError(t, err)

	assert.True(t, report.Success)
	assert.Equal(t, "AAPL", report.Symbol)
	assert.Equal(t, models.Period1Y, report.Period)
	assert.Equal(t, "1 Year", report.PeriodDescription)
	assert.Equal(t, models.ActionBuy, report.Recommendation)
	assert.Equal(t, models.ConfidenceHigh, report.Confidence)
	assert.Equal(t, "narrative text", report.Analysis)
	assert.Equal(t, "chart insights", report.VisualizationInsights)
	require.NotNil(t, report.ChartConfig)
	assert.False(t, report.Timestamp.IsZero())

	assert.Equal(t, models.StageCompleted, report.PipelineStatus.DataCollection)
	assert.Equal(t, models.StageCompleted, report.PipelineStatus.Analysis)
	assert.Equal(t, models.StageCompleted, report.PipelineStatus.Visualization)
}

func TestRun_CollectorFailure(t *testing.T) {
	collErr := errors.New("providers unavailable")
	svc := NewService(
		&stubCollector{err: collErr},
		&stubEngine{result: testResult()},
		stubViz{},
		common.NewSilentLogger(),
	)

	_, err := svc.Run(context.Background(), "AAPL", models.Period1Y)
	require.Error(t, err)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, "data collection", stageErr.Stage)
	assert.ErrorIs(t, err, collErr)

	assert.Equal(t, models.StageError, stageErr.Status.DataCollection)
	assert.Equal(t, models.StagePending, stageErr.Status.Analysis)
	assert.Equal(t, models.StagePending, stageErr.Status.Visualization)
}

func TestRun_AnalysisFailure(t *testing.T) {
	svc := NewService(
		&stubCollector{data: testData()},
		&stubEngine{err: errors.New("insufficient price data")},
		stubViz{},
		common.NewSilentLogger(),
	)

	_, err := svc.Run(context.Background(), "AAPL", models.Period1Y)
	require.Error(t, err)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, "analysis", stageErr.Stage)
	assert.Equal(t, models.StageCompleted, stageErr.Status.DataCollection)
	assert.Equal(t, models.StageError, stageErr.Status.Analysis)
	assert.Equal(t, models.StagePending, stageErr.Status.Visualization)
}
