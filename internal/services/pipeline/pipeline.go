// Package pipeline runs the collection, analysis, and visualization
// stages in sequence for one request.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/cmorling/stockpilot/internal/common"
	"github.com/cmorling/stockpilot/internal/interfaces"
	"github.com/cmorling/stockpilot/internal/models"
)

// StageError wraps a stage failure with the pipeline status at the time
// it occurred, so the handler can report how far the request got.
type StageError struct {
	Stage  string
	Status models.PipelineStatus
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Service owns the three-stage flow. Stages run synchronously; a failed
// stage stops the run and the later stages stay pending.
type Service struct {
	collector     interfaces.CollectorService
	analysis      interfaces.AnalysisEngine
	visualization interfaces.VisualizationService
	logger        *common.Logger
	now           func() time.Time
}

var _ interfaces.PipelineService = (*Service)(nil)

// NewService creates a pipeline over the given stage services.
func NewService(
	collector interfaces.CollectorService,
	analysis interfaces.AnalysisEngine,
	visualization interfaces.VisualizationService,
	logger *common.Logger,
) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Service{
		collector:     collector,
		analysis:      analysis,
		visualization: visualization,
		logger:        logger,
		now:           time.Now,
	}
}

// Run executes the pipeline for one symbol and period and assembles the
// response report.
func (s *Service) Run(ctx context.Context, symbol string, period models.Period) (*models.AnalysisReport, error) {
	started := s.now()
	status := models.NewPipelineStatus()

	status.DataCollection = models.StageRunning
	data, err := s.collector.Fetch(ctx, symbol, period)
	if err != nil {
		status.DataCollection = models.StageError
		return nil, &StageError{Stage: "data collection", Status: status, Err: err}
	}
	status.DataCollection = models.StageCompleted

	status.Analysis = models.StageRunning
	result, err := s.analysis.Analyze(ctx, data)
	if err != nil {
		status.Analysis = models.StageError
		return nil, &StageError{Stage: "analysis", Status: status, Err: err}
	}
	status.Analysis = models.StageCompleted

	status.Visualization = models.StageRunning
	chartCfg := s.visualization.Build(data, result)
	insights := s.visualization.Insights(ctx, data, result, chartCfg)
	status.Visualization = models.StageCompleted

	s.logger.Info().
		Str("symbol", data.Symbol).
		Str("period", string(period)).
		Str("action", string(result.Recommendation.Action)).
		Dur("elapsed", s.now().Sub(started)).
		Msg("Pipeline run complete")

	return &models.AnalysisReport{
		Success:               true,
		Symbol:                data.Symbol,
		Period:                period,
		PeriodDescription:     period.Description(),
		Recommendation:        result.Recommendation.Action,
		Confidence:            result.Recommendation.Confidence,
		Analysis:              result.Narrative,
		VisualizationInsights: insights,
		ChartConfig:           chartCfg,
		PipelineStatus:        status,
		Timestamp:             s.now().UTC(),
	}, nil
}
