package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmorling/stockpilot/internal/common"
	"github.com/cmorling/stockpilot/internal/interfaces"
	"github.com/cmorling/stockpilot/internal/models"
)

// ErrInsufficientData is returned when the series is empty and nothing
// can be computed at all.
var ErrInsufficientData = errors.New("insufficient price data for analysis")

const defaultNarrativeTimeout = 20 * time.Second

// rsiPeriod is the conventional 14-day RSI window. The RSI only feeds
// the narrative prompt, never the recommendation rule.
const rsiPeriod = 14

// Engine derives indicators and a recommendation from a price series.
// The recommendation path is deterministic; only the optional narrative
// call touches the network, and its failure never fails the run.
type Engine struct {
	cfg              common.AnalysisConfig
	narrator         interfaces.NarrativeClient
	narrativeTimeout time.Duration
	logger           *common.Logger
}

// Option configures the analysis engine.
type Option func(*Engine)

// WithNarrativeClient attaches an LLM backend used to enrich the
// deterministic summary. A nil client leaves the template text as-is.
func WithNarrativeClient(client interfaces.NarrativeClient) Option {
	return func(e *Engine) {
		e.narrator = client
	}
}

// WithNarrativeTimeout bounds a single narrative generation call.
func WithNarrativeTimeout(timeout time.Duration) Option {
	return func(e *Engine) {
		if timeout > 0 {
			e.narrativeTimeout = timeout
		}
	}
}

var _ interfaces.AnalysisEngine = (*Engine)(nil)

// NewEngine creates an analysis engine with the given thresholds.
func NewEngine(cfg common.AnalysisConfig, logger *common.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	e := &Engine{
		cfg:              cfg,
		narrativeTimeout: defaultNarrativeTimeout,
		logger:           logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Analyze computes indicators over the series and maps them to a
// recommendation. Running it twice on the same input yields the same
// recommendation and indicators.
func (e *Engine) Analyze(ctx context.Context, data *models.MarketData) (*models.AnalysisResult, error) {
	if data == nil || len(data.Bars) == 0 {
		return nil, ErrInsufficientData
	}

	closes := data.Bars.Closes()
	indicators := e.computeIndicators(closes)
	rec := e.recommend(len(closes), indicators)

	result := &models.AnalysisResult{
		Recommendation: rec,
		Indicators:     indicators,
	}
	result.Narrative = e.narrative(ctx, data, result)

	e.logger.Debug().
		Str("symbol", data.Symbol).
		Str("action", string(rec.Action)).
		Str("confidence", string(rec.Confidence)).
		Float64("trend_delta", indicators.TrendDelta).
		Float64("volatility", indicators.Volatility).
		Msg("Analysis complete")

	return result, nil
}

func (e *Engine) computeIndicators(closes []float64) *models.IndicatorSet {
	// The long window shrinks to the series length so a trend baseline
	// always exists once there is at least one bar.
	longWindow := e.cfg.LongWindow
	if len(closes) < longWindow {
		longWindow = len(closes)
	}

	shortOffset, shortValues := SimpleMovingAverage(closes, e.cfg.ShortWindow)
	longOffset, longValues := SimpleMovingAverage(closes, longWindow)

	indicators := &models.IndicatorSet{
		ShortMA:     models.SMASeries{Window: e.cfg.ShortWindow, Offset: shortOffset, Values: shortValues},
		LongMA:      models.SMASeries{Window: longWindow, Offset: longOffset, Values: longValues},
		Volatility:  Volatility(closes, e.cfg.VolatilityWindow),
		LatestClose: closes[len(closes)-1],
	}

	if longMA, ok := indicators.LongMA.Latest(); ok {
		indicators.TrendDelta = TrendDelta(indicators.LatestClose, longMA)
	}
	if rsi, ok := RelativeStrengthIndex(closes, rsiPeriod); ok {
		indicators.RSI = &rsi
	}
	return indicators
}

func (e *Engine) recommend(barCount int, ind *models.IndicatorSet) models.Recommendation {
	if barCount < e.cfg.ShortWindow {
		return models.Recommendation{
			Action:     models.ActionHold,
			Confidence: models.ConfidenceLow,
			Rationale: fmt.Sprintf("insufficient history: %d bars available, %d required for the short moving average",
				barCount, e.cfg.ShortWindow),
		}
	}

	action := models.ActionHold
	switch {
	case ind.TrendDelta > e.cfg.BuyThreshold:
		action = models.ActionBuy
	case ind.TrendDelta < -e.cfg.SellThreshold:
		action = models.ActionSell
	}

	confidence := models.ConfidenceLow
	magnitude := ind.TrendDelta
	if magnitude < 0 {
		magnitude = -magnitude
	}
	switch {
	case magnitude > e.cfg.HighConfidence*ind.Volatility:
		confidence = models.ConfidenceHigh
	case magnitude > e.cfg.MediumConfidence*ind.Volatility:
		confidence = models.ConfidenceMedium
	}

	return models.Recommendation{
		Action:     action,
		Confidence: confidence,
		Rationale: fmt.Sprintf("latest close %.2f sits %.2f%% from the %d-day average with %.2f%% daily volatility",
			ind.LatestClose, ind.TrendDelta*100, ind.LongMA.Window, ind.Volatility*100),
	}
}

// narrative returns the LLM-enriched summary when a backend is configured
// and responsive, and the deterministic template otherwise.
func (e *Engine) narrative(ctx context.Context, data *models.MarketData, result *models.AnalysisResult) string {
	template := TemplateNarrative(data, result)
	if e.narrator == nil {
		return template
	}

	callCtx, cancel := context.WithTimeout(ctx, e.narrativeTimeout)
	defer cancel()

	text, err := e.narrator.GenerateNarrative(callCtx, BuildPrompt(data, result))
	if err != nil {
		e.logger.Warn().
			Err(err).
			Str("symbol", data.Symbol).
			Str("backend", e.narrator.Name()).
			Msg("Narrative generation failed, using template summary")
		return template
	}
	if strings.TrimSpace(text) == "" {
		e.logger.Warn().
			Str("symbol", data.Symbol).
			Str("backend", e.narrator.Name()).
			Msg("Narrative backend returned empty text, using template summary")
		return template
	}
	return text
}
