package models

import "time"

// Action is the discrete recommendation.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// Confidence is a coarse, rule-derived measure of how strongly the
// indicators support the action. Not a statistical probability.
type Confidence string

const (
	ConfidenceLow    Confidence = "LOW"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceHigh   Confidence = "HIGH"
)

// Recommendation is derived purely from the indicators and latest price.
// It has no persisted identity; it is recomputed on every request.
type Recommendation struct {
	Action     Action     `json:"action"`
	Confidence Confidence `json:"confidence"`
	Rationale  string     `json:"rationale"`
}

// SMASeries holds a simple moving average aligned to its source series.
// The value for source index i is defined iff i >= Offset; Values[i-Offset]
// holds it. An empty Values slice means the window never filled.
type SMASeries struct {
	Window int       `json:"window"`
	Offset int       `json:"offset"`
	Values []float64 `json:"values"`
}

// At returns the moving average at source index i, or false where the
// window has not yet filled.
func (s SMASeries) At(i int) (float64, bool) {
	idx := i - s.Offset
	if idx < 0 || idx >= len(s.Values) {
		return 0, false
	}
	return s.Values[idx], true
}

// Latest returns the most recent moving average value, or false if the
// series never filled the window.
func (s SMASeries) Latest() (float64, bool) {
	if len(s.Values) == 0 {
		return 0, false
	}
	return s.Values[len(s.Values)-1], true
}

// Defined reports whether the series has any values.
func (s SMASeries) Defined() bool {
	return len(s.Values) > 0
}

// IndicatorSet is the derived, read-only view over one price series.
// RSI is nil when the series is too short to fill its window.
type IndicatorSet struct {
	ShortMA     SMASeries `json:"short_ma"`
	LongMA      SMASeries `json:"long_ma"`
	Volatility  float64   `json:"volatility"`
	TrendDelta  float64   `json:"trend_delta"`
	RSI         *float64  `json:"rsi,omitempty"`
	LatestClose float64   `json:"latest_close"`
}

// AnalysisResult bundles the engine output for one run.
type AnalysisResult struct {
	Recommendation Recommendation `json:"recommendation"`
	Indicators     *IndicatorSet  `json:"indicators"`
	Narrative      string         `json:"narrative"`
}

// StageStatus is the transient per-stage pipeline state.
type StageStatus string

const (
	StagePending   StageStatus = "pending"
	StageRunning   StageStatus = "running"
	StageCompleted StageStatus = "completed"
	StageError     StageStatus = "error"
)

// PipelineStatus tracks the three stages of one request.
// It exists only for the duration of that request.
type PipelineStatus struct {
	DataCollection StageStatus `json:"data_collection"`
	Analysis       StageStatus `json:"analysis"`
	Visualization  StageStatus `json:"visualization"`
}

// NewPipelineStatus returns a status with every stage pending.
func NewPipelineStatus() PipelineStatus {
	return PipelineStatus{
		DataCollection: StagePending,
		Analysis:       StagePending,
		Visualization:  StagePending,
	}
}

// AnalysisReport is the composed response for one pipeline run.
type AnalysisReport struct {
	Success               bool           `json:"success"`
	Symbol                string         `json:"symbol"`
	Period                Period         `json:"period"`
	PeriodDescription     string         `json:"period_description"`
	Recommendation        Action         `json:"recommendation"`
	Confidence            Confidence     `json:"confidence"`
	Analysis              string         `json:"analysis"`
	VisualizationInsights string         `json:"visualization_insights"`
	ChartConfig           *ChartConfig   `json:"chart_config"`
	PipelineStatus        PipelineStatus `json:"pipeline_status"`
	Timestamp             time.Time      `json:"timestamp"`
}
