package visualization

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmorling/stockpilot/internal/common"
	"github.com/cmorling/stockpilot/internal/models"
)

func fixture(t *testing.T, n int) (*models.MarketData, *models.AnalysisResult) {
	t.Helper()

	bars := make(models.PriceSeries, n)
	for i := range bars {
		bars[i] = models.PriceBar{
			Date:   time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Close:  100 + float64(i),
			Volume: int64(1000 + i),
		}
	}
	data := &models.MarketData{Symbol: "AAPL", Period: models.Period3M, Bars: bars}

	result := &models.AnalysisResult{
		Recommendation: models.Recommendation{
			Action:     models.ActionBuy,
			Confidence: models.ConfidenceMedium,
			Rationale:  "price above trend",
		},
		Indicators: &models.IndicatorSet{
			ShortMA:     sma(bars.Closes(), 3),
			LongMA:      sma(bars.Closes(), 5),
			Volatility:  0.01,
			TrendDelta:  0.03,
			LatestClose: bars[n-1].Close,
		},
	}
	return data, result
}

func sma(closes []float64, window int) models.SMASeries {
	if len(closes) < window {
		return models.SMASeries{Window: window}
	}
	values := make([]float64, 0, len(closes)-window+1)
	for i := window - 1; i < len(closes); i++ {
		var sum float64
		for j := i - window + 1; j <= i; j++ {
			sum += closes[j]
		}
		values = append(values, sum/float64(window))
	}
	return models.SMASeries{Window: window, Offset: window - 1, Values: values}
}

func TestBuild_Alignment(t *testing.T) {
	data, result := fixture(t, 10)
	svc := NewService(common.NewSilentLogger())

	cfg := svc.Build(data, result)

	require.Len(t, cfg.Dates, 10)
	require.Len(t, cfg.Closes, 10)
	require.Len(t, cfg.Volumes, 10)
	require.Len(t, cfg.ShortMA, 10)
	require.Len(t, cfg.LongMA, 10)

	assert.Equal(t, "2025-01-02", cfg.Dates[0])
	assert.Equal(t, 100.0, cfg.Closes[0])

	// Window 3 fills at index 2, window 5 at index 4.
	assert.Nil(t, cfg.ShortMA[1])
	require.NotNil(t, cfg.ShortMA[2])
	assert.InDelta(t, 101.0, *cfg.ShortMA[2], 1e-9)
	assert.Nil(t, cfg.LongMA[3])
	require.NotNil(t, cfg.LongMA[4])
	assert.InDelta(t, 102.0, *cfg.LongMA[4], 1e-9)
}

func TestBuild_Annotation(t *testing.T) {
	data, result := fixture(t, 10)
	svc := NewService(common.NewSilentLogger())

	cfg := svc.Build(data, result)

	assert.Equal(t, "2025-01-11", cfg.Annotation.Date)
	assert.Equal(t, 109.0, cfg.Annotation.Price)
	assert.Equal(t, "BUY (MEDIUM)", cfg.Annotation.Label)
	assert.Equal(t, "AAPL 3 Months", cfg.Label)
}

func TestInsights(t *testing.T) {
	data, result := fixture(t, 10)
	svc := NewService(common.NewSilentLogger())
	cfg := svc.Build(data, result)

	text := svc.Insights(context.Background(), data, result, cfg)

	assert.Contains(t, text, "10 daily closes")
	assert.Contains(t, text, "AAPL")
	assert.Contains(t, text, "2025-01-02")
	assert.Contains(t, text, "BUY signal")
	assert.Contains(t, text, "upward trend")
}

func TestRenderPNG(t *testing.T) {
	data, result := fixture(t, 30)
	svc := NewService(common.NewSilentLogger())
	cfg := svc.Build(data, result)

	png, err := svc.RenderPNG(cfg)
	require.NoError(t, err)

	require.Greater(t, len(png), 8)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, png[:8])
}

func TestRenderPNG_TooFewPoints(t *testing.T) {
	svc := NewService(common.NewSilentLogger())

	_, err := svc.RenderPNG(&models.ChartConfig{Dates: []string{"2025-01-02"}, Closes: []float64{100}})
	assert.Error(t, err)
}
