package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmorling/stockpilot/internal/common"
	"github.com/cmorling/stockpilot/internal/interfaces"
	"github.com/cmorling/stockpilot/internal/models"
)

func providers(ps ...*stubProvider) []interfaces.MarketProvider {
	out := make([]interfaces.MarketProvider, len(ps))
	for i, p := range ps {
		out[i] = p
	}
	return out
}

type stubProvider struct {
	name  string
	data  *models.MarketData
	err   error
	calls int
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) FetchDailyBars(_ context.Context, symbol string, period models.Period) (*models.MarketData, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.data, nil
}

type stubNotFoundErr struct{}

func (stubNotFoundErr) Error() string  { return "symbol may be delisted" }
func (stubNotFoundErr) NotFound() bool { return true }

type memCache struct {
	entries map[string]*models.MarketData
	puts    int
}

func newMemCache() *memCache {
	return &memCache{entries: map[string]*models.MarketData{}}
}

func (c *memCache) Get(symbol string, period models.Period) (*models.MarketData, bool) {
	d, ok := c.entries[symbol+"/"+string(period)]
	return d, ok
}

func (c *memCache) Put(data *models.MarketData) error {
	c.puts++
	c.entries[data.Symbol+"/"+string(data.Period)] = data
	return nil
}

func bars(closes ...float64) models.PriceSeries {
	out := make(models.PriceSeries, len(closes))
	for i, c := range closes {
		out[i] = models.PriceBar{
			Date:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Close: c,
		}
	}
	return out
}

func TestFetch_PrimaryProvider(t *testing.T) {
	primary := &stubProvider{name: "yahoo", data: &models.MarketData{
		Symbol: "AAPL", Period: models.Period1Y, Bars: bars(100, 101, 102), Source: "yahoo",
	}}
	fallback := &stubProvider{name: "stooq"}
	cache := newMemCache()

	svc := NewService(cache, providers(primary, fallback), common.NewSilentLogger())

	data, err := svc.Fetch(context.Background(), "aapl", models.Period1Y)
	require.NoError(t, err)

	assert.Equal(t, "AAPL", data.Symbol)
	assert.Equal(t, "yahoo", data.Source)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 0, fallback.calls, "fallback must not be consulted on success")
	assert.Equal(t, 1, cache.puts)
}

func TestFetch_FallbackProvider(t *testing.T) {
	primary := &stubProvider{name: "yahoo", err: errors.New("connection refused")}
	fallback := &stubProvider{name: "stooq", data: &models.MarketData{
		Symbol: "AAPL", Period: models.Period1Y, Bars: bars(100, 101), Source: "stooq",
	}}

	svc := NewService(newMemCache(), providers(primary, fallback), common.NewSilentLogger())

	data, err := svc.Fetch(context.Background(), "AAPL", models.Period1Y)
	require.NoError(t, err)

	assert.Equal(t, "stooq", data.Source)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
}

func TestFetch_CacheHitBypassesProviders(t *testing.T) {
	primary := &stubProvider{name: "yahoo", data: &models.MarketData{
		Symbol: "AAPL", Period: models.Period1Y, Bars: bars(100), Source: "yahoo",
	}}
	cache := newMemCache()

	svc := NewService(cache, providers(primary), common.NewSilentLogger())

	_, err := svc.Fetch(context.Background(), "AAPL", models.Period1Y)
	require.NoError(t, err)
	require.Equal(t, 1, primary.calls)

	_, err = svc.Fetch(context.Background(), "AAPL", models.Period1Y)
	require.NoError(t, err)
	assert.Equal(t, 1, primary.calls, "second fetch must be served from cache")
}

func TestFetch_NormalizesBars(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2025, 6, d, 0, 0, 0, 0, time.UTC) }
	primary := &stubProvider{name: "yahoo", data: &models.MarketData{
		Symbol: "AAPL", Period: models.Period1Y, Source: "yahoo",
		Bars: models.PriceSeries{
			{Date: day(3), Close: 12},
			{Date: day(1), Close: 10},
			{Date: day(1), Close: 10},
			{Date: day(2), Close: 11},
		},
	}}

	svc := NewService(newMemCache(), providers(primary), common.NewSilentLogger())

	data, err := svc.Fetch(context.Background(), "AAPL", models.Period1Y)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 11, 12}, data.Bars.Closes())
}

func TestFetch_AllProvidersDown(t *testing.T) {
	primary := &stubProvider{name: "yahoo", err: errors.New("timeout")}
	fallback := &stubProvider{name: "stooq", err: errors.New("connection refused")}

	svc := NewService(newMemCache(), providers(primary, fallback), common.NewSilentLogger())

	_, err := svc.Fetch(context.Background(), "AAPL", models.Period1Y)
	require.Error(t, err)

	var collErr *CollectorError
	require.ErrorAs(t, err, &collErr)
	assert.False(t, collErr.NotFound)
	assert.Contains(t, collErr.Message, "unavailable")
}

func TestFetch_SymbolNotFound(t *testing.T) {
	primary := &stubProvider{name: "yahoo", err: stubNotFoundErr{}}
	fallback := &stubProvider{name: "stooq", err: stubNotFoundErr{}}

	svc := NewService(newMemCache(), providers(primary, fallback), common.NewSilentLogger())

	_, err := svc.Fetch(context.Background(), "NOSUCH", models.Period6M)
	require.Error(t, err)

	var collErr *CollectorError
	require.ErrorAs(t, err, &collErr)
	assert.True(t, collErr.NotFound)
	assert.Contains(t, collErr.Message, "NOSUCH")
	assert.Contains(t, collErr.Message, "6 Months")
}

func TestFetch_EmptySymbol(t *testing.T) {
	svc := NewService(newMemCache(), nil, common.NewSilentLogger())

	_, err := svc.Fetch(context.Background(), "   ", models.Period1Y)
	var collErr *CollectorError
	require.ErrorAs(t, err, &collErr)
	assert.True(t, collErr.NotFound)
}
