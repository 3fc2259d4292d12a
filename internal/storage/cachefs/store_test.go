package cachefs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmorling/stockpilot/internal/common"
	"github.com/cmorling/stockpilot/internal/models"
)

func testData(symbol string) *models.MarketData {
	return &models.MarketData{
		Symbol: symbol,
		Period: models.Period1Y,
		Bars: models.PriceSeries{
			{Date: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), Close: 101.5, Volume: 1000},
		},
		Source:    "yahoo",
		FetchedAt: time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC),
	}
}

func newTestStore(t *testing.T, ttl time.Duration) *Store {
	t.Helper()
	store, err := NewStore(common.NewSilentLogger(), t.TempDir(), ttl)
	require.NoError(t, err)
	return store
}

func TestPutGetRoundtrip(t *testing.T) {
	store := newTestStore(t, time.Hour)

	require.NoError(t, store.Put(testData("AAPL")))

	got, ok := store.Get("AAPL", models.Period1Y)
	require.True(t, ok)
	assert.Equal(t, "AAPL", got.Symbol)
	assert.Equal(t, "yahoo", got.Source)
	require.Len(t, got.Bars, 1)
	assert.Equal(t, 101.5, got.Bars[0].Close)
}

func TestGetMiss(t *testing.T) {
	store := newTestStore(t, time.Hour)

	_, ok := store.Get("MSFT", models.Period1Y)
	assert.False(t, ok)

	// Same symbol, different period is a distinct key
	require.NoError(t, store.Put(testData("AAPL")))
	_, ok = store.Get("AAPL", models.Period6M)
	assert.False(t, ok)
}

func TestGetCaseInsensitiveSymbol(t *testing.T) {
	store := newTestStore(t, time.Hour)

	require.NoError(t, store.Put(testData("AAPL")))
	_, ok := store.Get("aapl", models.Period1Y)
	assert.True(t, ok)
}

func TestTTLExpiry(t *testing.T) {
	store := newTestStore(t, time.Hour)

	require.NoError(t, store.Put(testData("AAPL")))

	// Move the clock past the TTL
	store.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, ok := store.Get("AAPL", models.Period1Y)
	assert.False(t, ok)
}

func TestCorruptEntryDiscarded(t *testing.T) {
	store := newTestStore(t, time.Hour)

	path := store.path("AAPL", models.Period1Y)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, ok := store.Get("AAPL", models.Period1Y)
	assert.False(t, ok)

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "corrupt entry should be removed")
}

func TestPurge(t *testing.T) {
	store := newTestStore(t, time.Hour)

	require.NoError(t, store.Put(testData("AAPL")))
	require.NoError(t, store.Put(testData("MSFT")))

	assert.Equal(t, 2, store.Purge())

	entries, err := os.ReadDir(store.dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotEqual(t, ".json", filepath.Ext(e.Name()))
	}
}
