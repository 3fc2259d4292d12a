// Package interfaces defines service contracts for Stockpilot
package interfaces

import (
	"context"

	"github.com/cmorling/stockpilot/internal/models"
)

// MarketProvider fetches daily OHLCV bars from one upstream finance API.
// Implementations must be safe for concurrent use.
type MarketProvider interface {
	// Name identifies the provider in logs and MarketData.Source
	Name() string

	// FetchDailyBars retrieves daily bars covering the requested period.
	// Bar ordering is provider-defined; the collector normalizes it.
	FetchDailyBars(ctx context.Context, symbol string, period models.Period) (*models.MarketData, error)
}

// NarrativeClient rephrases deterministic analysis text via a language
// model. Callers treat every error as recoverable: the templated text is
// used whenever the client fails.
type NarrativeClient interface {
	// Name identifies the backend in logs
	Name() string

	// GenerateNarrative produces a completion for the given prompt
	GenerateNarrative(ctx context.Context, prompt string) (string, error)
}

// ResponseCache stores collector responses keyed by (symbol, period).
type ResponseCache interface {
	// Get returns the cached response, or false on miss or expiry
	Get(symbol string, period models.Period) (*models.MarketData, bool)

	// Put stores a response
	Put(data *models.MarketData) error
}
