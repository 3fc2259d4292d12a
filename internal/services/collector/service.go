// Package collector implements the data collection stage: cache
// read-through plus a provider fallback chain.
package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cmorling/stockpilot/internal/common"
	"github.com/cmorling/stockpilot/internal/interfaces"
	"github.com/cmorling/stockpilot/internal/models"
)

// CollectorError is surfaced to the caller when every provider fails.
// NotFound distinguishes "no data for symbol/period" from "providers
// unavailable" so the server can map it to the right status.
type CollectorError struct {
	Symbol   string
	Period   models.Period
	Message  string
	NotFound bool
	Err      error
}

func (e *CollectorError) Error() string {
	return fmt.Sprintf("collector: %s", e.Message)
}

func (e *CollectorError) Unwrap() error {
	return e.Err
}

// notFoundClassifier is implemented by provider API errors that can
// distinguish unknown symbols from transport failures.
type notFoundClassifier interface {
	NotFound() bool
}

// Service fetches and normalizes price series for one (symbol, period)
// request. Cache hits bypass the network entirely.
type Service struct {
	cache     interfaces.ResponseCache
	providers []interfaces.MarketProvider
	logger    *common.Logger
}

// NewService creates a collector over the given providers, tried in order.
func NewService(cache interfaces.ResponseCache, providers []interfaces.MarketProvider, logger *common.Logger) *Service {
	return &Service{
		cache:     cache,
		providers: providers,
		logger:    logger,
	}
}

// Fetch returns market data for the symbol and period.
func (s *Service) Fetch(ctx context.Context, symbol string, period models.Period) (*models.MarketData, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, &CollectorError{Period: period, Message: "symbol is required", NotFound: true}
	}

	if s.cache != nil {
		if data, ok := s.cache.Get(symbol, period); ok {
			s.logger.Debug().Str("symbol", symbol).Str("period", string(period)).Msg("Cache hit")
			return data, nil
		}
	}

	var lastErr error
	notFound := false
	for _, provider := range s.providers {
		data, err := provider.FetchDailyBars(ctx, symbol, period)
		if err != nil {
			var classifier notFoundClassifier
			if errors.As(err, &classifier) && classifier.NotFound() {
				notFound = true
			}
			s.logger.Warn().
				Err(err).
				Str("provider", provider.Name()).
				Str("symbol", symbol).
				Msg("Provider fetch failed")
			lastErr = err
			continue
		}
		if len(data.Bars) == 0 {
			notFound = true
			lastErr = fmt.Errorf("provider %s returned no bars for %s", provider.Name(), symbol)
			continue
		}

		data.Symbol = symbol
		data.Bars = data.Bars.Normalize()

		if s.cache != nil {
			if err := s.cache.Put(data); err != nil {
				s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache response")
			}
		}

		s.logger.Info().
			Str("symbol", symbol).
			Str("period", string(period)).
			Str("source", data.Source).
			Int("bars", len(data.Bars)).
			Msg("Market data collected")

		return data, nil
	}

	if notFound {
		return nil, &CollectorError{
			Symbol:   symbol,
			Period:   period,
			Message:  fmt.Sprintf("no data for %s over %s", symbol, period.Description()),
			NotFound: true,
			Err:      lastErr,
		}
	}
	return nil, &CollectorError{
		Symbol:  symbol,
		Period:  period,
		Message: fmt.Sprintf("market data providers unavailable for %s", symbol),
		Err:     lastErr,
	}
}

// Ensure Service implements CollectorService
var _ interfaces.CollectorService = (*Service)(nil)
