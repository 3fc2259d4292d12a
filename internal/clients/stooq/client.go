// Package stooq provides a client for the Stooq daily-quotes CSV endpoint.
// It serves as the fallback provider when Yahoo is unavailable.
package stooq

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/cmorling/stockpilot/internal/common"
	"github.com/cmorling/stockpilot/internal/interfaces"
	"github.com/cmorling/stockpilot/internal/models"
)

const (
	DefaultBaseURL   = "https://stooq.com"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 2 // requests per second
)

// Client implements the MarketProvider interface against Stooq's CSV
// download endpoint. Stooq needs no API key but uses its own ticker
// notation (lower case, ".us" suffix for US listings).
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
	now        func() time.Time
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithClock overrides the time source, used by tests for stable ranges.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates a new Stooq client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Name identifies the provider
func (c *Client) Name() string { return "stooq" }

// APIError represents an upstream API error
type APIError struct {
	StatusCode int
	Message    string
	Symbol     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stooq API error: %s (status: %d, symbol: %s)", e.Message, e.StatusCode, e.Symbol)
}

// NotFound reports whether the error means the symbol has no data.
func (e *APIError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound || strings.Contains(strings.ToLower(e.Message), "no data")
}

// stooqSymbol maps a request symbol to Stooq notation. Symbols without
// an exchange suffix are assumed to be US listings.
func stooqSymbol(symbol string) string {
	s := strings.ToLower(symbol)
	if !strings.Contains(s, ".") && !strings.HasPrefix(s, "^") {
		s += ".us"
	}
	return s
}

// FetchDailyBars retrieves daily bars for the symbol over the period.
func (c *Client) FetchDailyBars(ctx context.Context, symbol string, period models.Period) (*models.MarketData, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	now := c.now().UTC()
	params := url.Values{}
	params.Set("s", stooqSymbol(symbol))
	params.Set("d1", period.Start(now).Format("20060102"))
	params.Set("d2", now.Format("20060102"))
	params.Set("i", "d")

	reqURL := fmt.Sprintf("%s/q/d/l/?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("symbol", symbol).Str("period", string(period)).Msg("Stooq CSV request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body)), Symbol: symbol}
	}

	bars, err := parseCSV(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV for %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return nil, &APIError{StatusCode: http.StatusNotFound, Message: "no data", Symbol: symbol}
	}

	return &models.MarketData{
		Symbol:    symbol,
		Period:    period,
		Bars:      bars,
		Source:    c.Name(),
		FetchedAt: time.Now().UTC(),
	}, nil
}

// parseCSV reads Stooq's Date,Open,High,Low,Close,Volume rows. A body of
// "No data" (or any non-CSV text) yields an empty series rather than an
// error so the caller can classify it as not-found.
func parseCSV(r io.Reader) (models.PriceSeries, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var bars models.PriceSeries
	header := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if header {
			header = false
			if len(record) > 0 && strings.EqualFold(record[0], "Date") {
				continue
			}
		}
		if len(record) < 5 {
			continue
		}

		date, err := time.Parse("2006-01-02", record[0])
		if err != nil {
			continue
		}
		open, err1 := strconv.ParseFloat(record[1], 64)
		high, err2 := strconv.ParseFloat(record[2], 64)
		low, err3 := strconv.ParseFloat(record[3], 64)
		closePrice, err4 := strconv.ParseFloat(record[4], 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue
		}

		var volume int64
		if len(record) > 5 {
			volume, _ = strconv.ParseInt(record[5], 10, 64)
		}

		bars = append(bars, models.PriceBar{
			Date:   date,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closePrice,
			Volume: volume,
		})
	}

	return bars, nil
}

// Ensure Client implements MarketProvider
var _ interfaces.MarketProvider = (*Client)(nil)
