// Package yahoo provides a client for the Yahoo Finance chart API
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/cmorling/stockpilot/internal/common"
	"github.com/cmorling/stockpilot/internal/interfaces"
	"github.com/cmorling/stockpilot/internal/models"
)

const (
	DefaultBaseURL   = "https://query1.finance.yahoo.com"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second
)

// Client implements the MarketProvider interface against the Yahoo
// Finance v8 chart endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
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

// NewClient creates a new Yahoo Finance client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Name identifies the provider
func (c *Client) Name() string { return "yahoo" }

// APIError represents an upstream API error
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Symbol     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("yahoo API error: %s (status: %d, symbol: %s)", e.Message, e.StatusCode, e.Symbol)
}

// NotFound reports whether the error means the symbol has no data.
func (e *APIError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound || e.Code == "Not Found"
}

// chartResponse mirrors the subset of the v8 chart payload we consume.
// Quote arrays may contain nulls for halted sessions.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency     string `json:"currency"`
				Symbol       string `json:"symbol"`
				ExchangeName string `json:"exchangeName"`
				ShortName    string `json:"shortName"`
				LongName     string `json:"longName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchDailyBars retrieves daily bars for the symbol over the period.
func (c *Client) FetchDailyBars(ctx context.Context, symbol string, period models.Period) (*models.MarketData, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("range", string(period))
	params.Set("interval", "1d")
	params.Set("events", "history")

	reqURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "stockpilot/"+common.GetVersion())

	c.logger.Debug().Str("symbol", symbol).Str("period", string(period)).Msg("Yahoo chart request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var chart chartResponse
	if jsonErr := json.Unmarshal(body, &chart); jsonErr != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode), Symbol: symbol}
		}
		return nil, fmt.Errorf("failed to decode response: %w", jsonErr)
	}

	if chart.Chart.Error != nil {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Code:       chart.Chart.Error.Code,
			Message:    chart.Chart.Error.Description,
			Symbol:     symbol,
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode), Symbol: symbol}
	}
	if len(chart.Chart.Result) == 0 {
		return nil, &APIError{StatusCode: http.StatusNotFound, Code: "Not Found", Message: "empty chart result", Symbol: symbol}
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, &APIError{StatusCode: http.StatusNotFound, Code: "Not Found", Message: "no quote data", Symbol: symbol}
	}
	quote := result.Indicators.Quote[0]

	bars := make(models.PriceSeries, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		// Sessions without a close are unusable for analysis
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}
		bar := models.PriceBar{
			Date:  time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			Close: *quote.Close[i],
		}
		if i < len(quote.Open) && quote.Open[i] != nil {
			bar.Open = *quote.Open[i]
		}
		if i < len(quote.High) && quote.High[i] != nil {
			bar.High = *quote.High[i]
		}
		if i < len(quote.Low) && quote.Low[i] != nil {
			bar.Low = *quote.Low[i]
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			bar.Volume = *quote.Volume[i]
		}
		bars = append(bars, bar)
	}

	name := result.Meta.LongName
	if name == "" {
		name = result.Meta.ShortName
	}

	data := &models.MarketData{
		Symbol: symbol,
		Period: period,
		Bars:   bars,
		Company: &models.CompanyInfo{
			Name:     name,
			Currency: result.Meta.Currency,
			Exchange: result.Meta.ExchangeName,
		},
		Source:    c.Name(),
		FetchedAt: time.Now().UTC(),
	}

	c.enrich(ctx, data)

	return data, nil
}

// enrich attaches news headlines and fundamentals to the market data.
// Both calls are best-effort: failures are logged and the series is
// returned without them.
func (c *Client) enrich(ctx context.Context, data *models.MarketData) {
	news, err := c.fetchNews(ctx, data.Symbol)
	if err != nil {
		c.logger.Debug().Err(err).Str("symbol", data.Symbol).Msg("News fetch failed, continuing without headlines")
	} else {
		data.News = news
	}

	if err := c.fetchFundamentals(ctx, data); err != nil {
		c.logger.Debug().Err(err).Str("symbol", data.Symbol).Msg("Fundamentals fetch failed, continuing without them")
	}
}

type searchResponse struct {
	News []struct {
		Title     string `json:"title"`
		Publisher string `json:"publisher"`
	} `json:"news"`
}

// fetchNews retrieves recent headlines from the search endpoint.
func (c *Client) fetchNews(ctx context.Context, symbol string) ([]models.NewsItem, error) {
	params := url.Values{}
	params.Set("q", symbol)
	params.Set("newsCount", "5")
	params.Set("quotesCount", "0")

	var result searchResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/v1/finance/search?%s", c.baseURL, params.Encode()), &result); err != nil {
		return nil, err
	}

	news := make([]models.NewsItem, 0, len(result.News))
	for _, item := range result.News {
		if item.Title == "" {
			continue
		}
		news = append(news, models.NewsItem{Title: item.Title, Publisher: item.Publisher})
	}
	return news, nil
}

// rawValue is Yahoo's {raw, fmt} number wrapper.
type rawValue struct {
	Raw float64 `json:"raw"`
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			AssetProfile struct {
				Sector   string `json:"sector"`
				Industry string `json:"industry"`
			} `json:"assetProfile"`
			SummaryDetail struct {
				TrailingPE    rawValue `json:"trailingPE"`
				DividendYield rawValue `json:"dividendYield"`
				MarketCap     rawValue `json:"marketCap"`
			} `json:"summaryDetail"`
		} `json:"result"`
	} `json:"quoteSummary"`
}

// fetchFundamentals retrieves sector/industry and basic valuation
// figures from the quoteSummary endpoint.
func (c *Client) fetchFundamentals(ctx context.Context, data *models.MarketData) error {
	params := url.Values{}
	params.Set("modules", "assetProfile,summaryDetail")

	reqURL := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?%s", c.baseURL, url.PathEscape(data.Symbol), params.Encode())

	var result quoteSummaryResponse
	if err := c.getJSON(ctx, reqURL, &result); err != nil {
		return err
	}
	if len(result.QuoteSummary.Result) == 0 {
		return fmt.Errorf("empty quote summary for %s", data.Symbol)
	}

	summary := result.QuoteSummary.Result[0]
	if data.Company != nil {
		data.Company.Sector = summary.AssetProfile.Sector
		data.Company.Industry = summary.AssetProfile.Industry
	}

	fundamentals := &models.Fundamentals{
		MarketCap:     summary.SummaryDetail.MarketCap.Raw,
		PERatio:       summary.SummaryDetail.TrailingPE.Raw,
		DividendYield: summary.SummaryDetail.DividendYield.Raw,
	}
	if *fundamentals != (models.Fundamentals{}) {
		data.Fundamentals = fundamentals
	}
	return nil
}

// getJSON performs a rate-limited GET and decodes the JSON body.
func (c *Client) getJSON(ctx context.Context, reqURL string, v interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "stockpilot/"+common.GetVersion())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Ensure Client implements MarketProvider
var _ interfaces.MarketProvider = (*Client)(nil)
