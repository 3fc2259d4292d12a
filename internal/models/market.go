// Package models defines the shared data types for Stockpilot
package models

import (
	"sort"
	"time"
)

// PriceBar is one daily OHLCV bar. Immutable once fetched.
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// PriceSeries is a time-ordered sequence of bars for one symbol and period.
// Dates are strictly increasing and unique.
type PriceSeries []PriceBar

// Closes returns the closing prices in series order.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, bar := range s {
		closes[i] = bar.Close
	}
	return closes
}

// Latest returns the most recent bar, or false for an empty series.
func (s PriceSeries) Latest() (PriceBar, bool) {
	if len(s) == 0 {
		return PriceBar{}, false
	}
	return s[len(s)-1], true
}

// Normalize sorts the series ascending by date and drops duplicate dates,
// keeping the first bar seen for each date.
func (s PriceSeries) Normalize() PriceSeries {
	if len(s) == 0 {
		return s
	}

	sorted := make(PriceSeries, len(s))
	copy(sorted, s)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	out := sorted[:1]
	for _, bar := range sorted[1:] {
		if bar.Date.Equal(out[len(out)-1].Date) {
			continue
		}
		out = append(out, bar)
	}
	return out
}

// CompanyInfo carries the provider's descriptive metadata when available.
type CompanyInfo struct {
	Name     string `json:"name,omitempty"`
	Currency string `json:"currency,omitempty"`
	Exchange string `json:"exchange,omitempty"`
	Sector   string `json:"sector,omitempty"`
	Industry string `json:"industry,omitempty"`
}

// Fundamentals holds basic valuation figures. Zero fields mean the
// provider did not report them.
type Fundamentals struct {
	MarketCap     float64 `json:"market_cap,omitempty"`
	PERatio       float64 `json:"pe_ratio,omitempty"`
	DividendYield float64 `json:"dividend_yield,omitempty"`
}

// NewsItem is one recent headline for the symbol.
type NewsItem struct {
	Title     string `json:"title"`
	Publisher string `json:"publisher,omitempty"`
}

// MarketData is the collector's output for one (symbol, period) request.
// Fundamentals and News are best-effort enrichment; either may be absent
// without affecting the analysis pipeline.
type MarketData struct {
	Symbol       string        `json:"symbol"`
	Period       Period        `json:"period"`
	Bars         PriceSeries   `json:"bars"`
	Company      *CompanyInfo  `json:"company,omitempty"`
	Fundamentals *Fundamentals `json:"fundamentals,omitempty"`
	News         []NewsItem    `json:"news,omitempty"`
	Source       string        `json:"source"`
	FetchedAt    time.Time     `json:"fetched_at"`
}

// Period identifies the requested lookback window.
type Period string

const (
	Period1M Period = "1mo"
	Period3M Period = "3mo"
	Period6M Period = "6mo"
	Period1Y Period = "1y"
	Period2Y Period = "2y"
	Period5Y Period = "5y"
)

// DefaultPeriod is used when a request omits or misspells the period.
const DefaultPeriod = Period1Y

// Periods lists the supported periods in ascending length order.
func Periods() []Period {
	return []Period{Period1M, Period3M, Period6M, Period1Y, Period2Y, Period5Y}
}

// ParsePeriod maps a request string to a Period, falling back to the
// default for anything unrecognized.
func ParsePeriod(s string) Period {
	p := Period(s)
	switch p {
	case Period1M, Period3M, Period6M, Period1Y, Period2Y, Period5Y:
		return p
	}
	return DefaultPeriod
}

// Description returns the human-readable period label.
func (p Period) Description() string {
	switch p {
	case Period1M:
		return "1 Month"
	case Period3M:
		return "3 Months"
	case Period6M:
		return "6 Months"
	case Period1Y:
		return "1 Year"
	case Period2Y:
		return "2 Years"
	case Period5Y:
		return "5 Years"
	}
	return string(p)
}

// TradingDays returns the approximate number of daily bars in the period.
func (p Period) TradingDays() int {
	switch p {
	case Period1M:
		return 22
	case Period3M:
		return 66
	case Period6M:
		return 126
	case Period1Y:
		return 252
	case Period2Y:
		return 504
	case Period5Y:
		return 1260
	}
	return 252
}

// Start returns the calendar start date of the period relative to now.
func (p Period) Start(now time.Time) time.Time {
	switch p {
	case Period1M:
		return now.AddDate(0, -1, 0)
	case Period3M:
		return now.AddDate(0, -3, 0)
	case Period6M:
		return now.AddDate(0, -6, 0)
	case Period1Y:
		return now.AddDate(-1, 0, 0)
	case Period2Y:
		return now.AddDate(-2, 0, 0)
	case Period5Y:
		return now.AddDate(-5, 0, 0)
	}
	return now.AddDate(-1, 0, 0)
}
