package analysis

import (
	"fmt"
	"strings"

	"github.com/cmorling/stockpilot/internal/models"
)

// TemplateNarrative renders the deterministic analysis summary. It is the
// narrative of record when no LLM backend is configured or the backend
// call fails.
func TemplateNarrative(data *models.MarketData, result *models.AnalysisResult) string {
	ind := result.Indicators
	rec := result.Recommendation

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s closed at %.2f over the last %s. ",
		data.Symbol, ind.LatestClose, data.Period.Description())

	if longMA, ok := ind.LongMA.Latest(); ok {
		direction := "above"
		if ind.TrendDelta < 0 {
			direction = "below"
		}
		fmt.Fprintf(&sb, "The price is trading %.2f%% %s its %d-day moving average of %.2f. ",
			abs(ind.TrendDelta)*100, direction, ind.LongMA.Window, longMA)
	}

	fmt.Fprintf(&sb, "Daily volatility over the recent window is %.2f%%. ", ind.Volatility*100)
	fmt.Fprintf(&sb, "Signal: %s with %s confidence (%s).",
		rec.Action, strings.ToLower(string(rec.Confidence)), rec.Rationale)

	return sb.String()
}

// BuildPrompt assembles the LLM prompt from the computed indicators. The
// model is asked to explain the signal, never to change it.
func BuildPrompt(data *models.MarketData, result *models.AnalysisResult) string {
	ind := result.Indicators
	rec := result.Recommendation

	var sb strings.Builder
	sb.WriteString("You are a financial analyst writing a brief for a retail investor.\n")
	fmt.Fprintf(&sb, "Stock: %s\n", data.Symbol)
	if data.Company != nil {
		if data.Company.Name != "" {
			fmt.Fprintf(&sb, "Company: %s\n", data.Company.Name)
		}
		if data.Company.Sector != "" {
			fmt.Fprintf(&sb, "Sector: %s\n", data.Company.Sector)
		}
		if data.Company.Industry != "" {
			fmt.Fprintf(&sb, "Industry: %s\n", data.Company.Industry)
		}
	}
	fmt.Fprintf(&sb, "Period analyzed: %s (%d trading days of data)\n", data.Period.Description(), len(data.Bars))
	fmt.Fprintf(&sb, "Latest close: %.2f\n", ind.LatestClose)
	if shortMA, ok := ind.ShortMA.Latest(); ok {
		fmt.Fprintf(&sb, "%d-day moving average: %.2f\n", ind.ShortMA.Window, shortMA)
	}
	if longMA, ok := ind.LongMA.Latest(); ok {
		fmt.Fprintf(&sb, "%d-day moving average: %.2f\n", ind.LongMA.Window, longMA)
	}
	fmt.Fprintf(&sb, "Price vs long average: %+.2f%%\n", ind.TrendDelta*100)
	fmt.Fprintf(&sb, "Daily volatility: %.2f%%\n", ind.Volatility*100)
	if ind.RSI != nil {
		fmt.Fprintf(&sb, "RSI (14-day): %.2f (oversold < 30, overbought > 70)\n", *ind.RSI)
	}
	writeFundamentals(&sb, data.Fundamentals)
	writeHeadlines(&sb, data.News)
	fmt.Fprintf(&sb, "Rule-based signal: %s (%s confidence)\n\n", rec.Action, rec.Confidence)
	sb.WriteString("Write two or three sentences explaining what these numbers mean for the stock's recent trend. ")
	sb.WriteString("Do not contradict the signal, do not give personalized advice, and do not mention that you are a model.")

	return sb.String()
}

// maxPromptHeadlines caps the news lines fed to the model.
const maxPromptHeadlines = 3

func writeFundamentals(sb *strings.Builder, f *models.Fundamentals) {
	if f == nil {
		return
	}
	if f.MarketCap > 0 {
		fmt.Fprintf(sb, "Market cap: $%.2f billion\n", f.MarketCap/1e9)
	}
	if f.PERatio > 0 {
		fmt.Fprintf(sb, "P/E ratio: %.2f\n", f.PERatio)
	}
	if f.DividendYield > 0 {
		fmt.Fprintf(sb, "Dividend yield: %.2f%%\n", f.DividendYield*100)
	}
}

func writeHeadlines(sb *strings.Builder, news []models.NewsItem) {
	if len(news) == 0 {
		return
	}
	sb.WriteString("Recent headlines:\n")
	for i, item := range news {
		if i >= maxPromptHeadlines {
			break
		}
		if item.Publisher != "" {
			fmt.Fprintf(sb, "- %s (%s)\n", item.Title, item.Publisher)
			continue
		}
		fmt.Fprintf(sb, "- %s\n", item.Title)
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
