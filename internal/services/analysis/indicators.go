package analysis

import "math"

// SimpleMovingAverage computes the trailing mean of closes over the given
// window. The returned offset is window-1: the first defined value averages
// closes[0:window] and aligns to source index window-1. A window larger
// than the series yields no values.
func SimpleMovingAverage(closes []float64, window int) (offset int, values []float64) {
	if window <= 0 || len(closes) < window {
		return 0, nil
	}

	values = make([]float64, 0, len(closes)-window+1)
	var sum float64
	for i, c := range closes {
		sum += c
		if i >= window {
			sum -= closes[i-window]
		}
		if i >= window-1 {
			values = append(values, sum/float64(window))
		}
	}
	return window - 1, values
}

// Volatility is the population standard deviation of day-over-day
// percentage changes across the trailing window. Fewer than two closes,
// or a window under two, yields zero.
func Volatility(closes []float64, window int) float64 {
	if len(closes) < 2 || window < 2 {
		return 0
	}

	start := len(closes) - window
	if start < 0 {
		start = 0
	}
	changes := make([]float64, 0, len(closes)-start-1)
	for i := start + 1; i < len(closes); i++ {
		prev := closes[i-1]
		if prev == 0 {
			continue
		}
		changes = append(changes, (closes[i]-prev)/prev)
	}
	if len(changes) == 0 {
		return 0
	}

	var mean float64
	for _, c := range changes {
		mean += c
	}
	mean /= float64(len(changes))

	var variance float64
	for _, c := range changes {
		d := c - mean
		variance += d * d
	}
	variance /= float64(len(changes))

	return math.Sqrt(variance)
}

// RelativeStrengthIndex computes a simple-mean RSI over the trailing
// period: average gain over average loss across the last `period`
// day-over-day changes, scaled to 0-100. Needs period+1 closes; ok is
// false otherwise. An all-gain window yields 100, an all-loss window 0.
func RelativeStrengthIndex(closes []float64, period int) (float64, bool) {
	if period <= 0 || len(closes) < period+1 {
		return 0, false
	}

	var gains, losses float64
	for i := len(closes) - period; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	if losses == 0 {
		if gains == 0 {
			return 50, true
		}
		return 100, true
	}

	rs := gains / losses
	return 100 - 100/(1+rs), true
}

// TrendDelta is the fractional distance of the latest close from the long
// moving average. Positive means price is trading above trend.
func TrendDelta(latest, longMA float64) float64 {
	if longMA == 0 {
		return 0
	}
	return (latest - longMA) / longMA
}
