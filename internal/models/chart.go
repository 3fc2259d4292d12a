package models

// ChartConfig is the declarative chart description consumed by the
// browser charting layer. Arrays are index-aligned with Dates; moving
// average entries are nil where the window has not filled so the
// renderer draws a gap.
type ChartConfig struct {
	Symbol      string          `json:"symbol"`
	Dates       []string        `json:"dates"`
	Closes      []float64       `json:"closes"`
	Volumes     []int64         `json:"volumes"`
	ShortMA     []*float64      `json:"short_ma"`
	LongMA      []*float64      `json:"long_ma"`
	ShortWindow int             `json:"short_window"`
	LongWindow  int             `json:"long_window"`
	Label       string          `json:"label"`
	Annotation  ChartAnnotation `json:"annotation"`
}

// ChartAnnotation anchors the recommendation marker at the last bar.
type ChartAnnotation struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
	Label string  `json:"label"`
}
