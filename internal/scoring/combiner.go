package scoring

import (
	"math"

	"confluence-backtest-lab/internal/domain"
)

// Combine merges a technical subscore and a sentiment subscore into one
// weighted total. Pure linear combination; no clipping is re-applied, the
// result can only leave [-1, 1] if the configured weights sum past 1.
func Combine(technical, sentiment float64, w domain.Weights) float64 {
	return technical*w.Trend + sentiment*w.Sentiment
}

// CombineSeries applies Combine element-wise over two aligned subscore
// series. NaN inputs propagate so undefined leading values stay undefined.
func CombineSeries(technical, sentiment []float64, w domain.Weights) []float64 {
	n := len(technical)
	if len(sentiment) < n {
		n = len(sentiment)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = Combine(technical[i], sentiment[i], w)
	}
	return out
}

// Clip bounds a score to [-1, 1]. NaN passes through unchanged.
func Clip(v float64) float64 {
	if math.IsNaN(v) {
		return v
	}
	return math.Max(-1, math.Min(1, v))
}
