package domain

import "errors"

// Bar represents a single OHLCV candle. Immutable once ingested.
// Corresponds to the bars table in ClickHouse.
type Bar struct {
	Symbol      string  // trading pair, e.g. "BTC/USDT"
	Timeframe   string  // bar interval, e.g. "1h", "4h", "1d"
	TimestampMs int64   // bar open time, Unix timestamp in milliseconds
	Open        float64 // open price
	High        float64 // high price
	Low         float64 // low price
	Close       float64 // close price
	Volume      float64 // base asset volume
}

// Bar validation errors.
var (
	ErrEmptySeries        = errors.New("empty bar series")
	ErrNonMonotonicSeries = errors.New("bar timestamps must be strictly increasing")
)

// ValidateBars checks that a bar sequence is non-empty and strictly
// ordered in time. Duplicate timestamps are rejected.
func ValidateBars(bars []Bar) error {
	if len(bars) == 0 {
		return ErrEmptySeries
	}
	for i := 1; i < len(bars); i++ {
		if bars[i].TimestampMs <= bars[i-1].TimestampMs {
			return ErrNonMonotonicSeries
		}
	}
	return nil
}

// Timestamps extracts the timestamp index of a bar sequence.
func Timestamps(bars []Bar) []int64 {
	out := make([]int64, len(bars))
	for i, b := range bars {
		out[i] = b.TimestampMs
	}
	return out
}

// Closes extracts the close price series of a bar sequence.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}
