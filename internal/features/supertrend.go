package features

import (
	"github.com/markcheno/go-talib"

	"confluence-backtest-lab/internal/domain"
)

// Supertrend computes the supertrend line: an ATR band around the hl2
// midpoint that ratchets with the trend. talib carries no supertrend, so
// the band walk is implemented here on top of talib's ATR.
func Supertrend(bars []domain.Bar, period int, multiplier float64) []float64 {
	n := len(bars)
	if n == 0 {
		return nil
	}

	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i, b := range bars {
		highs[i] = b.High
		lows[i] = b.Low
		closes[i] = b.Close
	}
	atr := talib.Atr(highs, lows, closes, period)

	upper := make([]float64, n)
	lower := make([]float64, n)
	for i := 0; i < n; i++ {
		hl2 := (highs[i] + lows[i]) / 2
		upper[i] = hl2 + multiplier*atr[i]
		lower[i] = hl2 - multiplier*atr[i]
	}

	st := make([]float64, n)
	// direction: -1 means uptrend (line rides the lower band), +1 the
	// upper band. Initialized downtrend on the first bar.
	dir := 1
	st[0] = upper[0]

	for i := 1; i < n; i++ {
		switch {
		case closes[i] > st[i-1]:
			dir = -1
		case closes[i] < st[i-1]:
			dir = 1
		}

		if dir == -1 {
			st[i] = lower[i]
			if st[i-1] > st[i] {
				st[i] = st[i-1]
			}
		} else {
			st[i] = upper[i]
			if st[i-1] < st[i] {
				st[i] = st[i-1]
			}
		}
	}
	return st
}
