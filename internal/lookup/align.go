package lookup

import (
	"errors"
	"math"
)

// Errors returned by alignment functions.
var (
	ErrLengthMismatch = errors.New("series values and timestamps differ in length")
)

// Align forward-fills a higher-timeframe series onto a lower-timeframe
// index: for every lower-timeframe timestamp the result holds the most
// recent higher-timeframe value at or before it. Lower-timeframe positions
// before the first higher-timeframe observation are left undefined (NaN);
// any decision gating on an undefined value must resolve to HOLD.
func Align(higherTimes []int64, higherVals []float64, lowerTimes []int64) ([]float64, error) {
	if len(higherTimes) != len(higherVals) {
		return nil, ErrLengthMismatch
	}

	out := make([]float64, len(lowerTimes))
	j := -1 // index of the last higher-TF observation at or before lowerTimes[i]
	for i, t := range lowerTimes {
		for j+1 < len(higherTimes) && higherTimes[j+1] <= t {
			j++
		}
		if j < 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = higherVals[j]
	}
	return out, nil
}

// ValueAt returns the most recent value at or before target, or NaN if
// the target precedes the first observation.
func ValueAt(target int64, times []int64, vals []float64) float64 {
	for i := len(times) - 1; i >= 0; i-- {
		if times[i] <= target {
			return vals[i]
		}
	}
	return math.NaN()
}
