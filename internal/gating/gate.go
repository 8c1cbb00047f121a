// Package gating vetoes lower-timeframe signals using higher-timeframe
// directional context. It is a trend-filter veto, not a trend-following
// trigger: a BUY decision passes only while neither higher timeframe
// contradicts it.
package gating

import (
	"math"

	"confluence-backtest-lab/internal/domain"
)

// Gate combines a low-timeframe decision with the aligned mid/high total
// scores into a final action. Undefined aligned values (NaN, before the
// first higher-timeframe observation) fail every comparison and resolve
// to HOLD, the conservative default.
func Gate(low domain.Decision, highAligned, midAligned float64) domain.GatedAction {
	switch low {
	case domain.DecisionBuy:
		if agreeUp(highAligned) && agreeUp(midAligned) {
			return domain.ActionBuy
		}
	case domain.DecisionSell:
		if agreeDown(highAligned) && agreeDown(midAligned) {
			return domain.ActionSell
		}
	}
	return domain.ActionHold
}

// GateSeries applies Gate over aligned series. The three slices must be
// the same length; the caller validates alignment.
func GateSeries(low []domain.Decision, highAligned, midAligned []float64) []domain.GatedAction {
	out := make([]domain.GatedAction, len(low))
	for i := range low {
		out[i] = Gate(low[i], highAligned[i], midAligned[i])
	}
	return out
}

// EntryExitSignals splits gated actions into boolean entry/exit series
// for the simulator.
func EntryExitSignals(actions []domain.GatedAction) (entries, exits []bool) {
	entries = make([]bool, len(actions))
	exits = make([]bool, len(actions))
	for i, a := range actions {
		entries[i] = a == domain.ActionBuy
		exits[i] = a == domain.ActionSell
	}
	return entries, exits
}

func agreeUp(v float64) bool {
	return !math.IsNaN(v) && v >= 0
}

func agreeDown(v float64) bool {
	return !math.IsNaN(v) && v <= 0
}
