// Package risk sizes positions under a fixed fractional-risk rule: each
// trade risks a configured fraction of current equity between entry and
// an ATR-derived stop, with the target set as a multiple of that stop
// distance.
package risk

import (
	"math"

	"confluence-backtest-lab/internal/domain"
)

// Model computes bracket levels and position size.
type Model struct {
	params domain.RiskParams
}

// NewModel creates a risk model with the given parameters.
func NewModel(params domain.RiskParams) *Model {
	return &Model{params: params}
}

// Params returns the model's configuration.
func (m *Model) Params() domain.RiskParams {
	return m.params
}

// Construct computes stop-loss, take-profit, and quantity for an entry.
// A degenerate ATR (zero stop distance) yields Quantity 0; the simulator
// treats a non-positive quantity as "no trade this bar", not an error.
func (m *Model) Construct(equity, entry, atr float64, direction domain.Direction) domain.BracketOrder {
	var sl, tp float64
	if direction == domain.DirectionShort {
		sl = entry + atr*m.params.StopATRMultiplier
		tp = entry - (sl-entry)*m.params.RewardRiskRatio
	} else {
		sl = entry - atr*m.params.StopATRMultiplier
		tp = entry + (entry-sl)*m.params.RewardRiskRatio
	}

	riskPerUnit := math.Abs(entry - sl)
	qty := 0.0
	if riskPerUnit > 0 {
		qty = (equity * m.params.RiskFraction) / riskPerUnit
	}

	return domain.BracketOrder{StopLoss: sl, TakeProfit: tp, Quantity: qty}
}
