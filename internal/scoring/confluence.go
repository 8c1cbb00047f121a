package scoring

import (
	"math"

	"confluence-backtest-lab/internal/domain"
)

// Engine maps a total score to a discrete decision via threshold/band
// rules. Stateless beyond its configuration; Decide is a pure function.
type Engine struct {
	thresholds domain.Thresholds
}

// NewEngine creates a confluence engine with the given thresholds.
func NewEngine(th domain.Thresholds) *Engine {
	return &Engine{thresholds: th}
}

// Decide maps a total score to a decision. The buy/sell thresholds are
// checked before the neutral band, so overlapping ranges are unambiguous:
// the threshold wins. An undefined (NaN) score resolves to HOLD.
func (e *Engine) Decide(total float64) domain.Decision {
	if math.IsNaN(total) {
		return domain.DecisionHold
	}
	if total >= e.thresholds.Buy {
		return domain.DecisionBuy
	}
	if total <= e.thresholds.Sell {
		return domain.DecisionSell
	}
	if math.Abs(total) < e.thresholds.NeutralBand {
		return domain.DecisionHold
	}
	return domain.DecisionWait
}

// DecideSeries applies Decide over a total score series.
func (e *Engine) DecideSeries(totals []float64) []domain.Decision {
	out := make([]domain.Decision, len(totals))
	for i, v := range totals {
		out[i] = e.Decide(v)
	}
	return out
}
