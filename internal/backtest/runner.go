package backtest

import (
	"confluence-backtest-lab/internal/domain"
	"confluence-backtest-lab/internal/gating"
	"confluence-backtest-lab/internal/lookup"
	"confluence-backtest-lab/internal/risk"
	"confluence-backtest-lab/internal/scoring"
)

// TimeframeData bundles one timeframe's bars with its technical subscore,
// one value per bar in [-1, 1].
type TimeframeData struct {
	Bars      []domain.Bar
	Technical []float64
}

// RunInput holds everything a full strategy run consumes. Sentiment and
// ATR are aligned 1:1 with the low (entry) timeframe index; the runner
// forward-fills sentiment onto the mid/high indexes itself.
type RunInput struct {
	Symbol    string
	Low       TimeframeData
	Mid       TimeframeData
	High      TimeframeData
	Sentiment []float64
	ATR       []float64
	Params    domain.StrategyParams
}

// RunOutput is the result of a full strategy run.
type RunOutput struct {
	Result      *Result
	Actions     []domain.GatedAction
	BuySignals  int
	SellSignals int
}

// Runner wires scoring, gating, and the simulator into one strategy run.
type Runner struct{}

// NewRunner creates a runner.
func NewRunner() *Runner {
	return &Runner{}
}

// Run scores each timeframe, gates the low-timeframe decisions with the
// aligned mid/high totals, and simulates the gated signals. Input series
// must be fully materialized and time-aligned before the call; partial or
// streaming input is rejected.
func (r *Runner) Run(input RunInput) (*RunOutput, error) {
	n := len(input.Low.Bars)
	if len(input.Low.Technical) != n || len(input.Sentiment) != n || len(input.ATR) != n {
		return nil, ErrSeriesMismatch
	}
	if len(input.Mid.Technical) != len(input.Mid.Bars) || len(input.High.Technical) != len(input.High.Bars) {
		return nil, ErrSeriesMismatch
	}

	lowTimes := domain.Timestamps(input.Low.Bars)
	midTimes := domain.Timestamps(input.Mid.Bars)
	highTimes := domain.Timestamps(input.High.Bars)

	// Sentiment lives on the low index; carry it forward onto the
	// mid/high indexes before combining.
	sentOnMid, err := lookup.Align(lowTimes, input.Sentiment, midTimes)
	if err != nil {
		return nil, err
	}
	sentOnHigh, err := lookup.Align(lowTimes, input.Sentiment, highTimes)
	if err != nil {
		return nil, err
	}

	w := input.Params.Weights
	totalLow := scoring.CombineSeries(input.Low.Technical, input.Sentiment, w)
	totalMid := scoring.CombineSeries(input.Mid.Technical, sentOnMid, w)
	totalHigh := scoring.CombineSeries(input.High.Technical, sentOnHigh, w)

	totalMidOnLow, err := lookup.Align(midTimes, totalMid, lowTimes)
	if err != nil {
		return nil, err
	}
	totalHighOnLow, err := lookup.Align(highTimes, totalHigh, lowTimes)
	if err != nil {
		return nil, err
	}

	engine := scoring.NewEngine(input.Params.Thresholds)
	decisions := engine.DecideSeries(totalLow)
	actions := gating.GateSeries(decisions, totalHighOnLow, totalMidOnLow)
	entries, exits := gating.EntryExitSignals(actions)

	sim := NewSimulator(risk.NewModel(input.Params.Risk), input.Params.Simulation)
	result, err := sim.Run(Input{
		Bars:    input.Low.Bars,
		Entries: entries,
		Exits:   exits,
		ATR:     input.ATR,
	})
	if err != nil {
		return nil, err
	}

	out := &RunOutput{Result: result, Actions: actions}
	for _, a := range actions {
		switch a {
		case domain.ActionBuy:
			out.BuySignals++
		case domain.ActionSell:
			out.SellSignals++
		}
	}
	return out, nil
}
