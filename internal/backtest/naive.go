package backtest

import "confluence-backtest-lab/internal/domain"

// NaiveLongOnly is a reference engine without bracket orders or sizing:
// each BUY signal goes all-in at the close, each SELL signal flattens,
// with a single multiplicative fee applied per fill. Useful as a sanity
// baseline against the bracket simulator.
func NaiveLongOnly(bars []domain.Bar, entries, exits []bool, config domain.SimulationConfig) ([]domain.EquityPoint, error) {
	if err := domain.ValidateBars(bars); err != nil {
		return nil, err
	}
	if len(entries) != len(bars) || len(exits) != len(bars) {
		return nil, ErrSeriesMismatch
	}

	feeMult := 1 - float64(config.FeesBps)/10_000 - float64(config.SlippageBps)/10_000

	equity := config.InitialEquity
	position := 0.0
	curve := make([]domain.EquityPoint, 0, len(bars))

	for i, bar := range bars {
		price := bar.Close

		if position == 0 && entries[i] {
			position = equity / price * feeMult
		} else if position > 0 && exits[i] {
			equity = position * price * feeMult
			position = 0.0
		}

		mark := equity
		if position > 0 {
			mark = position * price
		}
		curve = append(curve, domain.EquityPoint{TimestampMs: bar.TimestampMs, Equity: mark})
	}

	return curve, nil
}
