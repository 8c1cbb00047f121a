// Package metrics computes performance analytics over a backtest's
// equity curve and trade ledger. It consumes the simulator output
// read-only.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"confluence-backtest-lab/internal/domain"
)

// PeriodsPerYearHourly annualizes hourly-bar returns.
const PeriodsPerYearHourly = 365 * 24

// Summary holds a run's performance metrics. Percent fields are in
// percent units, not fractions.
type Summary struct {
	StartEquity  float64
	EndEquity    float64
	TotalReturn  float64 // percent
	SharpeRatio  float64
	MaxDrawdown  float64 // percent, <= 0
	WinRate      float64 // percent
	ProfitFactor float64 // +Inf when no losing trades
	NumTrades    int
}

// Compute builds a Summary from a curve and ledger. periodsPerYear
// annualizes the Sharpe ratio and must match the bar interval.
func Compute(curve []domain.EquityPoint, trades []domain.Trade, startEquity float64, periodsPerYear int) Summary {
	s := Summary{
		StartEquity:  startEquity,
		ProfitFactor: 0,
		NumTrades:    len(trades),
	}
	if len(curve) > 0 {
		s.EndEquity = curve[len(curve)-1].Equity
	}

	s.TotalReturn = totalReturn(curve)
	s.SharpeRatio = sharpeRatio(Returns(curve), periodsPerYear)
	mdd, _ := MaxDrawdown(curve)
	s.MaxDrawdown = mdd * 100
	s.WinRate = winRate(trades) * 100
	s.ProfitFactor = profitFactor(trades)
	return s
}

// Returns computes per-bar fractional returns of the equity curve.
func Returns(curve []domain.EquityPoint) []float64 {
	if len(curve) < 2 {
		return nil
	}
	out := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, curve[i].Equity/prev-1)
	}
	return out
}

// MaxDrawdown returns the worst peak-to-trough fraction (<= 0) and the
// full drawdown series aligned with the curve.
func MaxDrawdown(curve []domain.EquityPoint) (float64, []float64) {
	if len(curve) == 0 {
		return 0, nil
	}
	dd := make([]float64, len(curve))
	peak := curve[0].Equity
	worst := 0.0
	for i, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			dd[i] = p.Equity/peak - 1
		}
		if dd[i] < worst {
			worst = dd[i]
		}
	}
	return worst, dd
}

func totalReturn(curve []domain.EquityPoint) float64 {
	if len(curve) < 2 || curve[0].Equity == 0 {
		return 0
	}
	return (curve[len(curve)-1].Equity/curve[0].Equity - 1) * 100
}

func sharpeRatio(returns []float64, periodsPerYear int) float64 {
	if len(returns) == 0 {
		return 0
	}
	mean := stat.Mean(returns, nil)
	sd := stat.StdDev(returns, nil)
	if sd == 0 || math.IsNaN(sd) {
		return 0
	}
	return math.Sqrt(float64(periodsPerYear)) * mean / sd
}

func winRate(trades []domain.Trade) float64 {
	if len(trades) == 0 {
		return 0
	}
	wins := 0
	for _, t := range trades {
		if t.PnL > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(trades))
}

func profitFactor(trades []domain.Trade) float64 {
	if len(trades) == 0 {
		return 0
	}
	var gains, losses float64
	for _, t := range trades {
		if t.PnL > 0 {
			gains += t.PnL
		} else {
			losses -= t.PnL
		}
	}
	if losses == 0 {
		return math.Inf(1)
	}
	return gains / losses
}
