package reporting

import (
	"encoding/json"
	"fmt"
	"math"

	"confluence-backtest-lab/internal/metrics"
)

// summaryJSON mirrors metrics.Summary with JSON tags and a finite
// profit factor (JSON cannot carry +Inf).
type summaryJSON struct {
	StartEquity  float64  `json:"start_equity"`
	EndEquity    float64  `json:"end_equity"`
	TotalReturn  float64  `json:"total_return"`
	SharpeRatio  float64  `json:"sharpe_ratio"`
	MaxDrawdown  float64  `json:"max_drawdown"`
	WinRate      float64  `json:"win_rate"`
	ProfitFactor *float64 `json:"profit_factor"` // null when undefined (no losses)
	NumTrades    int      `json:"num_trades"`
}

// RenderSummaryJSON renders a performance summary as indented JSON.
func RenderSummaryJSON(s metrics.Summary) (string, error) {
	out := summaryJSON{
		StartEquity: s.StartEquity,
		EndEquity:   s.EndEquity,
		TotalReturn: s.TotalReturn,
		SharpeRatio: s.SharpeRatio,
		MaxDrawdown: s.MaxDrawdown,
		WinRate:     s.WinRate,
		NumTrades:   s.NumTrades,
	}
	if !math.IsInf(s.ProfitFactor, 0) && !math.IsNaN(s.ProfitFactor) {
		pf := s.ProfitFactor
		out.ProfitFactor = &pf
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal summary: %w", err)
	}
	return string(data), nil
}
