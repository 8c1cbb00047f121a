package reporting

import (
	"fmt"
	"strings"

	"confluence-backtest-lab/internal/backtest"
	"confluence-backtest-lab/internal/domain"
	"confluence-backtest-lab/internal/sweep"
)

// RenderTradesCSV renders the trade ledger as CSV.
func RenderTradesCSV(trades []domain.Trade) string {
	var sb strings.Builder

	sb.WriteString("entry_time_ms,exit_time_ms,entry_price,exit_price,quantity,")
	sb.WriteString("stop_loss,take_profit,entry_fee,exit_fee,pnl,pnl_pct,return_on_risk,")
	sb.WriteString("holding_ms,exit_reason\n")

	for _, t := range trades {
		sb.WriteString(fmt.Sprintf("%d,%d,%.8f,%.8f,%.8f,%.8f,%.8f,%.8f,%.8f,%.8f,%.6f,%.6f,%d,%s\n",
			t.EntryTimeMs,
			t.ExitTimeMs,
			t.EntryPrice,
			t.ExitPrice,
			t.Quantity,
			t.StopLoss,
			t.TakeProfit,
			t.EntryFee,
			t.ExitFee,
			t.PnL,
			t.PnLPct,
			t.ReturnOnRisk,
			t.HoldingMs,
			t.ExitReason,
		))
	}

	return sb.String()
}

// RenderEquityCSV renders the equity curve as CSV.
func RenderEquityCSV(curve []domain.EquityPoint) string {
	var sb strings.Builder

	sb.WriteString("timestamp_ms,equity\n")
	for _, p := range curve {
		sb.WriteString(fmt.Sprintf("%d,%.8f\n", p.TimestampMs, p.Equity))
	}

	return sb.String()
}

// RenderSkipsCSV renders rejected entries with their reasons.
func RenderSkipsCSV(skips []backtest.Skip) string {
	var sb strings.Builder

	sb.WriteString("timestamp_ms,reason\n")
	for _, s := range skips {
		sb.WriteString(fmt.Sprintf("%d,%s\n", s.TimestampMs, s.Reason))
	}

	return sb.String()
}

// RenderSweepCSV renders threshold sweep results as CSV.
func RenderSweepCSV(points []sweep.Point) string {
	var sb strings.Builder

	sb.WriteString("buy_threshold,sell_threshold,buy_signals,num_trades,")
	sb.WriteString("end_equity,total_return,sharpe_ratio,max_drawdown,win_rate,profit_factor\n")

	for _, p := range points {
		sb.WriteString(fmt.Sprintf("%.2f,%.2f,%d,%d,%.2f,%.4f,%.4f,%.4f,%.2f,%.4f\n",
			p.BuyThreshold,
			p.SellThreshold,
			p.BuySignals,
			p.TradeCount,
			p.Summary.EndEquity,
			p.Summary.TotalReturn,
			p.Summary.SharpeRatio,
			p.Summary.MaxDrawdown,
			p.Summary.WinRate,
			p.Summary.ProfitFactor,
		))
	}

	return sb.String()
}
