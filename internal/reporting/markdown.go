package reporting

import (
	"fmt"
	"strings"
	"time"

	"confluence-backtest-lab/internal/domain"
	"confluence-backtest-lab/internal/metrics"
)

// RenderSummaryMarkdown renders a run summary as Markdown.
func RenderSummaryMarkdown(run domain.RunRecord, s metrics.Summary, generatedAt time.Time) string {
	var sb strings.Builder

	sb.WriteString("# Backtest Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", generatedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Symbol: %s | Timeframe: %s | Bars: %d\n\n",
		run.Symbol, run.Timeframe, run.BarCount))

	sb.WriteString("## Performance\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Start Equity | %.2f |\n", s.StartEquity))
	sb.WriteString(fmt.Sprintf("| End Equity | %.2f |\n", s.EndEquity))
	sb.WriteString(fmt.Sprintf("| Total Return | %.2f%% |\n", s.TotalReturn))
	sb.WriteString(fmt.Sprintf("| Sharpe Ratio | %.2f |\n", s.SharpeRatio))
	sb.WriteString(fmt.Sprintf("| Max Drawdown | %.2f%% |\n", s.MaxDrawdown))
	sb.WriteString(fmt.Sprintf("| Win Rate | %.2f%% |\n", s.WinRate))
	sb.WriteString(fmt.Sprintf("| Profit Factor | %.2f |\n", s.ProfitFactor))
	sb.WriteString(fmt.Sprintf("| Trades | %d |\n", s.NumTrades))
	sb.WriteString("\n")

	sb.WriteString("## Signals\n\n")
	sb.WriteString(fmt.Sprintf("BUY signals: %d | SELL signals: %d\n\n",
		run.BuySignals, run.SellSignals))

	if run.OpenAtEnd {
		sb.WriteString("A position was still open when the series ended; ")
		sb.WriteString("end equity marks it to market at the final close.\n")
	}

	return sb.String()
}
