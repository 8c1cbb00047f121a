package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"confluence-backtest-lab/internal/domain"
	"confluence-backtest-lab/internal/metrics"
	"confluence-backtest-lab/internal/reporting"
	pgstore "confluence-backtest-lab/internal/storage/postgres"
)

func main() {
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (required)")
	runID := flag.String("run-id", "", "Run to report on; empty lists runs for --symbol")
	symbol := flag.String("symbol", "", "Symbol to list runs for when --run-id is empty")
	outDir := flag.String("out-dir", "", "Write summary.md, metrics_summary.json and trades.csv here")

	flag.Parse()

	logger := log.New(os.Stderr, "[report] ", log.LstdFlags)

	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required")
	}

	ctx := context.Background()

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("connect to postgres: %v", err)
	}
	defer pool.Close()

	runs := pgstore.NewRunStore(pool)

	if *runID == "" {
		if *symbol == "" {
			logger.Fatal("--run-id or --symbol is required")
		}
		listRuns(ctx, logger, runs, *symbol)
		return
	}

	run, err := runs.GetByID(ctx, *runID)
	if err != nil {
		logger.Fatalf("load run %s: %v", *runID, err)
	}

	trades, err := pgstore.NewTradeStore(pool).GetByRunID(ctx, *runID)
	if err != nil {
		logger.Fatalf("load trades: %v", err)
	}

	summary := metrics.Summary{
		StartEquity:  run.StartEquity,
		EndEquity:    run.EndEquity,
		TotalReturn:  run.TotalReturn,
		SharpeRatio:  run.SharpeRatio,
		MaxDrawdown:  run.MaxDrawdown,
		WinRate:      run.WinRate,
		ProfitFactor: run.ProfitFactor,
		NumTrades:    run.TradeCount,
	}

	rendered := reporting.RenderSummaryMarkdown(*run, summary, time.Now().UTC())

	if *outDir == "" {
		fmt.Print(rendered)
		return
	}

	if err := writeReport(*outDir, rendered, summary, trades); err != nil {
		logger.Fatalf("write report: %v", err)
	}
	logger.Printf("Wrote report for run %s to %s", *runID, *outDir)
}

func listRuns(ctx context.Context, logger *log.Logger, runs *pgstore.RunStore, symbol string) {
	records, err := runs.GetBySymbol(ctx, symbol)
	if err != nil {
		logger.Fatalf("list runs for %s: %v", symbol, err)
	}

	if len(records) == 0 {
		fmt.Printf("No runs recorded for %s\n", symbol)
		return
	}

	fmt.Printf("%-64s  %-20s  %-10s  %8s  %10s\n", "RUN", "CREATED", "TIMEFRAME", "TRADES", "RETURN")
	for _, r := range records {
		created := time.UnixMilli(r.CreatedAtMs).UTC().Format(time.RFC3339)
		fmt.Printf("%-64s  %-20s  %-10s  %8d  %9.2f%%\n",
			r.RunID, created, r.Timeframe, r.TradeCount, r.TotalReturn)
	}
}

func writeReport(dir, summaryMD string, s metrics.Summary, trades []*domain.Trade) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	summaryJSON, err := reporting.RenderSummaryJSON(s)
	if err != nil {
		return err
	}

	ledger := make([]domain.Trade, len(trades))
	for i, t := range trades {
		ledger[i] = *t
	}

	files := map[string]string{
		"summary.md":           summaryMD,
		"metrics_summary.json": summaryJSON,
		"trades.csv":           reporting.RenderTradesCSV(ledger),
	}

	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}
