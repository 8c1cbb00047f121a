package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"confluence-backtest-lab/internal/backtest"
	"confluence-backtest-lab/internal/config"
	"confluence-backtest-lab/internal/domain"
	"confluence-backtest-lab/internal/features"
	"confluence-backtest-lab/internal/idhash"
	"confluence-backtest-lab/internal/marketdata"
	"confluence-backtest-lab/internal/metrics"
	"confluence-backtest-lab/internal/observability"
	"confluence-backtest-lab/internal/reporting"
	"confluence-backtest-lab/internal/sentiment"
	chstore "confluence-backtest-lab/internal/storage/clickhouse"
	"confluence-backtest-lab/internal/storage/migrations"
	pgstore "confluence-backtest-lab/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (defaults apply when omitted)")
	symbol := flag.String("symbol", "", "Override the configured symbol")

	// Bar sources
	barsDir := flag.String("bars-dir", "", "Directory with <timeframe>.csv bar files")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string for bar storage")

	// Sentiment
	sentimentSource := flag.String("sentiment", "synthetic", "Sentiment source: synthetic, fear-greed")
	seed := flag.Int64("seed", 42, "Seed for the synthetic sentiment source")

	// Persistence and output
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string for run persistence")
	persist := flag.Bool("persist", false, "Persist the run record and trade ledger to PostgreSQL")
	outDir := flag.String("out-dir", "", "Directory for trades/equity/skips CSV and summary files")
	outputJSON := flag.Bool("json", false, "Print the summary as JSON instead of Markdown")

	flag.Parse()

	logger := log.New(os.Stderr, "[backtest] ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *symbol != "" {
		cfg.Symbol = *symbol
	}

	if *barsDir == "" && *clickhouseDSN == "" {
		logger.Fatal("--bars-dir or --clickhouse-dsn is required")
	}
	if *persist && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required with --persist")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	input, err := buildRunInput(ctx, cfg, *barsDir, *clickhouseDSN, *sentimentSource, *seed)
	if err != nil {
		logger.Fatalf("build run input: %v", err)
	}

	logger.Printf("Running backtest: symbol=%s timeframes=%v bars=%d",
		cfg.Symbol, cfg.Timeframes, len(input.Low.Bars))

	started := time.Now()
	out, err := backtest.NewRunner().Run(*input)
	if err != nil {
		observability.RecordSimulation("error", time.Since(started).Seconds(), 0)
		logger.Fatalf("backtest failed: %v", err)
	}
	observability.RecordSimulation("success", time.Since(started).Seconds(), len(out.Result.Trades))
	for _, skip := range out.Result.Skips {
		observability.RecordEntrySkipped(string(skip.Reason))
	}

	summary := metrics.Compute(out.Result.Curve, out.Result.Trades,
		cfg.Strategy.Simulation.InitialEquity, metrics.PeriodsPerYearHourly)

	run := buildRunRecord(cfg, input, out, summary)
	for i := range out.Result.Trades {
		t := &out.Result.Trades[i]
		t.RunID = run.RunID
		t.TradeID = idhash.ComputeTradeID(run.RunID, t.EntryTimeMs, t.ExitTimeMs)
	}

	if *persist {
		if err := persistRun(ctx, *postgresDSN, run, out.Result.Trades); err != nil {
			logger.Fatalf("persist run: %v", err)
		}
		logger.Printf("Persisted run %s with %d trades", run.RunID, len(out.Result.Trades))
	}

	if *outDir != "" {
		if err := writeArtifacts(*outDir, run, summary, out); err != nil {
			logger.Fatalf("write artifacts: %v", err)
		}
		logger.Printf("Wrote report files to %s", *outDir)
	}

	if *outputJSON {
		rendered, err := reporting.RenderSummaryJSON(summary)
		if err != nil {
			logger.Fatalf("render summary: %v", err)
		}
		fmt.Println(rendered)
	} else {
		fmt.Print(reporting.RenderSummaryMarkdown(*run, summary, time.Now().UTC()))
	}
}

// buildRunInput loads bars for the three timeframes, derives technical
// subscores and ATR, and fetches the sentiment series on the entry index.
func buildRunInput(ctx context.Context, cfg config.Config, barsDir, clickhouseDSN, sentimentSource string, seed int64) (*backtest.RunInput, error) {
	var barStore *chstore.BarStore
	if barsDir == "" {
		conn, err := chstore.NewConn(ctx, clickhouseDSN)
		if err != nil {
			return nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		defer conn.Close()
		barStore = chstore.NewBarStore(conn)
	}

	loadBars := func(timeframe string) ([]domain.Bar, error) {
		if barsDir != "" {
			path := filepath.Join(barsDir, timeframe+".csv")
			return marketdata.LoadBarsCSV(path, cfg.Symbol, timeframe)
		}

		bars, err := barStore.GetSeries(ctx, cfg.Symbol, timeframe)
		if err != nil {
			return nil, err
		}
		if err := domain.ValidateBars(bars); err != nil {
			return nil, fmt.Errorf("%s series: %w", timeframe, err)
		}
		return bars, nil
	}

	var frames [3]backtest.TimeframeData
	for i, tf := range cfg.Timeframes {
		bars, err := loadBars(tf)
		if err != nil {
			return nil, fmt.Errorf("load %s bars: %w", tf, err)
		}
		frames[i] = backtest.TimeframeData{
			Bars:      bars,
			Technical: features.TechnicalSubscore(bars, cfg.Indicators),
		}
	}

	low := frames[0]

	var provider sentiment.Provider
	switch sentimentSource {
	case "synthetic":
		provider = sentiment.NewSyntheticProvider(seed)
	case "fear-greed":
		provider = sentiment.NewFearGreedProvider()
	default:
		return nil, fmt.Errorf("unknown sentiment source %q", sentimentSource)
	}

	sent, err := provider.Series(ctx, domain.Timestamps(low.Bars))
	if err != nil {
		return nil, fmt.Errorf("sentiment series: %w", err)
	}

	return &backtest.RunInput{
		Symbol:    cfg.Symbol,
		Low:       low,
		Mid:       frames[1],
		High:      frames[2],
		Sentiment: sent,
		ATR:       features.ATR(low.Bars, cfg.Indicators.ATRPeriod),
		Params:    cfg.Strategy,
	}, nil
}

func buildRunRecord(cfg config.Config, input *backtest.RunInput, out *backtest.RunOutput, s metrics.Summary) *domain.RunRecord {
	bars := input.Low.Bars
	fingerprint := idhash.ComputeParamsFingerprint(cfg.Strategy)
	startMs := bars[0].TimestampMs
	endMs := bars[len(bars)-1].TimestampMs

	return &domain.RunRecord{
		RunID:             idhash.ComputeRunID(cfg.Symbol, cfg.Timeframes[0], startMs, endMs, fingerprint),
		Symbol:            cfg.Symbol,
		Timeframe:         cfg.Timeframes[0],
		StartMs:           startMs,
		EndMs:             endMs,
		BarCount:          len(bars),
		BuySignals:        out.BuySignals,
		SellSignals:       out.SellSignals,
		TradeCount:        len(out.Result.Trades),
		StartEquity:       s.StartEquity,
		EndEquity:         s.EndEquity,
		TotalReturn:       s.TotalReturn,
		SharpeRatio:       s.SharpeRatio,
		MaxDrawdown:       s.MaxDrawdown,
		WinRate:           s.WinRate,
		ProfitFactor:      s.ProfitFactor,
		OpenAtEnd:         out.Result.Open != nil,
		CreatedAtMs:       time.Now().UnixMilli(),
		ParamsFingerprint: fingerprint,
	}
}

func persistRun(ctx context.Context, dsn string, run *domain.RunRecord, trades []domain.Trade) error {
	pool, err := pgstore.NewPool(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	started := time.Now()
	err = pgstore.NewRunStore(pool).Insert(ctx, run)
	observability.RecordDBQuery("postgres", "insert_run", time.Since(started).Seconds(), err)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	records := make([]*domain.Trade, len(trades))
	for i := range trades {
		records[i] = &trades[i]
	}

	started = time.Now()
	err = pgstore.NewTradeStore(pool).InsertBulk(ctx, records)
	observability.RecordDBQuery("postgres", "insert_trades", time.Since(started).Seconds(), err)
	if err != nil {
		return fmt.Errorf("insert trades: %w", err)
	}

	return nil
}

func writeArtifacts(dir string, run *domain.RunRecord, s metrics.Summary, out *backtest.RunOutput) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	summaryJSON, err := reporting.RenderSummaryJSON(s)
	if err != nil {
		return err
	}

	files := map[string]string{
		"trades.csv":           reporting.RenderTradesCSV(out.Result.Trades),
		"equity.csv":           reporting.RenderEquityCSV(out.Result.Curve),
		"skips.csv":            reporting.RenderSkipsCSV(out.Result.Skips),
		"summary.md":           reporting.RenderSummaryMarkdown(*run, s, time.Now().UTC()),
		"metrics_summary.json": summaryJSON,
	}

	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}
