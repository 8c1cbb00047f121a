package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	"confluence-backtest-lab/internal/backtest"
	"confluence-backtest-lab/internal/config"
	"confluence-backtest-lab/internal/domain"
	"confluence-backtest-lab/internal/features"
	"confluence-backtest-lab/internal/marketdata"
	"confluence-backtest-lab/internal/metrics"
	"confluence-backtest-lab/internal/reporting"
	"confluence-backtest-lab/internal/sentiment"
	"confluence-backtest-lab/internal/sweep"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (defaults apply when omitted)")
	symbol := flag.String("symbol", "", "Override the configured symbol")
	barsDir := flag.String("bars-dir", "", "Directory with <timeframe>.csv bar files (required)")

	buyValues := flag.String("buy-values", "", "Comma-separated buy thresholds, e.g. 0.2,0.3,0.4")
	sellValues := flag.String("sell-values", "", "Comma-separated sell thresholds, e.g. -0.2,-0.3")
	concurrency := flag.Int("concurrency", runtime.NumCPU(), "Parallel grid points, <= 0 for unbounded")

	sentimentSeed := flag.Int64("seed", 42, "Seed for the synthetic sentiment source")
	outFile := flag.String("out", "", "Write sweep CSV to this file instead of stdout")

	flag.Parse()

	logger := log.New(os.Stderr, "[sweep] ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *symbol != "" {
		cfg.Symbol = *symbol
	}
	if *barsDir == "" {
		logger.Fatal("--bars-dir is required")
	}

	grid := sweep.DefaultGrid()
	if *buyValues != "" {
		grid.BuyValues, err = parseFloats(*buyValues)
		if err != nil {
			logger.Fatalf("parse --buy-values: %v", err)
		}
	}
	if *sellValues != "" {
		grid.SellValues, err = parseFloats(*sellValues)
		if err != nil {
			logger.Fatalf("parse --sell-values: %v", err)
		}
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

	input, err := buildRunInput(ctx, cfg, *barsDir, *sentimentSeed)
	if err != nil {
		logger.Fatalf("build run input: %v", err)
	}

	logger.Printf("Sweeping %dx%d threshold grid over %d bars",
		len(grid.BuyValues), len(grid.SellValues), len(input.Low.Bars))

	points, err := sweep.NewRunner(metrics.PeriodsPerYearHourly, *concurrency).Run(ctx, *input, grid)
	if err != nil {
		logger.Fatalf("sweep failed: %v", err)
	}

	rendered := reporting.RenderSweepCSV(points)
	if *outFile != "" {
		if err := os.WriteFile(*outFile, []byte(rendered), 0o644); err != nil {
			logger.Fatalf("write %s: %v", *outFile, err)
		}
		logger.Printf("Wrote %d grid points to %s", len(points), *outFile)
	} else {
		fmt.Print(rendered)
	}
}

func buildRunInput(ctx context.Context, cfg config.Config, barsDir string, seed int64) (*backtest.RunInput, error) {
	var frames [3]backtest.TimeframeData
	for i, tf := range cfg.Timeframes {
		path := filepath.Join(barsDir, tf+".csv")
		bars, err := marketdata.LoadBarsCSV(path, cfg.Symbol, tf)
		if err != nil {
			return nil, fmt.Errorf("load %s bars: %w", tf, err)
		}
		frames[i] = backtest.TimeframeData{
			Bars:      bars,
			Technical: features.TechnicalSubscore(bars, cfg.Indicators),
		}
	}

	low := frames[0]
	sent, err := sentiment.NewSyntheticProvider(seed).Series(ctx, domain.Timestamps(low.Bars))
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

func parseFloats(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
