package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"confluence-backtest-lab/internal/ingest"
	"confluence-backtest-lab/internal/observability"
	"confluence-backtest-lab/internal/storage"
	chstore "confluence-backtest-lab/internal/storage/clickhouse"
	"confluence-backtest-lab/internal/storage/memory"
	"confluence-backtest-lab/internal/storage/migrations"
)

func main() {
	symbol := flag.String("symbol", "BTC/USDT", "Trading pair to ingest")
	timeframes := flag.String("timeframes", "1h,4h,1d", "Comma-separated kline intervals")
	wsEndpoint := flag.String("ws-endpoint", "wss://stream.binance.com:9443/ws", "Kline websocket base URL")

	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string for bar storage")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage (bars are lost on exit)")

	metricsAddr := flag.String("metrics-addr", "", "Listen address for Prometheus /metrics, e.g. :9102")

	flag.Parse()

	logger := log.New(os.Stderr, "[ingest] ", log.LstdFlags)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	var barStore storage.BarStore = memory.NewBarStore()
	if !*useMemory {
		if *clickhouseDSN == "" {
			logger.Fatal("--clickhouse-dsn is required when not using --use-memory")
		}

		conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatalf("prepare clickhouse: %v", err)
		}
		defer conn.Close()

		barStore = chstore.NewBarStore(conn)
	}

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			logger.Printf("Serving metrics on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				logger.Printf("metrics server: %v", err)
			}
		}()
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, tf := range strings.Split(*timeframes, ",") {
		tf = strings.TrimSpace(tf)
		if tf == "" {
			continue
		}

		logger.Printf("Streaming %s %s klines from %s", *symbol, tf, *wsEndpoint)

		stream, err := ingest.NewStream(ctx, *wsEndpoint, *symbol, tf, nil)
		if err != nil {
			logger.Fatalf("open %s stream: %v", tf, err)
		}
		defer stream.Close()

		g.Go(func() error {
			return ingest.NewIngester(barStore, logger).Run(ctx, stream.Bars())
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("ingestion failed: %v", err)
	}
	logger.Print("Ingestion stopped")
}
