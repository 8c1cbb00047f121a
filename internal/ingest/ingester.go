package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"

	"confluence-backtest-lab/internal/domain"
	"confluence-backtest-lab/internal/observability"
	"confluence-backtest-lab/internal/storage"
)

// Ingester drains a bar source into a BarStore.
type Ingester struct {
	store  storage.BarStore
	logger *log.Logger
}

// NewIngester creates an Ingester. logger may be nil for the default logger.
func NewIngester(store storage.BarStore, logger *log.Logger) *Ingester {
	if logger == nil {
		logger = log.Default()
	}
	return &Ingester{store: store, logger: logger}
}

// Run consumes closed bars from bars until the channel closes or ctx is
// canceled. Duplicate bars (replays after a reconnect) are skipped, not
// treated as errors.
func (i *Ingester) Run(ctx context.Context, bars <-chan ClosedBar) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cb, ok := <-bars:
			if !ok {
				return nil
			}
			if cb.Err != nil {
				i.logger.Printf("skipping malformed kline: %v", cb.Err)
				continue
			}
			if err := i.storeBar(ctx, cb.Bar); err != nil {
				return err
			}
		}
	}
}

func (i *Ingester) storeBar(ctx context.Context, bar domain.Bar) error {
	err := i.store.InsertBulk(ctx, []domain.Bar{bar})
	if errors.Is(err, storage.ErrDuplicateKey) {
		i.logger.Printf("duplicate bar %s %s @%d, skipping", bar.Symbol, bar.Timeframe, bar.TimestampMs)
		return nil
	}
	if err != nil {
		observability.RecordIngestError("store")
		return fmt.Errorf("store bar: %w", err)
	}

	observability.RecordBarStored(bar.Timeframe, bar.TimestampMs)
	return nil
}
