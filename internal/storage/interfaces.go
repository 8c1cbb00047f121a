package storage

import (
	"context"

	"confluence-backtest-lab/internal/domain"
)

// BarStore provides access to OHLCV bar storage.
type BarStore interface {
	// InsertBulk adds multiple bars. Fails entire batch on duplicate
	// (symbol, timeframe, timestamp_ms).
	InsertBulk(ctx context.Context, bars []domain.Bar) error

	// GetSeries retrieves all bars for a symbol/timeframe, ordered by timestamp ASC.
	GetSeries(ctx context.Context, symbol, timeframe string) ([]domain.Bar, error)

	// GetRange retrieves bars for a symbol/timeframe within [start, end] (inclusive).
	GetRange(ctx context.Context, symbol, timeframe string, start, end int64) ([]domain.Bar, error)
}

// TradeStore provides access to trades storage.
type TradeStore interface {
	// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
	Insert(ctx context.Context, t *domain.Trade) error

	// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, trades []*domain.Trade) error

	// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, tradeID string) (*domain.Trade, error)

	// GetByRunID retrieves all trades of a run, ordered by entry time ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.Trade, error)
}

// RunStore provides access to backtest_runs storage.
type RunStore interface {
	// Insert adds a new run record. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.RunRecord) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.RunRecord, error)

	// GetBySymbol retrieves all runs for a symbol, ordered by created_at DESC.
	GetBySymbol(ctx context.Context, symbol string) ([]*domain.RunRecord, error)
}
