package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"confluence-backtest-lab/internal/domain"
	"confluence-backtest-lab/internal/storage"
)

const tradeColumns = `
	trade_id, run_id,
	entry_time_ms, entry_price, quantity, entry_fee,
	stop_loss, take_profit, capital_risked, entry_cost, equity_at_entry,
	exit_time_ms, exit_price, exit_fee, exit_reason,
	pnl, pnl_pct, return_on_risk, holding_ms
`

const insertTradeQuery = `
	INSERT INTO trades (` + tradeColumns + `
	) VALUES (
		$1, $2,
		$3, $4, $5, $6,
		$7, $8, $9, $10, $11,
		$12, $13, $14, $15,
		$16, $17, $18, $19
	)
`

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
func (s *TradeStore) Insert(ctx context.Context, t *domain.Trade) error {
	_, err := s.pool.Exec(ctx, insertTradeQuery, tradeArgs(t)...)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
func (s *TradeStore) InsertBulk(ctx context.Context, trades []*domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range trades {
		if _, err := tx.Exec(ctx, insertTradeQuery, tradeArgs(t)...); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trade in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
func (s *TradeStore) GetByID(ctx context.Context, tradeID string) (*domain.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE trade_id = $1`

	row := s.pool.QueryRow(ctx, query, tradeID)
	t, err := scanTrade(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get trade by id: %w", err)
	}
	return t, nil
}

// GetByRunID retrieves all trades of a run, ordered by entry time ASC.
func (s *TradeStore) GetByRunID(ctx context.Context, runID string) ([]*domain.Trade, error) {
	query := `
		SELECT ` + tradeColumns + `
		FROM trades
		WHERE run_id = $1
		ORDER BY entry_time_ms ASC, trade_id ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get trades by run id: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// tradeArgs lays out a trade's fields in tradeColumns order.
func tradeArgs(t *domain.Trade) []any {
	return []any{
		t.TradeID, t.RunID,
		t.EntryTimeMs, t.EntryPrice, t.Quantity, t.EntryFee,
		t.StopLoss, t.TakeProfit, t.CapitalRisked, t.EntryCost, t.EquityAtEntry,
		t.ExitTimeMs, t.ExitPrice, t.ExitFee, t.ExitReason,
		t.PnL, t.PnLPct, t.ReturnOnRisk, t.HoldingMs,
	}
}

// scanTrade scans a single row into a Trade.
func scanTrade(row pgx.Row) (*domain.Trade, error) {
	var t domain.Trade

	err := row.Scan(
		&t.TradeID, &t.RunID,
		&t.EntryTimeMs, &t.EntryPrice, &t.Quantity, &t.EntryFee,
		&t.StopLoss, &t.TakeProfit, &t.CapitalRisked, &t.EntryCost, &t.EquityAtEntry,
		&t.ExitTimeMs, &t.ExitPrice, &t.ExitFee, &t.ExitReason,
		&t.PnL, &t.PnLPct, &t.ReturnOnRisk, &t.HoldingMs,
	)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

// scanTrades scans multiple rows into a slice of Trade.
func scanTrades(rows pgx.Rows) ([]*domain.Trade, error) {
	var trades []*domain.Trade

	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade row: %w", err)
		}
		trades = append(trades, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade rows: %w", err)
	}

	return trades, nil
}
