package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"confluence-backtest-lab/internal/domain"
	"confluence-backtest-lab/internal/storage"
)

const runColumns = `
	run_id, symbol, timeframe, start_ms, end_ms, bar_count,
	buy_signals, sell_signals, trade_count,
	start_equity, end_equity, total_return, sharpe_ratio, max_drawdown,
	win_rate, profit_factor, open_at_end, created_at_ms, params_fingerprint
`

// RunStore implements storage.RunStore using PostgreSQL.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new RunStore.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

// Insert adds a new run record. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(ctx context.Context, r *domain.RunRecord) error {
	query := `
		INSERT INTO backtest_runs (` + runColumns + `
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9,
			$10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19
		)
	`

	_, err := s.pool.Exec(ctx, query,
		r.RunID, r.Symbol, r.Timeframe, r.StartMs, r.EndMs, r.BarCount,
		r.BuySignals, r.SellSignals, r.TradeCount,
		r.StartEquity, r.EndEquity, r.TotalReturn, r.SharpeRatio, r.MaxDrawdown,
		r.WinRate, r.ProfitFactor, r.OpenAtEnd, r.CreatedAtMs, r.ParamsFingerprint,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(ctx context.Context, runID string) (*domain.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM backtest_runs WHERE run_id = $1`

	row := s.pool.QueryRow(ctx, query, runID)
	r, err := scanRun(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get run by id: %w", err)
	}
	return r, nil
}

// GetBySymbol retrieves all runs for a symbol, ordered by created_at DESC.
func (s *RunStore) GetBySymbol(ctx context.Context, symbol string) ([]*domain.RunRecord, error) {
	query := `
		SELECT ` + runColumns + `
		FROM backtest_runs
		WHERE symbol = $1
		ORDER BY created_at_ms DESC, run_id ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("get runs by symbol: %w", err)
	}
	defer rows.Close()

	var runs []*domain.RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}

	return runs, nil
}

// scanRun scans a single row into a RunRecord.
func scanRun(row pgx.Row) (*domain.RunRecord, error) {
	var r domain.RunRecord

	err := row.Scan(
		&r.RunID, &r.Symbol, &r.Timeframe, &r.StartMs, &r.EndMs, &r.BarCount,
		&r.BuySignals, &r.SellSignals, &r.TradeCount,
		&r.StartEquity, &r.EndEquity, &r.TotalReturn, &r.SharpeRatio, &r.MaxDrawdown,
		&r.WinRate, &r.ProfitFactor, &r.OpenAtEnd, &r.CreatedAtMs, &r.ParamsFingerprint,
	)
	if err != nil {
		return nil, err
	}

	return &r, nil
}
