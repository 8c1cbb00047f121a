package domain

// BracketOrder pairs the stop-loss/take-profit exit levels attached to a
// position at entry. Immutable for the lifetime of that position.
type BracketOrder struct {
	StopLoss   float64 // exit price below entry (long)
	TakeProfit float64 // exit price above entry (long)
	Quantity   float64 // position size in base units
}

// Position is an open trade. At most one live instance exists at any
// timestamp; a nil *Position means flat.
type Position struct {
	EntryTimeMs   int64        // bar timestamp at entry
	EntryPrice    float64      // fill price (bar close)
	Quantity      float64      // base units held, always > 0 while open
	Bracket       BracketOrder // stop/target attached at entry
	EntryFee      float64      // fee paid on the entry notional
	CapitalRisked float64      // |entry - stop| * quantity
	EntryCost     float64      // gross cost + entry fee, debited from cash
	EquityAtEntry float64      // mark-to-market equity when the position opened
}

// Trade is a closed-position record. Immutable once appended to the ledger.
// Corresponds to the trades table in PostgreSQL.
type Trade struct {
	TradeID string // deterministic hash
	RunID   string // backtest run this trade belongs to

	// Entry
	EntryTimeMs   int64
	EntryPrice    float64
	Quantity      float64
	EntryFee      float64
	StopLoss      float64
	TakeProfit    float64
	CapitalRisked float64
	EntryCost     float64
	EquityAtEntry float64

	// Exit
	ExitTimeMs int64
	ExitPrice  float64
	ExitFee    float64
	ExitReason string // reason code

	// Outcome
	PnL          float64 // realized pnl after fees
	PnLPct       float64 // pnl / equity_at_entry
	ReturnOnRisk float64 // pnl / capital_risked
	HoldingMs    int64   // exit_time - entry_time
}

// Exit reason codes.
const (
	ExitReasonStopLoss   = "stop_loss"
	ExitReasonTakeProfit = "take_profit"
	ExitReasonSignalExit = "signal_exit"
)

// EquityPoint is one mark-to-market sample of the equity curve.
type EquityPoint struct {
	TimestampMs int64
	Equity      float64
}
