package backtest

import (
	"errors"
	"math"

	"confluence-backtest-lab/internal/domain"
	"confluence-backtest-lab/internal/risk"
)

// Simulator errors.
var (
	// ErrSeriesMismatch is returned when the input series are not aligned
	// 1:1 with the bar sequence. Misalignment is fatal: proceeding would
	// silently corrupt cash/position state.
	ErrSeriesMismatch = errors.New("input series must align 1:1 with the bar sequence")
)

// SkipReason explains why a qualifying entry bar produced no trade.
type SkipReason string

// Skip reasons.
const (
	SkipZeroQuantity SkipReason = "zero_quantity" // risk model sized the trade to nothing
	SkipUnaffordable SkipReason = "unaffordable"  // cost exceeds cash even after clamping
)

// Skip records a rejected entry.
type Skip struct {
	TimestampMs int64
	Reason      SkipReason
}

// State is the portfolio state threaded through the bar walk. Each Step
// call consumes one bar; no state crosses simulation boundaries, so
// independent simulations may run in parallel.
type State struct {
	Cash     float64
	Position *domain.Position
	Trades   []domain.Trade
	Curve    []domain.EquityPoint
	Skips    []Skip
}

// Result holds simulator output.
type Result struct {
	Curve     []domain.EquityPoint
	Trades    []domain.Trade
	Skips     []Skip
	Open      *domain.Position // still open at series end, nil otherwise
	EndEquity float64
}

// Input holds the aligned series a simulation consumes. Entries, Exits,
// and ATR must each have exactly one value per bar.
type Input struct {
	Bars    []domain.Bar
	Entries []bool
	Exits   []bool
	ATR     []float64
}

// Simulator walks a bar sequence, holding at most one long position at a
// time under bracket-order rules, and emits an equity curve plus a trade
// ledger. It is a strict left-to-right fold: each bar's decision depends
// on the previous bar's ending state.
type Simulator struct {
	riskModel *risk.Model
	config    domain.SimulationConfig
}

// NewSimulator creates a simulator.
func NewSimulator(riskModel *risk.Model, config domain.SimulationConfig) *Simulator {
	return &Simulator{riskModel: riskModel, config: config}
}

// Run executes the full simulation. A position still open when the bar
// sequence ends is not auto-closed; the final curve point reflects its
// mark-to-market value and Result.Open carries it for downstream
// consumers.
func (s *Simulator) Run(input Input) (*Result, error) {
	if err := domain.ValidateBars(input.Bars); err != nil {
		return nil, err
	}
	n := len(input.Bars)
	if len(input.Entries) != n || len(input.Exits) != n || len(input.ATR) != n {
		return nil, ErrSeriesMismatch
	}

	state := &State{
		Cash:  s.config.InitialEquity,
		Curve: make([]domain.EquityPoint, 0, n),
	}

	for i, bar := range input.Bars {
		s.Step(state, bar, input.Entries[i], input.Exits[i], input.ATR[i])
	}

	return &Result{
		Curve:     state.Curve,
		Trades:    state.Trades,
		Skips:     state.Skips,
		Open:      state.Position,
		EndEquity: state.Curve[n-1].Equity,
	}, nil
}

// Step advances the state by one bar. Evaluation order is fixed: resolve
// exits on an open position, recompute equity, evaluate entry when flat,
// then record the post-action mark-to-market equity.
func (s *Simulator) Step(state *State, bar domain.Bar, entry, exit bool, atr float64) {
	feeRate := s.config.FeeRate()
	equity := s.markToMarket(state, bar.Close)

	if state.Position != nil {
		if px, reason, hit := resolveExit(bar, state.Position.Bracket, exit); hit {
			s.closePosition(state, bar, px, reason, feeRate)
			equity = state.Cash
		}
	}

	if state.Position == nil && entry {
		s.tryEnter(state, bar, atr, equity, feeRate)
	}

	state.Curve = append(state.Curve, domain.EquityPoint{
		TimestampMs: bar.TimestampMs,
		Equity:      s.markToMarket(state, bar.Close),
	})
}

// resolveExit determines whether the open position exits on this bar and
// at what price. When the bar touches both stop and target, the level
// closer to the bar's open is assumed hit first; the stop wins an exact
// tie. This approximates the intrabar path without tick data and is a
// deliberate policy, not an anomaly. A pure signal exit fills at the
// bar's close.
func resolveExit(bar domain.Bar, bracket domain.BracketOrder, signalExit bool) (price float64, reason string, hit bool) {
	hitSL := bar.Low <= bracket.StopLoss
	hitTP := bar.High >= bracket.TakeProfit

	switch {
	case hitSL && hitTP:
		distSL := math.Max(bar.Open-bracket.StopLoss, 0)
		distTP := math.Max(bracket.TakeProfit-bar.Open, 0)
		if distSL <= distTP {
			return bracket.StopLoss, domain.ExitReasonStopLoss, true
		}
		return bracket.TakeProfit, domain.ExitReasonTakeProfit, true
	case hitSL:
		return bracket.StopLoss, domain.ExitReasonStopLoss, true
	case hitTP:
		return bracket.TakeProfit, domain.ExitReasonTakeProfit, true
	case signalExit:
		return bar.Close, domain.ExitReasonSignalExit, true
	}
	return 0, "", false
}

// closePosition realizes the exit: fees come off the proceeds before cash
// is credited, then the closed trade is appended to the ledger.
func (s *Simulator) closePosition(state *State, bar domain.Bar, exitPrice float64, reason string, feeRate float64) {
	pos := state.Position
	grossProceeds := pos.Quantity * exitPrice
	exitFee := grossProceeds * feeRate
	state.Cash += grossProceeds - exitFee

	realizedPnL := grossProceeds - exitFee - pos.EntryCost

	state.Trades = append(state.Trades, domain.Trade{
		EntryTimeMs:   pos.EntryTimeMs,
		EntryPrice:    pos.EntryPrice,
		Quantity:      pos.Quantity,
		EntryFee:      pos.EntryFee,
		StopLoss:      pos.Bracket.StopLoss,
		TakeProfit:    pos.Bracket.TakeProfit,
		CapitalRisked: pos.CapitalRisked,
		EntryCost:     pos.EntryCost,
		EquityAtEntry: pos.EquityAtEntry,
		ExitTimeMs:    bar.TimestampMs,
		ExitPrice:     exitPrice,
		ExitFee:       exitFee,
		ExitReason:    reason,
		PnL:           realizedPnL,
		PnLPct:        realizedPnL / pos.EquityAtEntry,
		ReturnOnRisk:  realizedPnL / math.Max(pos.CapitalRisked, 1e-9),
		HoldingMs:     bar.TimestampMs - pos.EntryTimeMs,
	})

	state.Position = nil
}

// tryEnter evaluates an entry at the bar's close. Degenerate sizing and
// insufficient cash are recovered locally: the quantity is clamped to the
// maximum affordable, and the entry is skipped (with a recorded reason)
// if still non-positive or unaffordable.
func (s *Simulator) tryEnter(state *State, bar domain.Bar, atr, equity, feeRate float64) {
	entryPrice := bar.Close
	bracket := s.riskModel.Construct(equity, entryPrice, atr, domain.DirectionLong)

	qty := math.Max(0, bracket.Quantity)
	if qty <= 0 {
		state.Skips = append(state.Skips, Skip{TimestampMs: bar.TimestampMs, Reason: SkipZeroQuantity})
		return
	}

	maxAffordable := 0.0
	if entryPrice > 0 {
		maxAffordable = state.Cash / (entryPrice * (1 + feeRate))
	}
	if maxAffordable > 0 && qty > maxAffordable {
		qty = maxAffordable
	}

	grossCost := qty * entryPrice
	entryFee := grossCost * feeRate
	totalCost := grossCost + entryFee
	if totalCost > state.Cash || qty <= 0 {
		state.Skips = append(state.Skips, Skip{TimestampMs: bar.TimestampMs, Reason: SkipUnaffordable})
		return
	}

	state.Cash -= totalCost
	state.Position = &domain.Position{
		EntryTimeMs: bar.TimestampMs,
		EntryPrice:  entryPrice,
		Quantity:    qty,
		Bracket: domain.BracketOrder{
			StopLoss:   bracket.StopLoss,
			TakeProfit: bracket.TakeProfit,
			Quantity:   qty,
		},
		EntryFee:      entryFee,
		CapitalRisked: math.Abs(entryPrice-bracket.StopLoss) * qty,
		EntryCost:     totalCost,
		EquityAtEntry: equity,
	}
}

func (s *Simulator) markToMarket(state *State, closePrice float64) float64 {
	if state.Position == nil {
		return state.Cash
	}
	return state.Cash + state.Position.Quantity*closePrice
}
