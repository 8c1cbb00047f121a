package backtest

import (
	"math"
	"testing"

	"confluence-backtest-lab/internal/domain"
	"confluence-backtest-lab/internal/risk"
)

func testParams() domain.StrategyParams {
	p := domain.DefaultStrategyParams()
	// Zero fees keep the arithmetic exact; fee behavior has its own tests.
	p.Simulation.FeesBps = 0
	p.Simulation.SlippageBps = 0
	return p
}

func newTestSimulator(p domain.StrategyParams) *Simulator {
	return NewSimulator(risk.NewModel(p.Risk), p.Simulation)
}

// flatBars builds bars where open=high=low=close=price per element.
func flatBars(prices []float64) []domain.Bar {
	bars := make([]domain.Bar, len(prices))
	for i, p := range prices {
		bars[i] = domain.Bar{
			Symbol:      "BTC/USDT",
			Timeframe:   "1h",
			TimestampMs: int64(1_700_000_000_000 + i*3_600_000),
			Open:        p, High: p, Low: p, Close: p,
			Volume: 1,
		}
	}
	return bars
}

func series(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func boolSeries(n int, trueAt ...int) []bool {
	out := make([]bool, n)
	for _, i := range trueAt {
		out[i] = true
	}
	return out
}

func TestRun_TieBreakStopCloserToOpen(t *testing.T) {
	p := testParams()
	sim := newTestSimulator(p)

	// Entry at close=100 with atr=2.5: stop=95, target=110.
	bars := flatBars([]float64{100, 100, 100})
	bars[1].Open = 100
	bars[1].High = 111
	bars[1].Low = 94

	res, err := sim.Run(Input{
		Bars:    bars,
		Entries: boolSeries(3, 0),
		Exits:   boolSeries(3),
		ATR:     series(3, 2.5),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(res.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(res.Trades))
	}
	tr := res.Trades[0]
	if tr.ExitReason != domain.ExitReasonStopLoss {
		t.Errorf("ExitReason = %s, want stop_loss (|100-95|=5 < |110-100|=10)", tr.ExitReason)
	}
	if tr.ExitPrice != 95 {
		t.Errorf("ExitPrice = %v, want 95", tr.ExitPrice)
	}
}

func TestRun_TieBreakTargetCloserToOpen(t *testing.T) {
	p := testParams()
	sim := newTestSimulator(p)

	bars := flatBars([]float64{100, 100, 100})
	bars[1].Open = 105
	bars[1].High = 111
	bars[1].Low = 94

	res, err := sim.Run(Input{
		Bars:    bars,
		Entries: boolSeries(3, 0),
		Exits:   boolSeries(3),
		ATR:     series(3, 2.5),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(res.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(res.Trades))
	}
	tr := res.Trades[0]
	if tr.ExitReason != domain.ExitReasonTakeProfit {
		t.Errorf("ExitReason = %s, want take_profit (|105-110|=5 < |105-95|=10)", tr.ExitReason)
	}
	if tr.ExitPrice != 110 {
		t.Errorf("ExitPrice = %v, want 110", tr.ExitPrice)
	}
}

func TestRun_SignalExitAtClose(t *testing.T) {
	p := testParams()
	sim := newTestSimulator(p)

	// Prices never touch stop (95) or target (110); SELL gate on bar 2.
	bars := flatBars([]float64{100, 101, 102})

	res, err := sim.Run(Input{
		Bars:    bars,
		Entries: boolSeries(3, 0),
		Exits:   boolSeries(3, 2),
		ATR:     series(3, 2.5),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(res.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(res.Trades))
	}
	tr := res.Trades[0]
	if tr.ExitReason != domain.ExitReasonSignalExit {
		t.Errorf("ExitReason = %s, want signal_exit", tr.ExitReason)
	}
	if tr.ExitPrice != 102 {
		t.Errorf("ExitPrice = %v, want close 102", tr.ExitPrice)
	}
	if tr.ExitTimeMs <= tr.EntryTimeMs {
		t.Errorf("exit time %d not after entry time %d", tr.ExitTimeMs, tr.EntryTimeMs)
	}
}

func TestRun_CurveAlignedWithBars(t *testing.T) {
	p := testParams()
	sim := newTestSimulator(p)

	bars := flatBars([]float64{100, 101, 99, 100, 102})
	res, err := sim.Run(Input{
		Bars:    bars,
		Entries: boolSeries(5, 1),
		Exits:   boolSeries(5, 3),
		ATR:     series(5, 2),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(res.Curve) != len(bars) {
		t.Fatalf("curve length %d != bar count %d", len(res.Curve), len(bars))
	}
	for i := range bars {
		if res.Curve[i].TimestampMs != bars[i].TimestampMs {
			t.Errorf("curve[%d] timestamp %d != bar timestamp %d", i, res.Curve[i].TimestampMs, bars[i].TimestampMs)
		}
	}
}

func TestRun_CashNeverNegative(t *testing.T) {
	p := testParams()
	p.Simulation.FeesBps = 50
	p.Simulation.SlippageBps = 50
	p.Risk.RiskFraction = 100 // force clamping to the affordable maximum

	sim := newTestSimulator(p)

	bars := flatBars([]float64{100, 90, 110, 80, 120, 100})
	state := &State{Cash: p.Simulation.InitialEquity}
	entries := boolSeries(6, 0, 2, 4)
	exits := boolSeries(6, 1, 3, 5)

	for i, bar := range bars {
		sim.Step(state, bar, entries[i], exits[i], 2)
		if state.Cash < 0 {
			t.Fatalf("cash went negative at bar %d: %v", i, state.Cash)
		}
	}
}

func TestRun_FeeMonotonicity(t *testing.T) {
	bars := flatBars([]float64{100, 105, 110, 108, 112, 109})
	entries := boolSeries(6, 0, 3)
	exits := boolSeries(6, 2, 5)
	atr := series(6, 3)

	endEquity := func(feesBps int) float64 {
		p := testParams()
		p.Simulation.FeesBps = feesBps
		res, err := newTestSimulator(p).Run(Input{Bars: bars, Entries: entries, Exits: exits, ATR: atr})
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		return res.EndEquity
	}

	prev := endEquity(0)
	for _, bps := range []int{5, 20, 100, 500} {
		cur := endEquity(bps)
		if cur > prev {
			t.Errorf("end equity increased when fees rose to %d bps: %v > %v", bps, cur, prev)
		}
		prev = cur
	}
}

func TestRun_SkipZeroQuantity(t *testing.T) {
	p := testParams()
	sim := newTestSimulator(p)

	bars := flatBars([]float64{100, 100})
	res, err := sim.Run(Input{
		Bars:    bars,
		Entries: boolSeries(2, 0),
		Exits:   boolSeries(2),
		ATR:     series(2, 0), // degenerate ATR: zero stop distance
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(res.Trades) != 0 || res.Open != nil {
		t.Fatalf("expected no position from degenerate sizing")
	}
	if len(res.Skips) != 1 || res.Skips[0].Reason != SkipZeroQuantity {
		t.Fatalf("expected one zero_quantity skip, got %+v", res.Skips)
	}
}

func TestRun_ClampsQuantityToAffordable(t *testing.T) {
	p := testParams()
	p.Risk.RiskFraction = 10 // sized quantity far beyond available cash
	sim := newTestSimulator(p)

	bars := flatBars([]float64{100, 100})
	res, err := sim.Run(Input{
		Bars:    bars,
		Entries: boolSeries(2, 0),
		Exits:   boolSeries(2),
		ATR:     series(2, 2),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.Open == nil {
		t.Fatal("expected a clamped position to open")
	}
	// With zero fees the whole cash balance converts: qty = 10000/100.
	if math.Abs(res.Open.Quantity-100) > 1e-9 {
		t.Errorf("Quantity = %v, want clamped 100", res.Open.Quantity)
	}
}

func TestRun_SinglePositionInvariant(t *testing.T) {
	p := testParams()
	sim := newTestSimulator(p)

	// Entry signals on every bar; only one position may be open at a time,
	// so no second entry is taken before the first resolves.
	bars := flatBars([]float64{100, 101, 102, 103})
	res, err := sim.Run(Input{
		Bars:    bars,
		Entries: []bool{true, true, true, true},
		Exits:   boolSeries(4),
		ATR:     series(4, 2),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(res.Trades) != 0 {
		t.Errorf("expected 0 closed trades, got %d", len(res.Trades))
	}
	if res.Open == nil {
		t.Fatal("expected one open position")
	}
	if res.Open.EntryTimeMs != bars[0].TimestampMs {
		t.Errorf("position re-entered: entry at %d, want first bar %d", res.Open.EntryTimeMs, bars[0].TimestampMs)
	}
}

func TestRun_OpenPositionAtSeriesEnd(t *testing.T) {
	p := testParams()
	sim := newTestSimulator(p)

	bars := flatBars([]float64{100, 101, 103})
	res, err := sim.Run(Input{
		Bars:    bars,
		Entries: boolSeries(3, 0),
		Exits:   boolSeries(3),
		ATR:     series(3, 2),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.Open == nil {
		t.Fatal("position should remain open at series end")
	}
	// Final equity marks the open position at the last close.
	qty := res.Open.Quantity
	wantEquity := (p.Simulation.InitialEquity - qty*100) + qty*103
	if math.Abs(res.EndEquity-wantEquity) > 1e-6 {
		t.Errorf("EndEquity = %v, want mark-to-market %v", res.EndEquity, wantEquity)
	}
}

func TestRun_SeriesMismatchIsFatal(t *testing.T) {
	p := testParams()
	sim := newTestSimulator(p)

	bars := flatBars([]float64{100, 100})
	_, err := sim.Run(Input{
		Bars:    bars,
		Entries: boolSeries(1),
		Exits:   boolSeries(2),
		ATR:     series(2, 2),
	})
	if err != ErrSeriesMismatch {
		t.Errorf("expected ErrSeriesMismatch, got %v", err)
	}
}

func TestRun_LedgerConsistency(t *testing.T) {
	p := testParams()
	sim := newTestSimulator(p)

	bars := flatBars([]float64{100, 95, 105, 100, 98, 104, 101, 99})
	entries := boolSeries(8, 0, 3, 6)
	exits := boolSeries(8, 2, 5, 7)

	res, err := sim.Run(Input{Bars: bars, Entries: entries, Exits: exits, ATR: series(8, 2)})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(res.Trades) > 3 {
		t.Errorf("%d trades exceed %d BUY signals", len(res.Trades), 3)
	}
	var prevExit int64
	for i, tr := range res.Trades {
		if tr.ExitTimeMs <= tr.EntryTimeMs {
			t.Errorf("trade %d: exit %d not after entry %d", i, tr.ExitTimeMs, tr.EntryTimeMs)
		}
		if tr.ExitTimeMs < prevExit {
			t.Errorf("trade %d out of chronological exit order", i)
		}
		prevExit = tr.ExitTimeMs
	}
}

func TestNaiveLongOnly(t *testing.T) {
	p := testParams()

	bars := flatBars([]float64{100, 110, 121})
	curve, err := NaiveLongOnly(bars, boolSeries(3, 0), boolSeries(3, 2), p.Simulation)
	if err != nil {
		t.Fatalf("NaiveLongOnly failed: %v", err)
	}

	if len(curve) != 3 {
		t.Fatalf("curve length %d, want 3", len(curve))
	}
	// All-in at 100, flatten at 121 with zero fees: 21% gain.
	if math.Abs(curve[2].Equity-12_100) > 1e-6 {
		t.Errorf("end equity = %v, want 12100", curve[2].Equity)
	}
}
