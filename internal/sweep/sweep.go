// Package sweep runs the same backtest across a grid of threshold pairs.
// Each grid point owns its full simulation state, so points run in
// parallel without locking.
package sweep

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"confluence-backtest-lab/internal/backtest"
	"confluence-backtest-lab/internal/metrics"
	"confluence-backtest-lab/internal/observability"
)

// Point is one grid entry with its resulting performance summary.
type Point struct {
	BuyThreshold  float64
	SellThreshold float64
	Summary       metrics.Summary
	BuySignals    int
	TradeCount    int
}

// Grid defines the threshold values to scan.
type Grid struct {
	BuyValues  []float64 // each must be > 0
	SellValues []float64 // each must be < 0
}

// DefaultGrid mirrors the usual scan range.
func DefaultGrid() Grid {
	return Grid{
		BuyValues:  []float64{0.2, 0.3, 0.4, 0.5},
		SellValues: []float64{-0.2, -0.3, -0.4, -0.5},
	}
}

// Runner executes sweeps.
type Runner struct {
	runner         *backtest.Runner
	periodsPerYear int
	concurrency    int
}

// NewRunner creates a sweep runner. concurrency <= 0 means unbounded.
func NewRunner(periodsPerYear, concurrency int) *Runner {
	return &Runner{
		runner:         backtest.NewRunner(),
		periodsPerYear: periodsPerYear,
		concurrency:    concurrency,
	}
}

// Run executes one simulation per grid point over the shared read-only
// input. Results come back sorted by (buy, sell) for deterministic
// output regardless of completion order.
func (r *Runner) Run(ctx context.Context, input backtest.RunInput, grid Grid) ([]Point, error) {
	type job struct {
		buy, sell float64
	}

	var jobs []job
	for _, b := range grid.BuyValues {
		for _, s := range grid.SellValues {
			jobs = append(jobs, job{buy: b, sell: s})
		}
	}

	points := make([]Point, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}

	for i, j := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			// Params are copied per point; the slices inside input are
			// never written by the run.
			pointInput := input
			pointInput.Params.Thresholds.Buy = j.buy
			pointInput.Params.Thresholds.Sell = j.sell

			out, err := r.runner.Run(pointInput)
			if err != nil {
				return err
			}

			points[i] = Point{
				BuyThreshold:  j.buy,
				SellThreshold: j.sell,
				Summary: metrics.Compute(
					out.Result.Curve,
					out.Result.Trades,
					pointInput.Params.Simulation.InitialEquity,
					r.periodsPerYear,
				),
				BuySignals: out.BuySignals,
				TradeCount: len(out.Result.Trades),
			}
			observability.RecordSweepPoint()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(points, func(a, b int) bool {
		if points[a].BuyThreshold != points[b].BuyThreshold {
			return points[a].BuyThreshold < points[b].BuyThreshold
		}
		return points[a].SellThreshold < points[b].SellThreshold
	})
	return points, nil
}
