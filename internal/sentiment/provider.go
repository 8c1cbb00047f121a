// Package sentiment supplies bounded sentiment score series in [-1, 1],
// one value per bar timestamp. Providers fetch or synthesize a raw
// series; Combined averages them into the single subscore the scoring
// layer consumes.
package sentiment

import (
	"context"
	"errors"
)

// Provider supplies a sentiment series aligned to a timestamp index.
// Every returned value must lie in [-1, 1].
type Provider interface {
	// Series returns one sentiment value per timestamp in times.
	Series(ctx context.Context, times []int64) ([]float64, error)

	// Name returns the provider identifier.
	Name() string
}

// ErrNoProviders is returned when Combined has nothing to average.
var ErrNoProviders = errors.New("no sentiment providers configured")

// Combined averages the series of several providers, clipped to [-1, 1].
func Combined(ctx context.Context, times []int64, providers ...Provider) ([]float64, error) {
	if len(providers) == 0 {
		return nil, ErrNoProviders
	}

	sum := make([]float64, len(times))
	for _, p := range providers {
		s, err := p.Series(ctx, times)
		if err != nil {
			return nil, err
		}
		if len(s) != len(times) {
			return nil, errors.New("sentiment provider " + p.Name() + " returned misaligned series")
		}
		for i, v := range s {
			sum[i] += v
		}
	}

	out := make([]float64, len(times))
	n := float64(len(providers))
	for i := range sum {
		out[i] = clip(sum[i] / n)
	}
	return out, nil
}

func clip(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
