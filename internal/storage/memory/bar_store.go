package memory

import (
	"context"
	"sort"
	"sync"

	"confluence-backtest-lab/internal/domain"
	"confluence-backtest-lab/internal/storage"
)

// BarStore is an in-memory implementation of storage.BarStore.
type BarStore struct {
	mu   sync.RWMutex
	data map[barKey]domain.Bar
}

type barKey struct {
	symbol      string
	timeframe   string
	timestampMs int64
}

// NewBarStore creates a new in-memory bar store.
func NewBarStore() *BarStore {
	return &BarStore{
		data: make(map[barKey]domain.Bar),
	}
}

// InsertBulk adds multiple bars. Fails entire batch on duplicate
// (symbol, timeframe, timestamp_ms).
func (s *BarStore) InsertBulk(_ context.Context, bars []domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// First pass: check for duplicates (existing + intra-batch)
	batchKeys := make(map[barKey]struct{}, len(bars))
	for _, b := range bars {
		if b.Symbol == "" || b.Timeframe == "" {
			return storage.ErrInvalidInput
		}
		k := barKey{b.Symbol, b.Timeframe, b.TimestampMs}
		if _, exists := s.data[k]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[k]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[k] = struct{}{}
	}

	for _, b := range bars {
		s.data[barKey{b.Symbol, b.Timeframe, b.TimestampMs}] = b
	}

	return nil
}

// GetSeries retrieves all bars for a symbol/timeframe, ordered by timestamp ASC.
func (s *BarStore) GetSeries(_ context.Context, symbol, timeframe string) ([]domain.Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Bar
	for k, b := range s.data {
		if k.symbol == symbol && k.timeframe == timeframe {
			result = append(result, b)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})

	return result, nil
}

// GetRange retrieves bars for a symbol/timeframe within [start, end] (inclusive).
func (s *BarStore) GetRange(_ context.Context, symbol, timeframe string, start, end int64) ([]domain.Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Bar
	for k, b := range s.data {
		if k.symbol == symbol && k.timeframe == timeframe &&
			k.timestampMs >= start && k.timestampMs <= end {
			result = append(result, b)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})

	return result, nil
}

var _ storage.BarStore = (*BarStore)(nil)
