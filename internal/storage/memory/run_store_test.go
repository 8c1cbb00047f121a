package memory

import (
	"context"
	"errors"
	"testing"

	"confluence-backtest-lab/internal/domain"
	"confluence-backtest-lab/internal/storage"
)

func TestRunStore_InsertAndGet(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	run := &domain.RunRecord{
		RunID:       "run1",
		Symbol:      "BTC/USDT",
		Timeframe:   "1h",
		BarCount:    720,
		EndEquity:   10500,
		CreatedAtMs: 1000,
	}

	if err := store.Insert(ctx, run); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "run1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	if got.EndEquity != 10500 {
		t.Errorf("EndEquity mismatch: got %f, want %f", got.EndEquity, 10500.0)
	}
}

func TestRunStore_DuplicateKey(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	run := &domain.RunRecord{RunID: "run1", Symbol: "BTC/USDT"}

	if err := store.Insert(ctx, run); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, run)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestRunStore_GetBySymbol_NewestFirst(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	runs := []*domain.RunRecord{
		{RunID: "r1", Symbol: "BTC/USDT", CreatedAtMs: 1000},
		{RunID: "r2", Symbol: "BTC/USDT", CreatedAtMs: 3000},
		{RunID: "r3", Symbol: "ETH/USDT", CreatedAtMs: 2000},
	}
	for _, r := range runs {
		if err := store.Insert(ctx, r); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	got, err := store.GetBySymbol(ctx, "BTC/USDT")
	if err != nil {
		t.Fatalf("GetBySymbol failed: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(got))
	}
	if got[0].RunID != "r2" {
		t.Errorf("Expected newest run first, got %s", got[0].RunID)
	}
}
