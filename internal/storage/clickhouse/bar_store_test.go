package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"confluence-backtest-lab/internal/domain"
	"confluence-backtest-lab/internal/storage"
)

func testBar(symbol, timeframe string, ts int64, close float64) domain.Bar {
	return domain.Bar{
		Symbol:      symbol,
		Timeframe:   timeframe,
		TimestampMs: ts,
		Open:        close - 1,
		High:        close + 2,
		Low:         close - 2,
		Close:       close,
		Volume:      100,
	}
}

func TestBarStore_InsertBulkAndGetSeries(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewBarStore(conn)

	bars := []domain.Bar{
		testBar("BTC/USDT", "1h", 2000, 101),
		testBar("BTC/USDT", "1h", 1000, 100),
		testBar("BTC/USDT", "4h", 1000, 100),
	}
	require.NoError(t, store.InsertBulk(ctx, bars))

	got, err := store.GetSeries(ctx, "BTC/USDT", "1h")
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, int64(1000), got[0].TimestampMs)
	assert.Equal(t, int64(2000), got[1].TimestampMs)
	assert.Equal(t, 100.0, got[0].Close)
}

func TestBarStore_GetRange(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewBarStore(conn)

	bars := []domain.Bar{
		testBar("ETH/USDT", "1h", 1000, 100),
		testBar("ETH/USDT", "1h", 2000, 101),
		testBar("ETH/USDT", "1h", 3000, 102),
	}
	require.NoError(t, store.InsertBulk(ctx, bars))

	got, err := store.GetRange(ctx, "ETH/USDT", "1h", 1000, 2000)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, int64(2000), got[1].TimestampMs)
}

func TestBarStore_DuplicateKey(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewBarStore(conn)

	bar := testBar("BTC/USDT", "1h", 1000, 100)
	require.NoError(t, store.InsertBulk(ctx, []domain.Bar{bar}))

	err := store.InsertBulk(ctx, []domain.Bar{bar})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestBarStore_IntraBatchDuplicate(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewBarStore(conn)

	err := store.InsertBulk(ctx, []domain.Bar{
		testBar("BTC/USDT", "1h", 1000, 100),
		testBar("BTC/USDT", "1h", 1000, 101),
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}
