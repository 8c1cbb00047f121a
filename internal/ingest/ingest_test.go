package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"confluence-backtest-lab/internal/storage/memory"
)

const closedKline = `{
	"e": "kline", "E": 1704070800123, "s": "BTCUSDT",
	"k": {
		"t": 1704067200000, "T": 1704070799999, "s": "BTCUSDT", "i": "1h",
		"o": "42000.10", "c": "42150.55", "h": "42200.00", "l": "41950.25",
		"v": "1234.567", "x": true
	}
}`

const openKline = `{
	"e": "kline", "E": 1704070800123, "s": "BTCUSDT",
	"k": {
		"t": 1704070800000, "T": 1704074399999, "s": "BTCUSDT", "i": "1h",
		"o": "42150.55", "c": "42160.00", "h": "42180.00", "l": "42100.00",
		"v": "12.3", "x": false
	}
}`

func TestParseKline_ClosedBar(t *testing.T) {
	bar, isClosed, err := ParseKline([]byte(closedKline), "BTC/USDT")
	require.NoError(t, err)

	assert.True(t, isClosed)
	assert.Equal(t, "BTC/USDT", bar.Symbol)
	assert.Equal(t, "1h", bar.Timeframe)
	assert.Equal(t, int64(1704067200000), bar.TimestampMs)
	assert.Equal(t, 42000.10, bar.Open)
	assert.Equal(t, 42150.55, bar.Close)
	assert.Equal(t, 1234.567, bar.Volume)
}

func TestParseKline_OpenBarNotClosed(t *testing.T) {
	_, isClosed, err := ParseKline([]byte(openKline), "BTC/USDT")
	require.NoError(t, err)
	assert.False(t, isClosed)
}

func TestParseKline_WrongEventType(t *testing.T) {
	_, _, err := ParseKline([]byte(`{"e":"trade"}`), "BTC/USDT")
	assert.ErrorContains(t, err, "unexpected event type")
}

func TestParseKline_BadPrice(t *testing.T) {
	msg := `{"e":"kline","k":{"t":1,"i":"1h","o":"abc","c":"1","h":"1","l":"1","v":"1","x":true}}`
	_, _, err := ParseKline([]byte(msg), "BTC/USDT")
	assert.Error(t, err)
}

func TestStreamName(t *testing.T) {
	assert.Equal(t, "btcusdt@kline_1h", StreamName("BTC/USDT", "1h"))
	assert.Equal(t, "ethusdt@kline_4h", StreamName("ETHUSDT", "4h"))
}

func TestIngester_StoresClosedBars(t *testing.T) {
	store := memory.NewBarStore()
	ing := NewIngester(store, nil)

	bars := make(chan ClosedBar, 2)
	bar, _, err := ParseKline([]byte(closedKline), "BTC/USDT")
	require.NoError(t, err)

	bars <- ClosedBar{Bar: bar}
	bars <- ClosedBar{Bar: bar} // replay after reconnect, must be skipped
	close(bars)

	require.NoError(t, ing.Run(context.Background(), bars))

	got, err := store.GetSeries(context.Background(), "BTC/USDT", "1h")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, bar, got[0])
}

func TestIngester_ContextCancel(t *testing.T) {
	ing := NewIngester(memory.NewBarStore(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ing.Run(ctx, make(chan ClosedBar))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIngester_SkipsMalformed(t *testing.T) {
	store := memory.NewBarStore()
	ing := NewIngester(store, nil)

	bars := make(chan ClosedBar, 1)
	bars <- ClosedBar{Err: assert.AnError}
	close(bars)

	require.NoError(t, ing.Run(context.Background(), bars))

	got, err := store.GetSeries(context.Background(), "BTC/USDT", "1h")
	require.NoError(t, err)
	assert.Empty(t, got)
}
