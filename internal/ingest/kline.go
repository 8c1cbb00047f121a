// Package ingest streams OHLCV bars from the Binance kline websocket
// feed into bar storage. Only closed bars are persisted.
package ingest

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"confluence-backtest-lab/internal/domain"
)

// klineEvent is the Binance kline stream payload.
type klineEvent struct {
	EventType string       `json:"e"`
	EventTime int64        `json:"E"`
	Symbol    string       `json:"s"`
	Kline     klinePayload `json:"k"`
}

type klinePayload struct {
	OpenTimeMs  int64  `json:"t"`
	CloseTimeMs int64  `json:"T"`
	Symbol      string `json:"s"`
	Interval    string `json:"i"`
	Open        string `json:"o"`
	Close       string `json:"c"`
	High        string `json:"h"`
	Low         string `json:"l"`
	Volume      string `json:"v"`
	IsClosed    bool   `json:"x"`
}

// ParseKline decodes a kline stream message. The returned bool reports
// whether the bar is closed; open bars are still forming and must not
// be stored.
func ParseKline(message []byte, symbol string) (domain.Bar, bool, error) {
	var ev klineEvent
	if err := json.Unmarshal(message, &ev); err != nil {
		return domain.Bar{}, false, fmt.Errorf("decode kline event: %w", err)
	}
	if ev.EventType != "kline" {
		return domain.Bar{}, false, fmt.Errorf("unexpected event type %q", ev.EventType)
	}

	k := ev.Kline
	fields := [5]string{k.Open, k.High, k.Low, k.Close, k.Volume}
	var parsed [5]float64
	for i, s := range fields {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return domain.Bar{}, false, fmt.Errorf("parse kline field %q: %w", s, err)
		}
		parsed[i] = v
	}

	bar := domain.Bar{
		Symbol:      symbol,
		Timeframe:   k.Interval,
		TimestampMs: k.OpenTimeMs,
		Open:        parsed[0],
		High:        parsed[1],
		Low:         parsed[2],
		Close:       parsed[3],
		Volume:      parsed[4],
	}
	return bar, k.IsClosed, nil
}

// StreamName builds the Binance stream path for a symbol/timeframe,
// e.g. "BTC/USDT","1h" -> "btcusdt@kline_1h".
func StreamName(symbol, timeframe string) string {
	s := strings.ToLower(strings.ReplaceAll(symbol, "/", ""))
	return fmt.Sprintf("%s@kline_%s", s, timeframe)
}
