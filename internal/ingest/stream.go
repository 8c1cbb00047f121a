package ingest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"confluence-backtest-lab/internal/domain"
	"confluence-backtest-lab/internal/observability"
)

// StreamConfig configures websocket stream behavior.
type StreamConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// ReadTimeout is timeout for reading messages. Binance pings the
	// connection regularly, so reads never stall on a healthy feed.
	ReadTimeout time.Duration
}

// DefaultStreamConfig returns default stream configuration.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		ReadTimeout:       3 * time.Minute,
	}
}

// ClosedBar is one closed bar received from the stream.
type ClosedBar struct {
	Bar domain.Bar
	Err error
}

// Stream reads one symbol/timeframe kline feed over websocket and emits
// closed bars. It reconnects with exponential backoff on read errors.
type Stream struct {
	endpoint string
	symbol   string
	config   StreamConfig

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	out  chan ClosedBar
	done chan struct{}
	wg   sync.WaitGroup
}

// NewStream connects to the kline feed for symbol/timeframe.
// endpoint is the websocket base, e.g. "wss://stream.binance.com:9443/ws".
func NewStream(ctx context.Context, endpoint, symbol, timeframe string, config *StreamConfig) (*Stream, error) {
	cfg := DefaultStreamConfig()
	if config != nil {
		cfg = *config
	}

	s := &Stream{
		endpoint: fmt.Sprintf("%s/%s", endpoint, StreamName(symbol, timeframe)),
		symbol:   symbol,
		config:   cfg,
		out:      make(chan ClosedBar, 64),
		done:     make(chan struct{}),
	}

	if err := s.connect(ctx); err != nil {
		return nil, err
	}

	s.wg.Add(1)
	go s.readLoop()

	return s, nil
}

// Bars returns the closed-bar channel. It is closed when the stream shuts down.
func (s *Stream) Bars() <-chan ClosedBar {
	return s.out
}

// connect establishes the websocket connection.
func (s *Stream) connect(ctx context.Context) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	s.conn = conn
	return nil
}

// Close shuts down the stream and closes the bar channel.
func (s *Stream) Close() error {
	if s.closed.Swap(true) {
		return nil // Already closed
	}

	close(s.done)

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.conn.Close()
	}
	s.connMu.Unlock()

	s.wg.Wait()
	close(s.out)
	return nil
}

// readLoop reads messages and emits closed bars, reconnecting on error.
func (s *Stream) readLoop() {
	defer s.wg.Done()

	reconnectDelay := s.config.ReconnectDelay

	for !s.closed.Load() {
		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()

		if conn == nil {
			if !s.reconnect(reconnectDelay) {
				return
			}
			reconnectDelay = backoff(reconnectDelay, s.config.MaxReconnectDelay)
			continue
		}

		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if s.closed.Load() {
				return
			}

			s.connMu.Lock()
			s.conn.Close()
			s.conn = nil
			s.connMu.Unlock()

			observability.RecordIngestError("ws_read")
			continue
		}

		// Reset delay on successful read
		reconnectDelay = s.config.ReconnectDelay

		observability.RecordKlineReceived()

		bar, isClosed, err := ParseKline(message, s.symbol)
		if err != nil {
			observability.RecordIngestError("parse")
			s.emit(ClosedBar{Err: err})
			continue
		}
		if !isClosed {
			continue
		}

		s.emit(ClosedBar{Bar: bar})
	}
}

// reconnect waits for the backoff delay and redials. Returns false when
// the stream was closed while waiting.
func (s *Stream) reconnect(delay time.Duration) bool {
	select {
	case <-s.done:
		return false
	case <-time.After(delay):
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.connect(ctx); err != nil {
		observability.RecordIngestError("ws_dial")
		return true // retry with larger delay
	}

	observability.RecordWSReconnect()
	return true
}

func (s *Stream) emit(cb ClosedBar) {
	select {
	case s.out <- cb:
	case <-s.done:
	}
}

func backoff(delay, max time.Duration) time.Duration {
	delay *= 2
	if delay > max {
		delay = max
	}
	return delay
}
