package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func TestStream_EmitsClosedBarsOnly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/btcusdt@kline_1h") {
			t.Errorf("unexpected stream path: %s", r.URL.Path)
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		if err := conn.WriteMessage(websocket.TextMessage, []byte(openKline)); err != nil {
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte(closedKline)); err != nil {
			return
		}

		// Keep connection open until the client disconnects
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	stream, err := NewStream(context.Background(), wsURL, "BTC/USDT", "1h", nil)
	if err != nil {
		t.Fatalf("NewStream: %v", err)
	}
	defer stream.Close()

	select {
	case cb := <-stream.Bars():
		if cb.Err != nil {
			t.Fatalf("unexpected error: %v", cb.Err)
		}
		if cb.Bar.TimestampMs != 1704067200000 {
			t.Errorf("expected the closed bar, got open time %d", cb.Bar.TimestampMs)
		}
		if cb.Bar.Close != 42150.55 {
			t.Errorf("close price mismatch: %f", cb.Bar.Close)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for closed bar")
	}
}

func TestStream_CloseIsIdempotent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	stream, err := NewStream(context.Background(), wsURL, "BTC/USDT", "1h", nil)
	if err != nil {
		t.Fatalf("NewStream: %v", err)
	}

	if err := stream.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := stream.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	// Channel must be closed after shutdown
	if _, ok := <-stream.Bars(); ok {
		t.Error("expected closed bar channel after Close")
	}
}
