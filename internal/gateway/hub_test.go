package gateway

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// =============================================================================
// Hub tests
// =============================================================================

func TestHubNotify_WhenNoSubscribers_ShouldBeNoOp(t *testing.T) {
	hub := NewHub(testLogger())

	hub.Notify("agent-tool-result", map[string]any{"tool": "ping"})

	if hub.Subscribers() != 0 {
		t.Errorf("expected no subscribers, got %d", hub.Subscribers())
	}
}

func TestHubNotify_ShouldDeliverToConnectedSubscriber(t *testing.T) {
	hub := NewHub(testLogger())
	upgrader := websocket.Upgrader{}
	connected := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		sub := hub.add(conn)
		close(connected)
		defer hub.remove(sub)
		// Keep the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dialing: %v", err)
	}
	defer client.Close()
	<-connected

	hub.Notify("agent-tool-result", map[string]any{"tool": "ping", "cached": false})

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("reading event: %v", err)
	}
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		t.Fatalf("unmarshaling event: %v", err)
	}
	if event.Event != "agent-tool-result" {
		t.Errorf("unexpected event name: %q", event.Event)
	}
	payload, ok := event.Payload.(map[string]any)
	if !ok || payload["tool"] != "ping" {
		t.Errorf("unexpected payload: %+v", event.Payload)
	}
}

func TestHubNotify_WhenSubscriberGone_ShouldEvictIt(t *testing.T) {
	hub := NewHub(testLogger())
	upgrader := websocket.Upgrader{}
	connected := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.add(conn)
		close(connected)
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dialing: %v", err)
	}
	<-connected
	if hub.Subscribers() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", hub.Subscribers())
	}
	client.Close()

	// The write fails against the closed peer; the hub must drop it.
	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers() != 0 && time.Now().Before(deadline) {
		hub.Notify("tick", nil)
		time.Sleep(10 * time.Millisecond)
	}
	if hub.Subscribers() != 0 {
		t.Errorf("dead subscriber should be evicted, still have %d", hub.Subscribers())
	}
}
