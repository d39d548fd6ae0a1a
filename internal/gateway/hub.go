package gateway

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"argus/internal/domain"
)

// Event is the JSON envelope broadcast to every subscriber.
type Event struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// Hub fans events out to connected websocket clients. It implements
// domain.Notifier: delivery is fire-and-forget, a slow or dead subscriber is
// dropped, and broadcasting with zero subscribers is a no-op.
type Hub struct {
	logger *slog.Logger

	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

type subscriber struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{logger: logger, subs: make(map[*subscriber]struct{})}
}

var _ domain.Notifier = (*Hub)(nil)

// Notify broadcasts an event to all subscribers. Never blocks the caller on a
// failed write; the failing subscriber is evicted instead.
func (h *Hub) Notify(event string, payload any) {
	data, err := json.Marshal(Event{Event: event, Payload: payload})
	if err != nil {
		h.logger.Warn("event marshal failed", "event", event, "error", err)
		return
	}

	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.subs))
	for sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		sub.writeMu.Lock()
		err := sub.conn.WriteMessage(websocket.TextMessage, data)
		sub.writeMu.Unlock()
		if err != nil {
			h.remove(sub)
		}
	}
}

// Subscribers returns the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) add(conn *websocket.Conn) *subscriber {
	sub := &subscriber{conn: conn}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
}

// send writes a message to one subscriber only.
func (h *Hub) send(sub *subscriber, event string, payload any) {
	data, err := json.Marshal(Event{Event: event, Payload: payload})
	if err != nil {
		return
	}
	sub.writeMu.Lock()
	defer sub.writeMu.Unlock()
	_ = sub.conn.WriteMessage(websocket.TextMessage, data)
}
