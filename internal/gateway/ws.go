package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"argus/internal/agent"
)

// WSRequest is the JSON message protocol clients send over the websocket.
// Example: {"type": "ask", "case": "op-falcon", "input": "scan example.com"}
type WSRequest struct {
	Type      string `json:"type"` // "ask" | "cancel"
	Case      string `json:"case,omitempty"`
	Input     string `json:"input,omitempty"`
	ImagePath string `json:"imagePath,omitempty"`
}

// Default upgrader for WebSocket connections.
var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleWS upgrades the request to WebSocket and subscribes the connection to
// the hub. "ask" requests run an orchestration pass (one at a time per
// connection) and deliver the terminal result as a "run-result" event;
// tool observations stream to every subscriber as they complete. "cancel"
// aborts the named case's in-flight run from the read loop, which stays
// responsive while a run is executing. Only GET is accepted for the handshake.
func HandleWS(w http.ResponseWriter, r *http.Request, hub *Hub, asker agent.Asker, logger *slog.Logger) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sub := hub.add(conn)
	defer hub.remove(sub)

	// Runs execute off the read loop so cancel requests on the same
	// connection are still read while a run is in flight.
	running := make(chan struct{}, 1)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var req WSRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			hub.send(sub, "error", "invalid JSON")
			continue
		}

		switch req.Type {
		case "ask":
			select {
			case running <- struct{}{}:
			default:
				hub.send(sub, "error", "a run is already in flight on this connection")
				continue
			}
			go func(req WSRequest) {
				defer func() { <-running }()
				result := asker.Ask(r.Context(), req.Case, req.Input, req.ImagePath)
				hub.send(sub, "run-result", result)
			}(req)

		case "cancel":
			asker.Abort(req.Case)
			hub.send(sub, "cancelled", req.Case)

		default:
			hub.send(sub, "error", "unknown message type: "+req.Type)
		}
	}
}
