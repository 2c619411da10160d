package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/filipexyz/compass/internal/websocket"
	ws "github.com/gorilla/websocket"
)

// WatchHandler streams config changes over WebSocket.
type WatchHandler struct {
	hub      *websocket.Hub
	upgrader ws.Upgrader
}

// NewWatchHandler creates a new WatchHandler. Browser origins must be in
// allowedOrigins; "*" allows any.
func NewWatchHandler(hub *websocket.Hub, allowedOrigins []string) *WatchHandler {
	return &WatchHandler{
		hub: hub,
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// Watch upgrades HTTP to WebSocket. The configKey query parameter takes a
// comma separated key filter; clients may change it with a subscribe message.
func (h *WatchHandler) Watch(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := websocket.NewClient(h.hub, conn, splitKeys(r.URL.Query().Get("configKey")))
	if !h.hub.Register(client) {
		conn.Close()
		return
	}

	// The pumps outlive the request.
	go client.WritePump()
	go client.ReadPump()
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			// Non-browser clients.
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

func splitKeys(s string) []string {
	var keys []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
