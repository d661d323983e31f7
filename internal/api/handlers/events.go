package handlers

import (
	"log/slog"
	"net/http"

	"github.com/dom/coursemarket/internal/websocket"
	ws "github.com/gorilla/websocket"
)

type EventsHandler struct {
	hub      *websocket.Hub
	upgrader ws.Upgrader
}

// NewEventsHandler serves the catalog feed. Browsers may only connect from
// allowedOrigin; clients that send no Origin header are accepted.
func NewEventsHandler(hub *websocket.Hub, allowedOrigin string) *EventsHandler {
	return &EventsHandler{
		hub: hub,
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origin == allowedOrigin
			},
		},
	}
}

func (h *EventsHandler) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("catalog feed upgrade failed", "error", err)
		return
	}

	client := websocket.NewClient(h.hub, conn)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
