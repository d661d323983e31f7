// Package websocket fans catalog changes out to connected browsers.
package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/dom/coursemarket/internal/domain"
	"github.com/google/uuid"
)

// Hub owns the set of feed clients. Only Run touches the set.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	stop       chan struct{}
	done       chan struct{} // closed when Run() exits
	stopOnce   sync.Once
	connected  atomic.Int64
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.stop:
			for client := range h.clients {
				close(client.send)
			}
			h.clients = make(map[*Client]bool)
			h.connected.Store(0)
			return

		case client := <-h.register:
			h.clients[client] = true
			h.connected.Store(int64(len(h.clients)))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.connected.Store(int64(len(h.clients)))
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// slow consumer; it can resync with GET /course/get
					delete(h.clients, client)
					close(client.send)
				}
			}
			h.connected.Store(int64(len(h.clients)))
		}
	}
}

// ClientCount reports how many clients Run has registered.
func (h *Hub) ClientCount() int {
	return int(h.connected.Load())
}

// Stop disconnects every client and blocks until Run has returned.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stop)
	})
	<-h.done
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) CourseCreated(course *domain.Course) {
	h.publish(MessageTypeCourseCreated, course)
}

func (h *Hub) CourseUpdated(course *domain.Course) {
	h.publish(MessageTypeCourseUpdated, course)
}

func (h *Hub) CourseDeleted(courseID uuid.UUID) {
	h.publish(MessageTypeCourseDeleted, CourseDeletedPayload{ID: courseID.String()})
}

// publish never blocks the caller; events are dropped when the hub is
// stopped or its queue is full.
func (h *Hub) publish(msgType MessageType, payload interface{}) {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		slog.Error("failed to build catalog message", "type", msgType, "error", err)
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal catalog message", "type", msgType, "error", err)
		return
	}

	select {
	case <-h.done:
	case h.broadcast <- data:
	default:
		slog.Warn("catalog feed queue full, dropping event", "type", msgType)
	}
}
