package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/coursecast-backend/internal/platform/logger"
)

// Hub is the connection registry for live course rooms. One hub is created at
// startup and closed at shutdown.
type Hub struct {
	mu      sync.RWMutex
	log     *logger.Logger
	rooms   map[string]map[*Client]bool
	clients map[*Client]bool
	closed  bool

	heartbeat time.Duration
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:       log.With("component", "RealtimeHub"),
		rooms:     make(map[string]map[*Client]bool),
		clients:   make(map[*Client]bool),
		heartbeat: 15 * time.Second,
	}
}

// Connect registers a client. It returns nil after Close.
func (h *Hub) Connect(userID uuid.UUID) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	c := newClient(userID)
	h.clients[c] = true
	return c
}

func (h *Hub) Join(c *Client, room string) {
	room = strings.TrimSpace(room)
	if c == nil || room == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.closed {
		return
	}
	c.rooms[room] = true
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]bool)
		h.rooms[room] = members
	}
	members[c] = true
	h.log.Debug("Client joined room", "client_id", c.ID, "room", room)
}

func (h *Hub) Leave(c *Client, room string) {
	room = strings.TrimSpace(room)
	if c == nil || room == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(c.rooms, room)
	h.removeFromRoomLocked(c, room)
}

func (h *Hub) removeFromRoomLocked(c *Client, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Disconnect removes the client from every room and closes its channels. Safe to call twice.
func (h *Hub) Disconnect(c *Client) {
	if c == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.disconnectLocked(c)
}

func (h *Hub) disconnectLocked(c *Client) {
	if c.closed {
		return
	}
	for room := range c.rooms {
		h.removeFromRoomLocked(c, room)
	}
	c.rooms = make(map[string]bool)
	delete(h.clients, c)
	c.closed = true
	close(c.done)
	close(c.Outbound)
}

// Broadcast delivers to every member of msg.Room. A member whose buffer is full misses the message.
func (h *Hub) Broadcast(msg Message) {
	if msg.Room == "" {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[msg.Room] {
		select {
		case c.Outbound <- msg:
		default:
			h.log.Warn("Dropping realtime message; outbound buffer full", "client_id", c.ID, "room", msg.Room)
		}
	}
}

func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// Close disconnects every client and rejects new connections.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for c := range h.clients {
		h.disconnectLocked(c)
	}
	h.log.Info("Realtime hub closed")
}

// ServeSSE streams the client's messages until the request ends or the client is disconnected.
func (h *Hub) ServeSSE(w http.ResponseWriter, r *http.Request, c *Client) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported!", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case <-heartbeat.C:
			_, _ = fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case msg, ok := <-c.Outbound:
			if !ok {
				return
			}
			raw, err := json.Marshal(msg)
			if err != nil {
				h.log.Warn("Failed to marshal realtime message", "error", err)
				continue
			}
			_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, raw)
			flusher.Flush()
		}
	}
}
