package ws

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"community-chat/internal/models"
	"community-chat/internal/observability"
)

// Conn is the transport write surface the hub needs from a websocket
// connection.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// client serializes writes to one connection. Dispatch during a
// concurrent disconnect degrades to a dropped event, never a caller
// error.
type client struct {
	conn Conn
	mu   sync.Mutex
}

func (c *client) write(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Hub maintains room membership and is the single fan-out point for
// events. Delivery is fire-and-forget: at most once, no retries, no
// acknowledgement.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*client
	rooms    map[RoomKey]map[string]struct{}
	joined   map[string]map[RoomKey]struct{}
	registry *Registry
}

// NewHub creates an empty hub. The registry is consulted only for
// connection identity on error events.
func NewHub(registry *Registry) *Hub {
	return &Hub{
		clients:  make(map[string]*client),
		rooms:    make(map[RoomKey]map[string]struct{}),
		joined:   make(map[string]map[RoomKey]struct{}),
		registry: registry,
	}
}

// AddClient registers a connection with the hub.
func (h *Hub) AddClient(connID string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[connID] = &client{conn: conn}
}

// RemoveClient drops the connection from every room it joined and
// returns those rooms so callers can rebroadcast presence.
func (h *Hub) RemoveClient(connID string) []RoomKey {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.removeLocked(connID)
}

func (h *Hub) removeLocked(connID string) []RoomKey {
	var left []RoomKey
	for room := range h.joined[connID] {
		left = append(left, room)
		if members, ok := h.rooms[room]; ok {
			delete(members, connID)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	delete(h.joined, connID)
	delete(h.clients, connID)
	return left
}

// Join subscribes the connection to a room. Joining twice is a no-op.
func (h *Hub) Join(room RoomKey, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[connID]; !ok {
		return
	}
	if _, ok := h.rooms[room]; !ok {
		h.rooms[room] = make(map[string]struct{})
	}
	h.rooms[room][connID] = struct{}{}
	if _, ok := h.joined[connID]; !ok {
		h.joined[connID] = make(map[RoomKey]struct{})
	}
	h.joined[connID][room] = struct{}{}
}

// Leave unsubscribes the connection from one room.
func (h *Hub) Leave(room RoomKey, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[room]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	if rooms, ok := h.joined[connID]; ok {
		delete(rooms, room)
	}
}

// Members returns the connection ids currently subscribed to a room.
func (h *Hub) Members(room RoomKey) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.rooms[room]))
	for connID := range h.rooms[room] {
		out = append(out, connID)
	}
	return out
}

// Broadcast sends the event to every connection in the room.
func (h *Hub) Broadcast(room RoomKey, event string, payload interface{}) {
	data, err := json.Marshal(models.ServerEvent{Type: event, Payload: payload})
	if err != nil {
		log.Printf("marshal %s event: %v", event, err)
		return
	}

	h.mu.RLock()
	targets := make(map[string]*client, len(h.rooms[room]))
	for connID := range h.rooms[room] {
		if c, ok := h.clients[connID]; ok {
			targets[connID] = c
		}
	}
	h.mu.RUnlock()

	for connID, c := range targets {
		if err := c.write(data); err != nil {
			h.dropOnWriteError(room, connID, c, err)
		}
	}
}

// Send delivers the event to exactly one connection. A departed
// connection is a harmless no-op.
func (h *Hub) Send(connID string, event string, payload interface{}) {
	data, err := json.Marshal(models.ServerEvent{Type: event, Payload: payload})
	if err != nil {
		log.Printf("marshal %s event: %v", event, err)
		return
	}

	h.mu.RLock()
	c, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	if err := c.write(data); err != nil {
		var room RoomKey
		h.mu.RLock()
		for r := range h.joined[connID] {
			room = r
			break
		}
		h.mu.RUnlock()
		h.dropOnWriteError(room, connID, c, err)
	}
}

func (h *Hub) dropOnWriteError(room RoomKey, connID string, c *client, err error) {
	log.Printf("websocket write error: %v", err)
	c.conn.Close()
	h.RemoveClient(connID)
	h.publishWSError(room, connID, err)
	observability.IncWSEvent(roomKind(room), "ws_error")
}

func (h *Hub) publishWSError(room RoomKey, connID string, err error) {
	if h.registry == nil {
		return
	}
	info, ok := h.registry.Get(connID)
	if !ok {
		return
	}

	kind := roomKind(room)
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        kind,
			"room":        string(room),
			"event":       "ws_error",
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      err.Error(),
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}

	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.Background(), wsRoutingKey(kind), observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_error",
		Payload:   payload,
	}, headers)
}

func roomKind(room RoomKey) string {
	if strings.HasPrefix(string(room), "group_") {
		return "group"
	}
	return "company"
}

func wsRoutingKey(kind string) string {
	if kind == "group" {
		return "ws_events.groups"
	}
	return "ws_events.companies"
}
