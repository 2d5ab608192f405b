package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Message is a change notification pushed to every client of one house.
type Message struct {
	Type   string         `json:"type"`
	Entity string         `json:"entity"`
	Action string         `json:"action"`
	ID     string         `json:"id,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// NewMessage builds a Message whose Type is "<entity>_<action>", e.g. task_completed.
func NewMessage(entity, action, id string, extra map[string]any) Message {
	return Message{
		Type:   fmt.Sprintf("%s_%s", entity, action),
		Entity: entity,
		Action: action,
		ID:     id,
		Extra:  extra,
	}
}

// Hub tracks connected clients grouped by house.
type Hub struct {
	mu     sync.RWMutex
	houses map[string]map[*Client]struct{}
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		houses: make(map[string]map[*Client]struct{}),
		logger: logger,
	}
}

// Register adds a client under its house.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.houses[c.houseID]
	if !ok {
		set = make(map[*Client]struct{})
		h.houses[c.houseID] = set
	}
	set[c] = struct{}{}
}

// Unregister removes a client and closes its send channel. Safe to call twice.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.houses[c.houseID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.houses, c.houseID)
	}
}

// Broadcast sends msg to every client connected to houseID. Slow clients
// whose buffers are full miss the message.
func (h *Hub) Broadcast(houseID string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	dropped := 0
	for c := range h.houses[houseID] {
		select {
		case c.send <- data:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		h.logger.Debug("broadcast dropped", "house_id", houseID, "type", msg.Type, "clients", dropped)
	}
}

// ClientCount returns the number of clients connected to houseID.
func (h *Hub) ClientCount(houseID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.houses[houseID])
}
