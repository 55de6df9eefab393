package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Message is a change notification pushed to a family's open dashboards.
type Message struct {
	Type   string         `json:"type"`
	Entity string         `json:"entity"`
	Action string         `json:"action"`
	ID     int64          `json:"id,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// NewMessage creates a Message with the Type field derived from entity and action.
func NewMessage(entity, action string, id int64, extra map[string]any) Message {
	return Message{
		Type:   fmt.Sprintf("%s_%s", entity, action),
		Entity: entity,
		Action: action,
		ID:     id,
		Extra:  extra,
	}
}

// Hub tracks connected clients per parent account. A broadcast only
// reaches the sessions of the parent that owns the change.
type Hub struct {
	mu      sync.RWMutex
	parents map[int64]map[*Client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		parents: make(map[int64]map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client under its parent.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.parents[c.parentID]
	if !ok {
		set = make(map[*Client]struct{})
		h.parents[c.parentID] = set
	}
	set[c] = struct{}{}
}

// Unregister removes a client and closes its send channel. Calling it
// twice for the same client is a no-op.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.parents[c.parentID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.parents, c.parentID)
	}
}

// Broadcast sends msg to every client of parentID. Clients whose buffer
// is full miss the message.
func (h *Hub) Broadcast(parentID int64, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	dropped := 0
	for c := range h.parents[parentID] {
		select {
		case c.send <- data:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		h.logger.Warn("broadcast dropped", "parent_id", parentID, "type", msg.Type, "clients", dropped)
	}
}

// ClientCount returns the number of connected clients across all parents.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.parents {
		n += len(set)
	}
	return n
}

// ParentClientCount returns the number of clients connected for one parent.
func (h *Hub) ParentClientCount(parentID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.parents[parentID])
}
