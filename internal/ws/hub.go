package ws

import (
	"encoding/json"
	"sync"

	"task_tracker/internal/domain"
	"task_tracker/internal/logger"
)

// Hub держит открытые сокеты каждого пользователя и рассылает им события задач.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*Client]struct{}
	closed  bool
}

func NewHub() *Hub {
	return &Hub{clients: make(map[int64]map[*Client]struct{})}
}

func (h *Hub) Register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	set, ok := h.clients[c.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.UserID] = set
	}
	set[c] = struct{}{}
	logger.Debug("ws client registered", "user_id", c.UserID, "sockets", len(set))
	return true
}

// Unregister removes c and closes its send channel; safe to call more than once.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(c)
}

// remove expects h.mu to be held for writing.
func (h *Hub) remove(c *Client) {
	set, ok := h.clients[c.UserID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.UserID)
	}
}

// Publish pushes ev to every socket of userID. Clients with a full buffer are dropped.
func (h *Hub) Publish(userID int64, ev domain.TaskEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Error("ws marshal event", "type", ev.Type, "error", err)
		return
	}

	var slow []*Client
	h.mu.RLock()
	for c := range h.clients[userID] {
		select {
		case c.send <- payload:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	if len(slow) == 0 {
		return
	}
	h.mu.Lock()
	for _, c := range slow {
		logger.Warn("ws client too slow, dropping", "user_id", c.UserID)
		h.remove(c)
	}
	h.mu.Unlock()
}

// sendTo queues msg for c unless the hub has already dropped it.
func (h *Hub) sendTo(c *Client, msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c.UserID][c]; !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

// Online returns how many sockets userID has open.
func (h *Hub) Online(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Close disconnects everyone; later registrations are refused.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for _, set := range h.clients {
		for c := range set {
			h.remove(c)
		}
	}
}
