package realtime

import (
	"encoding/json"
	"log"
	"os"
	"sync"

	"github.com/koinoniahq/koinonia/models"
)

// Hub holds every live websocket session in this process. Each user has
// a personal channel covering all of their concurrent sessions, and
// each group has a room. Delivery is best-effort: a session whose send
// buffer is full, or a user with no session at all, is silently skipped.
type Hub struct {
	mu       sync.RWMutex
	sessions map[uint]map[*Client]bool
	rooms    map[string]map[*Client]bool
	logger   *log.Logger
}

func NewHub() *Hub {
	return &Hub{
		sessions: make(map[uint]map[*Client]bool),
		rooms:    make(map[string]map[*Client]bool),
		logger:   log.New(os.Stdout, "[REALTIME] ", log.LstdFlags),
	}
}

// Register adds a session to its user's personal channel and reports
// whether it is the user's first live session.
func (h *Hub) Register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sessions[c.userID] == nil {
		h.sessions[c.userID] = make(map[*Client]bool)
	}
	h.sessions[c.userID][c] = true
	first := len(h.sessions[c.userID]) == 1
	h.logger.Printf("user %d connected, %d session(s)", c.userID, len(h.sessions[c.userID]))
	return first
}

// Unregister drops the session everywhere and reports whether it was
// the user's last one.
func (h *Hub) Unregister(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.sessions[c.userID]; ok {
		if _, ok := clients[c]; ok {
			delete(clients, c)
			close(c.send)
		}
		if len(clients) == 0 {
			delete(h.sessions, c.userID)
		}
	}
	for _, members := range h.rooms {
		delete(members, c)
	}
	last := h.sessions[c.userID] == nil
	h.logger.Printf("user %d disconnected, last=%v", c.userID, last)
	return last
}

// JoinGroup adds every live session of the user to the group room.
func (h *Hub) JoinGroup(userID uint, groupID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[groupID] == nil {
		h.rooms[groupID] = make(map[*Client]bool)
	}
	for c := range h.sessions[userID] {
		h.rooms[groupID][c] = true
	}
}

// LeaveGroup removes every live session of the user from the group room.
func (h *Hub) LeaveGroup(userID uint, groupID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[groupID]; ok {
		for c := range h.sessions[userID] {
			delete(members, c)
		}
		if len(members) == 0 {
			delete(h.rooms, groupID)
		}
	}
}

func (h *Hub) ToUser(userID uint, event models.OutEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Printf("failed to marshal %s event: %v", event.Type, err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.sessions[userID] {
		c.enqueue(data)
	}
}

func (h *Hub) ToUsers(userIDs []uint, event models.OutEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Printf("failed to marshal %s event: %v", event.Type, err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := make(map[uint]bool, len(userIDs))
	for _, id := range userIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		for c := range h.sessions[id] {
			c.enqueue(data)
		}
	}
}

func (h *Hub) ToGroup(groupID string, event models.OutEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Printf("failed to marshal %s event: %v", event.Type, err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[groupID] {
		c.enqueue(data)
	}
}

func (h *Hub) BroadcastAll(event models.OutEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Printf("failed to marshal %s event: %v", event.Type, err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, clients := range h.sessions {
		for c := range clients {
			c.enqueue(data)
		}
	}
}

func (h *Hub) IsOnline(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[userID]) > 0
}
