package realtime

import (
	"sync"

	"smart_greenhouse/internal/logger"
)

// Envelope is the JSON frame pushed to clients.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Hub fans events out to connected clients grouped in rooms. A room is either
// a user's private channel ("user:<id>") or a greenhouse broadcast channel
// ("greenhouse:<id>"). Delivery is fire-and-forget, at most once: a client
// that is slow or disconnected at push time simply misses the push.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
	log   *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		rooms: make(map[string]map[*Client]struct{}),
		log:   log,
	}
}

// UserRoom and GreenhouseRoom build canonical room names.
func UserRoom(userID string) string     { return "user:" + userID }
func GreenhouseRoom(ghID string) string { return "greenhouse:" + ghID }

// Join adds the client to a room.
func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
}

// Leave removes the client from a room.
func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, room)
}

func (h *Hub) leaveLocked(c *Client, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(c.rooms, room)
}

// Remove detaches the client from every room and closes its send channel.
// Safe to call once per client, on connection teardown.
func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.removed {
		return
	}
	c.removed = true
	for room := range c.rooms {
		h.leaveLocked(c, room)
	}
	close(c.send)
}

// Publish pushes an event to every client in the room without blocking.
// A client whose buffer is full has the frame dropped: there is no queue and
// no replay; clients reconcile through the persisted notification list.
func (h *Hub) Publish(room, event string, data any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	env := Envelope{Event: event, Data: data}
	for c := range members {
		select {
		case c.send <- env:
		default:
			if h.log != nil {
				h.log.Debugw("realtime_frame_dropped", "room", room, "event", event, "user", c.UserID)
			}
		}
	}
}

// Clients reports the number of clients currently in a room.
func (h *Hub) Clients(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
