package chat

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Event is the envelope exchanged over the realtime socket. The Data
// payload shape depends on the event name.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// NewEvent marshals the payload into an event envelope.
func NewEvent(name string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Event: name, Data: data}, nil
}

// Hub tracks which sessions are present in which rooms and fans events
// out to room members. All methods are safe for concurrent use.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[uuid.UUID]*Session
	logger *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		rooms:  make(map[string]map[uuid.UUID]*Session),
		logger: logger,
	}
}

// Join adds a session to a room. A session may sit in several rooms at
// once; rejoining the same room is a no-op.
func (h *Hub) Join(room string, s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[uuid.UUID]*Session)
		h.rooms[room] = members
	}
	members[s.ID] = s
}

// Remove drops a session from every room it joined and deletes rooms
// that become empty.
func (h *Hub) Remove(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room, members := range h.rooms {
		if _, ok := members[s.ID]; !ok {
			continue
		}
		delete(members, s.ID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Broadcast sends an event to every session in the room, including the
// originator. Sessions whose outbound buffer is full are skipped rather
// than blocking the whole room.
func (h *Hub) Broadcast(room string, event Event) {
	raw, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("encode event", "event", event.Event, "error", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.rooms[room] {
		select {
		case s.send <- raw:
		default:
			h.logger.Warn("dropping event for slow session", "session_id", s.ID, "room", room)
		}
	}
}

// RoomSize reports the current number of sessions in a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
