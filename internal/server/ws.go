package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"studyai/internal/chat"
)

type joinPayload struct {
	Username string `json:"username"`
	Peer     string `json:"peer"`
}

type sendMessagePayload struct {
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Message  string `json:"message"`
}

type statusPayload struct {
	Msg string `json:"msg"`
}

type receiveMessagePayload struct {
	Sender  string `json:"sender"`
	Message string `json:"message"`
}

// handleWS upgrades the connection and relays chat events. A connection
// may join any number of two-party rooms; events for a room fan out to
// every connection currently joined to it.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		slog.Warn("websocket upgrade failed", "error", err, "ip", clientIP(r))
		return
	}
	session := chat.NewSession(conn, "", slog.Default())
	go session.WriteLoop()
	session.ReadLoop(func(event chat.Event) {
		s.handleChatEvent(session, event)
	})
	s.hub.Remove(session)
	session.Close()
}

func (s *Server) handleChatEvent(session *chat.Session, event chat.Event) {
	switch event.Event {
	case "join":
		var payload joinPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			slog.Warn("malformed join payload", "session_id", session.ID, "error", err)
			return
		}
		if payload.Username == "" || payload.Peer == "" {
			return
		}
		session.Username = payload.Username
		room := chat.RoomKey(payload.Username, payload.Peer)
		s.hub.Join(room, session)
		status, err := chat.NewEvent("status", statusPayload{
			Msg: fmt.Sprintf("%s joined %s", payload.Username, room),
		})
		if err != nil {
			return
		}
		s.hub.Broadcast(room, status)
	case "send_message":
		var payload sendMessagePayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			slog.Warn("malformed send_message payload", "session_id", session.ID, "error", err)
			return
		}
		if payload.Sender == "" || payload.Receiver == "" {
			return
		}
		// Persist first so history reflects what was broadcast.
		if _, err := s.app.SendMessage(payload.Sender, payload.Receiver, payload.Message); err != nil {
			slog.Error("persist chat message", "session_id", session.ID, "error", err)
			return
		}
		room := chat.RoomKey(payload.Sender, payload.Receiver)
		received, err := chat.NewEvent("receive_message", receiveMessagePayload{
			Sender:  payload.Sender,
			Message: payload.Message,
		})
		if err != nil {
			return
		}
		s.hub.Broadcast(room, received)
	default:
		slog.Warn("unknown chat event", "session_id", session.ID, "type", event.Event)
	}
}
