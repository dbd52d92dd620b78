package chat

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 << 10
	sendBuffer     = 32
)

// Session is one websocket connection bound to a username. Reads and
// writes run on separate goroutines; the hub never touches the
// connection directly, it only feeds the send channel.
type Session struct {
	ID       uuid.UUID
	Username string

	conn   *websocket.Conn
	send   chan []byte
	logger *slog.Logger
}

// NewSession wraps an upgraded connection.
func NewSession(conn *websocket.Conn, username string, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		ID:       uuid.New(),
		Username: username,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		logger:   logger,
	}
}

// ReadLoop reads client events and hands them to handle until the
// connection drops. It blocks; run it on the request goroutine.
func (s *Session) ReadLoop(handle func(Event)) {
	defer s.conn.Close()
	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read failed", "session_id", s.ID, "error", err)
			}
			return
		}
		var event Event
		if err := json.Unmarshal(raw, &event); err != nil {
			s.logger.Warn("malformed client event", "session_id", s.ID, "error", err)
			continue
		}
		handle(event)
	}
}

// WriteLoop drains the send channel onto the connection and keeps the
// peer alive with pings. Run it on its own goroutine.
func (s *Session) WriteLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()
	for {
		select {
		case raw, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close shuts the outbound channel, which ends WriteLoop and closes the
// connection.
func (s *Session) Close() {
	close(s.send)
}
