package ws

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Session is one websocket connection. The pumps only move bytes; all
// decoding and state changes happen on the hub's loop.
type Session struct {
	ID          string
	ConnectedAt time.Time

	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	dropping bool // loop only
}

func newSession(h *Hub, conn *websocket.Conn) *Session {
	buf := h.cfg.SendBuffer
	if buf <= 0 {
		buf = 256
	}
	return &Session{
		ID:          uuid.New().String(),
		ConnectedAt: h.clk.Now(),
		hub:         h,
		conn:        conn,
		send:        make(chan []byte, buf),
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(s.hub.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case message, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.hub.cfg.WriteTimeout))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Debug().Err(err).Str("conn_id", s.ID).Msg("write failed")
				return
			}

		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.hub.cfg.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().Err(err).Str("conn_id", s.ID).Msg("ping failed")
				return
			}
		}
	}
}

func (s *Session) readPump() {
	defer func() {
		select {
		case s.hub.unregister <- s:
		case <-s.hub.done:
		}
		_ = s.conn.Close()
	}()

	s.conn.SetReadLimit(s.hub.cfg.MaxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(s.hub.cfg.PongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.hub.cfg.PongWait))
	})

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("conn_id", s.ID).Msg("unexpected websocket close")
			}
			return
		}
		select {
		case s.hub.inbound <- inbound{session: s, raw: message}:
		case <-s.hub.done:
			return
		}
	}
}
