package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 64
)

// session is one connected player. It satisfies registry.Client: Send never
// blocks, and a full buffer reports failure so the registry drops the
// connection instead of stalling a broadcast.
type session struct {
	id          string
	displayName string
	conn        *websocket.Conn

	send      chan any
	done      chan struct{}
	closeOnce sync.Once

	// Player state below is touched only by the read loop goroutine.
	floor    string
	x, y     float64
	facingX  float64
	facingY  float64
	moveRate *slidingWindow
}

func newSession(id, displayName string, conn *websocket.Conn, moveRate *slidingWindow) *session {
	return &session{
		id:          id,
		displayName: displayName,
		conn:        conn,
		send:        make(chan any, sendBufferSize),
		done:        make(chan struct{}),
		moveRate:    moveRate,
	}
}

// ID implements registry.Client
func (s *session) ID() string { return s.id }

// Send implements registry.Client
func (s *session) Send(event any) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- event:
		return true
	default:
		return false
	}
}

func (s *session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

// writePump drains the send buffer onto the socket and keeps the
// connection alive with pings. It owns all writes to the connection.
func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case <-s.done:
			return
		case event := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(event); err != nil {
				s.close()
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.close()
				return
			}
		}
	}
}
