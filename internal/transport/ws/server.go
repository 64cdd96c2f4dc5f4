// Package ws streams conversation snapshots to watching clients over
// WebSocket. A watcher receives the current state on connect and the full
// updated state after every committed turn.
package ws

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/kaiwa-app/kaiwa/internal/hub"
	"github.com/kaiwa-app/kaiwa/internal/service"
)

const (
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

// Server handles session watch connections.
type Server struct {
	service  *service.Service
	hub      *hub.Hub
	upgrader websocket.Upgrader
}

// NewServer creates a new watch server.
func NewServer(svc *service.Service, h *hub.Hub) *Server {
	return &Server{
		service: svc,
		hub:     h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// CORS policy is enforced on the REST API; the socket only
				// ever pushes state the client could fetch anyway.
				return true
			},
		},
	}
}

// RegisterRoutes registers the watch route with the echo server.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/conversations/:session_id/watch", s.HandleWatch)
}

// HandleWatch upgrades the connection and streams snapshots until the
// client goes away.
func (s *Server) HandleWatch(c echo.Context) error {
	sessionID := c.Param("session_id")

	// Reject unknown sessions before upgrading.
	if _, err := s.service.GetSession(sessionID); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}

	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("ws: failed to upgrade watch connection: %v", err)
		return err
	}

	watcher := s.hub.Subscribe(sessionID)
	go s.writePump(conn, sessionID, watcher)
	go s.readPump(conn, sessionID, watcher)
	return nil
}

// writePump sends the initial snapshot, then every published update, plus
// periodic pings to keep the connection alive.
func (s *Server) writePump(conn *websocket.Conn, sessionID string, watcher *hub.Watcher) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		s.hub.Unsubscribe(sessionID, watcher)
		conn.Close()
	}()

	if session, err := s.service.GetSession(sessionID); err == nil {
		if state, err := s.service.ConversationState(session); err == nil {
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(state); err != nil {
				return
			}
		}
	}

	for {
		select {
		case state, ok := <-watcher.Updates():
			if !ok {
				conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(state); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client messages and unsubscribes when the peer closes.
func (s *Server) readPump(conn *websocket.Conn, sessionID string, watcher *hub.Watcher) {
	defer func() {
		s.hub.Unsubscribe(sessionID, watcher)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws: watch connection error: %v", err)
			}
			return
		}
	}
}
