package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"paircode/internal/model"
	"paircode/internal/service"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev
	},
}

// Handler handles WebSocket connections
type Handler struct {
	hub        *Hub
	authSvc    *service.AuthService
	sessionSvc *service.SessionService
	presence   *service.PresenceService
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, authSvc *service.AuthService, sessionSvc *service.SessionService, presence *service.PresenceService) *Handler {
	return &Handler{
		hub:        hub,
		authSvc:    authSvc,
		sessionSvc: sessionSvc,
		presence:   presence,
	}
}

// RoomWS handles GET /v1/ws/rooms/{roomId}?token=...
// The connection streams session views and room events until either side closes.
func (h *Handler) RoomWS(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]
	token := r.URL.Query().Get("token")

	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.authSvc.ValidateUserToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	views, err := h.sessionSvc.Watch(ctx, roomID, claims.UserID)
	if err != nil {
		cancel()
		switch {
		case errors.Is(err, model.ErrNotFound):
			http.Error(w, "room not found", http.StatusNotFound)
		case errors.Is(err, model.ErrUnauthorized):
			http.Error(w, "not a member of this room", http.StatusForbidden)
		default:
			log.Printf("WebSocket watch error for room %s: %v", roomID, err)
			http.Error(w, "session unavailable", http.StatusServiceUnavailable)
		}
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		cancel()
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	first, ok := <-views
	if !ok {
		cancel()
		wsConn.Close()
		return
	}

	conn := &Connection{
		RoomID: roomID,
		UserID: claims.UserID,
		Role:   first.Role,
		Send:   make(chan []byte, 256),
		Hub:    h.hub,
	}

	h.hub.Register(conn)
	h.touch(roomID, claims.UserID)
	h.queueView(conn, first)

	go h.writePump(wsConn, conn, views, cancel)
	go h.readPump(wsConn, conn, cancel)
}

func (h *Handler) touch(roomID, userID string) {
	if err := h.presence.Touch(context.Background(), roomID, userID); err != nil {
		log.Printf("Warning: presence update failed for %s in room %s: %v", userID, roomID, err)
	}
}

func (h *Handler) queueView(conn *Connection, v *service.SessionView) {
	payload, _ := json.Marshal(v)
	data, _ := json.Marshal(&Message{Type: MsgSessionView, Payload: payload})
	select {
	case conn.Send <- data:
	default:
	}
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection, cancel context.CancelFunc) {
	defer func() {
		cancel()
		if h.hub.Unregister(conn) == 0 {
			if err := h.presence.Leave(context.Background(), conn.RoomID, conn.UserID); err != nil {
				log.Printf("Warning: presence leave failed for %s in room %s: %v", conn.UserID, conn.RoomID, err)
			}
		}
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		h.touch(conn.RoomID, conn.UserID)
		return nil
	})

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == MsgHeartbeat {
			h.touch(conn.RoomID, conn.UserID)
		}
	}
}

// writePump owns the socket's write side. It serialises hub messages,
// session views and pings; the socket closes when either source ends.
func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection, views <-chan *service.SessionView, cancel context.CancelFunc) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cancel()
		wsConn.Close()
	}()

	write := func(message []byte) bool {
		wsConn.SetWriteDeadline(time.Now().Add(writeWait))
		w, err := wsConn.NextWriter(websocket.TextMessage)
		if err != nil {
			return false
		}
		w.Write(message)
		return w.Close() == nil
	}

	for {
		select {
		case message, ok := <-conn.Send:
			if !ok {
				wsConn.SetWriteDeadline(time.Now().Add(writeWait))
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if !write(message) {
				return
			}

		case v, ok := <-views:
			if !ok {
				wsConn.SetWriteDeadline(time.Now().Add(writeWait))
				wsConn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
				return
			}
			payload, _ := json.Marshal(v)
			data, _ := json.Marshal(&Message{Type: MsgSessionView, Payload: payload})
			if !write(data) {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
