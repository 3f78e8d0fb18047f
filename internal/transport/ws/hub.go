package ws

import (
	"encoding/json"
	"log"
	"sync"

	"paircode/internal/model"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Server push message types
const (
	MsgSessionView       MessageType = "session_view"
	MsgPhaseChanged      MessageType = "phase_changed"
	MsgDriverChanged     MessageType = "driver_changed"
	MsgFileUpdated       MessageType = "file_updated"
	MsgActiveFileChanged MessageType = "active_file_changed"
	MsgHandRaised        MessageType = "hand_raised"
	MsgParticipantJoined MessageType = "participant_joined"
	MsgReflectionSaved   MessageType = "reflection_saved"
	MsgUserConnected     MessageType = "user_connected"
	MsgUserDisconnected  MessageType = "user_disconnected"
	MsgError             MessageType = "error"
)

// Client message types
const (
	MsgHeartbeat MessageType = "heartbeat"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub manages WebSocket connections for rooms
type Hub struct {
	// roomID -> set of connections; one user may hold several tabs
	rooms map[string]map[*Connection]struct{}

	mu sync.RWMutex

	register   chan *Connection
	unregister chan unregistration
	broadcast  chan *BroadcastMessage
	disconnect chan string
}

// Connection represents a WebSocket connection
type Connection struct {
	RoomID string
	UserID string
	Role   model.Role
	Send   chan []byte
	Hub    *Hub
}

type unregistration struct {
	conn *Connection
	left chan int
}

// BroadcastMessage is a message to broadcast
type BroadcastMessage struct {
	RoomID  string
	ToUser  string // empty means everyone in the room
	Message *Message
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		rooms:      make(map[string]map[*Connection]struct{}),
		register:   make(chan *Connection),
		unregister: make(chan unregistration),
		broadcast:  make(chan *BroadcastMessage, 256),
		disconnect: make(chan string, 16),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.rooms[conn.RoomID] == nil {
				h.rooms[conn.RoomID] = make(map[*Connection]struct{})
			}
			h.rooms[conn.RoomID][conn] = struct{}{}
			log.Printf("%s %s connected to room %s", roleLabel(conn.Role), conn.UserID, conn.RoomID)
			h.notifyRoom(conn.RoomID, MsgUserConnected, conn)
			h.mu.Unlock()

		case u := <-h.unregister:
			conn := u.conn
			h.mu.Lock()
			if conns, ok := h.rooms[conn.RoomID]; ok {
				if _, ok := conns[conn]; ok {
					delete(conns, conn)
					close(conn.Send)
					if len(conns) == 0 {
						delete(h.rooms, conn.RoomID)
					}
					log.Printf("%s %s disconnected from room %s", roleLabel(conn.Role), conn.UserID, conn.RoomID)
					h.notifyRoom(conn.RoomID, MsgUserDisconnected, conn)
				}
			}
			u.left <- h.userConnections(conn.RoomID, conn.UserID)
			h.mu.Unlock()

		case roomID := <-h.disconnect:
			h.mu.Lock()
			for conn := range h.rooms[roomID] {
				close(conn.Send)
			}
			delete(h.rooms, roomID)
			h.mu.Unlock()
			log.Printf("Closed all connections of room %s", roomID)

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, _ := json.Marshal(msg.Message)
			for conn := range h.rooms[msg.RoomID] {
				if msg.ToUser != "" && conn.UserID != msg.ToUser {
					continue
				}
				select {
				case conn.Send <- data:
				default:
					// Drop message if buffer full
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection and returns how many connections the
// same user still holds in the room
func (h *Hub) Unregister(conn *Connection) int {
	left := make(chan int, 1)
	h.unregister <- unregistration{conn: conn, left: left}
	return <-left
}

// userConnections counts a user's connections in a room. Caller holds mu.
func (h *Hub) userConnections(roomID, userID string) int {
	n := 0
	for conn := range h.rooms[roomID] {
		if conn.UserID == userID {
			n++
		}
	}
	return n
}

// BroadcastToRoom sends a message to every connection in a room (implements service.Broadcaster)
func (h *Hub) BroadcastToRoom(roomID string, msgType string, payload interface{}) {
	h.send(roomID, "", msgType, payload)
}

// BroadcastToUser sends a message to one user's connections (implements service.Broadcaster)
func (h *Hub) BroadcastToUser(roomID, userID string, msgType string, payload interface{}) {
	h.send(roomID, userID, msgType, payload)
}

// DisconnectRoom closes every connection of a deleted room (implements service.Broadcaster)
func (h *Hub) DisconnectRoom(roomID string) {
	h.disconnect <- roomID
}

func (h *Hub) send(roomID, userID string, msgType string, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.broadcast <- &BroadcastMessage{
		RoomID: roomID,
		ToUser: userID,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}
}

// notifyRoom tells the other connections of a room about conn. Caller holds mu.
func (h *Hub) notifyRoom(roomID string, msgType MessageType, conn *Connection) {
	payload, _ := json.Marshal(map[string]interface{}{
		"userId": conn.UserID,
		"role":   conn.Role,
	})
	data, _ := json.Marshal(&Message{Type: msgType, Payload: payload})
	for other := range h.rooms[roomID] {
		if other == conn {
			continue
		}
		select {
		case other.Send <- data:
		default:
		}
	}
}

func roleLabel(r model.Role) string {
	if r == model.RoleInterviewer {
		return "Interviewer"
	}
	return "Candidate"
}
