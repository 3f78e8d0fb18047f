package service

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	BroadcastToRoom(roomID string, msgType string, payload interface{})
	BroadcastToUser(roomID, userID string, msgType string, payload interface{})
	DisconnectRoom(roomID string)
}

// nopBroadcaster is used until the hub is attached
type nopBroadcaster struct{}

func (nopBroadcaster) BroadcastToRoom(string, string, interface{})         {}
func (nopBroadcaster) BroadcastToUser(string, string, string, interface{}) {}
func (nopBroadcaster) DisconnectRoom(string)                               {}
