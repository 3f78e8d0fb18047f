package model

// LiveEventKind names what changed in a room's live state
type LiveEventKind string

const (
	LiveDriver   LiveEventKind = "driver"
	LiveFiles    LiveEventKind = "files"
	LiveActive   LiveEventKind = "active_file"
	LivePhase    LiveEventKind = "phase"
	LiveHands    LiveEventKind = "hands"
	LivePresence LiveEventKind = "presence"
)

// LiveEvent is published on a room's live channel after every shared-state write
type LiveEvent struct {
	Kind   LiveEventKind `json:"kind"`
	RoomID string        `json:"roomId"`
	UserID string        `json:"userId,omitempty"`
	Path   string        `json:"path,omitempty"`
}

type UpdateFileRequest struct {
	Content string `json:"content"`
}

type SwitchFileRequest struct {
	Path string `json:"path"`
}

// Files is the wire form of a room's file registry
type Files struct {
	Files      map[string]string `json:"files"`
	Paths      []string          `json:"paths"`
	ActiveFile string            `json:"activeFile"`
}
