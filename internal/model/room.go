package model

import "time"

// Phase is a named stage of the interview
type Phase string

const (
	PhaseWaiting    Phase = "waiting"
	PhaseTone       Phase = "tone"
	PhaseCoding     Phase = "coding"
	PhaseReflection Phase = "reflection"
	PhaseEnded      Phase = "ended"
)

type RoomStatus string

const (
	RoomActive   RoomStatus = "active"
	RoomFinished RoomStatus = "finished"
)

// StatusFor derives the room status from its phase
func StatusFor(p Phase) RoomStatus {
	if p == PhaseEnded {
		return RoomFinished
	}
	return RoomActive
}

// Role is a participant's role within a single room
type Role string

const (
	RoleInterviewer Role = "interviewer"
	RoleCandidate   Role = "candidate"
	RoleNone        Role = ""
)

// Room is one interview session
type Room struct {
	ID             string     `json:"id" bson:"_id"`
	CreatedBy      string     `json:"createdBy" bson:"createdBy"`
	Participants   []string   `json:"participants" bson:"participants"`
	TaskID         string     `json:"taskId,omitempty" bson:"taskId,omitempty"`
	Phase          Phase      `json:"phase" bson:"phase"`
	PhaseStartedAt *time.Time `json:"phaseStartedAt,omitempty" bson:"phaseStartedAt,omitempty"`
	Status         RoomStatus `json:"status" bson:"status"`
	CreatedAt      time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// RoleOf resolves an identity against room membership.
// The creator is the interviewer even if also listed as a participant.
func (r *Room) RoleOf(identity string) Role {
	if identity == "" {
		return RoleNone
	}
	if r.CreatedBy == identity {
		return RoleInterviewer
	}
	for _, p := range r.Participants {
		if p == identity {
			return RoleCandidate
		}
	}
	return RoleNone
}

// Candidate returns the first non-owner participant.
// Rooms are assumed to hold a single candidate.
func (r *Room) Candidate() string {
	for _, p := range r.Participants {
		if p != r.CreatedBy {
			return p
		}
	}
	return ""
}

// CreateRoomRequest is the request body for creating a room
type CreateRoomRequest struct {
	TaskID string `json:"taskId,omitempty"`
}

// CreateRoomResponse is returned after a room is created
type CreateRoomResponse struct {
	Room      *Room  `json:"room"`
	MagicLink string `json:"magicLink"`
}

// AdvancePhaseRequest is the request body for a manual phase transition
type AdvancePhaseRequest struct {
	Phase Phase `json:"phase"`
}
