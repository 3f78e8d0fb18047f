package model

import "time"

// ReflectionQuestion is a prompt shown to the candidate after coding
type ReflectionQuestion struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Placeholder string `json:"placeholder"`
}

var DefaultReflectionQuestions = []ReflectionQuestion{
	{ID: "approach", Label: "What was your approach to solving this problem?", Placeholder: "Describe your thought process and strategy..."},
	{ID: "improvements", Label: "What would you improve if this code went to production?", Placeholder: "Consider performance, security, maintainability, testing..."},
	{ID: "challenges", Label: "What challenges did you face, and how did you overcome them?", Placeholder: "Share any obstacles you encountered and your solutions..."},
	{ID: "different", Label: "What would you do differently next time?", Placeholder: "Reflect on what you learned and how you would approach it differently..."},
	{ID: "additional", Label: "Any additional thoughts or feedback?", Placeholder: "Anything else you would like to share..."},
}

type ReflectionResponse struct {
	QuestionID string `json:"questionId" bson:"questionId"`
	Answer     string `json:"answer" bson:"answer"`
}

// Reflection holds one user's free-text responses for a room
type Reflection struct {
	RoomID    string               `json:"roomId" bson:"roomId"`
	UserID    string               `json:"userId" bson:"userId"`
	Responses []ReflectionResponse `json:"responses" bson:"responses"`
	CreatedAt time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// PrivateNotes are the interviewer's notes, never shown to the candidate
type PrivateNotes struct {
	RoomID    string    `json:"roomId" bson:"roomId"`
	UserID    string    `json:"userId" bson:"userId"`
	Content   string    `json:"content" bson:"content"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// SessionSummary is the post-session artifact shown to the interviewer
type SessionSummary struct {
	Room         *Room         `json:"room"`
	Task         *Task         `json:"task,omitempty"`
	CandidateID  string        `json:"candidateId,omitempty"`
	Reflection   *Reflection   `json:"reflection"`
	PrivateNotes *PrivateNotes `json:"privateNotes"`
}

type SaveReflectionRequest struct {
	Responses []ReflectionResponse `json:"responses"`
}

type SaveNotesRequest struct {
	Content string `json:"content"`
}
