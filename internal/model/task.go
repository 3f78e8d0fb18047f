package model

import "time"

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// TaskFile is one explicit starter file of a task
type TaskFile struct {
	Path    string `json:"path" bson:"path"`
	Content string `json:"content" bson:"content"`
}

// Task is a predefined coding problem with starter content
type Task struct {
	ID            string     `json:"id" bson:"_id"`
	Title         string     `json:"title" bson:"title"`
	Description   string     `json:"description" bson:"description"`
	Difficulty    Difficulty `json:"difficulty" bson:"difficulty"`
	EstimatedTime int        `json:"estimatedTime" bson:"estimatedTime"` // minutes
	Language      string     `json:"language" bson:"language"`
	StarterCode   string     `json:"starterCode,omitempty" bson:"starterCode,omitempty"`
	Files         []TaskFile `json:"files,omitempty" bson:"files,omitempty"`
	CreatedBy     string     `json:"createdBy" bson:"createdBy"`
	CreatedAt     time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt" bson:"updatedAt"`
}
