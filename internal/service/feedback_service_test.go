package service

import (
	"context"
	"errors"
	"testing"

	"paircode/internal/model"
)

func TestFeedbackSummary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.tasks.tasks["t1"] = &model.Task{ID: "t1", Title: "Cache", Language: "go"}
	room, candidate := env.newRoom(t, "t1")

	responses := []model.ReflectionResponse{{QuestionID: "approach", Answer: "LRU"}}
	if err := env.feedbacks.SaveReflection(ctx, room.ID, candidate, responses); err != nil {
		t.Fatalf("save reflection: %v", err)
	}
	if err := env.feedbacks.SaveReflection(ctx, room.ID, "interviewer", responses); !errors.Is(err, model.ErrUnauthorized) {
		t.Fatalf("interviewer reflection: want ErrUnauthorized, got %v", err)
	}
	if err := env.feedbacks.SaveNotes(ctx, room.ID, "interviewer", "strong"); err != nil {
		t.Fatalf("save notes: %v", err)
	}
	if err := env.feedbacks.SaveNotes(ctx, room.ID, candidate, "peek"); !errors.Is(err, model.ErrUnauthorized) {
		t.Fatalf("candidate notes: want ErrUnauthorized, got %v", err)
	}

	summary, err := env.feedbacks.Summary(ctx, room.ID, "interviewer")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.CandidateID != candidate || summary.Task == nil || summary.Task.Title != "Cache" {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.Reflection == nil || summary.Reflection.Responses[0].Answer != "LRU" {
		t.Fatalf("missing reflection in summary")
	}
	if summary.PrivateNotes == nil || summary.PrivateNotes.Content != "strong" {
		t.Fatalf("missing notes in summary")
	}

	if _, err := env.feedbacks.Summary(ctx, room.ID, candidate); !errors.Is(err, model.ErrUnauthorized) {
		t.Fatalf("candidate summary: want ErrUnauthorized, got %v", err)
	}
}

func TestSaveReflectionUnknownQuestion(t *testing.T) {
	env := newTestEnv(t)
	room, candidate := env.newRoom(t, "")
	err := env.feedbacks.SaveReflection(context.Background(), room.ID, candidate, []model.ReflectionResponse{{QuestionID: "bogus"}})
	if !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}
}

func TestSummaryWithoutCandidate(t *testing.T) {
	env := newTestEnv(t)
	created, err := env.roomSvc.CreateRoom(context.Background(), "interviewer", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	summary, err := env.feedbacks.Summary(context.Background(), created.Room.ID, "interviewer")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.CandidateID != "" || summary.Reflection != nil {
		t.Fatalf("want empty candidate side, got %+v", summary)
	}
}
