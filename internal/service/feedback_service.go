package service

import (
	"context"
	"fmt"

	"paircode/internal/model"
	"paircode/internal/repository"

	"golang.org/x/sync/errgroup"
)

// FeedbackService stores candidate reflections and interviewer notes
type FeedbackService struct {
	rooms        *RoomService
	taskRepo     repository.TaskRepo
	feedbackRepo repository.FeedbackRepo
	broadcaster  Broadcaster
}

// NewFeedbackService creates a new feedback service
func NewFeedbackService(rooms *RoomService, taskRepo repository.TaskRepo, feedbackRepo repository.FeedbackRepo) *FeedbackService {
	return &FeedbackService{
		rooms:        rooms,
		taskRepo:     taskRepo,
		feedbackRepo: feedbackRepo,
		broadcaster:  nopBroadcaster{},
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *FeedbackService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Questions returns the reflection prompts
func (s *FeedbackService) Questions() []model.ReflectionQuestion {
	return model.DefaultReflectionQuestions
}

// SaveReflection upserts the candidate's answers for a room
func (s *FeedbackService) SaveReflection(ctx context.Context, roomID, identity string, responses []model.ReflectionResponse) error {
	room, role, err := s.rooms.Member(ctx, roomID, identity)
	if err != nil {
		return err
	}
	if role != model.RoleCandidate {
		return model.ErrUnauthorized
	}
	known := make(map[string]bool, len(model.DefaultReflectionQuestions))
	for _, q := range model.DefaultReflectionQuestions {
		known[q.ID] = true
	}
	for _, r := range responses {
		if !known[r.QuestionID] {
			return fmt.Errorf("unknown question %q: %w", r.QuestionID, model.ErrInvalidInput)
		}
	}

	if err := s.feedbackRepo.SaveReflection(ctx, room.ID, identity, responses); err != nil {
		return fmt.Errorf("failed to save reflection: %w", err)
	}
	s.broadcaster.BroadcastToUser(room.ID, room.CreatedBy, "reflection_saved", map[string]interface{}{
		"userId": identity,
	})
	return nil
}

// GetReflection returns the caller's own reflection, or nil if none yet
func (s *FeedbackService) GetReflection(ctx context.Context, roomID, identity string) (*model.Reflection, error) {
	if _, _, err := s.rooms.Member(ctx, roomID, identity); err != nil {
		return nil, err
	}
	reflection, err := s.feedbackRepo.GetReflection(ctx, roomID, identity)
	if err != nil {
		return nil, fmt.Errorf("failed to get reflection: %w", err)
	}
	return reflection, nil
}

// SaveNotes upserts the interviewer's private notes
func (s *FeedbackService) SaveNotes(ctx context.Context, roomID, identity, content string) error {
	_, role, err := s.rooms.Member(ctx, roomID, identity)
	if err != nil {
		return err
	}
	if role != model.RoleInterviewer {
		return model.ErrUnauthorized
	}
	if err := s.feedbackRepo.SavePrivateNotes(ctx, roomID, identity, content); err != nil {
		return fmt.Errorf("failed to save notes: %w", err)
	}
	return nil
}

// GetNotes returns the interviewer's private notes, or nil if none yet
func (s *FeedbackService) GetNotes(ctx context.Context, roomID, identity string) (*model.PrivateNotes, error) {
	_, role, err := s.rooms.Member(ctx, roomID, identity)
	if err != nil {
		return nil, err
	}
	if role != model.RoleInterviewer {
		return nil, model.ErrUnauthorized
	}
	notes, err := s.feedbackRepo.GetPrivateNotes(ctx, roomID, identity)
	if err != nil {
		return nil, fmt.Errorf("failed to get notes: %w", err)
	}
	return notes, nil
}

// Summary assembles the post-session artifact for the interviewer
func (s *FeedbackService) Summary(ctx context.Context, roomID, identity string) (*model.SessionSummary, error) {
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.RoleOf(identity) != model.RoleInterviewer {
		return nil, model.ErrUnauthorized
	}

	summary := &model.SessionSummary{Room: room, CandidateID: room.Candidate()}

	g, gctx := errgroup.WithContext(ctx)
	if room.TaskID != "" {
		g.Go(func() error {
			task, err := s.taskRepo.GetByID(gctx, room.TaskID)
			if err != nil {
				return fmt.Errorf("failed to get task: %w", err)
			}
			summary.Task = task
			return nil
		})
	}
	if summary.CandidateID != "" {
		g.Go(func() error {
			reflection, err := s.feedbackRepo.GetReflection(gctx, room.ID, summary.CandidateID)
			if err != nil {
				return fmt.Errorf("failed to get reflection: %w", err)
			}
			summary.Reflection = reflection
			return nil
		})
	}
	g.Go(func() error {
		notes, err := s.feedbackRepo.GetPrivateNotes(gctx, room.ID, identity)
		if err != nil {
			return fmt.Errorf("failed to get notes: %w", err)
		}
		summary.PrivateNotes = notes
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summary, nil
}
