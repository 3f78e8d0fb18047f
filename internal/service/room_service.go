package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"paircode/internal/cache"
	"paircode/internal/model"
	"paircode/internal/phase"
	"paircode/internal/repository"

	"github.com/google/uuid"
)

// RoomService handles room lifecycle and phase transitions
type RoomService struct {
	roomRepo     repository.RoomRepo
	taskRepo     repository.TaskRepo
	feedbackRepo repository.FeedbackRepo
	roomCache    cache.RoomCache
	live         LiveStore
	authSvc      *AuthService
	broadcaster  Broadcaster
	durations    phase.Durations
	now          func() time.Time
}

// NewRoomService creates a new room service
func NewRoomService(
	roomRepo repository.RoomRepo,
	taskRepo repository.TaskRepo,
	feedbackRepo repository.FeedbackRepo,
	roomCache cache.RoomCache,
	live LiveStore,
	authSvc *AuthService,
	durations phase.Durations,
) *RoomService {
	if durations == nil {
		durations = phase.DefaultDurations
	}
	return &RoomService{
		roomRepo:     roomRepo,
		taskRepo:     taskRepo,
		feedbackRepo: feedbackRepo,
		roomCache:    roomCache,
		live:         live,
		authSvc:      authSvc,
		broadcaster:  nopBroadcaster{},
		durations:    durations,
		now:          time.Now,
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *RoomService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Durations returns the phase schedule in use
func (s *RoomService) Durations() phase.Durations {
	return s.durations
}

// CreateRoom creates a room owned by creatorID and an invitation for the candidate
func (s *RoomService) CreateRoom(ctx context.Context, creatorID, taskID string) (*model.CreateRoomResponse, error) {
	if taskID != "" {
		task, err := s.taskRepo.GetByID(ctx, taskID)
		if err != nil {
			return nil, fmt.Errorf("failed to get task: %w", err)
		}
		if task == nil {
			return nil, fmt.Errorf("task %s: %w", taskID, model.ErrNotFound)
		}
	}

	room := &model.Room{
		ID:           uuid.New().String(),
		CreatedBy:    creatorID,
		Participants: []string{},
		TaskID:       taskID,
		Phase:        model.PhaseWaiting,
	}
	if err := s.roomRepo.Create(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}
	s.cacheRoom(ctx, room)

	link, err := s.authSvc.GenerateMagicLink(room.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate magic link: %w", err)
	}

	log.Printf("Room %s created by %s (task=%q)", room.ID, creatorID, taskID)
	return &model.CreateRoomResponse{Room: room, MagicLink: link}, nil
}

// GetRoom reads the authoritative room record
func (s *RoomService) GetRoom(ctx context.Context, id string) (*model.Room, error) {
	room, err := s.roomRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return nil, fmt.Errorf("room %s: %w", id, model.ErrNotFound)
	}
	return room, nil
}

// ListRooms returns the rooms an interviewer created, newest first
func (s *RoomService) ListRooms(ctx context.Context, userID string) ([]*model.Room, error) {
	rooms, err := s.roomRepo.ListByCreator(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	if rooms == nil {
		rooms = []*model.Room{}
	}
	return rooms, nil
}

// JoinRoom redeems a magic link. A caller that is already a member of the
// room keeps its identity (the interviewer keeps its own token too); anyone
// else gets a fresh candidate identity.
func (s *RoomService) JoinRoom(ctx context.Context, magicToken, currentUserID string) (*model.JoinResponse, error) {
	claims, err := s.authSvc.ValidateMagicLink(magicToken)
	if err != nil {
		return nil, err
	}

	room, err := s.GetRoom(ctx, claims.RoomID)
	if err != nil {
		return nil, err
	}

	if role := room.RoleOf(currentUserID); role != model.RoleNone {
		resp := &model.JoinResponse{UserID: currentUserID, RoomID: room.ID, Role: role}
		if role == model.RoleCandidate {
			if resp.Token, err = s.authSvc.GenerateUserToken(currentUserID, candidateTTL); err != nil {
				return nil, fmt.Errorf("failed to generate token: %w", err)
			}
		}
		return resp, nil
	}

	userID := uuid.New().String()
	updated, err := s.roomRepo.AddParticipant(ctx, room.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to add participant: %w", err)
	}
	if updated == nil {
		return nil, fmt.Errorf("room %s: %w", room.ID, model.ErrNotFound)
	}
	s.cacheRoom(ctx, updated)

	token, err := s.authSvc.GenerateUserToken(userID, candidateTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.live.publish(ctx, model.LivePresence, room.ID, userID, "")
	s.broadcaster.BroadcastToRoom(room.ID, "participant_joined", map[string]interface{}{
		"userId": userID,
	})
	log.Printf("Candidate %s joined room %s", userID, room.ID)

	return &model.JoinResponse{Token: token, UserID: userID, RoomID: room.ID, Role: model.RoleCandidate}, nil
}

// DeleteRoom removes a room and resets its live state. Interviewer only.
func (s *RoomService) DeleteRoom(ctx context.Context, id, userID string) error {
	room, err := s.GetRoom(ctx, id)
	if err != nil {
		return err
	}
	if room.RoleOf(userID) != model.RoleInterviewer {
		return model.ErrUnauthorized
	}

	if err := s.roomRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}
	if err := s.feedbackRepo.DeleteByRoom(ctx, id); err != nil {
		log.Printf("Warning: failed to delete feedback of room %s: %v", id, err)
	}
	if err := s.roomCache.Delete(ctx, id); err != nil {
		log.Printf("Warning: failed to evict room %s from cache: %v", id, err)
	}
	if err := s.live.clear(ctx, id); err != nil {
		log.Printf("Warning: failed to clear live state of room %s: %v", id, err)
	}

	s.broadcaster.DisconnectRoom(id)
	log.Printf("Room %s deleted by %s", id, userID)
	return nil
}

// LoadRoom reads a room through the Redis cache, falling back to Mongo
func (s *RoomService) LoadRoom(ctx context.Context, id string) (*model.Room, error) {
	room, err := s.roomCache.GetRoom(ctx, id)
	if err != nil {
		log.Printf("Warning: room cache read failed for %s: %v", id, err)
	}
	if room != nil {
		return room, nil
	}

	room, err = s.GetRoom(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cacheRoom(ctx, room)
	return room, nil
}

// RoleOf resolves identity within a room: creator is interviewer,
// participant is candidate, anyone else has no role.
func (s *RoomService) RoleOf(ctx context.Context, roomID, identity string) (model.Role, error) {
	room, err := s.LoadRoom(ctx, roomID)
	if err != nil {
		return model.RoleNone, err
	}
	return room.RoleOf(identity), nil
}

// Member loads the room and fails with ErrUnauthorized for outsiders
func (s *RoomService) Member(ctx context.Context, roomID, identity string) (*model.Room, model.Role, error) {
	room, err := s.LoadRoom(ctx, roomID)
	if err != nil {
		return nil, model.RoleNone, err
	}
	role := room.RoleOf(identity)
	if role == model.RoleNone {
		return nil, model.RoleNone, model.ErrUnauthorized
	}
	return room, role, nil
}

// CurrentMember is Member against the stored record. Phase-gated writes use
// it because the cached copy may lag behind a transition.
func (s *RoomService) CurrentMember(ctx context.Context, roomID, identity string) (*model.Room, model.Role, error) {
	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return nil, model.RoleNone, err
	}
	role := room.RoleOf(identity)
	if role == model.RoleNone {
		return nil, model.RoleNone, model.ErrUnauthorized
	}
	return room, role, nil
}

// AdvancePhase is the manual transition entry point
func (s *RoomService) AdvancePhase(ctx context.Context, roomID, identity string, target model.Phase) (*model.Room, error) {
	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if err := phase.Advance(room.Phase, target, phase.RequireInterviewer(room.RoleOf(identity))); err != nil {
		return nil, err
	}
	return s.transition(ctx, room, target, identity)
}

// AdvanceExpired moves every active room whose timed phase has run out to
// the next phase. Rooms without a recorded phase start are skipped.
func (s *RoomService) AdvanceExpired(ctx context.Context) (int, error) {
	var timed []model.Phase
	for _, p := range []model.Phase{model.PhaseWaiting, model.PhaseTone, model.PhaseCoding, model.PhaseReflection} {
		if s.durations.Timed(p) {
			timed = append(timed, p)
		}
	}
	if len(timed) == 0 {
		return 0, nil
	}

	rooms, err := s.roomRepo.ListActiveInPhases(ctx, timed)
	if err != nil {
		return 0, fmt.Errorf("failed to list active rooms: %w", err)
	}

	now := s.now()
	advanced := 0
	var errs []error
	for _, room := range rooms {
		if room.PhaseStartedAt == nil {
			log.Printf("Room %s in %s has no phase start, skipping", room.ID, room.Phase)
			continue
		}
		if !phase.Remaining(s.durations, room.Phase, room.PhaseStartedAt, now).Expired {
			continue
		}
		next, ok := phase.Next(room.Phase)
		if !ok {
			continue
		}
		if err := phase.Advance(room.Phase, next, phase.System); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, err := s.transition(ctx, room, next, ""); err != nil {
			if errors.Is(err, model.ErrInvalidTransition) || errors.Is(err, model.ErrNotFound) {
				log.Printf("Room %s changed before automatic advance: %v", room.ID, err)
				continue
			}
			errs = append(errs, fmt.Errorf("room %s: %w", room.ID, err))
			continue
		}
		advanced++
	}
	return advanced, errors.Join(errs...)
}

// transition persists from -> to as one compare-and-set write and
// notifies watchers. A lost race reports the phase the room is really in.
func (s *RoomService) transition(ctx context.Context, room *model.Room, to model.Phase, actor string) (*model.Room, error) {
	updated, err := s.roomRepo.UpdatePhase(ctx, room.ID, room.Phase, to)
	if err != nil {
		return nil, fmt.Errorf("failed to update phase: %w", err)
	}
	if updated == nil {
		current, err := s.GetRoom(ctx, room.ID)
		if err != nil {
			return nil, err
		}
		return nil, &phase.TransitionError{From: current.Phase, To: to, Err: model.ErrInvalidTransition}
	}

	s.cacheRoom(ctx, updated)
	s.live.publish(ctx, model.LivePhase, updated.ID, actor, "")
	s.broadcaster.BroadcastToRoom(updated.ID, "phase_changed", map[string]interface{}{
		"phase":          updated.Phase,
		"previousPhase":  room.Phase,
		"phaseStartedAt": updated.PhaseStartedAt,
		"status":         updated.Status,
	})

	if actor == "" {
		actor = "scheduler"
	}
	log.Printf("Room %s: %s -> %s (by %s)", updated.ID, room.Phase, updated.Phase, actor)
	return updated, nil
}

func (s *RoomService) cacheRoom(ctx context.Context, room *model.Room) {
	if err := s.roomCache.SetRoom(ctx, room); err != nil {
		log.Printf("Warning: failed to cache room %s: %v", room.ID, err)
	}
}
