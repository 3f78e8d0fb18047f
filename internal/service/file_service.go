package service

import (
	"context"
	"fmt"
	"log"

	"paircode/internal/driver"
	"paircode/internal/files"
	"paircode/internal/model"
	"paircode/internal/phase"
	"paircode/internal/repository"
)

// FileService manages the shared file registry of each room
type FileService struct {
	rooms       *RoomService
	taskRepo    repository.TaskRepo
	live        LiveStore
	broadcaster Broadcaster
}

// NewFileService creates a new file service
func NewFileService(rooms *RoomService, taskRepo repository.TaskRepo, live LiveStore) *FileService {
	return &FileService{
		rooms:       rooms,
		taskRepo:    taskRepo,
		live:        live,
		broadcaster: nopBroadcaster{},
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *FileService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Ensure seeds the room's files from its task if nobody has yet, then
// returns what the store actually holds. Any number of concurrent callers
// converge on the first writer's files.
func (s *FileService) Ensure(ctx context.Context, roomID string) (*files.Registry, error) {
	reg, err := s.live.Files.Get(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get files: %w", err)
	}
	if !reg.Empty() {
		return reg, nil
	}

	room, err := s.rooms.LoadRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	starter := files.NewRegistry(s.starterFiles(ctx, room), "")
	won, err := s.live.Files.Seed(ctx, roomID, starter.Files, starter.ActivePath())
	if err != nil {
		return nil, fmt.Errorf("failed to seed files: %w", err)
	}
	if won {
		log.Printf("Room %s seeded with %d file(s)", roomID, len(starter.Files))
		s.live.publish(ctx, model.LiveFiles, roomID, "", "")
	}

	reg, err = s.live.Files.Get(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to read back files: %w", err)
	}
	if reg.Empty() {
		return nil, fmt.Errorf("files of room %s missing after seed: %w", roomID, model.ErrStoreUnavailable)
	}
	return reg, nil
}

// starterFiles never fails: a missing or unreadable task falls back to one empty file
func (s *FileService) starterFiles(ctx context.Context, room *model.Room) map[string]string {
	if room.TaskID == "" {
		return files.FallbackFiles()
	}
	task, err := s.taskRepo.GetByID(ctx, room.TaskID)
	if err != nil {
		log.Printf("Warning: failed to load task %s for room %s: %v", room.TaskID, room.ID, err)
		return files.FallbackFiles()
	}
	if task == nil {
		log.Printf("Warning: task %s of room %s no longer exists", room.TaskID, room.ID)
		return files.FallbackFiles()
	}
	return files.StarterFiles(task)
}

// List returns the registry to a room member
func (s *FileService) List(ctx context.Context, roomID, identity string) (*files.Registry, error) {
	if _, _, err := s.rooms.Member(ctx, roomID, identity); err != nil {
		return nil, err
	}
	return s.Ensure(ctx, roomID)
}

// Update writes a file and returns the registry including the write.
// Only the driver may edit, and never in a locked phase.
func (s *FileService) Update(ctx context.Context, roomID, identity, path, content string) (*files.Registry, error) {
	room, _, err := s.rooms.CurrentMember(ctx, roomID, identity)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, fmt.Errorf("empty file path: %w", model.ErrInvalidInput)
	}

	tok, err := s.live.Drivers.Get(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get driver: %w", err)
	}
	if !driver.CanEdit(tok, identity, room.Phase) {
		if phase.LocksEditor(room.Phase) {
			return nil, model.ErrEditorLocked
		}
		return nil, model.ErrUnauthorized
	}

	reg, err := s.Ensure(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if err := s.live.Files.Put(ctx, roomID, path, content); err != nil {
		return nil, fmt.Errorf("failed to update file: %w", err)
	}
	reg.Update(path, content)

	s.live.publish(ctx, model.LiveFiles, roomID, identity, path)
	s.broadcaster.BroadcastToRoom(roomID, "file_updated", map[string]interface{}{
		"path":    path,
		"content": content,
		"userId":  identity,
	})
	return reg, nil
}

// Switch moves the active-file pointer. Unknown paths are ignored.
func (s *FileService) Switch(ctx context.Context, roomID, identity, path string) (*files.Registry, error) {
	if _, _, err := s.rooms.Member(ctx, roomID, identity); err != nil {
		return nil, err
	}
	if _, err := s.Ensure(ctx, roomID); err != nil {
		return nil, err
	}

	moved, err := s.live.Files.SetActive(ctx, roomID, path)
	if err != nil {
		return nil, fmt.Errorf("failed to switch file: %w", err)
	}
	if moved {
		s.live.publish(ctx, model.LiveActive, roomID, identity, path)
		s.broadcaster.BroadcastToRoom(roomID, "active_file_changed", map[string]interface{}{
			"path":   path,
			"userId": identity,
		})
	}
	return s.live.Files.Get(ctx, roomID)
}
