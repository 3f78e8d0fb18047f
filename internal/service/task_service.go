package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"paircode/internal/model"
	"paircode/internal/repository"
)

// TaskService handles task template CRUD
type TaskService struct {
	taskRepo repository.TaskRepo
}

// NewTaskService creates a new task service
func NewTaskService(taskRepo repository.TaskRepo) *TaskService {
	return &TaskService{taskRepo: taskRepo}
}

func validateTask(task *model.Task) error {
	if strings.TrimSpace(task.Title) == "" {
		return fmt.Errorf("task title is required: %w", model.ErrInvalidInput)
	}
	switch task.Difficulty {
	case model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard:
	case "":
		task.Difficulty = model.DifficultyMedium
	default:
		return fmt.Errorf("unknown difficulty %q: %w", task.Difficulty, model.ErrInvalidInput)
	}
	for _, f := range task.Files {
		if f.Path == "" {
			return fmt.Errorf("task file without path: %w", model.ErrInvalidInput)
		}
	}
	return nil
}

// CreateTask stores a new task owned by creatorID
func (s *TaskService) CreateTask(ctx context.Context, creatorID string, task *model.Task) (*model.Task, error) {
	if err := validateTask(task); err != nil {
		return nil, err
	}
	task.ID = ""
	task.CreatedBy = creatorID
	if _, err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return task, nil
}

// GetTask retrieves a task by ID
func (s *TaskService) GetTask(ctx context.Context, id string) (*model.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if task == nil {
		return nil, fmt.Errorf("task %s: %w", id, model.ErrNotFound)
	}
	return task, nil
}

// ListTasks returns all tasks, newest first
func (s *TaskService) ListTasks(ctx context.Context) ([]*model.Task, error) {
	tasks, err := s.taskRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	if tasks == nil {
		tasks = []*model.Task{}
	}
	return tasks, nil
}

// UpdateTask replaces a task's content, keeping its ownership and creation time
func (s *TaskService) UpdateTask(ctx context.Context, id string, task *model.Task) (*model.Task, error) {
	existing, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateTask(task); err != nil {
		return nil, err
	}
	task.ID = existing.ID
	task.CreatedBy = existing.CreatedBy
	task.CreatedAt = existing.CreatedAt
	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return task, nil
}

// DeleteTask removes a task. Rooms that used it fall back to an empty file.
func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	if _, err := s.GetTask(ctx, id); err != nil {
		return err
	}
	if err := s.taskRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// SeedSampleTasks inserts the bundled sample tasks under their fixed IDs,
// skipping any that already exist. Failures are logged per task.
func (s *TaskService) SeedSampleTasks(ctx context.Context, creatorID string) ([]string, error) {
	var ids []string
	var failed int
	for _, sample := range SampleTasks() {
		existing, err := s.taskRepo.GetByID(ctx, sample.ID)
		if err != nil {
			log.Printf("Warning: failed to check task %s: %v", sample.ID, err)
			failed++
			continue
		}
		if existing != nil {
			log.Printf("Task %s already exists, skipping", sample.ID)
			ids = append(ids, sample.ID)
			continue
		}

		sample.CreatedBy = creatorID
		if _, err := s.taskRepo.Create(ctx, sample); err != nil {
			log.Printf("Warning: failed to seed task %s: %v", sample.ID, err)
			failed++
			continue
		}
		log.Printf("Created task: %s - %s", sample.ID, sample.Title)
		ids = append(ids, sample.ID)
	}
	if failed > 0 {
		return ids, fmt.Errorf("%d sample task(s) failed to seed", failed)
	}
	return ids, nil
}
