package service

import (
	"context"
	"fmt"
	"strings"

	"task_web/internal/logger"
	"task_web/internal/task"
)

type TaskService struct {
	repository task.Repository
	log        logger.Logger
}

var _ task.Service = (*TaskService)(nil)

func NewTaskService(repo task.Repository, log logger.Logger) *TaskService {
	return &TaskService{
		repository: repo,
		log:        log,
	}
}

func (s *TaskService) ListTasks(ctx context.Context) ([]*task.Task, error) {
	log := logger.FromContext(ctx).With("where", "service")
	tasks, err := s.repository.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: error listing tasks: %w", err)
	}
	log.Debug("service: tasks listed", "count", len(tasks))
	return tasks, nil
}

// CreateTask trims title and stores it. A blank title yields task.ErrBlankTitle
// and the repository is left untouched.
func (s *TaskService) CreateTask(ctx context.Context, title string) (*task.Task, error) {
	log := logger.FromContext(ctx).With("where", "service")

	title = strings.TrimSpace(title)
	if title == "" {
		log.Debug("service: rejected blank title")
		return nil, task.ErrBlankTitle
	}

	created, err := s.repository.Add(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("service: error creating task: %w", err)
	}

	log.Debug("service: task created", "id", created.ID, "title", created.Title)
	return created, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, id int64) (bool, error) {
	log := logger.FromContext(ctx).With("where", "service")
	removed, err := s.repository.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("service: error deleting task: %w", err)
	}
	log.Debug("service: delete finished", "id", id, "removed", removed)
	return removed, nil
}
