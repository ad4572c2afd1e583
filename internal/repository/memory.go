package repository

import (
	"context"
	"sync"

	"task_web/internal/logger"
	"task_web/internal/task"
)

// MemoryRepository keeps tasks for the lifetime of the process. IDs grow
// monotonically and are never handed out twice, even after a delete.
type MemoryRepository struct {
	mu        sync.RWMutex
	tasksByID map[int64]*task.Task
	order     []int64
	counter   int64
	log       logger.Logger
}

var _ task.Repository = (*MemoryRepository)(nil)

func NewMemoryRepository(log logger.Logger) *MemoryRepository {
	return &MemoryRepository{
		tasksByID: make(map[int64]*task.Task),
		order:     make([]int64, 0),
		log:       log,
	}
}

func (r *MemoryRepository) All(ctx context.Context) ([]*task.Task, error) {
	log := logger.FromContext(ctx).With("where", "repository")

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*task.Task, 0, len(r.order))
	for _, id := range r.order {
		t := *r.tasksByID[id]
		result = append(result, &t)
	}

	log.Debug("repository: tasks listed", "count", len(result))
	return result, nil
}

func (r *MemoryRepository) Add(ctx context.Context, title string) (*task.Task, error) {
	log := logger.FromContext(ctx).With("where", "repository")

	r.mu.Lock()
	r.counter++
	t := &task.Task{ID: r.counter, Title: title}
	r.tasksByID[t.ID] = t
	r.order = append(r.order, t.ID)
	r.mu.Unlock()

	log.Debug("repository: task added", "id", t.ID)
	created := *t
	return &created, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id int64) (bool, error) {
	log := logger.FromContext(ctx).With("where", "repository")

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasksByID[id]; !ok {
		log.Debug("repository: nothing to delete", "id", id)
		return false, nil
	}
	delete(r.tasksByID, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	log.Debug("repository: task deleted", "id", id)
	return true, nil
}
