package task

import (
	"context"
	"errors"
)

var ErrBlankTitle = errors.New("title is required")

type Task struct {
	ID    int64
	Title string
}

type Repository interface {
	All(ctx context.Context) ([]*Task, error)
	Add(ctx context.Context, title string) (*Task, error)
	// Delete reports whether a task with id existed and was removed.
	Delete(ctx context.Context, id int64) (bool, error)
}

type Service interface {
	ListTasks(ctx context.Context) ([]*Task, error)
	CreateTask(ctx context.Context, title string) (*Task, error)
	DeleteTask(ctx context.Context, id int64) (bool, error)
}
