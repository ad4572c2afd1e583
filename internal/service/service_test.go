package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task_web/internal/logger"
	"task_web/internal/repository"
	"task_web/internal/task"
)

type countingRepo struct {
	task.Repository
	adds int
	err  error
}

func (c *countingRepo) Add(ctx context.Context, title string) (*task.Task, error) {
	c.adds++
	if c.err != nil {
		return nil, c.err
	}
	return c.Repository.Add(ctx, title)
}

func (c *countingRepo) All(ctx context.Context) ([]*task.Task, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.Repository.All(ctx)
}

func (c *countingRepo) Delete(ctx context.Context, id int64) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	return c.Repository.Delete(ctx, id)
}

func newService() (*TaskService, *countingRepo) {
	repo := &countingRepo{Repository: repository.NewMemoryRepository(logger.NewNoOpLogger())}
	return NewTaskService(repo, logger.NewNoOpLogger()), repo
}

func TestCreateTask_BlankTitlesNeverReachRepository(t *testing.T) {
	for _, title := range []string{"", " ", "\t", "\n  \r\n", " "} {
		svc, repo := newService()

		created, err := svc.CreateTask(context.Background(), title)
		assert.ErrorIs(t, err, task.ErrBlankTitle, "title %q", title)
		assert.Nil(t, created)
		assert.Zero(t, repo.adds, "title %q reached the repository", title)

		all, err := svc.ListTasks(context.Background())
		require.NoError(t, err)
		assert.Empty(t, all)
	}
}

func TestCreateTask_TrimsTitle(t *testing.T) {
	svc, repo := newService()

	created, err := svc.CreateTask(context.Background(), "  Buy milk \n")
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", created.Title)
	assert.Equal(t, 1, repo.adds)

	all, err := svc.ListTasks(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, created.ID, all[0].ID)
	assert.Equal(t, "Buy milk", all[0].Title)
}

func TestDeleteTask(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	created, err := svc.CreateTask(ctx, "Buy milk")
	require.NoError(t, err)

	removed, err := svc.DeleteTask(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = svc.DeleteTask(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestService_WrapsRepositoryErrors(t *testing.T) {
	svc, repo := newService()
	boom := errors.New("connection refused")
	repo.err = boom
	ctx := context.Background()

	_, err := svc.CreateTask(ctx, "Buy milk")
	assert.ErrorIs(t, err, boom)

	_, err = svc.ListTasks(ctx)
	assert.ErrorIs(t, err, boom)

	_, err = svc.DeleteTask(ctx, 1)
	assert.ErrorIs(t, err, boom)
}
