package repository

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task_web/internal/logger"
	"task_web/internal/task"
)

// runRepositoryContract exercises behaviour every task.Repository must share.
// newRepo must return an empty repository.
func runRepositoryContract(t *testing.T, newRepo func(t *testing.T) task.Repository) {
	t.Run("add then all", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		first, err := repo.Add(ctx, "Buy milk")
		require.NoError(t, err)
		second, err := repo.Add(ctx, "Walk dog")
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, second.ID)

		all, err := repo.All(ctx)
		require.NoError(t, err)
		want := []*task.Task{
			{ID: first.ID, Title: "Buy milk"},
			{ID: second.ID, Title: "Walk dog"},
		}
		if diff := cmp.Diff(want, all); diff != "" {
			t.Fatalf("All() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("delete unknown id is a no-op", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Add(ctx, "Buy milk")
		require.NoError(t, err)

		removed, err := repo.Delete(ctx, created.ID+1000)
		require.NoError(t, err)
		assert.False(t, removed)

		all, err := repo.All(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("delete succeeds exactly once", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Add(ctx, "Buy milk")
		require.NoError(t, err)

		removed, err := repo.Delete(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = repo.Delete(ctx, created.ID)
		require.NoError(t, err)
		assert.False(t, removed)

		all, err := repo.All(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("ids are not reused after delete", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		a, err := repo.Add(ctx, "a")
		require.NoError(t, err)
		_, err = repo.Delete(ctx, a.ID)
		require.NoError(t, err)
		b, err := repo.Add(ctx, "b")
		require.NoError(t, err)

		assert.Greater(t, b.ID, a.ID)
	})

	t.Run("delete keeps insertion order of the rest", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		var ids []int64
		for _, title := range []string{"one", "two", "three"} {
			created, err := repo.Add(ctx, title)
			require.NoError(t, err)
			ids = append(ids, created.ID)
		}
		_, err := repo.Delete(ctx, ids[1])
		require.NoError(t, err)

		all, err := repo.All(ctx)
		require.NoError(t, err)
		want := []*task.Task{{ID: ids[0], Title: "one"}, {ID: ids[2], Title: "three"}}
		if diff := cmp.Diff(want, all); diff != "" {
			t.Fatalf("All() mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestMemoryRepository(t *testing.T) {
	runRepositoryContract(t, func(t *testing.T) task.Repository {
		return NewMemoryRepository(logger.NewNoOpLogger())
	})
}

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	repo := NewMemoryRepository(logger.NewNoOpLogger())
	ctx := context.Background()

	created, err := repo.Add(ctx, "Buy milk")
	require.NoError(t, err)
	created.Title = "mutated"

	all, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	all[0].Title = "mutated again"

	again, err := repo.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", again[0].Title)
}

func TestMemoryRepository_ConcurrentAddsGetDistinctIDs(t *testing.T) {
	repo := NewMemoryRepository(logger.NewNoOpLogger())
	ctx := context.Background()

	const workers, perWorker = 8, 50
	ids := make(chan int64, workers*perWorker)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				created, err := repo.Add(ctx, fmt.Sprintf("task %d-%d", w, i))
				if err != nil {
					t.Errorf("add: %v", err)
					return
				}
				ids <- created.ID
				if i%5 == 0 {
					_, _ = repo.All(ctx)
				}
			}
		}(w)
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool)
	for id := range ids {
		assert.False(t, seen[id], "id %d assigned twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, workers*perWorker)

	all, err := repo.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, workers*perWorker)
}

func TestMySQLRepository(t *testing.T) {
	dsn := os.Getenv("TASKS_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("TASKS_TEST_MYSQL_DSN not set")
	}

	runRepositoryContract(t, func(t *testing.T) task.Repository {
		ctx := context.Background()
		repo, err := OpenMySQL(ctx, dsn, logger.NewNoOpLogger())
		require.NoError(t, err)
		t.Cleanup(func() { _ = repo.Close() })

		_, err = repo.db.ExecContext(ctx, `DELETE FROM tasks`)
		require.NoError(t, err)
		return repo
	})
}

func TestOpenMySQL_RejectsMalformedDSN(t *testing.T) {
	_, err := OpenMySQL(context.Background(), "user:pass@tcp(localhost:3306", logger.NewNoOpLogger())
	assert.Error(t, err)
}
