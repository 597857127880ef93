package tests

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogulyaev/todo-api/internal/model"
	"github.com/ogulyaev/todo-api/internal/repo"
	"github.com/ogulyaev/todo-api/internal/service"
)

func TestConcurrent_IdempotencyKeys(t *testing.T) {
	pool, cleanup := SetupTestDB(t)
	defer cleanup()

	TruncateTables(t, pool)
	userID := SeedUser(t, pool, "idem@test.local")

	taskRepo := repo.NewTaskRepo(pool)
	taskService := service.NewTaskService(taskRepo)
	ctx := context.Background()

	const goroutines = 10
	const idempKey = "concurrent-test-key"

	var wg sync.WaitGroup
	results := make([]model.Task, goroutines)
	errors := make([]error, goroutines)

	// Launch concurrent requests with same idempotency key
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			task := model.Task{
				UserID:   userID,
				Title:    fmt.Sprintf("Concurrent Task %d", idx),
				Priority: model.PriorityMedium,
			}
			results[idx], errors[idx] = taskService.Create(ctx, task, idempKey)
		}(i)
	}

	wg.Wait()

	// All should succeed
	for i, err := range errors {
		require.NoError(t, err, "request %d should not error", i)
	}

	// All should return the same task ID
	firstID := results[0].ID
	for i, result := range results {
		assert.Equal(t, firstID, result.ID, "request %d should return same ID", i)
	}

	// Only one task should be created
	var count int
	pool.QueryRow(ctx, "SELECT COUNT(*) FROM tasks").Scan(&count)
	assert.Equal(t, 1, count, "only one task should be created")
}

func TestConcurrent_OptimisticLocking(t *testing.T) {
	pool, cleanup := SetupTestDB(t)
	defer cleanup()

	TruncateTables(t, pool)
	userID := SeedUser(t, pool, "lock@test.local")

	taskRepo := repo.NewTaskRepo(pool)
	taskService := service.NewTaskService(taskRepo)
	ctx := context.Background()

	// Create initial task
	task, err := taskService.Create(ctx, model.Task{
		UserID:   userID,
		Title:    "Optimistic Lock Test",
		Priority: model.PriorityMedium,
	}, "")
	require.NoError(t, err)

	const goroutines = 10
	var wg sync.WaitGroup
	errors := make([]error, goroutines)

	// Launch concurrent updates
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			updateTask := model.Task{
				ID:       task.ID,
				UserID:   userID,
				Title:    fmt.Sprintf("Updated %d", idx),
				Priority: model.PriorityHigh,
				Version:  task.Version, // All use same version
			}
			_, errors[idx] = taskService.Update(ctx, updateTask)
		}(i)
	}

	wg.Wait()

	// Only one should succeed
	successCount := 0
	conflictCount := 0
	for i, err := range errors {
		switch err {
		case nil:
			successCount++
		case repo.ErrorConflict:
			conflictCount++
		default:
			t.Errorf("unexpected error at %d: %v", i, err)
		}
	}

	assert.Equal(t, 1, successCount, "exactly one update should succeed")
	assert.Equal(t, goroutines-1, conflictCount, "others should conflict")

	// Final version should be original + 1
	finalTask, _ := taskRepo.Get(ctx, userID, task.ID)
	assert.Equal(t, task.Version+1, finalTask.Version)
}

func TestConcurrent_MultipleReads(t *testing.T) {
	pool, cleanup := SetupTestDB(t)
	defer cleanup()

	TruncateTables(t, pool)
	userID := SeedUser(t, pool, "reads@test.local")
	ids := SeedTasks(t, pool, userID, 10)

	taskRepo := repo.NewTaskRepo(pool)
	ctx := context.Background()

	const goroutines = 50
	var wg sync.WaitGroup

	// Concurrent reads should not cause issues
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			taskID := ids[idx%len(ids)]
			task, err := taskRepo.Get(ctx, userID, taskID)
			require.NoError(t, err)
			assert.NotZero(t, task.ID)
		}(i)
	}

	wg.Wait()
}

func TestConcurrent_SelectionDuringWrites(t *testing.T) {
	pool, cleanup := SetupTestDB(t)
	defer cleanup()

	TruncateTables(t, pool)
	userID := SeedUser(t, pool, "window@test.local")

	taskRepo := repo.NewTaskRepo(pool)
	taskService := service.NewTaskService(taskRepo)
	ctx := context.Background()

	due := time.Now().Add(3 * time.Hour)
	windowStart := time.Now().Add(-time.Hour)
	windowEnd := time.Now().Add(24 * time.Hour)

	var wg sync.WaitGroup
	const creators = 5
	const readers = 5

	// Concurrent creates of due tasks
	for i := 0; i < creators; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				d := due
				taskService.Create(ctx, model.Task{
					UserID:  userID,
					Title:   fmt.Sprintf("Task %d-%d", idx, j),
					DueDate: &d,
				}, "")
				time.Sleep(50 * time.Millisecond)
			}
		}(i)
	}

	// Concurrent due-window scans, как это делает селектор напоминаний
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				taskRepo.DueBetween(ctx, windowStart, windowEnd)
				time.Sleep(30 * time.Millisecond)
			}
		}()
	}

	wg.Wait()

	// Verify final count
	tasks, err := taskRepo.DueBetween(ctx, windowStart, windowEnd)
	require.NoError(t, err)
	assert.Equal(t, creators*5, len(tasks))
}
