package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ogulyaev/todo-api/internal/model"
)

// TaskSource is the slice of the storage collaborator the selector
// needs: incomplete tasks with a due date inside the window.
type TaskSource interface {
	DueBetween(ctx context.Context, start, end time.Time) ([]model.Task, error)
}

// UserSource resolves task owners in one batched lookup.
type UserSource interface {
	GetByIDs(ctx context.Context, ids []int64) (map[int64]model.User, error)
}

// Selector builds the dispatch set for a run: incomplete tasks due in
// the window, each resolved to its owning user.
type Selector struct {
	tasks  TaskSource
	users  UserSource
	logger *zap.Logger
}

func NewSelector(tasks TaskSource, users UserSource, logger *zap.Logger) *Selector {
	return &Selector{
		tasks:  tasks,
		users:  users,
		logger: logger,
	}
}

// Select returns the (task, user) pairs to notify plus the number of due
// tasks skipped because their owner is gone or has no email. A skipped
// task is not an error; an unreachable store is.
func (s *Selector) Select(ctx context.Context, w Window) ([]model.Reminder, int, error) {
	tasks, err := s.tasks.DueBetween(ctx, w.Start, w.End)
	if err != nil {
		return nil, 0, fmt.Errorf("query due tasks: %w", err)
	}
	if len(tasks) == 0 {
		return nil, 0, nil
	}

	ids := make([]int64, 0, len(tasks))
	seen := make(map[int64]struct{}, len(tasks))
	for _, t := range tasks {
		if _, ok := seen[t.UserID]; !ok {
			seen[t.UserID] = struct{}{}
			ids = append(ids, t.UserID)
		}
	}

	owners, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("resolve task owners: %w", err)
	}

	reminders := make([]model.Reminder, 0, len(tasks))
	skipped := 0
	for _, t := range tasks {
		owner, ok := owners[t.UserID]
		if !ok || owner.Email == "" {
			skipped++
			s.logger.Warn("skipping task without resolvable owner",
				zap.Int64("task_id", t.ID),
				zap.Int64("user_id", t.UserID),
			)
			continue
		}
		reminders = append(reminders, model.Reminder{Task: t, User: owner})
	}
	return reminders, skipped, nil
}
