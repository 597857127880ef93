package repo

import (
	"context"
	"time"

	"github.com/ogulyaev/todo-api/internal/model"
)

// TaskRepository определяет интерфейс для работы с задачами
type TaskRepository interface {
	Create(ctx context.Context, t model.Task) (model.Task, error)
	Get(ctx context.Context, ownerID, id int64) (model.Task, error)
	List(ctx context.Context, q model.TaskQuery, limit int) ([]model.Task, error)
	Update(ctx context.Context, t model.Task) (model.Task, error)
	Delete(ctx context.Context, ownerID, id int64) error
	DueBetween(ctx context.Context, start, end time.Time) ([]model.Task, error)
	SaveIdempotencyKey(ctx context.Context, key string, ownerID, resourceID int64) error
	GetIdempotencyKey(ctx context.Context, key string, ownerID int64) (int64, error)
	GetStats(ctx context.Context, ownerID int64) (Stats, error)
}

// UserRepository чтение пользователей; запись остается за слоем авторизации
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (model.User, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]model.User, error)
}

type Stats struct {
	TotalTasks int            `json:"total_tasks"`
	ByStatus   map[string]int `json:"by_status"`
	ByPriority map[string]int `json:"by_priority"`
}
