package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ogulyaev/todo-api/internal/model"
)

var (
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")
)

const taskColumns = "id, user_id, title, description, due_date, priority, status, version, created_at, updated_at"

type TaskRepo struct { // Репозиторий для работы непосредственно с БД
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo { // Конструктор
	return &TaskRepo{
		pool: pool,
	}
}

func (r *TaskRepo) Create(ctx context.Context, t model.Task) (model.Task, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO tasks (user_id, title, description, due_date, priority, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+taskColumns+`
	`, t.UserID, t.Title, t.Description, t.DueDate, t.Priority, t.Status).Scan(
		&t.ID, &t.UserID, &t.Title, &t.Description, &t.DueDate, &t.Priority, &t.Status, &t.Version, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, r.mapError(err)
}

func (r *TaskRepo) Get(ctx context.Context, ownerID, id int64) (model.Task, error) {
	var t model.Task
	err := r.pool.QueryRow(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE id = $1 AND user_id = $2
	`, id, ownerID).Scan(
		&t.ID, &t.UserID, &t.Title, &t.Description, &t.DueDate, &t.Priority, &t.Status, &t.Version, &t.CreatedAt, &t.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return t, ErrorNotFound
	}
	return t, err
}

// List applies the normalized query: owner scope, optional exact status,
// case-insensitive substring over title/description. The order expression
// comes from the TaskQuery whitelist, never from raw user input.
func (r *TaskRepo) List(ctx context.Context, q model.TaskQuery, limit int) ([]model.Task, error) {
	query := fmt.Sprintf(`
		SELECT `+taskColumns+`
		FROM tasks
		WHERE user_id = $1
		  AND ($2::text IS NULL OR status = $2)
		  AND ($3::text = '' OR title ILIKE '%%' || $3 || '%%' OR description ILIKE '%%' || $3 || '%%')
		ORDER BY %s, id
		LIMIT $4
	`, q.OrderExpr())

	rows, err := r.pool.Query(ctx, query, q.OwnerID, q.Status, q.Search, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]model.Task, 0, limit)
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.DueDate, &t.Priority, &t.Status, &t.Version, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *TaskRepo) Update(ctx context.Context, t model.Task) (model.Task, error) {
	err := r.pool.QueryRow(ctx, `
		UPDATE tasks
		SET title = $3, description = $4, due_date = $5, priority = $6, status = $7,
		    version = version + 1, updated_at = now()
		WHERE id = $1 AND user_id = $2 AND version = $8
		RETURNING `+taskColumns+`
	`, t.ID, t.UserID, t.Title, t.Description, t.DueDate, t.Priority, t.Status, t.Version).Scan(
		&t.ID, &t.UserID, &t.Title, &t.Description, &t.DueDate, &t.Priority, &t.Status, &t.Version, &t.CreatedAt, &t.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return t, ErrorConflict
	}
	return t, err
}

func (r *TaskRepo) Delete(ctx context.Context, ownerID, id int64) error {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM tasks WHERE id = $1 AND user_id = $2", id, ownerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}

// DueBetween выбирает незавершенные задачи с дедлайном в окне [start, end]
func (r *TaskRepo) DueBetween(ctx context.Context, start, end time.Time) ([]model.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE due_date BETWEEN $1 AND $2
		  AND status <> $3
		ORDER BY due_date, id
	`, start, end, model.StatusCompleted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.DueDate, &t.Priority, &t.Status, &t.Version, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *TaskRepo) SaveIdempotencyKey(ctx context.Context, key string, ownerID, resourceID int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO idempotency_keys (key, user_id, resource_id) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO NOTHING
	`, key, ownerID, resourceID)
	return err
}

func (r *TaskRepo) GetIdempotencyKey(ctx context.Context, key string, ownerID int64) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		SELECT resource_id FROM idempotency_keys WHERE key = $1 AND user_id = $2
	`, key, ownerID).Scan(&id)

	if err == pgx.ErrNoRows {
		return 0, ErrorNotFound
	}
	return id, err
}

func (r *TaskRepo) GetStats(ctx context.Context, ownerID int64) (Stats, error) {
	stats := Stats{
		ByStatus:   make(map[string]int),
		ByPriority: make(map[string]int),
	}

	rows, err := r.pool.Query(ctx, `
		SELECT status, priority, COUNT(*)
		FROM tasks
		WHERE user_id = $1
		GROUP BY status, priority
	`, ownerID)
	if err != nil {
		return stats, err
	}
	defer rows.Close()

	for rows.Next() {
		var status, priority string
		var count int
		if err := rows.Scan(&status, &priority, &count); err != nil {
			return stats, err
		}
		stats.ByStatus[status] += count
		stats.ByPriority[priority] += count
		stats.TotalTasks += count
	}
	return stats, rows.Err()
}

func (r *TaskRepo) mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			return ErrorConflict
		}
	}
	return err
}
