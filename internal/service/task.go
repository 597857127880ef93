package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ogulyaev/todo-api/internal/model"
	"github.com/ogulyaev/todo-api/internal/repo"
)

var (
	ErrValidation = errors.New("validation error")
)

type TaskService struct {
	repo     repo.TaskRepository
	validate *validator.Validate
}

func NewTaskService(repo repo.TaskRepository) *TaskService {
	return &TaskService{
		repo:     repo,
		validate: validator.New(),
	}
}

func (s *TaskService) Create(ctx context.Context, t model.Task, idempKey string) (model.Task, error) {
	t = applyDefaults(t)
	if err := s.validateTask(t); err != nil {
		return t, err
	}

	if idempKey != "" { // Обеспечение идемпотентности - если ключ с ресурсом уже существует, мы не создаем его еще раз
		if existingID, err := s.repo.GetIdempotencyKey(ctx, idempKey, t.UserID); err == nil {
			return s.repo.Get(ctx, t.UserID, existingID)
		}
	}

	resource, err := s.repo.Create(ctx, t)
	if err != nil {
		return resource, err
	}

	if idempKey != "" {
		s.repo.SaveIdempotencyKey(ctx, idempKey, t.UserID, resource.ID)

		// Гонка двух запросов с одним ключом: выигрывает первая вставка ключа,
		// проигравший удаляет свою задачу и возвращает задачу победителя
		if winnerID, err := s.repo.GetIdempotencyKey(ctx, idempKey, t.UserID); err == nil && winnerID != resource.ID {
			s.repo.Delete(ctx, t.UserID, resource.ID)
			return s.repo.Get(ctx, t.UserID, winnerID)
		}
	}

	return resource, nil
}

func (s *TaskService) Get(ctx context.Context, ownerID, id int64) (model.Task, error) {
	return s.repo.Get(ctx, ownerID, id)
}

func (s *TaskService) List(ctx context.Context, q model.TaskQuery, limit int) ([]model.Task, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.List(ctx, q, limit)
}

func (s *TaskService) Update(ctx context.Context, t model.Task) (model.Task, error) {
	t = applyDefaults(t)
	if err := s.validateTask(t); err != nil {
		return t, err
	}
	return s.repo.Update(ctx, t)
}

func (s *TaskService) Delete(ctx context.Context, ownerID, id int64) error {
	return s.repo.Delete(ctx, ownerID, id)
}

func (s *TaskService) GetStats(ctx context.Context, ownerID int64) (repo.Stats, error) {
	return s.repo.GetStats(ctx, ownerID)
}

func applyDefaults(t model.Task) model.Task {
	if t.Priority == "" {
		t.Priority = model.PriorityMedium
	}
	if t.Status == "" {
		t.Status = model.StatusPending
	}
	return t
}

func (s *TaskService) validateTask(t model.Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrValidation
	}
	if err := s.validate.Struct(t); err != nil {
		return ErrValidation
	}
	return nil
}
