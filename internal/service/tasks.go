package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sun1tar/crm-tasks/internal/models"
	"github.com/sun1tar/crm-tasks/internal/repository"
)

// Справочники, по которым валидируется задача
type Catalog interface {
	TaskCategory() map[string]string
	DueDateValues() []string
}

type TaskService struct {
	repo    repository.TaskStore
	catalog Catalog
	now     func() time.Time
}

func NewTaskService(repo repository.TaskStore, catalog Catalog) *TaskService {
	return &TaskService{
		repo:    repo,
		catalog: catalog,
		now:     time.Now,
	}
}

func (s *TaskService) List(ctx context.Context, user *models.User, view string) ([]*models.Task, error) {
	return s.repo.List(ctx, repository.ListFilter{UserID: userID(user), View: view})
}

func (s *TaskService) Find(ctx context.Context, id string) (*models.Task, error) {
	return s.repo.GetByID(ctx, id)
}

// New возвращает несохранённую задачу для формы
func (s *TaskService) New(attrs models.Attributes) *models.Task {
	return models.NewTask(attrs)
}

// Create строит задачу и пытается её сохранить. false означает ошибки валидации,
// задача с ошибками возвращается для повторного показа формы.
func (s *TaskService) Create(ctx context.Context, user *models.User, attrs models.Attributes) (*models.Task, bool, error) {
	task := models.NewTask(attrs)
	task.UserID = userID(user)

	now := s.now()
	if !s.prepare(task, now, true) {
		return task, false, nil
	}

	task.ID = "t_" + uuid.New().String()
	task.CreatedAt = now
	task.UpdatedAt = now

	if err := s.repo.Create(ctx, task); err != nil {
		task.ID = ""
		return task, false, err
	}
	return task, true, nil
}

// Update применяет атрибуты к найденной задаче и сохраняет её
func (s *TaskService) Update(ctx context.Context, task *models.Task, attrs models.Attributes) (bool, error) {
	task.Apply(attrs)

	_, bucketChanged := attrs["bucket"]
	_, calendarChanged := attrs["calendar"]

	now := s.now()
	if !s.prepare(task, now, bucketChanged || calendarChanged) {
		return false, nil
	}
	task.UpdatedAt = now

	if err := s.repo.Update(ctx, task); err != nil {
		return false, err
	}
	return true, nil
}

// Complete отмечает задачу выполненной
func (s *TaskService) Complete(ctx context.Context, task *models.Task) error {
	if task.Completed() {
		return nil
	}
	now := s.now()
	task.CompletedAt = &now
	task.UpdatedAt = now
	return s.repo.Update(ctx, task)
}

// Delete удаляет задачу; уже удалённая задача ошибкой не считается
func (s *TaskService) Delete(ctx context.Context, task *models.Task) error {
	err := s.repo.Delete(ctx, task.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	return err
}

// Totals считает открытые задачи пользователя по бакетам сайдбара
func (s *TaskService) Totals(ctx context.Context, user *models.User) (models.Totals, error) {
	tasks, err := s.repo.List(ctx, repository.ListFilter{UserID: userID(user), View: models.ViewPending})
	if err != nil {
		return nil, fmt.Errorf("totals: %w", err)
	}

	now := s.now()
	totals := models.Totals{"all": len(tasks)}
	for _, t := range tasks {
		totals[models.BucketFor(t, now)]++
	}
	return totals, nil
}

// prepare пересчитывает срок по бакету (если бакет менялся) и валидирует задачу
func (s *TaskService) prepare(task *models.Task, now time.Time, recompute bool) bool {
	if recompute {
		due, _ := models.DueAtFor(task.Bucket, task.Calendar, now)
		task.DueAt = due
	}
	return task.Validate(s.catalog.TaskCategory(), s.catalog.DueDateValues())
}

func userID(user *models.User) string {
	if user == nil {
		return ""
	}
	return user.ID
}
