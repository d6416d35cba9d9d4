package repository

import (
	"context"
	"errors"

	"github.com/sun1tar/crm-tasks/internal/models"
)

// ErrNotFound возвращается, когда записи с таким id нет
var ErrNotFound = errors.New("record not found")

// ErrDuplicate возвращается при нарушении уникальности (логин пользователя)
var ErrDuplicate = errors.New("record already exists")

type ListFilter struct {
	UserID string
	View   string
}

type TaskStore interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id string) (*models.Task, error)
	List(ctx context.Context, filter ListFilter) ([]*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id string) error
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	AllExcept(ctx context.Context, user *models.User) ([]*models.User, error)
}

// Store объединяет хранилища задач и пользователей
type Store interface {
	TaskStore
	UserStore
	EnsureSchema(ctx context.Context) error
	Close() error
}
