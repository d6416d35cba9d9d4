package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/sun1tar/crm-tasks/internal/models"
)

// MemoryStore - хранилище в памяти для разработки и тестов (DB_DRIVER=memory)
type MemoryStore struct {
	mu    sync.RWMutex
	tasks map[string]models.Task
	users map[string]models.User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasks: make(map[string]models.Task),
		users: make(map[string]models.User),
	}
}

func (m *MemoryStore) EnsureSchema(ctx context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) Create(ctx context.Context, task *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[task.ID]; ok {
		return ErrDuplicate
	}
	m.tasks[task.ID] = copyTask(task)
	return nil
}

func (m *MemoryStore) GetByID(ctx context.Context, id string) (*models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	task, ok := m.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := copyTask(&task)
	return &out, nil
}

func (m *MemoryStore) List(ctx context.Context, filter ListFilter) ([]*models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	view := models.NormalizeView(filter.View)
	var tasks []*models.Task
	for _, task := range m.tasks {
		if !matchesView(&task, view, filter.UserID) {
			continue
		}
		out := copyTask(&task)
		tasks = append(tasks, &out)
	}

	if view == models.ViewCompleted {
		sort.Slice(tasks, func(i, j int) bool {
			return tasks[i].CompletedAt.After(*tasks[j].CompletedAt)
		})
	} else {
		sort.Slice(tasks, func(i, j int) bool {
			return dueLess(tasks[i], tasks[j])
		})
	}
	return tasks, nil
}

func matchesView(t *models.Task, view, userID string) bool {
	switch view {
	case models.ViewAssigned:
		return !t.Completed() && t.UserID == userID && t.AssignedTo != "" && t.AssignedTo != userID
	case models.ViewCompleted:
		return t.Completed() && (t.UserID == userID || t.AssignedTo == userID)
	default:
		return !t.Completed() && (t.AssignedTo == userID || (t.UserID == userID && t.AssignedTo == ""))
	}
}

// тот же порядок, что и dueOrder в SQL
func dueLess(a, b *models.Task) bool {
	switch {
	case a.DueAt == nil && b.DueAt != nil:
		return false
	case a.DueAt != nil && b.DueAt == nil:
		return true
	case a.DueAt != nil && b.DueAt != nil && !a.DueAt.Equal(*b.DueAt):
		return a.DueAt.Before(*b.DueAt)
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

func (m *MemoryStore) Update(ctx context.Context, task *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[task.ID]; !ok {
		return ErrNotFound
	}
	m.tasks[task.ID] = copyTask(task)
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username {
			return ErrDuplicate
		}
	}
	m.users[user.ID] = *user
	return nil
}

func (m *MemoryStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (m *MemoryStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, user := range m.users {
		if user.Username == username {
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) AllExcept(ctx context.Context, except *models.User) ([]*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var users []*models.User
	for _, user := range m.users {
		if except != nil && user.ID == except.ID {
			continue
		}
		u := user
		users = append(users, &u)
	}
	sort.Slice(users, func(i, j int) bool {
		a, b := users[i], users[j]
		if a.FirstName != b.FirstName {
			return a.FirstName < b.FirstName
		}
		if a.LastName != b.LastName {
			return a.LastName < b.LastName
		}
		return a.Username < b.Username
	})
	return users, nil
}

func copyTask(t *models.Task) models.Task {
	out := *t
	out.Errors = nil
	// calendar не хранится, как и в SQL
	out.Calendar = ""
	if t.DueAt != nil {
		due := *t.DueAt
		out.DueAt = &due
	}
	if t.CompletedAt != nil {
		completed := *t.CompletedAt
		out.CompletedAt = &completed
	}
	return out
}
