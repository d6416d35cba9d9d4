package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/sun1tar/crm-tasks/internal/models"
	"github.com/sun1tar/crm-tasks/internal/repository"
	"github.com/sun1tar/crm-tasks/internal/session"
	"github.com/sun1tar/crm-tasks/internal/settings"
	"github.com/sun1tar/crm-tasks/internal/view"
	"github.com/sun1tar/crm-tasks/shared/middleware"
)

// TaskRepository - операции над задачами, которые нужны хендлерам
type TaskRepository interface {
	List(ctx context.Context, user *models.User, view string) ([]*models.Task, error)
	Find(ctx context.Context, id string) (*models.Task, error)
	New(attrs models.Attributes) *models.Task
	Create(ctx context.Context, user *models.User, attrs models.Attributes) (*models.Task, bool, error)
	Update(ctx context.Context, task *models.Task, attrs models.Attributes) (bool, error)
	Complete(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, task *models.Task) error
	Totals(ctx context.Context, user *models.User) (models.Totals, error)
}

type SettingsProvider interface {
	TaskDueDate() []settings.Option
	TaskCategory() map[string]string
}

type UserDirectory interface {
	AllExcept(ctx context.Context, user *models.User) ([]*models.User, error)
}

type Config struct {
	Locale   string
	Statuses []string
}

type TaskHandler struct {
	tasks      TaskRepository
	settings   SettingsProvider
	users      UserDirectory
	renderer   view.Renderer
	serializer view.Serializer
	cfg        Config
	logger     *logrus.Logger
}

func NewTaskHandler(tasks TaskRepository, st SettingsProvider, users UserDirectory,
	renderer view.Renderer, serializer view.Serializer, cfg Config, logger *logrus.Logger) *TaskHandler {
	return &TaskHandler{
		tasks:      tasks,
		settings:   st,
		users:      users,
		renderer:   renderer,
		serializer: serializer,
		cfg:        cfg,
		logger:     logger,
	}
}

// action получает текущего пользователя и вкладку явно; ошибку обрабатывает handle
type action func(w http.ResponseWriter, r *http.Request, rc models.RequestContext) error

func (h *TaskHandler) handle(name string, fn action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc := session.FromContext(r.Context())
		if err := fn(w, r, rc); err != nil {
			h.fail(w, r, name, err)
		}
	}
}

// ListTasks обрабатывает GET /tasks
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request, rc models.RequestContext) error {
	ctx := r.Context()

	tasks, err := h.tasks.List(ctx, rc.User, rc.View)
	if err != nil {
		return err
	}
	dueDates := h.settings.TaskDueDate()
	categories := h.settings.TaskCategory()

	var users []*models.User
	if rc.View == models.ViewAssigned {
		if users, err = h.users.AllExcept(ctx, rc.User); err != nil {
			return err
		}
	}

	if view.WantsXML(r) {
		return h.writeXML(w, http.StatusOK, tasks)
	}

	totals, err := h.tasks.Totals(ctx, rc.User)
	if err != nil {
		return err
	}

	h.entry(r, "ListTasks").WithField("count", len(tasks)).Debug("tasks listed")

	page := h.page(r, rc, "Tasks")
	page.Tasks = tasks
	page.DueDates = dueDates
	page.Categories = categories
	page.Users = users
	page.Totals = totals
	return h.renderer.Render(w, http.StatusOK, view.TemplateIndex, page)
}

// GetTask обрабатывает GET /tasks/{id}
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request, rc models.RequestContext) error {
	task, err := h.tasks.Find(r.Context(), view.TrimFormat(r.PathValue("id")))
	if err != nil {
		return err
	}

	if view.WantsXML(r) {
		return h.writeXML(w, http.StatusOK, task)
	}

	page := h.page(r, rc, task.Name)
	page.Task = task
	page.Categories = h.settings.TaskCategory()
	if task.AssignedTo != "" {
		if page.Users, err = h.users.AllExcept(r.Context(), rc.User); err != nil {
			return err
		}
	}
	return h.renderer.Render(w, http.StatusOK, view.TemplateShow, page)
}

// NewTask обрабатывает GET /tasks/new
func (h *TaskHandler) NewTask(w http.ResponseWriter, r *http.Request, rc models.RequestContext) error {
	return h.renderForm(w, r, rc, http.StatusOK, view.TemplateNew, h.tasks.New(nil))
}

// EditTask обрабатывает GET /tasks/{id}/edit
func (h *TaskHandler) EditTask(w http.ResponseWriter, r *http.Request, rc models.RequestContext) error {
	task, err := h.tasks.Find(r.Context(), r.PathValue("id"))
	if err != nil {
		return err
	}
	return h.renderForm(w, r, rc, http.StatusOK, view.TemplateEdit, task)
}

// CreateTask обрабатывает POST /tasks
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request, rc models.RequestContext) error {
	attrs, err := taskAttributes(r)
	if err != nil {
		h.entry(r, "CreateTask").WithError(err).Warn("invalid request body")
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return nil
	}

	task, saved, err := h.tasks.Create(r.Context(), rc.User, attrs)
	if err != nil {
		return err
	}
	if !saved {
		h.entry(r, "CreateTask").WithField("errors", task.Errors).Debug("task rejected")
		return h.renderForm(w, r, rc, http.StatusUnprocessableEntity, view.TemplateNew, task)
	}

	h.entry(r, "CreateTask").WithField("task_id", task.ID).Info("task created successfully")
	http.Redirect(w, r, taskURL(task), http.StatusFound)
	return nil
}

// UpdateTask обрабатывает PUT /tasks/{id}
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request, rc models.RequestContext) error {
	task, err := h.tasks.Find(r.Context(), r.PathValue("id"))
	if err != nil {
		return err
	}

	attrs, err := taskAttributes(r)
	if err != nil {
		h.entry(r, "UpdateTask").WithError(err).Warn("invalid request body")
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return nil
	}

	saved, err := h.tasks.Update(r.Context(), task, attrs)
	if err != nil {
		return err
	}
	if !saved {
		return h.renderForm(w, r, rc, http.StatusUnprocessableEntity, view.TemplateEdit, task)
	}

	h.entry(r, "UpdateTask").WithField("task_id", task.ID).Info("task updated successfully")
	http.Redirect(w, r, taskURL(task), http.StatusFound)
	return nil
}

// CompleteTask обрабатывает PUT /tasks/{id}/complete
func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request, rc models.RequestContext) error {
	task, err := h.tasks.Find(r.Context(), r.PathValue("id"))
	if err != nil {
		return err
	}
	if err := h.tasks.Complete(r.Context(), task); err != nil {
		return err
	}

	h.entry(r, "CompleteTask").WithField("task_id", task.ID).Info("task completed")
	http.Redirect(w, r, tasksURL, http.StatusFound)
	return nil
}

// DeleteTask обрабатывает DELETE /tasks/{id}; редирект на список при любом исходе удаления
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request, rc models.RequestContext) error {
	task, err := h.tasks.Find(r.Context(), r.PathValue("id"))
	if err != nil {
		return err
	}

	logEntry := h.entry(r, "DeleteTask").WithField("task_id", task.ID)
	if err := h.tasks.Delete(r.Context(), task); err != nil {
		logEntry.WithError(err).Warn("failed to delete task")
	} else {
		logEntry.Info("task deleted successfully")
	}

	http.Redirect(w, r, tasksURL, http.StatusFound)
	return nil
}

func (h *TaskHandler) renderForm(w http.ResponseWriter, r *http.Request, rc models.RequestContext, status int, name string, task *models.Task) error {
	users, err := h.users.AllExcept(r.Context(), rc.User)
	if err != nil {
		return err
	}

	title := "New Task"
	if name == view.TemplateEdit {
		title = "Edit Task"
	}
	page := h.page(r, rc, title)
	page.Task = task
	page.Users = users
	page.DueDates = h.settings.TaskDueDate()
	page.Categories = h.settings.TaskCategory()
	return h.renderer.Render(w, status, name, page)
}

func (h *TaskHandler) page(r *http.Request, rc models.RequestContext, title string) *view.Page {
	return &view.Page{
		Title:       title,
		Locale:      h.cfg.Locale,
		CurrentUser: rc.User,
		View:        rc.View,
		Statuses:    h.cfg.Statuses,
		CSRFToken:   session.CSRFToken(r),
	}
}

func (h *TaskHandler) writeXML(w http.ResponseWriter, status int, v any) error {
	body, err := h.serializer.XML(v)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", view.MediaXML+"; charset=utf-8")
	w.WriteHeader(status)
	_, err = w.Write(body)
	return err
}

// fail отвечает 404 на ErrNotFound и 500 на всё остальное
func (h *TaskHandler) fail(w http.ResponseWriter, r *http.Request, name string, err error) {
	logEntry := h.entry(r, name)

	status, message := http.StatusInternalServerError, "Internal Server Error"
	if errors.Is(err, repository.ErrNotFound) {
		status, message = http.StatusNotFound, "Task not found"
		logEntry.WithField("task_id", r.PathValue("id")).Warn("task not found")
	} else {
		logEntry.WithError(err).Error("request failed")
	}

	if view.WantsXML(r) {
		if xmlErr := h.writeXML(w, status, view.ErrorList{message}); xmlErr != nil {
			logEntry.WithError(xmlErr).Error("failed to write xml error")
		}
		return
	}

	page := h.page(r, session.FromContext(r.Context()), message)
	if renderErr := h.renderer.Render(w, status, view.TemplateError, page); renderErr != nil {
		logEntry.WithError(renderErr).Error("failed to render error page")
		http.Error(w, message, status)
	}
}

func (h *TaskHandler) entry(r *http.Request, handler string) *logrus.Entry {
	return h.logger.WithFields(logrus.Fields{
		"component":  "http_handler",
		"handler":    handler,
		"request_id": middleware.GetRequestID(r.Context()),
	})
}
