package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sun1tar/crm-tasks/internal/models"
	"github.com/sun1tar/crm-tasks/internal/repository"
	"github.com/sun1tar/crm-tasks/internal/service"
	"github.com/sun1tar/crm-tasks/internal/session"
	"github.com/sun1tar/crm-tasks/internal/settings"
	"github.com/sun1tar/crm-tasks/internal/view"
	"github.com/sun1tar/crm-tasks/shared/logger"
)

var calendarField = regexp.MustCompile(`name="task\[calendar\]"[^>]*value="([^"]*)"`)

// newStack собирает хендлер на настоящих сервисе, шаблонах и хранилище в памяти
func newStack(t *testing.T) (*http.ServeMux, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	require.NoError(t, store.CreateUser(context.Background(), currentUser))
	require.NoError(t, store.CreateUser(context.Background(), otherUsers[0]))

	st := settings.Default()
	renderer, err := view.NewHTML(st.Printer(), st.CalendarWithTime())
	require.NoError(t, err)

	h := NewTaskHandler(service.NewTaskService(store, st), st, store, renderer, view.XMLSerializer{},
		Config{Locale: "en-US", Statuses: st.TaskStatuses()}, logger.Discard())

	mux := http.NewServeMux()
	h.RegisterRoutes(mux, func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rc := models.RequestContext{User: currentUser, View: models.ViewPending}
			next.ServeHTTP(w, r.WithContext(session.WithRequestContext(r.Context(), rc)))
		})
	})
	return mux, store
}

func serve(mux *http.ServeMux, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, r)
	return rec
}

func createSpecificTimeTask(t *testing.T, mux *http.ServeMux) string {
	t.Helper()
	rec := serve(mux, formRequest(http.MethodPost, "/tasks", url.Values{
		"task[name]":     {"Dentist"},
		"task[bucket]":   {models.BucketSpecificTime},
		"task[calendar]": {"2025-11-03 15:30"},
	}))
	require.Equal(t, http.StatusFound, rec.Code)
	return strings.TrimPrefix(rec.Header().Get("Location"), "/tasks/")
}

func TestEditFormKeepsSpecificTime(t *testing.T) {
	mux, store := newStack(t)
	id := createSpecificTimeTask(t, mux)
	want := time.Date(2025, 11, 3, 15, 30, 0, 0, time.Local)

	rec := serve(mux, httptest.NewRequest(http.MethodGet, "/tasks/"+id+"/edit", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	match := calendarField.FindStringSubmatch(rec.Body.String())
	require.Len(t, match, 2)
	assert.Equal(t, "2025-11-03 15:30", match[1])

	// форма отправляется целиком, как из браузера
	rec = serve(mux, formRequest(http.MethodPut, "/tasks/"+id, url.Values{
		"task[name]":     {"Dentist, second visit"},
		"task[bucket]":   {models.BucketSpecificTime},
		"task[calendar]": {match[1]},
	}))
	require.Equal(t, http.StatusFound, rec.Code)

	task, err := store.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, task.DueAt)
	assert.True(t, want.Equal(*task.DueAt), "due_at = %s", task.DueAt)
	assert.Equal(t, "Dentist, second visit", task.Name)

	rec = serve(mux, formRequest(http.MethodPut, "/tasks/"+id, url.Values{"task[name]": {"Dentist"}}))
	require.Equal(t, http.StatusFound, rec.Code)

	task, err = store.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, want.Equal(*task.DueAt), "due_at = %s", task.DueAt)
}

func TestRepeatedShowExposesSameTask(t *testing.T) {
	mux, _ := newStack(t)
	id := createSpecificTimeTask(t, mux)

	first := serve(mux, httptest.NewRequest(http.MethodGet, "/tasks/"+id+".xml", nil))
	second := serve(mux, httptest.NewRequest(http.MethodGet, "/tasks/"+id+".xml", nil))

	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Contains(t, first.Body.String(), "<name>Dentist</name>")
	assert.Equal(t, first.Body.String(), second.Body.String())
}

func TestRepeatedShowPassesSameTaskToView(t *testing.T) {
	f := newFixture(t)
	task := &models.Task{ID: "37", Name: "Call", Category: "call"}
	f.tasks.On("Find", mock.Anything, "37").Return(task, nil).Twice()

	f.do(httptest.NewRequest(http.MethodGet, "/tasks/37", nil))
	first := *f.renderer.page.Task
	f.do(httptest.NewRequest(http.MethodGet, "/tasks/37", nil))
	second := *f.renderer.page.Task

	assert.Equal(t, first, second)
	assert.Equal(t, view.TemplateShow, f.renderer.name)
}
