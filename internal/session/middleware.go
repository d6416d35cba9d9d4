package session

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/sun1tar/crm-tasks/internal/models"
	"github.com/sun1tar/crm-tasks/internal/repository"
	"github.com/sun1tar/crm-tasks/internal/view"
	"github.com/sun1tar/crm-tasks/shared/middleware"
)

type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// RequireUser пропускает запрос только с действующей сессией и кладёт в контекст
// текущего пользователя и вкладку списка задач
func RequireUser(store *Store, users UserLookup, logger *logrus.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logEntry := logger.WithFields(logrus.Fields{
			"component":  "session",
			"request_id": middleware.GetRequestID(r.Context()),
		})

		user, ok := currentUser(r, store, users, logEntry)
		if !ok {
			if view.WantsXML(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		rc := models.RequestContext{User: user, View: currentView(w, r)}
		next.ServeHTTP(w, r.WithContext(WithRequestContext(r.Context(), rc)))
	})
}

func currentUser(r *http.Request, store *Store, users UserLookup, logEntry *logrus.Entry) (*models.User, bool) {
	cookie, err := r.Cookie(CookieSession)
	if err != nil {
		logEntry.Debug("session cookie missing")
		return nil, false
	}

	sess, ok := store.Get(cookie.Value)
	if !ok {
		logEntry.Warn("invalid session")
		return nil, false
	}

	user, err := users.GetUserByID(r.Context(), sess.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		logEntry.WithField("user_id", sess.UserID).Warn("session user no longer exists")
		store.Delete(sess.ID)
		return nil, false
	}
	if err != nil {
		logEntry.WithError(err).Error("failed to load session user")
		return nil, false
	}
	return user, true
}

// currentView: параметр view, затем cookie, по умолчанию pending.
// Явно выбранная вкладка запоминается в cookie.
func currentView(w http.ResponseWriter, r *http.Request) string {
	if v := r.URL.Query().Get("view"); v != "" {
		v = models.NormalizeView(v)
		http.SetCookie(w, &http.Cookie{
			Name:     CookieView,
			Value:    v,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		return v
	}
	if c, err := r.Cookie(CookieView); err == nil {
		return models.NormalizeView(c.Value)
	}
	return models.ViewPending
}
