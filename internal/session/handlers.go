package session

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/sun1tar/crm-tasks/internal/repository"
	"github.com/sun1tar/crm-tasks/internal/view"
	"github.com/sun1tar/crm-tasks/shared/middleware"
)

// dummyDigest сравнивается с паролем, когда пользователь не найден,
// чтобы ответ на неизвестный логин занимал столько же времени
var dummyDigest, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)

type Handler struct {
	store         *Store
	users         UserLookup
	renderer      view.Renderer
	logger        *logrus.Logger
	locale        string
	secureCookies bool
}

func NewHandler(store *Store, users UserLookup, renderer view.Renderer, logger *logrus.Logger, locale string, secureCookies bool) *Handler {
	return &Handler{
		store:         store,
		users:         users,
		renderer:      renderer,
		logger:        logger,
		locale:        locale,
		secureCookies: secureCookies,
	}
}

// LoginForm обрабатывает GET /login
func (h *Handler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.renderLogin(w, r, http.StatusOK, "", "")
}

// Login обрабатывает POST /login и устанавливает cookies сессии и CSRF
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logEntry := h.logger.WithFields(logrus.Fields{
		"component":  "session",
		"handler":    "Login",
		"request_id": middleware.GetRequestID(r.Context()),
	})

	if err := r.ParseForm(); err != nil {
		logEntry.WithError(err).Warn("invalid login form")
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	user, err := h.users.GetUserByUsername(r.Context(), username)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		logEntry.WithError(err).Error("failed to load user")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	digest := dummyDigest
	if user != nil {
		digest = []byte(user.PasswordDigest)
	}
	if bcrypt.CompareHashAndPassword(digest, []byte(password)) != nil || user == nil {
		logEntry.WithField("username", username).Warn("invalid credentials")
		h.renderLogin(w, r, http.StatusUnauthorized, username, "Invalid username or password")
		return
	}

	sess := h.store.Create(user.ID)
	maxAge := int(h.store.TTL().Seconds())

	http.SetCookie(w, &http.Cookie{
		Name:     CookieSession,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})

	// CSRF cookie без HttpOnly, чтобы JS мог прочитать
	http.SetCookie(w, &http.Cookie{
		Name:     CookieCSRF,
		Value:    sess.CSRFToken,
		Path:     "/",
		HttpOnly: false,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})

	logEntry.WithField("user_id", user.ID).Info("login successful, cookies set")
	http.Redirect(w, r, "/tasks", http.StatusFound)
}

// Logout обрабатывает POST /logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(CookieSession); err == nil {
		h.store.Delete(c.Value)
	}
	for _, name := range []string{CookieSession, CookieCSRF} {
		http.SetCookie(w, &http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1})
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, status int, username, message string) {
	page := &view.Page{
		Title:    "Login",
		Locale:   h.locale,
		Username: username,
		Error:    message,
	}
	if err := h.renderer.Render(w, status, view.TemplateLogin, page); err != nil {
		h.logger.WithError(err).WithField("request_id", middleware.GetRequestID(r.Context())).Error("failed to render login page")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
