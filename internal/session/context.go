package session

import (
	"context"
	"net/http"

	"github.com/sun1tar/crm-tasks/internal/models"
)

type contextKey struct{}

func WithRequestContext(ctx context.Context, rc models.RequestContext) context.Context {
	return context.WithValue(ctx, contextKey{}, rc)
}

// FromContext возвращает текущего пользователя и вкладку; без сессии - пустой контекст с вкладкой pending
func FromContext(ctx context.Context) models.RequestContext {
	rc, ok := ctx.Value(contextKey{}).(models.RequestContext)
	if !ok {
		return models.RequestContext{View: models.ViewPending}
	}
	return rc
}

// CSRFToken читает токен из cookie для подстановки в формы
func CSRFToken(r *http.Request) string {
	c, err := r.Cookie(CookieCSRF)
	if err != nil {
		return ""
	}
	return c.Value
}
