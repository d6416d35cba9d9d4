package middleware

import "net/http"

// MaxBodyBytes - предел тела запроса для форм и JSON
const MaxBodyBytes = 1 << 20

// BodyLimitMiddleware ограничивает тело запроса до разбора формы в CSRF и _method
func BodyLimitMiddleware(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
