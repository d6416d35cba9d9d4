package middleware

import (
	"crypto/subtle"
	"net/http"
)

const (
	csrfCookie    = "csrf_token"
	csrfHeader    = "X-CSRF-Token"
	csrfFormField = "authenticity_token"
)

// CSRFMiddleware проверяет CSRF-токен для state-changing методов.
// Токен из cookie сравнивается с заголовком X-CSRF-Token или полем формы authenticity_token.
// Пути из exempt (например, /login) не проверяются.
func CSRFMiddleware(exempt ...string) func(http.Handler) http.Handler {
	skip := make(map[string]bool, len(exempt))
	for _, p := range exempt {
		skip[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isStateChanging(r.Method) || skip[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := r.Cookie(csrfCookie)
			if err != nil || cookie.Value == "" {
				http.Error(w, "CSRF token missing in cookies", http.StatusForbidden)
				return
			}

			token := r.Header.Get(csrfHeader)
			if token == "" {
				token = r.PostFormValue(csrfFormField)
			}
			if token == "" {
				http.Error(w, "CSRF token missing", http.StatusForbidden)
				return
			}

			if subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(token)) != 1 {
				http.Error(w, "CSRF token mismatch", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isStateChanging(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
