package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func formRequest(method, path string, form url.Values) *http.Request {
	r := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func TestNormalizeRoute(t *testing.T) {
	tests := map[string]string{
		"/tasks":                                             "/tasks",
		"/tasks/new":                                         "/tasks/new",
		"/tasks/37":                                          "/tasks/{id}",
		"/tasks/37.xml":                                      "/tasks/{id}",
		"/tasks/t_0f8fad5b-d9cb-469f-a165-70867728950e/edit": "/tasks/{id}/edit",
		"/tasks/0f8fad5b-d9cb-469f-a165-70867728950e":        "/tasks/{id}",
		"/tasks/t_not-a-uuid":                                "/tasks/t_not-a-uuid",
	}
	for path, want := range tests {
		assert.Equal(t, want, normalizeRoute(path), path)
	}
}

func TestMetricsMiddlewareCountsRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/tasks/37", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/tasks/38", nil))

	assert.Equal(t, float64(2), testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/tasks/{id}", "404")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.inFlightRequests))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",route="/tasks/{id}",status="404"} 2`)
}

func TestCSRFMiddleware(t *testing.T) {
	h := CSRFMiddleware("/login")(ok)

	tests := []struct {
		name   string
		req    func() *http.Request
		status int
	}{
		{
			name:   "safe method",
			req:    func() *http.Request { return httptest.NewRequest(http.MethodGet, "/tasks", nil) },
			status: http.StatusOK,
		},
		{
			name:   "exempt path",
			req:    func() *http.Request { return formRequest(http.MethodPost, "/login", url.Values{}) },
			status: http.StatusOK,
		},
		{
			name:   "missing cookie",
			req:    func() *http.Request { return formRequest(http.MethodPost, "/tasks", url.Values{}) },
			status: http.StatusForbidden,
		},
		{
			name: "missing token",
			req: func() *http.Request {
				r := formRequest(http.MethodPost, "/tasks", url.Values{})
				r.AddCookie(&http.Cookie{Name: csrfCookie, Value: "secret"})
				return r
			},
			status: http.StatusForbidden,
		},
		{
			name: "header token",
			req: func() *http.Request {
				r := httptest.NewRequest(http.MethodDelete, "/tasks/37", nil)
				r.AddCookie(&http.Cookie{Name: csrfCookie, Value: "secret"})
				r.Header.Set(csrfHeader, "secret")
				return r
			},
			status: http.StatusOK,
		},
		{
			name: "form token",
			req: func() *http.Request {
				r := formRequest(http.MethodPost, "/tasks", url.Values{csrfFormField: {"secret"}})
				r.AddCookie(&http.Cookie{Name: csrfCookie, Value: "secret"})
				return r
			},
			status: http.StatusOK,
		},
		{
			name: "mismatch",
			req: func() *http.Request {
				r := formRequest(http.MethodPut, "/tasks/37", url.Values{csrfFormField: {"forged"}})
				r.AddCookie(&http.Cookie{Name: csrfCookie, Value: "secret"})
				return r
			},
			status: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, tt.req())
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestMethodOverrideMiddleware(t *testing.T) {
	var method string
	h := MethodOverrideMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
	}))

	h.ServeHTTP(httptest.NewRecorder(), formRequest(http.MethodPost, "/tasks/37", url.Values{"_method": {"delete"}}))
	assert.Equal(t, http.MethodDelete, method)

	h.ServeHTTP(httptest.NewRecorder(), formRequest(http.MethodPost, "/tasks/37", url.Values{"_method": {"put"}, "task[name]": {"x"}}))
	assert.Equal(t, http.MethodPut, method)

	h.ServeHTTP(httptest.NewRecorder(), formRequest(http.MethodPost, "/tasks", url.Values{"_method": {"get"}}))
	assert.Equal(t, http.MethodPost, method)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/tasks", strings.NewReader(`{"_method":"delete"}`)))
	assert.Equal(t, http.MethodPost, method)
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeadersMiddleware(true)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tasks", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))

	rec = httptest.NewRecorder()
	SecurityHeadersMiddleware(false)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tasks", nil))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestBodyLimitMiddlewareCapsFormParsing(t *testing.T) {
	var parseErr error
	h := BodyLimitMiddleware(16)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parseErr = r.ParseForm()
	}))

	h.ServeHTTP(httptest.NewRecorder(), formRequest(http.MethodPost, "/tasks", url.Values{"task[name]": {strings.Repeat("x", 64)}}))
	var tooLarge *http.MaxBytesError
	assert.True(t, errors.As(parseErr, &tooLarge), "err = %v", parseErr)

	parseErr = nil
	h.ServeHTTP(httptest.NewRecorder(), formRequest(http.MethodPost, "/tasks", url.Values{"a": {"b"}}))
	assert.NoError(t, parseErr)
}

func TestOversizedFormFailsCSRF(t *testing.T) {
	h := BodyLimitMiddleware(16)(MethodOverrideMiddleware(CSRFMiddleware("/login")(ok)))

	r := formRequest(http.MethodPost, "/tasks", url.Values{csrfFormField: {"secret"}, "task[name]": {strings.Repeat("x", 64)}})
	r.AddCookie(&http.Cookie{Name: csrfCookie, Value: "secret"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
