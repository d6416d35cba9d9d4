package middleware

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sun1tar/crm-tasks/shared/logger"
)

type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware логирует каждый HTTP запрос в структурированном формате
func LoggingMiddleware(log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			logEntry := logger.WithRequestID(log, GetRequestID(r.Context()))
			logEntry.Debugf("request started: %s %s", r.Method, r.URL.Path)

			next.ServeHTTP(wrapped, r)

			fields := logrus.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      wrapped.statusCode,
				"duration_ms": time.Since(start).Milliseconds(),
				"remote_ip":   r.RemoteAddr,
				"user_agent":  r.UserAgent(),
			}
			switch {
			case wrapped.statusCode >= http.StatusInternalServerError:
				logEntry.WithFields(fields).Error("request completed")
			case wrapped.statusCode >= http.StatusBadRequest:
				logEntry.WithFields(fields).Warn("request completed")
			default:
				logEntry.WithFields(fields).Info("request completed")
			}
		})
	}
}
