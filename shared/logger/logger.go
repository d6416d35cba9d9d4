package logger

import (
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger - глобальный экземпляр логгера
var Logger *logrus.Logger

// Init инициализирует структурированный JSON-логгер сервиса
func Init(serviceName, level string) *logrus.Logger {
	Logger = New(serviceName, level, os.Stdout)
	return Logger
}

// New создаёт логгер с полем service во всех записях
func New(serviceName, level string, out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)

	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "ts",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})

	l.SetLevel(logrus.InfoLevel)
	if level != "" {
		if lvl, err := logrus.ParseLevel(level); err == nil {
			l.SetLevel(lvl)
		}
	}

	l.AddHook(serviceHook{service: serviceName})
	return l
}

// Discard - логгер для тестов
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// WithRequestID добавляет request-id в контекст логгера
func WithRequestID(logger *logrus.Logger, requestID string) *logrus.Entry {
	if requestID == "" {
		return logrus.NewEntry(logger)
	}
	return logger.WithField("request_id", requestID)
}

type serviceHook struct {
	service string
}

func (h serviceHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h serviceHook) Fire(entry *logrus.Entry) error {
	if _, ok := entry.Data["service"]; !ok {
		entry.Data["service"] = h.service
	}
	return nil
}
