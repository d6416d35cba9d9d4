package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Поддерживаемые значения DB_DRIVER
const (
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	DriverMySQL    = "mysql"
	DriverMemory   = "memory"
)

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	Driver   string // "postgres", "pgx", "mysql" или "memory"
}

type Config struct {
	TasksPort       string
	LogLevel        string
	SettingsPath    string
	SessionTTL      time.Duration
	ShutdownTimeout time.Duration
	SecureCookies   bool
	DB              DatabaseConfig
}

func Load() (*Config, error) {
	cfg := &Config{
		TasksPort:    getEnv("TASKS_PORT", "8082"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		SettingsPath: getEnv("SETTINGS_PATH", ""),
		DB: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", ""),
			User:     getEnv("DB_USER", "tasks_user"),
			Password: getEnv("DB_PASSWORD", "tasks_pass"),
			DBName:   getEnv("DB_NAME", "tasks_db"),
			Driver:   getEnv("DB_DRIVER", DriverPostgres),
		},
	}

	var err error
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.SecureCookies, err = getBool("SECURE_COOKIES", false); err != nil {
		return nil, err
	}

	switch cfg.DB.Driver {
	case DriverPostgres, DriverPgx, DriverMySQL, DriverMemory:
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DB.Driver)
	}
	if cfg.DB.Port == "" {
		cfg.DB.Port = defaultPort(cfg.DB.Driver)
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: expected positive duration", key, value)
	}
	return d, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return b, nil
}

func defaultPort(driver string) string {
	if driver == DriverMySQL {
		return "3306"
	}
	return "5432"
}

func (db *DatabaseConfig) DSN() string {
	switch db.Driver {
	case DriverPostgres:
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			db.Host, db.Port, db.User, db.Password, db.DBName)
	case DriverPgx:
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(db.User, db.Password),
			Host:     net.JoinHostPort(db.Host, db.Port),
			Path:     "/" + db.DBName,
			RawQuery: "sslmode=disable",
		}
		return u.String()
	case DriverMySQL:
		mc := mysql.NewConfig()
		mc.User = db.User
		mc.Passwd = db.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(db.Host, db.Port)
		mc.DBName = db.DBName
		mc.ParseTime = true
		// UPDATE без изменений должен считаться найденной строкой
		mc.ClientFoundRows = true
		return mc.FormatDSN()
	default:
		return ""
	}
}
