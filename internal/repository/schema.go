package repository

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS tasks (
		id              TEXT PRIMARY KEY,
		user_id         TEXT NOT NULL,
		assigned_to     TEXT NOT NULL DEFAULT '',
		name            TEXT NOT NULL,
		category        TEXT NOT NULL DEFAULT '',
		bucket          TEXT NOT NULL DEFAULT '',
		due_at          TIMESTAMPTZ NULL,
		background_info TEXT NOT NULL DEFAULT '',
		completed_at    TIMESTAMPTZ NULL,
		created_at      TIMESTAMPTZ NOT NULL,
		updated_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_assigned_to ON tasks(assigned_to)`,
	`CREATE TABLE IF NOT EXISTS users (
		id              TEXT PRIMARY KEY,
		username        TEXT NOT NULL UNIQUE,
		first_name      TEXT NOT NULL DEFAULT '',
		last_name       TEXT NOT NULL DEFAULT '',
		password_digest TEXT NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL
	)`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS tasks (
		id              VARCHAR(40) PRIMARY KEY,
		user_id         VARCHAR(40) NOT NULL,
		assigned_to     VARCHAR(40) NOT NULL DEFAULT '',
		name            VARCHAR(255) NOT NULL,
		category        VARCHAR(32) NOT NULL DEFAULT '',
		bucket          VARCHAR(32) NOT NULL DEFAULT '',
		due_at          DATETIME(6) NULL,
		background_info TEXT NOT NULL,
		completed_at    DATETIME(6) NULL,
		created_at      DATETIME(6) NOT NULL,
		updated_at      DATETIME(6) NOT NULL,
		INDEX idx_tasks_user (user_id),
		INDEX idx_tasks_assigned_to (assigned_to)
	) DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS users (
		id              VARCHAR(40) PRIMARY KEY,
		username        VARCHAR(64) NOT NULL UNIQUE,
		first_name      VARCHAR(64) NOT NULL DEFAULT '',
		last_name       VARCHAR(64) NOT NULL DEFAULT '',
		password_digest VARCHAR(100) NOT NULL,
		created_at      DATETIME(6) NOT NULL
	) DEFAULT CHARSET=utf8mb4`,
}

func schemaFor(driver string) []string {
	if driver == DriverMySQL {
		return mysqlSchema
	}
	return postgresSchema
}
