package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"

	"github.com/sun1tar/crm-tasks/internal/models"
)

// Поддерживаемые драйверы database/sql
const (
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	DriverMySQL    = "mysql"
)

const taskColumns = `id, user_id, assigned_to, name, category, bucket, due_at, background_info, completed_at, created_at, updated_at`

type SQLStore struct {
	db     *sql.DB
	driver string
}

func NewSQLStore(driver, dsn string) (*SQLStore, error) {
	switch driver {
	case DriverPostgres, DriverPgx, DriverMySQL:
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return newSQLStoreWithDB(db, driver), nil
}

func newSQLStoreWithDB(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (r *SQLStore) Close() error {
	return r.db.Close()
}

// EnsureSchema создаёт таблицы, если их ещё нет
func (r *SQLStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaFor(r.driver) {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (r *SQLStore) Create(ctx context.Context, task *models.Task) error {
	query := `INSERT INTO tasks (` + taskColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, r.rebind(query),
		task.ID, task.UserID, task.AssignedTo, task.Name, task.Category, task.Bucket,
		nullTime(task.DueAt), task.BackgroundInfo, nullTime(task.CompletedAt), task.CreatedAt, task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *SQLStore) GetByID(ctx context.Context, id string) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`
	task, err := scanTask(r.db.QueryRowContext(ctx, r.rebind(query), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	return task, nil
}

func (r *SQLStore) List(ctx context.Context, filter ListFilter) ([]*models.Task, error) {
	var where, order string
	var args []any

	switch models.NormalizeView(filter.View) {
	case models.ViewAssigned:
		where = `completed_at IS NULL AND user_id = ? AND assigned_to <> '' AND assigned_to <> ?`
		order = dueOrder
		args = []any{filter.UserID, filter.UserID}
	case models.ViewCompleted:
		where = `completed_at IS NOT NULL AND (user_id = ? OR assigned_to = ?)`
		order = `completed_at DESC`
		args = []any{filter.UserID, filter.UserID}
	default:
		where = `completed_at IS NULL AND (assigned_to = ? OR (user_id = ? AND assigned_to = ''))`
		order = dueOrder
		args = []any{filter.UserID, filter.UserID}
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + where + ` ORDER BY ` + order
	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// задачи без срока - в конце списка; NULLS LAST нет в MySQL
const dueOrder = `CASE WHEN due_at IS NULL THEN 1 ELSE 0 END, due_at, created_at`

func (r *SQLStore) Update(ctx context.Context, task *models.Task) error {
	query := `UPDATE tasks SET assigned_to = ?, name = ?, category = ?, bucket = ?, due_at = ?,
		background_info = ?, completed_at = ?, updated_at = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, r.rebind(query),
		task.AssignedTo, task.Name, task.Category, task.Bucket, nullTime(task.DueAt),
		task.BackgroundInfo, nullTime(task.CompletedAt), task.UpdatedAt, task.ID)
	if err != nil {
		return fmt.Errorf("update task %s: %w", task.ID, err)
	}
	return checkAffected(result)
}

func (r *SQLStore) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, r.rebind(`DELETE FROM tasks WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return checkAffected(result)
}

func (r *SQLStore) CreateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (id, username, first_name, last_name, password_digest, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, r.rebind(query),
		user.ID, user.Username, user.FirstName, user.LastName, user.PasswordDigest, user.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *SQLStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return r.getUser(ctx, `id = ?`, id)
}

func (r *SQLStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getUser(ctx, `username = ?`, username)
}

func (r *SQLStore) getUser(ctx context.Context, where string, arg any) (*models.User, error) {
	query := `SELECT id, username, first_name, last_name, password_digest, created_at FROM users WHERE ` + where
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, r.rebind(query), arg).Scan(
		&user.ID, &user.Username, &user.FirstName, &user.LastName, &user.PasswordDigest, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (r *SQLStore) AllExcept(ctx context.Context, except *models.User) ([]*models.User, error) {
	var exceptID string
	if except != nil {
		exceptID = except.ID
	}

	query := `SELECT id, username, first_name, last_name, password_digest, created_at FROM users
		WHERE id <> ? ORDER BY first_name, last_name, username`
	rows, err := r.db.QueryContext(ctx, r.rebind(query), exceptID)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user := &models.User{}
		if err := rows.Scan(&user.ID, &user.Username, &user.FirstName, &user.LastName, &user.PasswordDigest, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// rebind заменяет плейсхолдеры ? на $1, $2... для PostgreSQL
func (r *SQLStore) rebind(query string) string {
	return rebind(r.driver, query)
}

func rebind(driver, query string) string {
	if driver == DriverMySQL {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	task := &models.Task{}
	var dueAt, completedAt sql.NullTime
	err := row.Scan(&task.ID, &task.UserID, &task.AssignedTo, &task.Name, &task.Category, &task.Bucket,
		&dueAt, &task.BackgroundInfo, &completedAt, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if dueAt.Valid {
		task.DueAt = &dueAt.Time
	}
	if completedAt.Valid {
		task.CompletedAt = &completedAt.Time
	}
	return task, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func checkAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return false
}
