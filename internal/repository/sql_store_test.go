package repository

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sun1tar/crm-tasks/internal/models"
)

var (
	taskColumnNames = strings.Split(strings.ReplaceAll(taskColumns, " ", ""), ",")
	userColumnNames = []string{"id", "username", "first_name", "last_name", "password_digest", "created_at"}
	created         = time.Date(2025, 10, 15, 9, 0, 0, 0, time.UTC)
)

func newMockStore(t *testing.T, driver string) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return newSQLStoreWithDB(db, driver), mock
}

func taskRow(rows *sqlmock.Rows, id string, due, completed any) *sqlmock.Rows {
	return rows.AddRow(id, "u_1", "", "task "+id, "call", models.BucketDueToday, due, "", completed, created, created)
}

func TestSQLStoreListViews(t *testing.T) {
	due := time.Date(2025, 10, 15, 23, 59, 59, 0, time.UTC)

	tests := []struct {
		view  string
		where string
		order string
	}{
		{
			view:  models.ViewPending,
			where: `completed_at IS NULL AND (assigned_to = $1 OR (user_id = $2 AND assigned_to = ''))`,
			order: dueOrder,
		},
		{
			view:  "archived",
			where: `completed_at IS NULL AND (assigned_to = $1 OR (user_id = $2 AND assigned_to = ''))`,
			order: dueOrder,
		},
		{
			view:  models.ViewAssigned,
			where: `completed_at IS NULL AND user_id = $1 AND assigned_to <> '' AND assigned_to <> $2`,
			order: dueOrder,
		},
		{
			view:  models.ViewCompleted,
			where: `completed_at IS NOT NULL AND (user_id = $1 OR assigned_to = $2)`,
			order: `completed_at DESC`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.view, func(t *testing.T) {
			store, mock := newMockStore(t, DriverPostgres)

			rows := sqlmock.NewRows(taskColumnNames)
			taskRow(rows, "t_1", due, nil)
			taskRow(rows, "t_2", nil, nil)
			mock.ExpectQuery(regexp.QuoteMeta(`FROM tasks WHERE ` + tt.where + ` ORDER BY ` + tt.order)).
				WithArgs("u_1", "u_1").
				WillReturnRows(rows)

			tasks, err := store.List(context.Background(), ListFilter{UserID: "u_1", View: tt.view})
			require.NoError(t, err)
			require.Len(t, tasks, 2)
			assert.Equal(t, "t_1", tasks[0].ID)
			require.NotNil(t, tasks[0].DueAt)
			assert.True(t, due.Equal(*tasks[0].DueAt))
			assert.Nil(t, tasks[1].DueAt)
			assert.Nil(t, tasks[1].CompletedAt)
		})
	}
}

func TestSQLStoreGetByID(t *testing.T) {
	store, mock := newMockStore(t, DriverPostgres)
	completed := created.Add(time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM tasks WHERE id = $1`)).
		WithArgs("t_1").
		WillReturnRows(taskRow(sqlmock.NewRows(taskColumnNames), "t_1", nil, completed))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM tasks WHERE id = $1`)).
		WithArgs("t_missing").
		WillReturnRows(sqlmock.NewRows(taskColumnNames))

	task, err := store.GetByID(context.Background(), "t_1")
	require.NoError(t, err)
	assert.Equal(t, "task t_1", task.Name)
	assert.Empty(t, task.Calendar)
	require.NotNil(t, task.CompletedAt)
	assert.True(t, completed.Equal(*task.CompletedAt))

	_, err = store.GetByID(context.Background(), "t_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLStoreCreateTask(t *testing.T) {
	store, mock := newMockStore(t, DriverPostgres)
	task := &models.Task{ID: "t_1", UserID: "u_1", Name: "Call", CreatedAt: created, UpdatedAt: created}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO tasks (` + taskColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`)).
		WithArgs("t_1", "u_1", "", "Call", "", "", nil, "", nil, created, created).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Create(context.Background(), task))
}

func TestSQLStoreUpdateAndDeleteMissingRow(t *testing.T) {
	store, mock := newMockStore(t, DriverPostgres)
	task := &models.Task{ID: "t_missing", Name: "Call", UpdatedAt: created}

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE tasks SET`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM tasks WHERE id = $1`)).
		WithArgs("t_missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE tasks SET`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM tasks WHERE id = $1`)).
		WithArgs("t_1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ctx := context.Background()
	assert.ErrorIs(t, store.Update(ctx, task), ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "t_missing"), ErrNotFound)

	task.ID = "t_1"
	assert.NoError(t, store.Update(ctx, task))
	assert.NoError(t, store.Delete(ctx, "t_1"))
}

func TestSQLStoreMySQLKeepsPlaceholders(t *testing.T) {
	store, mock := newMockStore(t, DriverMySQL)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM tasks WHERE id = ?`)).
		WithArgs("t_1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, store.Delete(context.Background(), "t_1"))
}

func TestSQLStoreUsers(t *testing.T) {
	store, mock := newMockStore(t, DriverPgx)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = $1`)).
		WithArgs("u_1").
		WillReturnRows(sqlmock.NewRows(userColumnNames).AddRow("u_1", "alice", "Alice", "", "digest", created))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = $1`)).
		WithArgs("u_gone").
		WillReturnRows(sqlmock.NewRows(userColumnNames))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE username = $1`)).
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows(userColumnNames))

	user, err := store.GetUserByID(ctx, "u_1")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "digest", user.PasswordDigest)

	_, err = store.GetUserByID(ctx, "u_gone")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLStoreAllExcept(t *testing.T) {
	store, mock := newMockStore(t, DriverPostgres)
	query := regexp.QuoteMeta(`FROM users WHERE id <> $1 ORDER BY first_name, last_name, username`)

	mock.ExpectQuery(query).
		WithArgs("u_1").
		WillReturnRows(sqlmock.NewRows(userColumnNames).
			AddRow("u_2", "bob", "Bob", "Builder", "d", created).
			AddRow("u_3", "carol", "Carol", "", "d", created))
	mock.ExpectQuery(query).
		WithArgs("").
		WillReturnRows(sqlmock.NewRows(userColumnNames))

	users, err := store.AllExcept(context.Background(), &models.User{ID: "u_1"})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "u_2", users[0].ID)
	assert.Equal(t, "u_3", users[1].ID)

	users, err = store.AllExcept(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestSQLStoreCreateUserDuplicate(t *testing.T) {
	store, mock := newMockStore(t, DriverPostgres)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnError(&pq.Error{Code: "23505"})

	err := store.CreateUser(context.Background(), &models.User{ID: "u_1", Username: "alice", CreatedAt: created})
	assert.ErrorIs(t, err, ErrDuplicate)
}
