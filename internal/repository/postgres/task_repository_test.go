package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"

	"github.com/prodpix/prodpix/internal/domain"
)

func newTaskRepoWithMock(t *testing.T) (domain.TaskRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewTaskRepository(&dbpg.DB{Master: db}, retry.Strategy{Attempts: 1})

	return repo, mock
}

func taskRows(task *domain.BatchTask) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "status", "total_images", "processed_images", "failed_images",
		"progress", "package_key", "packaged_at", "error_message",
		"created_at", "updated_at", "completed_at",
	}).AddRow(
		task.ID, task.UserID, task.Status, task.TotalImages, task.ProcessedImages,
		task.FailedImages, task.Progress, nil, nil, nil,
		task.CreatedAt, task.UpdatedAt, nil,
	)
}

// CREATE - SUCCESS
func TestTaskRepository_Create_OK(t *testing.T) {
	repo, mock := newTaskRepoWithMock(t)

	now := time.Now()
	task := &domain.BatchTask{
		ID:          uuid.New().String(),
		UserID:      "user-1",
		Status:      domain.StatusPending,
		TotalImages: 5,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	mock.ExpectExec(`INSERT INTO batch_tasks`).
		WithArgs(
			task.ID, task.UserID, task.Status, task.TotalImages,
			0, 0, 0, nil, nil, nil,
			task.CreatedAt, task.UpdatedAt, nil,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), task)
	require.NoError(t, err)
}

// FIND - NOT FOUND
func TestTaskRepository_FindByID_NotFound(t *testing.T) {
	repo, mock := newTaskRepoWithMock(t)

	mock.ExpectQuery(`SELECT`).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), uuid.New().String())
	require.ErrorIs(t, err, domain.ErrTaskNotFound)
}

// FIND - SUCCESS
func TestTaskRepository_FindByID_OK(t *testing.T) {
	repo, mock := newTaskRepoWithMock(t)

	now := time.Now()
	task := &domain.BatchTask{
		ID:          uuid.New().String(),
		UserID:      "user-1",
		Status:      domain.StatusProcessing,
		TotalImages: 5,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	mock.ExpectQuery(`SELECT`).
		WithArgs(task.ID).
		WillReturnRows(taskRows(task))

	got, err := repo.FindByID(context.Background(), task.ID)
	require.NoError(t, err)
	require.Equal(t, task.ID, got.ID)
	require.Equal(t, domain.StatusProcessing, got.Status)
	require.Empty(t, got.PackageKey)
	require.Nil(t, got.PackagedAt)
}

// INCREMENT - SINGLE GUARDED STATEMENT
func TestTaskRepository_IncrementProgress(t *testing.T) {
	tests := []struct {
		name       string
		itemFailed bool
	}{
		{name: "processed item", itemFailed: false},
		{name: "failed item", itemFailed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newTaskRepoWithMock(t)

			id := uuid.New().String()
			mock.ExpectExec(`UPDATE batch_tasks`).
				WithArgs(id, tt.itemFailed).
				WillReturnResult(sqlmock.NewResult(0, 1))

			err := repo.IncrementProgress(context.Background(), id, tt.itemFailed)
			require.NoError(t, err)
		})
	}
}

// INCREMENT - PROGRESS IS ROUNDED, NOT FLOORED
func TestTaskRepository_IncrementProgress_RoundsProgress(t *testing.T) {
	repo, mock := newTaskRepoWithMock(t)

	// 2 of 3 items done must report 67, which needs ROUND over integer
	// division in the recompute expression.
	id := uuid.New().String()
	mock.ExpectExec(`(?s)UPDATE batch_tasks.*ROUND\(\(processed_images \+ failed_images \+ 1\) \* 100\.0 / total_images\)`).
		WithArgs(id, false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.IncrementProgress(context.Background(), id, false)
	require.NoError(t, err)
}

// INCREMENT - SETTLED TASK DROPS THE WRITE
func TestTaskRepository_IncrementProgress_SettledTask(t *testing.T) {
	repo, mock := newTaskRepoWithMock(t)

	id := uuid.New().String()
	mock.ExpectExec(`UPDATE batch_tasks`).
		WithArgs(id, false).
		WillReturnResult(sqlmock.NewResult(0, 0)) // status filter matched nothing

	err := repo.IncrementProgress(context.Background(), id, false)
	require.NoError(t, err)
}

// CANCEL - SUCCESS
func TestTaskRepository_MarkCancelled_OK(t *testing.T) {
	repo, mock := newTaskRepoWithMock(t)

	id := uuid.New().String()
	mock.ExpectExec(`UPDATE batch_tasks`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.MarkCancelled(context.Background(), id)
	require.NoError(t, err)
}

// CANCEL - ALREADY TERMINAL
func TestTaskRepository_MarkCancelled_Terminal(t *testing.T) {
	repo, mock := newTaskRepoWithMock(t)

	id := uuid.New().String()
	mock.ExpectExec(`UPDATE batch_tasks`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkCancelled(context.Background(), id)
	require.ErrorIs(t, err, domain.ErrTaskNotCancellable)
}

// GETSTATUS - SUCCESS
func TestTaskRepository_GetStatus_OK(t *testing.T) {
	repo, mock := newTaskRepoWithMock(t)

	id := uuid.New().String()
	mock.ExpectQuery(`SELECT status`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("cancelled"))

	status, err := repo.GetStatus(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCancelled, status)
}

// SETPACKAGE - NOT FOUND
func TestTaskRepository_SetPackage_NotFound(t *testing.T) {
	repo, mock := newTaskRepoWithMock(t)

	id := uuid.New().String()
	mock.ExpectExec(`UPDATE batch_tasks`).
		WithArgs(id, "packages/x.zip", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetPackage(context.Background(), id, "packages/x.zip", time.Now())
	require.ErrorIs(t, err, domain.ErrTaskNotFound)
}

// LIST - SUCCESS
func TestTaskRepository_ListByUser_OK(t *testing.T) {
	repo, mock := newTaskRepoWithMock(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "status", "total_images", "processed_images", "failed_images",
		"progress", "package_key", "packaged_at", "error_message",
		"created_at", "updated_at", "completed_at",
	}).
		AddRow(uuid.New().String(), "user-1", "completed", 3, 3, 0, 100, "packages/a.zip", now, nil, now, now, now).
		AddRow(uuid.New().String(), "user-1", "pending", 2, 0, 0, 0, nil, nil, nil, now, now, nil)

	mock.ExpectQuery(`SELECT`).
		WithArgs("user-1", 10, 0).
		WillReturnRows(rows)

	tasks, err := repo.ListByUser(context.Background(), "user-1", 10, 0)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	require.Equal(t, "packages/a.zip", tasks[0].PackageKey)
	require.NotNil(t, tasks[0].PackagedAt)
}
