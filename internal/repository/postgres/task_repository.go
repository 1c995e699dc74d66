package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/prodpix/prodpix/internal/domain"
)

type taskRepository struct {
	db       *dbpg.DB
	strategy retry.Strategy
}

func NewTaskRepository(db *dbpg.DB, strategy retry.Strategy) domain.TaskRepository {
	return &taskRepository{
		db:       db,
		strategy: strategy,
	}
}

const taskColumns = `
	id, user_id, status, total_images, processed_images, failed_images,
	progress, package_key, packaged_at, error_message,
	created_at, updated_at, completed_at
`

func (r *taskRepository) Create(ctx context.Context, task *domain.BatchTask) error {
	query := `
		INSERT INTO batch_tasks (
			id, user_id, status, total_images, processed_images, failed_images,
			progress, package_key, packaged_at, error_message,
			created_at, updated_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecWithRetry(ctx, r.strategy, query,
		task.ID,
		task.UserID,
		task.Status,
		task.TotalImages,
		task.ProcessedImages,
		task.FailedImages,
		task.Progress,
		nullString(task.PackageKey),
		task.PackagedAt,
		nullString(task.ErrorMessage),
		task.CreatedAt,
		task.UpdatedAt,
		task.CompletedAt,
	)

	if err != nil {
		zlog.Logger.Error().Err(err).Str("task_id", task.ID).Msg("failed to create task")
		return fmt.Errorf("create task: %w", err)
	}

	zlog.Logger.Info().Str("task_id", task.ID).Int("total_images", task.TotalImages).Msg("task created successfully")
	return nil
}

func (r *taskRepository) FindByID(ctx context.Context, id string) (*domain.BatchTask, error) {
	query := `SELECT ` + taskColumns + ` FROM batch_tasks WHERE id = $1`

	row := r.db.Master.QueryRowContext(ctx, query, id)
	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrTaskNotFound
	}
	if err != nil {
		zlog.Logger.Error().Err(err).Str("task_id", id).Msg("failed to find task")
		return nil, fmt.Errorf("find task: %w", err)
	}

	return task, nil
}

func (r *taskRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.BatchTask, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM batch_tasks
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryWithRetry(ctx, r.strategy, query, userID, limit, offset)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("user_id", userID).Msg("failed to list tasks")
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.BatchTask
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return tasks, nil
}

func (r *taskRepository) GetStatus(ctx context.Context, id string) (domain.TaskStatus, error) {
	query := `SELECT status FROM batch_tasks WHERE id = $1`

	var status domain.TaskStatus
	err := r.db.Master.QueryRowContext(ctx, query, id).Scan(&status)
	if err == sql.ErrNoRows {
		return "", domain.ErrTaskNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get task status: %w", err)
	}

	return status, nil
}

func (r *taskRepository) MarkProcessing(ctx context.Context, id string) error {
	query := `
		UPDATE batch_tasks
		SET status = 'processing', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`

	if _, err := r.db.ExecWithRetry(ctx, r.strategy, query, id); err != nil {
		zlog.Logger.Error().Err(err).Str("task_id", id).Msg("failed to mark task processing")
		return fmt.Errorf("mark task processing: %w", err)
	}
	return nil
}

// IncrementProgress is the single write path for item completion. One
// statement bumps the right counter and recomputes progress so racing
// workers can never regress it. Completed and failed tasks drop the
// increment; cancelled tasks keep counting in-flight stragglers.
func (r *taskRepository) IncrementProgress(ctx context.Context, id string, itemFailed bool) error {
	query := `
		UPDATE batch_tasks
		SET processed_images = processed_images + CASE WHEN $2 THEN 0 ELSE 1 END,
		    failed_images = failed_images + CASE WHEN $2 THEN 1 ELSE 0 END,
		    progress = ROUND((processed_images + failed_images + 1) * 100.0 / total_images)::int,
		    updated_at = NOW()
		WHERE id = $1 AND status NOT IN ('completed', 'failed')
	`

	if _, err := r.db.ExecWithRetry(ctx, r.strategy, query, id, itemFailed); err != nil {
		zlog.Logger.Error().Err(err).Str("task_id", id).Msg("failed to increment progress")
		return fmt.Errorf("increment progress: %w", err)
	}
	return nil
}

// Finalize completes a task after the pool drains. A batch where every
// item failed still completes; only infrastructure breakage fails a task.
func (r *taskRepository) Finalize(ctx context.Context, id string) error {
	query := `
		UPDATE batch_tasks
		SET status = 'completed', progress = 100, completed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'processing'
	`

	if _, err := r.db.ExecWithRetry(ctx, r.strategy, query, id); err != nil {
		zlog.Logger.Error().Err(err).Str("task_id", id).Msg("failed to finalize task")
		return fmt.Errorf("finalize task: %w", err)
	}

	zlog.Logger.Info().Str("task_id", id).Msg("task finalized")
	return nil
}

func (r *taskRepository) MarkFailed(ctx context.Context, id string, errMsg string) error {
	query := `
		UPDATE batch_tasks
		SET status = 'failed', error_message = $2, completed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status NOT IN ('completed', 'failed', 'cancelled')
	`

	if _, err := r.db.ExecWithRetry(ctx, r.strategy, query, id, errMsg); err != nil {
		zlog.Logger.Error().Err(err).Str("task_id", id).Msg("failed to mark task failed")
		return fmt.Errorf("mark task failed: %w", err)
	}
	return nil
}

func (r *taskRepository) MarkCancelled(ctx context.Context, id string) error {
	query := `
		UPDATE batch_tasks
		SET status = 'cancelled', completed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'processing')
	`

	result, err := r.db.ExecWithRetry(ctx, r.strategy, query, id)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("task_id", id).Msg("failed to mark task cancelled")
		return fmt.Errorf("mark task cancelled: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrTaskNotCancellable
	}

	zlog.Logger.Info().Str("task_id", id).Msg("task cancelled")
	return nil
}

func (r *taskRepository) SetPackage(ctx context.Context, id string, packageKey string, packagedAt time.Time) error {
	query := `
		UPDATE batch_tasks
		SET package_key = $2, packaged_at = $3, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecWithRetry(ctx, r.strategy, query, id, packageKey, packagedAt)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("task_id", id).Msg("failed to set package")
		return fmt.Errorf("set package: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrTaskNotFound
	}

	return nil
}

func scanTask(row rowScanner) (*domain.BatchTask, error) {
	var task domain.BatchTask
	var packageKey, errorMsg sql.NullString
	var packagedAt, completedAt sql.NullTime

	err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Status,
		&task.TotalImages,
		&task.ProcessedImages,
		&task.FailedImages,
		&task.Progress,
		&packageKey,
		&packagedAt,
		&errorMsg,
		&task.CreatedAt,
		&task.UpdatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	if packageKey.Valid {
		task.PackageKey = packageKey.String
	}
	if errorMsg.Valid {
		task.ErrorMessage = errorMsg.String
	}
	if packagedAt.Valid {
		task.PackagedAt = &packagedAt.Time
	}
	if completedAt.Valid {
		task.CompletedAt = &completedAt.Time
	}

	return &task, nil
}
