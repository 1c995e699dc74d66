package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/prodpix/prodpix/internal/domain"
)

type jobRepository struct {
	db       *dbpg.DB
	strategy retry.Strategy
}

func NewJobRepository(db *dbpg.DB, strategy retry.Strategy) domain.JobRepository {
	return &jobRepository{
		db:       db,
		strategy: strategy,
	}
}

const jobColumns = `
	id, task_id, image_id, operation, params, status, attempt,
	parent_job_id, output_key, quality_score, error_message,
	created_at, updated_at, completed_at
`

func (r *jobRepository) CreateBatch(ctx context.Context, jobs []*domain.ProcessingJob) error {
	for _, job := range jobs {
		if err := r.Create(ctx, job); err != nil {
			return err
		}
	}
	return nil
}

func (r *jobRepository) Create(ctx context.Context, job *domain.ProcessingJob) error {
	params, err := json.Marshal(job.Params)
	if err != nil {
		return fmt.Errorf("marshal job params: %w", err)
	}

	query := `
		INSERT INTO processing_jobs (
			id, task_id, image_id, operation, params, status, attempt,
			parent_job_id, output_key, quality_score, error_message,
			created_at, updated_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err = r.db.ExecWithRetry(ctx, r.strategy, query,
		job.ID,
		job.TaskID,
		job.ImageID,
		job.Operation,
		params,
		job.Status,
		job.Attempt,
		nullString(job.ParentJobID),
		nullString(job.OutputKey),
		job.QualityScore,
		nullString(job.ErrorMessage),
		job.CreatedAt,
		job.UpdatedAt,
		job.CompletedAt,
	)

	if err != nil {
		zlog.Logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to create job")
		return fmt.Errorf("create job: %w", err)
	}

	return nil
}

func (r *jobRepository) FindByID(ctx context.Context, id string) (*domain.ProcessingJob, error) {
	query := `SELECT ` + jobColumns + ` FROM processing_jobs WHERE id = $1`

	row := r.db.Master.QueryRowContext(ctx, query, id)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrJobNotFound
	}
	if err != nil {
		zlog.Logger.Error().Err(err).Str("job_id", id).Msg("failed to find job")
		return nil, fmt.Errorf("find job: %w", err)
	}

	return job, nil
}

func (r *jobRepository) ListByTask(ctx context.Context, taskID string) ([]*domain.ProcessingJob, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM processing_jobs
		WHERE task_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryWithRetry(ctx, r.strategy, query, taskID)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("task_id", taskID).Msg("failed to list jobs")
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.ProcessingJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return jobs, nil
}

func (r *jobRepository) Update(ctx context.Context, job *domain.ProcessingJob) error {
	query := `
		UPDATE processing_jobs
		SET status = $2,
		    output_key = $3,
		    quality_score = $4,
		    error_message = $5,
		    completed_at = $6,
		    updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecWithRetry(ctx, r.strategy, query,
		job.ID,
		job.Status,
		nullString(job.OutputKey),
		job.QualityScore,
		nullString(job.ErrorMessage),
		job.CompletedAt,
	)

	if err != nil {
		zlog.Logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to update job")
		return fmt.Errorf("update job: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrJobNotFound
	}

	return nil
}

func (r *jobRepository) CancelPending(ctx context.Context, taskID string) (int64, error) {
	query := `
		UPDATE processing_jobs
		SET status = 'cancelled', completed_at = NOW(), updated_at = NOW()
		WHERE task_id = $1 AND status = 'pending'
	`

	result, err := r.db.ExecWithRetry(ctx, r.strategy, query, taskID)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("task_id", taskID).Msg("failed to cancel pending jobs")
		return 0, fmt.Errorf("cancel pending jobs: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}

	if rows > 0 {
		zlog.Logger.Info().Str("task_id", taskID).Int64("jobs", rows).Msg("pending jobs cancelled")
	}
	return rows, nil
}

func scanJob(row rowScanner) (*domain.ProcessingJob, error) {
	var job domain.ProcessingJob
	var params []byte
	var parentJobID, outputKey, errorMsg sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(
		&job.ID,
		&job.TaskID,
		&job.ImageID,
		&job.Operation,
		&params,
		&job.Status,
		&job.Attempt,
		&parentJobID,
		&outputKey,
		&job.QualityScore,
		&errorMsg,
		&job.CreatedAt,
		&job.UpdatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(params) > 0 {
		if err := json.Unmarshal(params, &job.Params); err != nil {
			return nil, fmt.Errorf("unmarshal job params: %w", err)
		}
	}

	if parentJobID.Valid {
		job.ParentJobID = parentJobID.String
	}
	if outputKey.Valid {
		job.OutputKey = outputKey.String
	}
	if errorMsg.Valid {
		job.ErrorMessage = errorMsg.String
	}
	if completedAt.Valid {
		job.CompletedAt = &completedAt.Time
	}

	return &job, nil
}
