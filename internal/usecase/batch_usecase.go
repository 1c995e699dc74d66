package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"

	"github.com/prodpix/prodpix/internal/archive"
	"github.com/prodpix/prodpix/internal/domain"
	"github.com/prodpix/prodpix/internal/infrastructure/storage"
)

type BatchUsecase struct {
	taskRepo   domain.TaskRepository
	jobRepo    domain.JobRepository
	imageRepo  domain.ImageRepository
	storage    storage.Storage
	queue      domain.QueueService
	subs       domain.SubscriptionService
	packageTTL time.Duration
}

func NewBatchUsecase(
	taskRepo domain.TaskRepository,
	jobRepo domain.JobRepository,
	imageRepo domain.ImageRepository,
	storage storage.Storage,
	queue domain.QueueService,
	subs domain.SubscriptionService,
	packageTTL time.Duration,
) *BatchUsecase {
	return &BatchUsecase{
		taskRepo:   taskRepo,
		jobRepo:    jobRepo,
		imageRepo:  imageRepo,
		storage:    storage,
		queue:      queue,
		subs:       subs,
		packageTTL: packageTTL,
	}
}

// CreateBatch validates the request, reserves quota, persists the task
// with its jobs and hands the task id to the worker queue. Quota is
// reserved before the task row exists, so a rejected batch leaves no
// trace in the store.
func (u *BatchUsecase) CreateBatch(
	ctx context.Context,
	userID string,
	imageIDs []string,
	operations []domain.JobParams,
) (*domain.BatchTask, *domain.Admission, error) {
	if len(imageIDs) == 0 {
		return nil, nil, domain.ErrEmptyBatch
	}
	if len(imageIDs) > domain.MaxBatchImages {
		return nil, nil, fmt.Errorf("%w: %d images, maximum is %d",
			domain.ErrBatchTooLarge, len(imageIDs), domain.MaxBatchImages)
	}
	if len(operations) == 0 {
		return nil, nil, fmt.Errorf("%w: at least one operation is required", domain.ErrInvalidOperation)
	}

	for i := range operations {
		if err := operations[i].Validate(); err != nil {
			return nil, nil, err
		}
	}

	seen := make(map[string]struct{}, len(imageIDs))
	for _, imageID := range imageIDs {
		if _, dup := seen[imageID]; dup {
			return nil, nil, fmt.Errorf("%w: duplicate image %s", domain.ErrInvalidOperation, imageID)
		}
		seen[imageID] = struct{}{}

		img, err := u.imageRepo.FindByID(ctx, imageID)
		if err != nil {
			return nil, nil, err
		}
		if !img.OwnedBy(userID) {
			return nil, nil, domain.ErrImageNotFound
		}
	}

	admission, err := u.subs.Reserve(ctx, userID, len(imageIDs))
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	task := &domain.BatchTask{
		ID:          uuid.New().String(),
		UserID:      userID,
		Status:      domain.StatusPending,
		TotalImages: len(imageIDs),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := u.taskRepo.Create(ctx, task); err != nil {
		u.releaseAdmission(ctx, userID, len(imageIDs))
		return nil, nil, err
	}

	jobs := make([]*domain.ProcessingJob, 0, len(imageIDs)*len(operations))
	for _, imageID := range imageIDs {
		for _, op := range operations {
			jobs = append(jobs, &domain.ProcessingJob{
				ID:        uuid.New().String(),
				TaskID:    task.ID,
				ImageID:   imageID,
				Operation: op.Op,
				Params:    op,
				Status:    domain.StatusPending,
				Attempt:   1,
				CreatedAt: now,
				UpdatedAt: now,
			})
		}
	}

	if err := u.jobRepo.CreateBatch(ctx, jobs); err != nil {
		u.releaseAdmission(ctx, userID, len(imageIDs))
		_ = u.taskRepo.MarkFailed(ctx, task.ID, "failed to persist batch jobs")
		return nil, nil, err
	}

	if err := u.queue.PublishBatchTask(ctx, task.ID); err != nil {
		zlog.Logger.Error().Err(err).Str("task_id", task.ID).Msg("failed to publish batch dispatch")
		u.releaseAdmission(ctx, userID, len(imageIDs))
		_ = u.taskRepo.MarkFailed(ctx, task.ID, "failed to enqueue batch")
		return nil, nil, fmt.Errorf("publish batch: %w", err)
	}

	zlog.Logger.Info().
		Str("task_id", task.ID).
		Str("user_id", userID).
		Int("images", len(imageIDs)).
		Int("jobs", len(jobs)).
		Msg("batch created")

	return task, admission, nil
}

// releaseAdmission compensates a consumed reservation when batch creation
// dies after admission. Best effort; a failed release is only logged.
func (u *BatchUsecase) releaseAdmission(ctx context.Context, userID string, count int) {
	if err := u.subs.Release(ctx, userID, count); err != nil {
		zlog.Logger.Error().Err(err).
			Str("user_id", userID).
			Int("count", count).
			Msg("failed to release quota reservation")
	}
}

func (u *BatchUsecase) GetTask(ctx context.Context, userID, taskID string) (*domain.BatchTask, error) {
	task, err := u.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.UserID != userID {
		return nil, domain.ErrTaskNotFound
	}
	return task, nil
}

func (u *BatchUsecase) ListTasks(ctx context.Context, userID string, limit, offset int) ([]*domain.BatchTask, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return u.taskRepo.ListByUser(ctx, userID, limit, offset)
}

func (u *BatchUsecase) GetResults(ctx context.Context, userID, taskID string) (*domain.BatchTask, []*domain.ProcessingJob, error) {
	task, err := u.GetTask(ctx, userID, taskID)
	if err != nil {
		return nil, nil, err
	}

	jobs, err := u.jobRepo.ListByTask(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}

	return task, jobs, nil
}

// GetJobOutput opens one job's processed image, scoped to the owner.
func (u *BatchUsecase) GetJobOutput(ctx context.Context, userID, jobID string) (io.ReadCloser, string, error) {
	job, err := u.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		return nil, "", err
	}

	if _, err := u.GetTask(ctx, userID, job.TaskID); err != nil {
		return nil, "", domain.ErrJobNotFound
	}
	if job.Status != domain.StatusCompleted || job.OutputKey == "" {
		return nil, "", domain.ErrJobNotFound
	}

	rc, err := u.storage.Get(ctx, job.OutputKey)
	if err != nil {
		return nil, "", err
	}

	return rc, fmt.Sprintf("%s_%s.jpg", job.ImageID, job.Operation), nil
}

// CancelTask flips the stored status and cancels still-pending jobs.
// Items already dispatched run to completion; the worker checks the
// status before handing out each new item.
func (u *BatchUsecase) CancelTask(ctx context.Context, userID, taskID string) (*domain.BatchTask, error) {
	if _, err := u.GetTask(ctx, userID, taskID); err != nil {
		return nil, err
	}

	if err := u.taskRepo.MarkCancelled(ctx, taskID); err != nil {
		return nil, err
	}

	if _, err := u.jobRepo.CancelPending(ctx, taskID); err != nil {
		zlog.Logger.Error().Err(err).Str("task_id", taskID).Msg("failed to cancel pending jobs")
	}

	return u.taskRepo.FindByID(ctx, taskID)
}

// PackageResults zips every successful output of a finished task and
// records the package key with its build time. Re-packaging a task whose
// archive expired is allowed at any point.
func (u *BatchUsecase) PackageResults(ctx context.Context, userID, taskID string) (*domain.BatchTask, error) {
	task, err := u.GetTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if !task.IsTerminal() {
		return nil, domain.ErrPackageNotReady
	}

	jobs, err := u.jobRepo.ListByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	entries, err := u.packageEntries(ctx, jobs)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no successful outputs", domain.ErrPackageNotReady)
	}

	buf, err := archive.Build(ctx, u.storage, entries)
	if err != nil {
		return nil, fmt.Errorf("build package: %w", err)
	}

	packageKey, err := u.storage.SavePackage(ctx, fmt.Sprintf("%s.zip", taskID), buf)
	if err != nil {
		return nil, fmt.Errorf("save package: %w", err)
	}

	packagedAt := time.Now()
	if err := u.taskRepo.SetPackage(ctx, taskID, packageKey, packagedAt); err != nil {
		return nil, err
	}

	zlog.Logger.Info().
		Str("task_id", taskID).
		Str("package_key", packageKey).
		Int("entries", len(entries)).
		Msg("results packaged")

	return u.taskRepo.FindByID(ctx, taskID)
}

func (u *BatchUsecase) DownloadPackage(ctx context.Context, userID, taskID string) (string, io.ReadCloser, string, error) {
	task, err := u.GetTask(ctx, userID, taskID)
	if err != nil {
		return "", nil, "", err
	}
	if !task.IsTerminal() {
		return "", nil, "", domain.ErrPackageNotReady
	}

	if task.PackageKey == "" {
		// Built lazily on the first download request.
		task, err = u.PackageResults(ctx, userID, taskID)
		if err != nil {
			return "", nil, "", err
		}
	}

	now := time.Now()
	if task.PackageExpired(u.packageTTL, now) {
		return "", nil, "", domain.ErrPackageExpired
	}

	filename := fmt.Sprintf("batch_%s.zip", taskID)
	remaining := task.PackagedAt.Add(u.packageTTL).Sub(now)

	url, err := u.storage.PresignedURL(ctx, task.PackageKey, remaining)
	if err == nil {
		return url, nil, filename, nil
	}
	if !errors.Is(err, storage.ErrPresignUnsupported) {
		return "", nil, "", err
	}

	rc, err := u.storage.Get(ctx, task.PackageKey)
	if err != nil {
		return "", nil, "", err
	}
	return "", rc, filename, nil
}

// packageEntries picks the outputs worth shipping: one entry per
// completed job, named after the source file and the operation.
func (u *BatchUsecase) packageEntries(ctx context.Context, jobs []*domain.ProcessingJob) ([]archive.Entry, error) {
	names := make(map[string]string)
	var entries []archive.Entry

	for _, job := range jobs {
		if job.Status != domain.StatusCompleted || job.OutputKey == "" {
			continue
		}

		base, ok := names[job.ImageID]
		if !ok {
			img, err := u.imageRepo.FindByID(ctx, job.ImageID)
			if err != nil {
				return nil, err
			}
			base = strings.TrimSuffix(img.OriginalFilename, path.Ext(img.OriginalFilename))
			names[job.ImageID] = base
		}

		entries = append(entries, archive.Entry{
			Key:  job.OutputKey,
			Name: fmt.Sprintf("%s_%s%s", base, job.Operation, path.Ext(job.OutputKey)),
		})
	}

	return entries, nil
}
