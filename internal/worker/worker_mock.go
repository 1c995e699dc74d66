package worker

import (
	"context"
	"time"

	"github.com/prodpix/prodpix/internal/domain"
)

// MOCK TASK REPOSITORY

type mockTaskRepo struct {
	createFn            func(ctx context.Context, task *domain.BatchTask) error
	findByIDFn          func(ctx context.Context, id string) (*domain.BatchTask, error)
	listByUserFn        func(ctx context.Context, userID string, limit, offset int) ([]*domain.BatchTask, error)
	getStatusFn         func(ctx context.Context, id string) (domain.TaskStatus, error)
	markProcessingFn    func(ctx context.Context, id string) error
	incrementProgressFn func(ctx context.Context, id string, itemFailed bool) error
	finalizeFn          func(ctx context.Context, id string) error
	markFailedFn        func(ctx context.Context, id string, errMsg string) error
	markCancelledFn     func(ctx context.Context, id string) error
	setPackageFn        func(ctx context.Context, id string, packageKey string, packagedAt time.Time) error
}

func (m *mockTaskRepo) Create(ctx context.Context, task *domain.BatchTask) error {
	return m.createFn(ctx, task)
}

func (m *mockTaskRepo) FindByID(ctx context.Context, id string) (*domain.BatchTask, error) {
	return m.findByIDFn(ctx, id)
}

func (m *mockTaskRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.BatchTask, error) {
	return m.listByUserFn(ctx, userID, limit, offset)
}

func (m *mockTaskRepo) GetStatus(ctx context.Context, id string) (domain.TaskStatus, error) {
	return m.getStatusFn(ctx, id)
}

func (m *mockTaskRepo) MarkProcessing(ctx context.Context, id string) error {
	return m.markProcessingFn(ctx, id)
}

func (m *mockTaskRepo) IncrementProgress(ctx context.Context, id string, itemFailed bool) error {
	return m.incrementProgressFn(ctx, id, itemFailed)
}

func (m *mockTaskRepo) Finalize(ctx context.Context, id string) error {
	return m.finalizeFn(ctx, id)
}

func (m *mockTaskRepo) MarkFailed(ctx context.Context, id string, errMsg string) error {
	return m.markFailedFn(ctx, id, errMsg)
}

func (m *mockTaskRepo) MarkCancelled(ctx context.Context, id string) error {
	return m.markCancelledFn(ctx, id)
}

func (m *mockTaskRepo) SetPackage(ctx context.Context, id string, packageKey string, packagedAt time.Time) error {
	return m.setPackageFn(ctx, id, packageKey, packagedAt)
}

// MOCK JOB REPOSITORY

type mockJobRepo struct {
	createBatchFn   func(ctx context.Context, jobs []*domain.ProcessingJob) error
	createFn        func(ctx context.Context, job *domain.ProcessingJob) error
	findByIDFn      func(ctx context.Context, id string) (*domain.ProcessingJob, error)
	listByTaskFn    func(ctx context.Context, taskID string) ([]*domain.ProcessingJob, error)
	updateFn        func(ctx context.Context, job *domain.ProcessingJob) error
	cancelPendingFn func(ctx context.Context, taskID string) (int64, error)
}

func (m *mockJobRepo) CreateBatch(ctx context.Context, jobs []*domain.ProcessingJob) error {
	return m.createBatchFn(ctx, jobs)
}

func (m *mockJobRepo) Create(ctx context.Context, job *domain.ProcessingJob) error {
	return m.createFn(ctx, job)
}

func (m *mockJobRepo) FindByID(ctx context.Context, id string) (*domain.ProcessingJob, error) {
	return m.findByIDFn(ctx, id)
}

func (m *mockJobRepo) ListByTask(ctx context.Context, taskID string) ([]*domain.ProcessingJob, error) {
	return m.listByTaskFn(ctx, taskID)
}

func (m *mockJobRepo) Update(ctx context.Context, job *domain.ProcessingJob) error {
	return m.updateFn(ctx, job)
}

func (m *mockJobRepo) CancelPending(ctx context.Context, taskID string) (int64, error) {
	return m.cancelPendingFn(ctx, taskID)
}

// MOCK PROCESSOR

type mockProcessor struct {
	processFn func(ctx context.Context, task *domain.BatchTask, imageID string, jobs []*domain.ProcessingJob) error
}

func (m *mockProcessor) ProcessImageItem(ctx context.Context, task *domain.BatchTask, imageID string, jobs []*domain.ProcessingJob) error {
	return m.processFn(ctx, task, imageID, jobs)
}
