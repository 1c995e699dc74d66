package worker

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prodpix/prodpix/internal/domain"
	"github.com/prodpix/prodpix/internal/dto"
)

func pendingJobs(taskID string, images int, opsPerImage int) []*domain.ProcessingJob {
	var jobs []*domain.ProcessingJob
	for i := 0; i < images; i++ {
		for j := 0; j < opsPerImage; j++ {
			jobs = append(jobs, &domain.ProcessingJob{
				ID:      "job-" + strconv.Itoa(i) + "-" + strconv.Itoa(j),
				TaskID:  taskID,
				ImageID: "img-" + strconv.Itoa(i),
				Status:  domain.StatusPending,
				Attempt: 1,
			})
		}
	}
	return jobs
}

// FULL RUN - MIXED RESULTS STILL COMPLETE THE BATCH
func TestBatchWorker_HandleBatchTask_MixedResults(t *testing.T) {
	taskID := "task-1"

	var mu sync.Mutex
	processed, failed := 0, 0
	finalized := false

	taskRepo := &mockTaskRepo{
		findByIDFn: func(ctx context.Context, id string) (*domain.BatchTask, error) {
			return &domain.BatchTask{ID: id, Status: domain.StatusPending, TotalImages: 5}, nil
		},
		markProcessingFn: func(ctx context.Context, id string) error { return nil },
		getStatusFn: func(ctx context.Context, id string) (domain.TaskStatus, error) {
			return domain.StatusProcessing, nil
		},
		incrementProgressFn: func(ctx context.Context, id string, itemFailed bool) error {
			mu.Lock()
			defer mu.Unlock()
			if itemFailed {
				failed++
			} else {
				processed++
			}
			return nil
		},
		finalizeFn: func(ctx context.Context, id string) error {
			finalized = true
			return nil
		},
	}
	jobRepo := &mockJobRepo{
		listByTaskFn: func(ctx context.Context, id string) ([]*domain.ProcessingJob, error) {
			return pendingJobs(taskID, 5, 1), nil
		},
	}
	processor := &mockProcessor{
		processFn: func(ctx context.Context, task *domain.BatchTask, imageID string, jobs []*domain.ProcessingJob) error {
			// Two of the five images fail.
			if imageID == "img-1" || imageID == "img-3" {
				return errors.New("model error")
			}
			return nil
		},
	}

	w := NewBatchWorker(taskRepo, jobRepo, processor, 2)

	err := w.HandleBatchTask(context.Background(), &dto.BatchDispatch{TaskID: taskID})
	require.NoError(t, err)

	require.Equal(t, 3, processed)
	require.Equal(t, 2, failed)
	require.True(t, finalized)
}

// CANCEL - STOPS DISPATCH, IN-FLIGHT ITEMS STILL COUNT
func TestBatchWorker_HandleBatchTask_CancelStopsDispatch(t *testing.T) {
	taskID := "task-1"

	var mu sync.Mutex
	statusChecks := 0
	dispatched := 0
	increments := 0
	sweptPending := false
	finalized := false

	taskRepo := &mockTaskRepo{
		findByIDFn: func(ctx context.Context, id string) (*domain.BatchTask, error) {
			return &domain.BatchTask{ID: id, Status: domain.StatusPending, TotalImages: 5}, nil
		},
		markProcessingFn: func(ctx context.Context, id string) error { return nil },
		getStatusFn: func(ctx context.Context, id string) (domain.TaskStatus, error) {
			mu.Lock()
			defer mu.Unlock()
			// Cancel lands after two items were handed out.
			statusChecks++
			if statusChecks > 2 {
				return domain.StatusCancelled, nil
			}
			return domain.StatusProcessing, nil
		},
		incrementProgressFn: func(ctx context.Context, id string, itemFailed bool) error {
			mu.Lock()
			defer mu.Unlock()
			increments++
			return nil
		},
		finalizeFn: func(ctx context.Context, id string) error {
			finalized = true
			return nil
		},
	}
	jobRepo := &mockJobRepo{
		listByTaskFn: func(ctx context.Context, id string) ([]*domain.ProcessingJob, error) {
			return pendingJobs(taskID, 5, 1), nil
		},
		cancelPendingFn: func(ctx context.Context, id string) (int64, error) {
			sweptPending = true
			return 3, nil
		},
	}
	processor := &mockProcessor{
		processFn: func(ctx context.Context, task *domain.BatchTask, imageID string, jobs []*domain.ProcessingJob) error {
			mu.Lock()
			dispatched++
			mu.Unlock()
			return nil
		},
	}

	w := NewBatchWorker(taskRepo, jobRepo, processor, 1)

	err := w.HandleBatchTask(context.Background(), &dto.BatchDispatch{TaskID: taskID})
	require.NoError(t, err)

	require.True(t, sweptPending)
	require.False(t, finalized, "cancelled batches must not finalize")
	require.Equal(t, 2, dispatched)
	require.Equal(t, 2, increments, "every dispatched item settles one increment")
}

// REDELIVERY - SETTLED TASK IS SKIPPED
func TestBatchWorker_HandleBatchTask_SkipsTerminalTask(t *testing.T) {
	taskRepo := &mockTaskRepo{
		findByIDFn: func(ctx context.Context, id string) (*domain.BatchTask, error) {
			return &domain.BatchTask{ID: id, Status: domain.StatusCompleted}, nil
		},
	}
	processor := &mockProcessor{
		processFn: func(ctx context.Context, task *domain.BatchTask, imageID string, jobs []*domain.ProcessingJob) error {
			t.Fatal("settled task must not be processed")
			return nil
		},
	}

	w := NewBatchWorker(taskRepo, &mockJobRepo{}, processor, 2)

	err := w.HandleBatchTask(context.Background(), &dto.BatchDispatch{TaskID: "task-1"})
	require.NoError(t, err)
}

// JOBS LOAD FAILURE - TASK MARKED FAILED
func TestBatchWorker_HandleBatchTask_ListJobsFails(t *testing.T) {
	markedFailed := false

	taskRepo := &mockTaskRepo{
		findByIDFn: func(ctx context.Context, id string) (*domain.BatchTask, error) {
			return &domain.BatchTask{ID: id, Status: domain.StatusPending}, nil
		},
		markProcessingFn: func(ctx context.Context, id string) error { return nil },
		markFailedFn: func(ctx context.Context, id string, errMsg string) error {
			markedFailed = true
			return nil
		},
	}
	jobRepo := &mockJobRepo{
		listByTaskFn: func(ctx context.Context, id string) ([]*domain.ProcessingJob, error) {
			return nil, errors.New("db down")
		},
	}

	w := NewBatchWorker(taskRepo, jobRepo, &mockProcessor{}, 2)

	err := w.HandleBatchTask(context.Background(), &dto.BatchDispatch{TaskID: "task-1"})
	require.Error(t, err)
	require.True(t, markedFailed)
}

// GROUPING - ONE ITEM PER IMAGE, ORDER PRESERVED, SETTLED JOBS SKIPPED
func TestGroupByImage(t *testing.T) {
	jobs := []*domain.ProcessingJob{
		{ID: "a1", ImageID: "a", Status: domain.StatusPending},
		{ID: "b1", ImageID: "b", Status: domain.StatusPending},
		{ID: "a2", ImageID: "a", Status: domain.StatusPending},
		{ID: "b2", ImageID: "b", Status: domain.StatusCancelled},
		{ID: "c1", ImageID: "c", Status: domain.StatusCompleted},
	}

	items := groupByImage(jobs)
	require.Len(t, items, 2)

	require.Equal(t, "a", items[0].imageID)
	require.Len(t, items[0].jobs, 2)
	require.Equal(t, "a1", items[0].jobs[0].ID)
	require.Equal(t, "a2", items[0].jobs[1].ID)

	require.Equal(t, "b", items[1].imageID)
	require.Len(t, items[1].jobs, 1)
}
