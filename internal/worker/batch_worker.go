package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/wb-go/wbf/zlog"

	"github.com/prodpix/prodpix/internal/domain"
	"github.com/prodpix/prodpix/internal/dto"
)

// BatchWorker drains one batch dispatch at a time, fanning its images out
// over a bounded goroutine pool. Each image settles exactly one counter
// increment no matter how its jobs end.
type BatchWorker struct {
	taskRepo  domain.TaskRepository
	jobRepo   domain.JobRepository
	processor domain.ProcessorService
	poolSize  int
}

func NewBatchWorker(
	taskRepo domain.TaskRepository,
	jobRepo domain.JobRepository,
	processor domain.ProcessorService,
	poolSize int,
) *BatchWorker {
	if poolSize <= 0 {
		poolSize = 4
	}
	return &BatchWorker{
		taskRepo:  taskRepo,
		jobRepo:   jobRepo,
		processor: processor,
		poolSize:  poolSize,
	}
}

func (w *BatchWorker) HandleBatchTask(ctx context.Context, dispatch *dto.BatchDispatch) error {
	task, err := w.taskRepo.FindByID(ctx, dispatch.TaskID)
	if err != nil {
		return fmt.Errorf("find task %s: %w", dispatch.TaskID, err)
	}

	if task.IsTerminal() {
		zlog.Logger.Warn().
			Str("task_id", task.ID).
			Str("status", string(task.Status)).
			Msg("dispatch for a settled task, skipping")
		return nil
	}

	if err := w.taskRepo.MarkProcessing(ctx, task.ID); err != nil {
		return fmt.Errorf("mark task processing: %w", err)
	}

	jobs, err := w.jobRepo.ListByTask(ctx, task.ID)
	if err != nil {
		_ = w.taskRepo.MarkFailed(ctx, task.ID, "failed to load jobs")
		return fmt.Errorf("list jobs: %w", err)
	}

	items := groupByImage(jobs)

	zlog.Logger.Info().
		Str("task_id", task.ID).
		Int("images", len(items)).
		Int("pool_size", w.poolSize).
		Msg("batch processing started")

	sem := make(chan struct{}, w.poolSize)
	var wg sync.WaitGroup

	cancelled := false
	for _, item := range items {
		// Settled statuses are settled; a cancel between dispatches stops
		// the fan-out while items already running finish normally.
		status, err := w.taskRepo.GetStatus(ctx, task.ID)
		if err != nil {
			zlog.Logger.Error().Err(err).Str("task_id", task.ID).Msg("failed to read task status")
			break
		}
		if status == domain.StatusCancelled {
			cancelled = true
			break
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(imageID string, imageJobs []*domain.ProcessingJob) {
			defer wg.Done()
			defer func() { <-sem }()

			itemErr := w.processor.ProcessImageItem(ctx, task, imageID, imageJobs)
			if itemErr != nil {
				zlog.Logger.Warn().
					Err(itemErr).
					Str("task_id", task.ID).
					Str("image_id", imageID).
					Msg("image item failed")
			}

			if err := w.taskRepo.IncrementProgress(ctx, task.ID, itemErr != nil); err != nil {
				zlog.Logger.Error().
					Err(err).
					Str("task_id", task.ID).
					Str("image_id", imageID).
					Msg("failed to record item completion")
			}
		}(item.imageID, item.jobs)
	}

	wg.Wait()

	if cancelled {
		if _, err := w.jobRepo.CancelPending(ctx, task.ID); err != nil {
			zlog.Logger.Error().Err(err).Str("task_id", task.ID).Msg("failed to cancel undispatched jobs")
		}
		zlog.Logger.Info().Str("task_id", task.ID).Msg("batch stopped after cancel")
		return nil
	}

	if err := w.taskRepo.Finalize(ctx, task.ID); err != nil {
		return fmt.Errorf("finalize task: %w", err)
	}

	zlog.Logger.Info().Str("task_id", task.ID).Msg("batch processing finished")
	return nil
}

type imageItem struct {
	imageID string
	jobs    []*domain.ProcessingJob
}

// groupByImage splits a task's jobs into per-image work items, keeping
// the repository's job order inside each item. Jobs already settled by a
// cancel or an earlier run are left out.
func groupByImage(jobs []*domain.ProcessingJob) []imageItem {
	index := make(map[string]int)
	var items []imageItem

	for _, job := range jobs {
		if job.Status != domain.StatusPending {
			continue
		}
		i, ok := index[job.ImageID]
		if !ok {
			i = len(items)
			index[job.ImageID] = i
			items = append(items, imageItem{imageID: job.ImageID})
		}
		items[i].jobs = append(items[i].jobs, job)
	}

	return items
}
