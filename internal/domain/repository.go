package domain

import (
	"context"
	"time"
)

type ImageRepository interface {
	Create(ctx context.Context, image *Image) error
	FindByID(ctx context.Context, id string) (*Image, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Image, error)
	Delete(ctx context.Context, id string) error
}

type TaskRepository interface {
	Create(ctx context.Context, task *BatchTask) error
	FindByID(ctx context.Context, id string) (*BatchTask, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*BatchTask, error)
	GetStatus(ctx context.Context, id string) (TaskStatus, error)

	// MarkProcessing moves a pending task to processing; a no-op when the
	// task already left pending.
	MarkProcessing(ctx context.Context, id string) error

	// IncrementProgress bumps exactly one counter for one finished item and
	// recomputes progress in the same statement. Increments against
	// completed or failed tasks are dropped; cancelled tasks still accept
	// them so in-flight items land in the counters.
	IncrementProgress(ctx context.Context, id string, itemFailed bool) error

	// Finalize moves a processing task to completed. Tasks cancelled while
	// items were in flight are left untouched.
	Finalize(ctx context.Context, id string) error

	MarkFailed(ctx context.Context, id string, errMsg string) error
	MarkCancelled(ctx context.Context, id string) error
	SetPackage(ctx context.Context, id string, packageKey string, packagedAt time.Time) error
}

type JobRepository interface {
	CreateBatch(ctx context.Context, jobs []*ProcessingJob) error
	Create(ctx context.Context, job *ProcessingJob) error
	FindByID(ctx context.Context, id string) (*ProcessingJob, error)
	ListByTask(ctx context.Context, taskID string) ([]*ProcessingJob, error)
	Update(ctx context.Context, job *ProcessingJob) error

	// CancelPending marks every still-pending job of a task cancelled and
	// returns how many were affected.
	CancelPending(ctx context.Context, taskID string) (int64, error)
}

type SubscriptionRepository interface {
	FindByUser(ctx context.Context, userID string) (*Subscription, error)
	Create(ctx context.Context, sub *Subscription) error
	ChangePlan(ctx context.Context, userID string, plan Plan, imagesPerMonth int) error
	AddCredits(ctx context.Context, userID string, credits int) error

	// Consume atomically reserves count images against the user's allowance.
	// It succeeds for at most one of any set of racing callers once the
	// balance runs out, returning ErrInsufficientQuota for the rest.
	Consume(ctx context.Context, userID string, count int) (*Subscription, error)

	// Refund hands back count previously consumed images, never below zero.
	Refund(ctx context.Context, userID string, count int) error
}
