package domain

import "errors"

var (
	ErrImageNotFound        = errors.New("image not found")
	ErrTaskNotFound         = errors.New("task not found")
	ErrJobNotFound          = errors.New("job not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")

	ErrInvalidFormat    = errors.New("invalid or unsupported image format")
	ErrFileTooLarge     = errors.New("file size exceeds maximum allowed")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrInvalidStyle     = errors.New("unknown background style")
	ErrInvalidPlan      = errors.New("unknown plan")

	ErrEmptyBatch         = errors.New("batch contains no images")
	ErrBatchTooLarge      = errors.New("batch exceeds maximum image count")
	ErrInsufficientQuota  = errors.New("insufficient quota for batch")
	ErrTaskNotCancellable = errors.New("task is already in a terminal state")

	ErrPackageNotReady = errors.New("download package is not ready")
	ErrPackageExpired  = errors.New("download package has expired")

	// Model call outcomes. Transient failures are retried as new job
	// records; permanent ones fail the job immediately.
	ErrModelTransient = errors.New("transient model error")
	ErrModelPermanent = errors.New("permanent model error")
)
