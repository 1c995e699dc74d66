package domain

import (
	"time"
)

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusProcessing TaskStatus = "processing"
	StatusCompleted  TaskStatus = "completed"
	StatusFailed     TaskStatus = "failed"
	StatusCancelled  TaskStatus = "cancelled"
)

// IsTerminal reports whether no further transitions are allowed from s.
// Cancelled tasks still accept progress increments from in-flight items,
// but never leave the cancelled state.
func (s TaskStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

const MaxBatchImages = 50

// BatchTask tracks one batch of images through the worker pool. Counters
// only ever grow; progress is recomputed from them on every increment.
type BatchTask struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	Status          TaskStatus `json:"status"`
	TotalImages     int        `json:"total_images"`
	ProcessedImages int        `json:"processed_images"`
	FailedImages    int        `json:"failed_images"`
	Progress        int        `json:"progress"`
	PackageKey      string     `json:"package_key,omitempty"`
	PackagedAt      *time.Time `json:"packaged_at,omitempty"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

func (t *BatchTask) IsTerminal() bool {
	return t.Status.IsTerminal()
}

func (t *BatchTask) IsCancellable() bool {
	return t.Status == StatusPending || t.Status == StatusProcessing
}

// PackageExpired reports whether the download package built at PackagedAt
// has outlived ttl. A task without a package is not expired, just not ready.
func (t *BatchTask) PackageExpired(ttl time.Duration, now time.Time) bool {
	if t.PackagedAt == nil {
		return false
	}
	return now.After(t.PackagedAt.Add(ttl))
}

// ProcessingJob is one operation applied to one image inside a batch.
// A retried job is a fresh record pointing back via ParentJobID; the
// failed record is preserved as-is.
type ProcessingJob struct {
	ID           string     `json:"id"`
	TaskID       string     `json:"task_id"`
	ImageID      string     `json:"image_id"`
	Operation    Operation  `json:"operation"`
	Params       JobParams  `json:"params"`
	Status       TaskStatus `json:"status"`
	Attempt      int        `json:"attempt"`
	ParentJobID  string     `json:"parent_job_id,omitempty"`
	OutputKey    string     `json:"output_key,omitempty"`
	QualityScore float64    `json:"quality_score,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

const MaxJobAttempts = 3

func (j *ProcessingJob) MarkAsProcessing() {
	j.Status = StatusProcessing
	j.UpdatedAt = time.Now()
}

func (j *ProcessingJob) MarkAsCompleted(outputKey string, qualityScore float64) {
	now := time.Now()
	j.Status = StatusCompleted
	j.OutputKey = outputKey
	j.QualityScore = qualityScore
	j.ErrorMessage = ""
	j.CompletedAt = &now
	j.UpdatedAt = now
}

func (j *ProcessingJob) MarkAsFailed(errMsg string) {
	now := time.Now()
	j.Status = StatusFailed
	j.ErrorMessage = errMsg
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// NewRetry builds the follow-up record for a failed job. The caller is
// responsible for checking the attempt ceiling first.
func (j *ProcessingJob) NewRetry(id string) *ProcessingJob {
	now := time.Now()
	return &ProcessingJob{
		ID:          id,
		TaskID:      j.TaskID,
		ImageID:     j.ImageID,
		Operation:   j.Operation,
		Params:      j.Params,
		Status:      StatusPending,
		Attempt:     j.Attempt + 1,
		ParentJobID: j.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
