package dto

import (
	"time"

	"github.com/prodpix/prodpix/internal/domain"
)

type ImageResponse struct {
	ID               string    `json:"id"`
	OriginalFilename string    `json:"original_filename"`
	MimeType         string    `json:"mime_type"`
	Size             int64     `json:"size"`
	Width            int       `json:"width,omitempty"`
	Height           int       `json:"height,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	OriginalURL      string    `json:"original_url"`
}

type ImageListResponse struct {
	Images []*ImageResponse `json:"images"`
	Total  int              `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

type TaskResponse struct {
	ID              string     `json:"id"`
	Status          string     `json:"status"`
	TotalImages     int        `json:"total_images"`
	ProcessedImages int        `json:"processed_images"`
	FailedImages    int        `json:"failed_images"`
	Progress        int        `json:"progress"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	PackagedAt      *time.Time `json:"packaged_at,omitempty"`

	// EstimatedSecondsLeft is a rough forecast from the running average
	// item duration; omitted once the task is terminal.
	EstimatedSecondsLeft int `json:"estimated_seconds_left,omitempty"`
}

type TaskListResponse struct {
	Tasks  []*TaskResponse `json:"tasks"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type CreateBatchResponse struct {
	Task            *TaskResponse `json:"task"`
	QuotaRemaining  int           `json:"quota_remaining"`
	QuotaLowBalance bool          `json:"quota_low_balance,omitempty"`
}

type JobResponse struct {
	ID        string `json:"id"`
	ImageID   string `json:"image_id"`
	Operation string `json:"operation"`
	Status    string `json:"status"`
	Attempt   int    `json:"attempt"`

	// Params echoes the submitted operation parameters so a client can
	// resubmit a failed item without keeping its own copy.
	Params       *domain.JobParams `json:"params,omitempty"`
	OutputURL    string            `json:"output_url,omitempty"`
	QualityScore float64           `json:"quality_score,omitempty"`
	ErrorMessage string            `json:"error_message,omitempty"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
}

type TaskResultsResponse struct {
	Task *TaskResponse  `json:"task"`
	Jobs []*JobResponse `json:"jobs"`
}

type SubscriptionResponse struct {
	UserID         string    `json:"user_id"`
	Plan           string    `json:"plan"`
	ImagesPerMonth int       `json:"images_per_month"`
	ImagesUsed     int       `json:"images_used"`
	Credits        int       `json:"credits"`
	Remaining      int       `json:"remaining"`
	PeriodStart    time.Time `json:"period_start"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

func MapImageToResponse(img *domain.Image, baseURL string) *ImageResponse {
	if img == nil {
		return nil
	}
	return &ImageResponse{
		ID:               img.ID,
		OriginalFilename: img.OriginalFilename,
		MimeType:         img.MimeType,
		Size:             img.Size,
		Width:            img.Width,
		Height:           img.Height,
		CreatedAt:        img.CreatedAt,
		OriginalURL:      baseURL + "/api/v1/images/" + img.ID + "/file",
	}
}

func MapImagesToResponse(images []*domain.Image, baseURL string, limit, offset int) *ImageListResponse {
	responses := make([]*ImageResponse, 0, len(images))
	for _, img := range images {
		responses = append(responses, MapImageToResponse(img, baseURL))
	}
	return &ImageListResponse{
		Images: responses,
		Total:  len(responses),
		Limit:  limit,
		Offset: offset,
	}
}

func MapTaskToResponse(task *domain.BatchTask) *TaskResponse {
	if task == nil {
		return nil
	}
	resp := &TaskResponse{
		ID:              task.ID,
		Status:          string(task.Status),
		TotalImages:     task.TotalImages,
		ProcessedImages: task.ProcessedImages,
		FailedImages:    task.FailedImages,
		Progress:        task.Progress,
		ErrorMessage:    task.ErrorMessage,
		CreatedAt:       task.CreatedAt,
		UpdatedAt:       task.UpdatedAt,
		CompletedAt:     task.CompletedAt,
		PackagedAt:      task.PackagedAt,
	}
	if !task.IsTerminal() {
		resp.EstimatedSecondsLeft = estimateSecondsLeft(task)
	}
	return resp
}

func MapTasksToResponse(tasks []*domain.BatchTask, limit, offset int) *TaskListResponse {
	responses := make([]*TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		responses = append(responses, MapTaskToResponse(t))
	}
	return &TaskListResponse{
		Tasks:  responses,
		Total:  len(responses),
		Limit:  limit,
		Offset: offset,
	}
}

func MapJobToResponse(job *domain.ProcessingJob, baseURL string) *JobResponse {
	resp := &JobResponse{
		ID:           job.ID,
		ImageID:      job.ImageID,
		Operation:    string(job.Operation),
		Status:       string(job.Status),
		Attempt:      job.Attempt,
		Params:       &job.Params,
		ErrorMessage: job.ErrorMessage,
		CompletedAt:  job.CompletedAt,
	}
	if job.Status == domain.StatusCompleted && job.OutputKey != "" {
		resp.OutputURL = baseURL + "/api/v1/jobs/" + job.ID + "/output"
		resp.QualityScore = job.QualityScore
	}
	return resp
}

func estimateSecondsLeft(task *domain.BatchTask) int {
	done := task.ProcessedImages + task.FailedImages
	if done == 0 || done >= task.TotalImages {
		// Flat guess of 15s per image until the first item lands.
		return (task.TotalImages - done) * 15
	}
	elapsed := time.Since(task.CreatedAt).Seconds()
	perItem := elapsed / float64(done)
	return int(perItem * float64(task.TotalImages-done))
}
