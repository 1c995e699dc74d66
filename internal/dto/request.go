package dto

import "github.com/prodpix/prodpix/internal/domain"

// BatchDispatch is the broker message for a created batch. The worker
// loads everything else from the task store.
type BatchDispatch struct {
	TaskID string `json:"task_id"`
}

type OperationRequest struct {
	Op          string                    `json:"op" binding:"required"`
	Resize      *domain.ResizeParams      `json:"resize,omitempty"`
	Background  *domain.BackgroundParams  `json:"background,omitempty"`
	TextRemoval *domain.TextRemovalParams `json:"text_removal,omitempty"`
}

func (r *OperationRequest) ToJobParams() domain.JobParams {
	return domain.JobParams{
		Op:          domain.Operation(r.Op),
		Resize:      r.Resize,
		Background:  r.Background,
		TextRemoval: r.TextRemoval,
	}
}

type CreateBatchRequest struct {
	ImageIDs   []string           `json:"image_ids" binding:"required"`
	Operations []OperationRequest `json:"operations" binding:"required"`
}

type GenerateCopyRequest struct {
	Platform    string   `json:"platform" binding:"required"`
	ProductName string   `json:"product_name" binding:"required"`
	Features    []string `json:"features,omitempty"`
	Tone        string   `json:"tone,omitempty"`
	Language    string   `json:"language,omitempty"`
}

func (r *GenerateCopyRequest) ToCopyRequest() domain.CopyRequest {
	return domain.CopyRequest{
		Platform:    domain.CopyPlatform(r.Platform),
		ProductName: r.ProductName,
		Features:    r.Features,
		Tone:        r.Tone,
		Language:    r.Language,
	}
}

type ChangePlanRequest struct {
	Plan string `json:"plan" binding:"required"`
}

type AddCreditsRequest struct {
	Credits int `json:"credits" binding:"required"`
}
