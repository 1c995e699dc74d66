package domain

import (
	"context"
	"io"
)

// Region is an axis-aligned box returned by text detection, in pixel
// coordinates of the analyzed image.
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DefaultQualityScore stands in for model responses that carry no
// self-assessment and for deterministic operations.
const DefaultQualityScore = 4.5

// ModelAdapter calls the remote vision models. Images and masks cross the
// boundary as encoded PNG/JPEG bytes. Generative calls also return the
// model's quality self-assessment on a 0-5 scale.
type ModelAdapter interface {
	DetectText(ctx context.Context, image []byte) ([]Region, error)
	Inpaint(ctx context.Context, image []byte, mask []byte) ([]byte, float64, error)
	SegmentSubject(ctx context.Context, image []byte) ([]byte, error)
	GenerateBackground(ctx context.Context, prompt string, width, height int) ([]byte, float64, error)
}

type CopyPlatform string

const (
	PlatformAmazon     CopyPlatform = "amazon"
	PlatformTikTok     CopyPlatform = "tiktok"
	PlatformInstagram  CopyPlatform = "instagram"
	PlatformStorefront CopyPlatform = "storefront"
)

func (p CopyPlatform) Valid() bool {
	switch p {
	case PlatformAmazon, PlatformTikTok, PlatformInstagram, PlatformStorefront:
		return true
	}
	return false
}

type CopyRequest struct {
	Platform    CopyPlatform `json:"platform"`
	ProductName string       `json:"product_name"`
	Features    []string     `json:"features,omitempty"`
	Tone        string       `json:"tone,omitempty"`
	Language    string       `json:"language,omitempty"`
}

type CopyResult struct {
	Platform    CopyPlatform `json:"platform"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Bullets     []string     `json:"bullets,omitempty"`
	Hashtags    []string     `json:"hashtags,omitempty"`
}

// CopyGenerator produces marketing copy for a product listing.
type CopyGenerator interface {
	GenerateCopy(ctx context.Context, req CopyRequest) (*CopyResult, error)
}

type ImageService interface {
	UploadImage(ctx context.Context, userID, filename, mimeType string, size int64, reader io.Reader) (*Image, error)
	GetImage(ctx context.Context, userID, id string) (*Image, error)
	GetImageFile(ctx context.Context, userID, id string) (io.ReadCloser, string, error)
	DeleteImage(ctx context.Context, userID, id string) error
	ListImages(ctx context.Context, userID string, limit, offset int) ([]*Image, error)
}

type BatchService interface {
	CreateBatch(ctx context.Context, userID string, imageIDs []string, operations []JobParams) (*BatchTask, *Admission, error)
	GetTask(ctx context.Context, userID, taskID string) (*BatchTask, error)
	ListTasks(ctx context.Context, userID string, limit, offset int) ([]*BatchTask, error)
	GetResults(ctx context.Context, userID, taskID string) (*BatchTask, []*ProcessingJob, error)
	GetJobOutput(ctx context.Context, userID, jobID string) (io.ReadCloser, string, error)
	CancelTask(ctx context.Context, userID, taskID string) (*BatchTask, error)
	PackageResults(ctx context.Context, userID, taskID string) (*BatchTask, error)

	// DownloadPackage resolves the task's zip. It returns a presigned URL
	// when the backend supports one, otherwise an open reader to stream,
	// plus the suggested filename.
	DownloadPackage(ctx context.Context, userID, taskID string) (string, io.ReadCloser, string, error)
}

type ProcessorService interface {
	// ProcessImageItem runs every job of one image sequentially and reports
	// whether the item as a whole succeeded.
	ProcessImageItem(ctx context.Context, task *BatchTask, imageID string, jobs []*ProcessingJob) error
}

type SubscriptionService interface {
	GetSubscription(ctx context.Context, userID string) (*Subscription, error)
	ChangePlan(ctx context.Context, userID string, plan Plan) (*Subscription, error)
	AddCredits(ctx context.Context, userID string, credits int) (*Subscription, error)
	Reserve(ctx context.Context, userID string, count int) (*Admission, error)

	// Release returns a reservation that never turned into work, such as a
	// batch whose persistence or dispatch failed after admission.
	Release(ctx context.Context, userID string, count int) error
}

type QueueService interface {
	PublishBatchTask(ctx context.Context, taskID string) error
	Close() error
}
