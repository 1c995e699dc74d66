package usecase

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/prodpix/prodpix/internal/domain"
)

func validJPEG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 100, G: 100, B: 200, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func originalStorage(t *testing.T, data []byte) *mockStorage {
	return &mockStorage{
		getFn: func(ctx context.Context, key string) (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
		saveOutputFn: func(ctx context.Context, filename string, reader io.Reader) (string, error) {
			return "outputs/" + filename, nil
		},
	}
}

func itemImageRepo() *mockImageRepo {
	return &mockImageRepo{
		findByIDFn: func(ctx context.Context, id string) (*domain.Image, error) {
			return &domain.Image{ID: id, UserID: "user-1", StorageKey: "originals/" + id}, nil
		},
	}
}

func pendingJob(op domain.Operation, params domain.JobParams) *domain.ProcessingJob {
	return &domain.ProcessingJob{
		ID:        "job-1",
		TaskID:    "task-1",
		ImageID:   "img-1",
		Operation: op,
		Params:    params,
		Status:    domain.StatusPending,
		Attempt:   1,
	}
}

// RESIZE - FIRST ATTEMPT SUCCEEDS
func TestProcessorUsecase_ProcessImageItem_ResizeOK(t *testing.T) {
	var updates []domain.TaskStatus

	jobRepo := &mockJobRepo{
		updateFn: func(ctx context.Context, job *domain.ProcessingJob) error {
			updates = append(updates, job.Status)
			return nil
		},
	}

	u := NewProcessorUsecase(
		itemImageRepo(), jobRepo, originalStorage(t, validJPEG(t, 200, 100)),
		&mockModels{}, 95, 5*time.Second,
	)

	job := pendingJob(domain.OperationResize, domain.JobParams{
		Op:     domain.OperationResize,
		Resize: &domain.ResizeParams{Width: 50, Height: 50, Fit: domain.FitCover},
	})

	task := &domain.BatchTask{ID: "task-1", Status: domain.StatusProcessing}
	err := u.ProcessImageItem(context.Background(), task, "img-1", []*domain.ProcessingJob{job})
	require.NoError(t, err)

	require.Equal(t, []domain.TaskStatus{domain.StatusProcessing, domain.StatusCompleted}, updates)
	require.Equal(t, "outputs/task-1_img-1_job-1.jpg", job.OutputKey)
	require.Equal(t, domain.DefaultQualityScore, job.QualityScore)
}

// QUALITY SCORE - MODEL SELF-ASSESSMENT LANDS ON THE JOB RECORD
func TestProcessorUsecase_QualityScorePersisted(t *testing.T) {
	original := validJPEG(t, 100, 100)

	models := &mockModels{
		detectTextFn: func(ctx context.Context, image []byte) ([]domain.Region, error) {
			return []domain.Region{{X: 10, Y: 10, Width: 20, Height: 20}}, nil
		},
		inpaintFn: func(ctx context.Context, image []byte, mask []byte) ([]byte, float64, error) {
			return image, 4.2, nil
		},
	}
	var persisted float64
	jobRepo := &mockJobRepo{
		updateFn: func(ctx context.Context, job *domain.ProcessingJob) error {
			if job.Status == domain.StatusCompleted {
				persisted = job.QualityScore
			}
			return nil
		},
	}

	u := NewProcessorUsecase(itemImageRepo(), jobRepo, originalStorage(t, original), models, 95, 5*time.Second)

	job := pendingJob(domain.OperationTextRemoval, domain.JobParams{Op: domain.OperationTextRemoval})

	task := &domain.BatchTask{ID: "task-1", Status: domain.StatusProcessing}
	err := u.ProcessImageItem(context.Background(), task, "img-1", []*domain.ProcessingJob{job})
	require.NoError(t, err)
	require.Equal(t, 4.2, job.QualityScore)
	require.Equal(t, 4.2, persisted)
}

// TRANSIENT - EACH RETRY IS A NEW RECORD, CAPPED AT THREE ATTEMPTS
func TestProcessorUsecase_TransientRetriesAsNewRecords(t *testing.T) {
	attempts := 0
	var retries []*domain.ProcessingJob

	models := &mockModels{
		detectTextFn: func(ctx context.Context, image []byte) ([]domain.Region, error) {
			attempts++
			return nil, fmt.Errorf("%w: model overloaded", domain.ErrModelTransient)
		},
	}
	jobRepo := &mockJobRepo{
		updateFn: func(ctx context.Context, job *domain.ProcessingJob) error { return nil },
		createFn: func(ctx context.Context, job *domain.ProcessingJob) error {
			retries = append(retries, job)
			return nil
		},
	}

	u := NewProcessorUsecase(
		itemImageRepo(), jobRepo, originalStorage(t, validJPEG(t, 100, 100)),
		models, 95, 5*time.Second,
	)

	job := pendingJob(domain.OperationTextRemoval, domain.JobParams{Op: domain.OperationTextRemoval})

	task := &domain.BatchTask{ID: "task-1", Status: domain.StatusProcessing}
	err := u.ProcessImageItem(context.Background(), task, "img-1", []*domain.ProcessingJob{job})
	require.ErrorIs(t, err, domain.ErrModelTransient)

	require.Equal(t, domain.MaxJobAttempts, attempts)
	require.Len(t, retries, domain.MaxJobAttempts-1)

	require.Equal(t, 2, retries[0].Attempt)
	require.Equal(t, "job-1", retries[0].ParentJobID)
	require.Equal(t, 3, retries[1].Attempt)
	require.Equal(t, retries[0].ID, retries[1].ParentJobID)
}

// PERMANENT - NO RETRY
func TestProcessorUsecase_PermanentFailsImmediately(t *testing.T) {
	attempts := 0

	models := &mockModels{
		detectTextFn: func(ctx context.Context, image []byte) ([]domain.Region, error) {
			attempts++
			return nil, fmt.Errorf("%w: unsupported payload", domain.ErrModelPermanent)
		},
	}
	jobRepo := &mockJobRepo{
		updateFn: func(ctx context.Context, job *domain.ProcessingJob) error { return nil },
		createFn: func(ctx context.Context, job *domain.ProcessingJob) error {
			t.Fatal("permanent failures must not spawn retries")
			return nil
		},
	}

	u := NewProcessorUsecase(
		itemImageRepo(), jobRepo, originalStorage(t, validJPEG(t, 100, 100)),
		models, 95, 5*time.Second,
	)

	job := pendingJob(domain.OperationTextRemoval, domain.JobParams{Op: domain.OperationTextRemoval})

	task := &domain.BatchTask{ID: "task-1", Status: domain.StatusProcessing}
	err := u.ProcessImageItem(context.Background(), task, "img-1", []*domain.ProcessingJob{job})
	require.ErrorIs(t, err, domain.ErrModelPermanent)
	require.Equal(t, 1, attempts)
	require.Equal(t, domain.StatusFailed, job.Status)
}

// TIMEOUT - COUNTS AS TRANSIENT
func TestProcessorUsecase_TimeoutIsTransient(t *testing.T) {
	attempts := 0

	models := &mockModels{
		detectTextFn: func(ctx context.Context, image []byte) ([]domain.Region, error) {
			attempts++
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	jobRepo := &mockJobRepo{
		updateFn: func(ctx context.Context, job *domain.ProcessingJob) error { return nil },
		createFn: func(ctx context.Context, job *domain.ProcessingJob) error { return nil },
	}

	u := NewProcessorUsecase(
		itemImageRepo(), jobRepo, originalStorage(t, validJPEG(t, 100, 100)),
		models, 95, 10*time.Millisecond,
	)

	job := pendingJob(domain.OperationTextRemoval, domain.JobParams{Op: domain.OperationTextRemoval})

	task := &domain.BatchTask{ID: "task-1", Status: domain.StatusProcessing}
	err := u.ProcessImageItem(context.Background(), task, "img-1", []*domain.ProcessingJob{job})
	require.ErrorIs(t, err, domain.ErrModelTransient)
	require.Equal(t, domain.MaxJobAttempts, attempts)
}

// TEXT REMOVAL - NO REGIONS MEANS PASSTHROUGH
func TestProcessorUsecase_TextRemoval_NoRegionsPassthrough(t *testing.T) {
	original := validJPEG(t, 100, 100)

	inpaintCalled := false
	models := &mockModels{
		detectTextFn: func(ctx context.Context, image []byte) ([]domain.Region, error) {
			return nil, nil
		},
		inpaintFn: func(ctx context.Context, image []byte, mask []byte) ([]byte, float64, error) {
			inpaintCalled = true
			return image, 0, nil
		},
	}

	var savedOutput []byte
	st := &mockStorage{
		getFn: func(ctx context.Context, key string) (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(original)), nil
		},
		saveOutputFn: func(ctx context.Context, filename string, reader io.Reader) (string, error) {
			data, err := io.ReadAll(reader)
			require.NoError(t, err)
			savedOutput = data
			return "outputs/" + filename, nil
		},
	}
	jobRepo := &mockJobRepo{
		updateFn: func(ctx context.Context, job *domain.ProcessingJob) error { return nil },
	}

	u := NewProcessorUsecase(itemImageRepo(), jobRepo, st, models, 95, 5*time.Second)

	job := pendingJob(domain.OperationTextRemoval, domain.JobParams{Op: domain.OperationTextRemoval})

	task := &domain.BatchTask{ID: "task-1", Status: domain.StatusProcessing}
	err := u.ProcessImageItem(context.Background(), task, "img-1", []*domain.ProcessingJob{job})
	require.NoError(t, err)
	require.False(t, inpaintCalled)
	require.Equal(t, original, savedOutput)
}

// CHAIN - EACH JOB FEEDS THE NEXT
func TestProcessorUsecase_JobsChainOutputs(t *testing.T) {
	var detectInput []byte
	models := &mockModels{
		detectTextFn: func(ctx context.Context, image []byte) ([]domain.Region, error) {
			detectInput = image
			return nil, nil
		},
	}
	jobRepo := &mockJobRepo{
		updateFn: func(ctx context.Context, job *domain.ProcessingJob) error { return nil },
	}

	u := NewProcessorUsecase(
		itemImageRepo(), jobRepo, originalStorage(t, validJPEG(t, 400, 400)),
		models, 95, 5*time.Second,
	)

	resizeJob := pendingJob(domain.OperationResize, domain.JobParams{
		Op:     domain.OperationResize,
		Resize: &domain.ResizeParams{Width: 100, Height: 100, Fit: domain.FitStretch},
	})
	textJob := pendingJob(domain.OperationTextRemoval, domain.JobParams{Op: domain.OperationTextRemoval})
	textJob.ID = "job-2"

	task := &domain.BatchTask{ID: "task-1", Status: domain.StatusProcessing}
	err := u.ProcessImageItem(context.Background(), task, "img-1",
		[]*domain.ProcessingJob{resizeJob, textJob})
	require.NoError(t, err)

	// The second job saw the resized image, not the 400x400 original.
	require.NotNil(t, detectInput)
	img, err := jpeg.Decode(bytes.NewReader(detectInput))
	require.NoError(t, err)
	require.Equal(t, 100, img.Bounds().Dx())
}
