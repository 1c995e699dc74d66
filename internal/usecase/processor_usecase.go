package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"

	"github.com/prodpix/prodpix/internal/domain"
	"github.com/prodpix/prodpix/internal/infrastructure/storage"
	"github.com/prodpix/prodpix/internal/processing"
)

type ProcessorUsecase struct {
	imageRepo   domain.ImageRepository
	jobRepo     domain.JobRepository
	storage     storage.Storage
	models      domain.ModelAdapter
	quality     int
	itemTimeout time.Duration
}

func NewProcessorUsecase(
	imageRepo domain.ImageRepository,
	jobRepo domain.JobRepository,
	storage storage.Storage,
	models domain.ModelAdapter,
	quality int,
	itemTimeout time.Duration,
) *ProcessorUsecase {
	return &ProcessorUsecase{
		imageRepo:   imageRepo,
		jobRepo:     jobRepo,
		storage:     storage,
		models:      models,
		quality:     quality,
		itemTimeout: itemTimeout,
	}
}

// ProcessImageItem runs the image's jobs in order, feeding each job's
// output into the next. A transient failure closes the job record and
// opens a fresh one for the next attempt; the item fails once a job
// exhausts its attempts or hits a permanent error.
func (u *ProcessorUsecase) ProcessImageItem(
	ctx context.Context,
	task *domain.BatchTask,
	imageID string,
	jobs []*domain.ProcessingJob,
) error {
	img, err := u.imageRepo.FindByID(ctx, imageID)
	if err != nil {
		return fmt.Errorf("find image: %w", err)
	}

	original, err := u.storage.Get(ctx, img.StorageKey)
	if err != nil {
		return fmt.Errorf("get original: %w", err)
	}
	data, err := io.ReadAll(original)
	original.Close()
	if err != nil {
		return fmt.Errorf("read original: %w", err)
	}

	current := data
	for _, job := range jobs {
		output, err := u.runJobChain(ctx, task, img, job, current)
		if err != nil {
			return err
		}
		current = output
	}

	return nil
}

// runJobChain drives one job through its attempts. Each retry is a new
// record linked to the one it replaces, so the full history survives.
func (u *ProcessorUsecase) runJobChain(
	ctx context.Context,
	task *domain.BatchTask,
	img *domain.Image,
	job *domain.ProcessingJob,
	input []byte,
) ([]byte, error) {
	for {
		job.MarkAsProcessing()
		if err := u.jobRepo.Update(ctx, job); err != nil {
			return nil, fmt.Errorf("update job: %w", err)
		}

		output, score, err := u.runAttempt(ctx, job, input)
		if err == nil {
			outputKey, saveErr := u.saveOutput(ctx, task.ID, img.ID, job, output)
			if saveErr != nil {
				err = fmt.Errorf("%w: %v", domain.ErrModelTransient, saveErr)
			} else {
				job.MarkAsCompleted(outputKey, score)
				if err := u.jobRepo.Update(ctx, job); err != nil {
					return nil, fmt.Errorf("update job: %w", err)
				}

				zlog.Logger.Info().
					Str("job_id", job.ID).
					Str("operation", string(job.Operation)).
					Int("attempt", job.Attempt).
					Msg("job completed")
				return output, nil
			}
		}

		job.MarkAsFailed(err.Error())
		if updateErr := u.jobRepo.Update(ctx, job); updateErr != nil {
			return nil, fmt.Errorf("update job: %w", updateErr)
		}

		if errors.Is(err, domain.ErrModelPermanent) || job.Attempt >= domain.MaxJobAttempts {
			zlog.Logger.Warn().
				Err(err).
				Str("job_id", job.ID).
				Str("operation", string(job.Operation)).
				Int("attempt", job.Attempt).
				Msg("job failed terminally")
			return nil, err
		}

		retry := job.NewRetry(uuid.New().String())
		if err := u.jobRepo.Create(ctx, retry); err != nil {
			return nil, fmt.Errorf("create retry job: %w", err)
		}

		zlog.Logger.Info().
			Str("job_id", job.ID).
			Str("retry_job_id", retry.ID).
			Int("attempt", retry.Attempt).
			Msg("retrying job as new record")

		job = retry
	}
}

// runAttempt executes one operation under the per-item timeout. A timeout
// counts as transient.
func (u *ProcessorUsecase) runAttempt(ctx context.Context, job *domain.ProcessingJob, input []byte) ([]byte, float64, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, u.itemTimeout)
	defer cancel()

	output, score, err := u.runOperation(attemptCtx, job, input)
	if err != nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return nil, 0, fmt.Errorf("%w: operation timed out after %s", domain.ErrModelTransient, u.itemTimeout)
	}
	return output, score, err
}

func (u *ProcessorUsecase) runOperation(ctx context.Context, job *domain.ProcessingJob, input []byte) ([]byte, float64, error) {
	switch job.Operation {
	case domain.OperationTextRemoval:
		return u.removeText(ctx, job, input)
	case domain.OperationBackgroundReplacement:
		return u.replaceBackground(ctx, job, input)
	case domain.OperationResize:
		return u.resize(job, input)
	default:
		return nil, 0, fmt.Errorf("%w: %s", domain.ErrModelPermanent, job.Operation)
	}
}

func (u *ProcessorUsecase) removeText(ctx context.Context, job *domain.ProcessingJob, input []byte) ([]byte, float64, error) {
	regions, err := u.models.DetectText(ctx, input)
	if err != nil {
		return nil, 0, err
	}

	// No detected text means the image passes through untouched.
	if len(regions) == 0 {
		return input, domain.DefaultQualityScore, nil
	}

	img, err := processing.Decode(bytes.NewReader(input))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrModelPermanent, err)
	}

	mask := processing.BuildMask(img.Bounds(), regions, processing.DefaultRegionPadding, job.Params.FeatherPx())
	maskPNG, err := processing.EncodePNG(mask)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrModelPermanent, err)
	}

	return u.models.Inpaint(ctx, input, maskPNG)
}

func (u *ProcessorUsecase) replaceBackground(ctx context.Context, job *domain.ProcessingJob, input []byte) ([]byte, float64, error) {
	subject, err := processing.Decode(bytes.NewReader(input))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrModelPermanent, err)
	}

	prompt := ""
	if job.Params.Background != nil {
		if job.Params.Background.CustomPrompt != "" {
			prompt = job.Params.Background.CustomPrompt
		} else if p, ok := domain.StylePrompt(job.Params.Background.StyleID); ok {
			prompt = p
		}
	}
	if prompt == "" {
		return nil, 0, fmt.Errorf("%w: no background prompt", domain.ErrModelPermanent)
	}

	maskBytes, err := u.models.SegmentSubject(ctx, input)
	if err != nil {
		return nil, 0, err
	}
	maskImg, err := processing.Decode(bytes.NewReader(maskBytes))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: bad segmentation mask: %v", domain.ErrModelTransient, err)
	}

	bgBytes, score, err := u.models.GenerateBackground(ctx, prompt, subject.Bounds().Dx(), subject.Bounds().Dy())
	if err != nil {
		return nil, 0, err
	}
	background, err := processing.Decode(bytes.NewReader(bgBytes))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: bad generated background: %v", domain.ErrModelTransient, err)
	}

	composed := processing.Composite(subject, grayOf(maskImg), background)
	out, err := processing.EncodeJPEG(composed, u.quality)
	if err != nil {
		return nil, 0, err
	}
	return out, score, nil
}

func (u *ProcessorUsecase) resize(job *domain.ProcessingJob, input []byte) ([]byte, float64, error) {
	img, err := processing.Decode(bytes.NewReader(input))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrModelPermanent, err)
	}

	resized, err := processing.Resize(img, job.Params.Resize)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrModelPermanent, err)
	}

	out, err := processing.EncodeJPEG(resized, u.quality)
	if err != nil {
		return nil, 0, err
	}
	return out, domain.DefaultQualityScore, nil
}

func (u *ProcessorUsecase) saveOutput(ctx context.Context, taskID, imageID string, job *domain.ProcessingJob, output []byte) (string, error) {
	filename := fmt.Sprintf("%s_%s_%s.jpg", taskID, imageID, job.ID)
	return u.storage.SaveOutput(ctx, filename, bytes.NewReader(output))
}

func grayOf(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, img.At(x, y))
		}
	}
	return gray
}
