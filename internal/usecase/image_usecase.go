package usecase

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"

	"github.com/prodpix/prodpix/internal/domain"
	"github.com/prodpix/prodpix/internal/infrastructure/storage"
)

type ImageUsecase struct {
	repo    domain.ImageRepository
	storage storage.Storage
}

func NewImageUsecase(repo domain.ImageRepository, storage storage.Storage) *ImageUsecase {
	return &ImageUsecase{
		repo:    repo,
		storage: storage,
	}
}

func (u *ImageUsecase) UploadImage(
	ctx context.Context,
	userID string,
	filename string,
	mimeType string,
	size int64,
	reader io.Reader,
) (*domain.Image, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	// Dimensions are informational; a file the decoders reject is still
	// refused outright.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		zlog.Logger.Warn().Err(err).Str("filename", filename).Msg("failed to decode uploaded image")
		return nil, domain.ErrInvalidFormat
	}

	imageID := uuid.New().String()
	ext := filepath.Ext(filename)
	uniqueFilename := fmt.Sprintf("%s%s", imageID, ext)

	storageKey, err := u.storage.SaveOriginal(ctx, uniqueFilename, bytes.NewReader(data))
	if err != nil {
		zlog.Logger.Error().Err(err).Str("filename", filename).Msg("failed to save original file")
		return nil, fmt.Errorf("save original: %w", err)
	}

	img := &domain.Image{
		ID:               imageID,
		UserID:           userID,
		OriginalFilename: filename,
		MimeType:         mimeType,
		Size:             size,
		Width:            cfg.Width,
		Height:           cfg.Height,
		StorageKey:       storageKey,
		CreatedAt:        time.Now(),
	}

	if err := u.repo.Create(ctx, img); err != nil {
		_ = u.storage.Delete(ctx, storageKey)
		zlog.Logger.Error().Err(err).Str("image_id", imageID).Msg("failed to create image record")
		return nil, fmt.Errorf("create image: %w", err)
	}

	zlog.Logger.Info().
		Str("image_id", imageID).
		Str("user_id", userID).
		Str("filename", filename).
		Msg("image uploaded successfully")

	return img, nil
}

func (u *ImageUsecase) GetImage(ctx context.Context, userID, id string) (*domain.Image, error) {
	img, err := u.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !img.OwnedBy(userID) {
		return nil, domain.ErrImageNotFound
	}
	return img, nil
}

func (u *ImageUsecase) GetImageFile(ctx context.Context, userID, id string) (io.ReadCloser, string, error) {
	img, err := u.GetImage(ctx, userID, id)
	if err != nil {
		return nil, "", err
	}

	file, err := u.storage.Get(ctx, img.StorageKey)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("image_id", id).Str("key", img.StorageKey).Msg("failed to get original file")
		return nil, "", err
	}

	return file, img.OriginalFilename, nil
}

func (u *ImageUsecase) DeleteImage(ctx context.Context, userID, id string) error {
	img, err := u.GetImage(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := u.storage.Delete(ctx, img.StorageKey); err != nil {
		zlog.Logger.Error().Err(err).Str("image_id", id).Msg("failed to delete stored file")
	}

	if err := u.repo.Delete(ctx, id); err != nil {
		zlog.Logger.Error().Err(err).Str("image_id", id).Msg("failed to delete image record")
		return err
	}

	zlog.Logger.Info().Str("image_id", id).Msg("image deleted successfully")
	return nil
}

func (u *ImageUsecase) ListImages(ctx context.Context, userID string, limit, offset int) ([]*domain.Image, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	images, err := u.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("user_id", userID).Msg("failed to list images")
		return nil, err
	}
	return images, nil
}
