package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prodpix/prodpix/internal/domain"
)

// UPLOAD - SUCCESS
func TestImageUsecase_UploadImage_OK(t *testing.T) {
	data := validJPEG(t, 120, 80)

	var created *domain.Image
	repo := &mockImageRepo{
		createFn: func(ctx context.Context, img *domain.Image) error {
			created = img
			return nil
		},
	}
	st := &mockStorage{
		saveOriginalFn: func(ctx context.Context, filename string, reader io.Reader) (string, error) {
			require.Contains(t, filename, ".jpg")
			return "originals/" + filename, nil
		},
	}

	u := NewImageUsecase(repo, st)

	img, err := u.UploadImage(context.Background(), "user-1", "product.jpg", "image/jpeg",
		int64(len(data)), bytes.NewReader(data))
	require.NoError(t, err)
	require.NotNil(t, created)
	require.Equal(t, 120, img.Width)
	require.Equal(t, 80, img.Height)
	require.Equal(t, "product.jpg", img.OriginalFilename)
	require.NotEmpty(t, img.StorageKey)
}

// UPLOAD - NOT AN IMAGE
func TestImageUsecase_UploadImage_InvalidFormat(t *testing.T) {
	u := NewImageUsecase(&mockImageRepo{}, &mockStorage{})

	_, err := u.UploadImage(context.Background(), "user-1", "notes.txt", "text/plain",
		4, bytes.NewReader([]byte("text")))
	require.ErrorIs(t, err, domain.ErrInvalidFormat)
}

// UPLOAD - DB FAILURE ROLLS THE FILE BACK
func TestImageUsecase_UploadImage_CreateFailsCleansUp(t *testing.T) {
	deleted := false

	repo := &mockImageRepo{
		createFn: func(ctx context.Context, img *domain.Image) error {
			return errors.New("db down")
		},
	}
	st := &mockStorage{
		saveOriginalFn: func(ctx context.Context, filename string, reader io.Reader) (string, error) {
			return "originals/" + filename, nil
		},
		deleteFn: func(ctx context.Context, key string) error {
			deleted = true
			return nil
		},
	}

	u := NewImageUsecase(repo, st)

	data := validJPEG(t, 10, 10)
	_, err := u.UploadImage(context.Background(), "user-1", "x.jpg", "image/jpeg",
		int64(len(data)), bytes.NewReader(data))
	require.Error(t, err)
	require.True(t, deleted)
}

// GET - FOREIGN IMAGE LOOKS LIKE A MISS
func TestImageUsecase_GetImage_Foreign(t *testing.T) {
	repo := &mockImageRepo{
		findByIDFn: func(ctx context.Context, id string) (*domain.Image, error) {
			return &domain.Image{ID: id, UserID: "someone-else"}, nil
		},
	}

	u := NewImageUsecase(repo, &mockStorage{})

	_, err := u.GetImage(context.Background(), "user-1", "img-1")
	require.ErrorIs(t, err, domain.ErrImageNotFound)
}

// LIST - LIMIT CLAMPED
func TestImageUsecase_ListImages_LimitClamped(t *testing.T) {
	var gotLimit int
	repo := &mockImageRepo{
		listByUserFn: func(ctx context.Context, userID string, limit, offset int) ([]*domain.Image, error) {
			gotLimit = limit
			return nil, nil
		},
	}

	u := NewImageUsecase(repo, &mockStorage{})

	_, err := u.ListImages(context.Background(), "user-1", 0, 0)
	require.NoError(t, err)
	require.Equal(t, 10, gotLimit)

	_, err = u.ListImages(context.Background(), "user-1", 500, 0)
	require.NoError(t, err)
	require.Equal(t, 100, gotLimit)
}
