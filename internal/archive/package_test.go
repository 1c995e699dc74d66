package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/prodpix/prodpix/internal/infrastructure/storage"
)

type mockStorage struct {
	getFn func(ctx context.Context, key string) (io.ReadCloser, error)
}

func (m *mockStorage) SaveOriginal(ctx context.Context, filename string, reader io.Reader) (string, error) {
	return "", nil
}

func (m *mockStorage) SaveOutput(ctx context.Context, filename string, reader io.Reader) (string, error) {
	return "", nil
}

func (m *mockStorage) SavePackage(ctx context.Context, filename string, reader io.Reader) (string, error) {
	return "", nil
}

func (m *mockStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return m.getFn(ctx, key)
}

func (m *mockStorage) Delete(ctx context.Context, key string) error {
	return nil
}

func (m *mockStorage) PresignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	return "", storage.ErrPresignUnsupported
}

func TestBuild_OK(t *testing.T) {
	st := &mockStorage{
		getFn: func(ctx context.Context, key string) (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("content-of-" + key)), nil
		},
	}

	entries := []Entry{
		{Key: "outputs/a.jpg", Name: "shoe_resize.jpg"},
		{Key: "outputs/b.jpg", Name: "shoe_text_removal.jpg"},
	}

	buf, err := Build(context.Background(), st, entries)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)

	require.Equal(t, "shoe_resize.jpg", zr.File[0].Name)
	require.Equal(t, "shoe_text_removal.jpg", zr.File[1].Name)

	rc, err := zr.File[0].Open()
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	require.Equal(t, "content-of-outputs/a.jpg", string(data))
}

func TestBuild_NoEntries(t *testing.T) {
	_, err := Build(context.Background(), &mockStorage{}, nil)
	require.Error(t, err)
}

func TestBuild_MissingObject(t *testing.T) {
	st := &mockStorage{
		getFn: func(ctx context.Context, key string) (io.ReadCloser, error) {
			return nil, storage.ErrObjectNotFound
		},
	}

	_, err := Build(context.Background(), st, []Entry{{Key: "outputs/missing.jpg", Name: "x.jpg"}})
	require.ErrorIs(t, err, storage.ErrObjectNotFound)
}
