package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/wb-go/wbf/zlog"

	"github.com/prodpix/prodpix/internal/config"
)

var (
	ErrObjectNotFound     = errors.New("object not found")
	ErrPresignUnsupported = errors.New("presigned urls are not supported by this backend")
)

// Storage keeps originals, per-job outputs and zipped download packages
// under separate prefixes of one backend.
type Storage interface {
	SaveOriginal(ctx context.Context, filename string, reader io.Reader) (string, error)
	SaveOutput(ctx context.Context, filename string, reader io.Reader) (string, error)
	SavePackage(ctx context.Context, filename string, reader io.Reader) (string, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error

	// PresignedURL returns a time-limited direct link to key, or
	// ErrPresignUnsupported when the backend cannot mint one.
	PresignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

func New(cfg *config.StorageConfig) (Storage, error) {
	switch cfg.Type {
	case "local":
		zlog.Logger.Info().Msg("Initializing local storage")
		return NewLocalStorage(cfg)
	case "s3":
		zlog.Logger.Info().Msg("Initializing S3 storage")
		return NewS3Storage(cfg)
	default:
		zlog.Logger.Error().Str("type", cfg.Type).Msg("Unsupported storage type, use 'local' or 's3'")
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
