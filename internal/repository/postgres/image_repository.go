package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/prodpix/prodpix/internal/domain"
)

type imageRepository struct {
	db       *dbpg.DB
	strategy retry.Strategy
}

func NewImageRepository(db *dbpg.DB, strategy retry.Strategy) domain.ImageRepository {
	return &imageRepository{
		db:       db,
		strategy: strategy,
	}
}

func (r *imageRepository) Create(ctx context.Context, image *domain.Image) error {
	query := `
		INSERT INTO images (
			id, user_id, original_filename, mime_type, size,
			width, height, storage_key, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecWithRetry(ctx, r.strategy, query,
		image.ID,
		image.UserID,
		image.OriginalFilename,
		image.MimeType,
		image.Size,
		nullInt(image.Width),
		nullInt(image.Height),
		image.StorageKey,
		image.CreatedAt,
	)

	if err != nil {
		zlog.Logger.Error().Err(err).Str("image_id", image.ID).Msg("failed to create image")
		return fmt.Errorf("create image: %w", err)
	}

	zlog.Logger.Info().Str("image_id", image.ID).Msg("image created successfully")
	return nil
}

func (r *imageRepository) FindByID(ctx context.Context, id string) (*domain.Image, error) {
	query := `
		SELECT id, user_id, original_filename, mime_type, size,
			   width, height, storage_key, created_at
		FROM images
		WHERE id = $1
	`

	row := r.db.Master.QueryRowContext(ctx, query, id)
	img, err := scanImage(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrImageNotFound
	}
	if err != nil {
		zlog.Logger.Error().Err(err).Str("image_id", id).Msg("failed to find image")
		return nil, fmt.Errorf("find image: %w", err)
	}

	return img, nil
}

func (r *imageRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Image, error) {
	query := `
		SELECT id, user_id, original_filename, mime_type, size,
			   width, height, storage_key, created_at
		FROM images
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryWithRetry(ctx, r.strategy, query, userID, limit, offset)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("user_id", userID).Msg("failed to list images")
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	var images []*domain.Image
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return images, nil
}

func (r *imageRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM images WHERE id = $1`

	result, err := r.db.ExecWithRetry(ctx, r.strategy, query, id)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("image_id", id).Msg("failed to delete image")
		return fmt.Errorf("delete image: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrImageNotFound
	}

	zlog.Logger.Info().Str("image_id", id).Msg("image deleted successfully")
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanImage(row rowScanner) (*domain.Image, error) {
	var img domain.Image
	var width, height sql.NullInt32

	err := row.Scan(
		&img.ID,
		&img.UserID,
		&img.OriginalFilename,
		&img.MimeType,
		&img.Size,
		&width,
		&height,
		&img.StorageKey,
		&img.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if width.Valid {
		img.Width = int(width.Int32)
	}
	if height.Valid {
		img.Height = int(height.Int32)
	}

	return &img, nil
}

// Helper functions
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt(i int) sql.NullInt32 {
	if i == 0 {
		return sql.NullInt32{Valid: false}
	}
	return sql.NullInt32{Int32: int32(i), Valid: true}
}
