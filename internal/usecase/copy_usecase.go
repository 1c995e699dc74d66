package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/wb-go/wbf/zlog"

	"github.com/prodpix/prodpix/internal/domain"
)

type CopyUsecase struct {
	generator domain.CopyGenerator
}

func NewCopyUsecase(generator domain.CopyGenerator) *CopyUsecase {
	return &CopyUsecase{generator: generator}
}

func (u *CopyUsecase) GenerateCopy(ctx context.Context, req domain.CopyRequest) (*domain.CopyResult, error) {
	if !req.Platform.Valid() {
		return nil, fmt.Errorf("%w: unknown platform %q", domain.ErrInvalidOperation, req.Platform)
	}
	if strings.TrimSpace(req.ProductName) == "" {
		return nil, fmt.Errorf("%w: product name is required", domain.ErrInvalidOperation)
	}

	result, err := u.generator.GenerateCopy(ctx, req)
	if err != nil {
		zlog.Logger.Error().
			Err(err).
			Str("platform", string(req.Platform)).
			Msg("copy generation failed")
		return nil, err
	}

	zlog.Logger.Info().
		Str("platform", string(req.Platform)).
		Str("product", req.ProductName).
		Msg("copy generated")

	return result, nil
}
