package http

import (
	"errors"
	"net/http"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/prodpix/prodpix/internal/domain"
	"github.com/prodpix/prodpix/internal/dto"
	"github.com/prodpix/prodpix/internal/usecase"
)

type CopyHandler struct {
	service *usecase.CopyUsecase
}

func NewCopyHandler(service *usecase.CopyUsecase) *CopyHandler {
	return &CopyHandler{service: service}
}

func (h *CopyHandler) RegisterRoutes(engine *ginext.Engine, auth ginext.HandlerFunc) {
	engine.POST("/api/v1/copy", auth, h.GenerateCopy)
}

// GenerateCopy POST /api/v1/copy
func (h *CopyHandler) GenerateCopy(c *ginext.Context) {
	var req dto.GenerateCopyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	result, err := h.service.GenerateCopy(c.Request.Context(), req.ToCopyRequest())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidOperation):
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:   "invalid_request",
				Message: err.Error(),
			})
		case errors.Is(err, domain.ErrModelTransient):
			c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{
				Error:   "generation_unavailable",
				Message: "Copy generation is temporarily unavailable",
			})
		default:
			zlog.Logger.Error().Err(err).Msg("copy generation failed")
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
				Error:   "server_error",
				Message: "Failed to generate copy",
			})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}
