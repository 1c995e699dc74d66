package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/prodpix/prodpix/internal/domain"
	"github.com/prodpix/prodpix/internal/dto"
	"github.com/prodpix/prodpix/internal/handler/middleware"
)

type BatchHandler struct {
	service domain.BatchService
}

func NewBatchHandler(service domain.BatchService) *BatchHandler {
	return &BatchHandler{service: service}
}

func (h *BatchHandler) RegisterRoutes(engine *ginext.Engine, auth ginext.HandlerFunc) {
	engine.POST("/api/v1/batch", auth, h.CreateBatch)
	engine.GET("/api/v1/batch", auth, h.ListTasks)
	engine.GET("/api/v1/batch/:id", auth, h.GetTask)
	engine.GET("/api/v1/batch/:id/results", auth, h.GetResults)
	engine.POST("/api/v1/batch/:id/cancel", auth, h.CancelTask)
	engine.POST("/api/v1/batch/:id/package", auth, h.PackageResults)
	engine.GET("/api/v1/batch/:id/download", auth, h.Download)
	engine.GET("/api/v1/jobs/:id/output", auth, h.GetJobOutput)
	engine.GET("/api/v1/styles", h.ListStyles)
	engine.GET("/api/v1/resize/presets", h.ListResizePresets)
}

// GetJobOutput GET /api/v1/jobs/:id/output
func (h *BatchHandler) GetJobOutput(c *ginext.Context) {
	id := c.Param("id")

	rc, filename, err := h.service.GetJobOutput(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{
				Error:   "not_found",
				Message: "Job output not found",
			})
			return
		}
		respondBatchError(c, err)
		return
	}
	defer rc.Close()

	c.Header("Content-Type", contentTypeFor(filename))
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%s", filename))

	if _, err := io.Copy(c.Writer, rc); err != nil {
		zlog.Logger.Error().Err(err).Str("job_id", id).Msg("failed to stream job output")
	}
}

// CreateBatch POST /api/v1/batch
func (h *BatchHandler) CreateBatch(c *ginext.Context) {
	var req dto.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	operations := make([]domain.JobParams, 0, len(req.Operations))
	for i := range req.Operations {
		operations = append(operations, req.Operations[i].ToJobParams())
	}

	task, admission, err := h.service.CreateBatch(c.Request.Context(), middleware.UserID(c), req.ImageIDs, operations)
	if err != nil {
		respondBatchError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.CreateBatchResponse{
		Task:            dto.MapTaskToResponse(task),
		QuotaRemaining:  admission.Remaining,
		QuotaLowBalance: admission.LowBalance,
	})
}

// GetTask GET /api/v1/batch/:id
func (h *BatchHandler) GetTask(c *ginext.Context) {
	task, err := h.service.GetTask(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondBatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MapTaskToResponse(task))
}

// ListTasks GET /api/v1/batch
func (h *BatchHandler) ListTasks(c *ginext.Context) {
	limit, offset := pagination(c)

	tasks, err := h.service.ListTasks(c.Request.Context(), middleware.UserID(c), limit, offset)
	if err != nil {
		respondBatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MapTasksToResponse(tasks, limit, offset))
}

// GetResults GET /api/v1/batch/:id/results
func (h *BatchHandler) GetResults(c *ginext.Context) {
	task, jobs, err := h.service.GetResults(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondBatchError(c, err)
		return
	}

	base := baseURL(c)
	jobResponses := make([]*dto.JobResponse, 0, len(jobs))
	for _, job := range jobs {
		jobResponses = append(jobResponses, dto.MapJobToResponse(job, base))
	}

	c.JSON(http.StatusOK, dto.TaskResultsResponse{
		Task: dto.MapTaskToResponse(task),
		Jobs: jobResponses,
	})
}

// CancelTask POST /api/v1/batch/:id/cancel
func (h *BatchHandler) CancelTask(c *ginext.Context) {
	task, err := h.service.CancelTask(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondBatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MapTaskToResponse(task))
}

// PackageResults POST /api/v1/batch/:id/package
func (h *BatchHandler) PackageResults(c *ginext.Context) {
	task, err := h.service.PackageResults(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondBatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MapTaskToResponse(task))
}

// Download GET /api/v1/batch/:id/download
func (h *BatchHandler) Download(c *ginext.Context) {
	id := c.Param("id")

	url, rc, filename, err := h.service.DownloadPackage(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		respondBatchError(c, err)
		return
	}

	if url != "" {
		c.Redirect(http.StatusFound, url)
		return
	}
	defer rc.Close()

	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	if _, err := io.Copy(c.Writer, rc); err != nil {
		zlog.Logger.Error().Err(err).Str("task_id", id).Msg("failed to stream package")
	}
}

// ListStyles GET /api/v1/styles
func (h *BatchHandler) ListStyles(c *ginext.Context) {
	c.JSON(http.StatusOK, ginext.H{"styles": domain.BackgroundStyles()})
}

// ListResizePresets GET /api/v1/resize/presets
func (h *BatchHandler) ListResizePresets(c *ginext.Context) {
	c.JSON(http.StatusOK, ginext.H{"presets": domain.ResizePresets(c.Query("category"))})
}

func respondBatchError(c *ginext.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrTaskNotFound), errors.Is(err, domain.ErrImageNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error:   "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, domain.ErrEmptyBatch),
		errors.Is(err, domain.ErrBatchTooLarge),
		errors.Is(err, domain.ErrInvalidOperation),
		errors.Is(err, domain.ErrInvalidStyle):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
	case errors.Is(err, domain.ErrInsufficientQuota):
		c.JSON(http.StatusPaymentRequired, dto.ErrorResponse{
			Error:   "insufficient_quota",
			Message: err.Error(),
		})
	case errors.Is(err, domain.ErrTaskNotCancellable):
		c.JSON(http.StatusConflict, dto.ErrorResponse{
			Error:   "not_cancellable",
			Message: err.Error(),
		})
	case errors.Is(err, domain.ErrPackageNotReady):
		c.JSON(http.StatusConflict, dto.ErrorResponse{
			Error:   "package_not_ready",
			Message: err.Error(),
		})
	case errors.Is(err, domain.ErrPackageExpired):
		c.JSON(http.StatusGone, dto.ErrorResponse{
			Error:   "package_expired",
			Message: err.Error(),
		})
	default:
		zlog.Logger.Error().Err(err).Msg("batch request failed")
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "server_error",
			Message: "Failed to process batch request",
		})
	}
}
