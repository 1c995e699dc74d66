package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/prodpix/prodpix/internal/domain"
	"github.com/prodpix/prodpix/internal/dto"
	"github.com/prodpix/prodpix/internal/handler/middleware"
)

type ImageHandler struct {
	service        domain.ImageService
	maxUploadSize  int64
	allowedFormats []string
}

func NewImageHandler(service domain.ImageService, maxUploadSizeMB int, allowedFormats []string) *ImageHandler {
	return &ImageHandler{
		service:        service,
		maxUploadSize:  int64(maxUploadSizeMB) * 1024 * 1024,
		allowedFormats: allowedFormats,
	}
}

func (h *ImageHandler) RegisterRoutes(engine *ginext.Engine, auth ginext.HandlerFunc) {
	engine.POST("/api/v1/images", auth, h.UploadImage)
	engine.GET("/api/v1/images", auth, h.ListImages)
	engine.GET("/api/v1/images/:id", auth, h.GetImage)
	engine.GET("/api/v1/images/:id/file", auth, h.GetImageFile)
	engine.DELETE("/api/v1/images/:id", auth, h.DeleteImage)
}

// UploadImage POST /api/v1/images
func (h *ImageHandler) UploadImage(c *ginext.Context) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		zlog.Logger.Warn().Err(err).Msg("failed to get file from request")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: "No image file provided",
		})
		return
	}
	defer file.Close()

	if header.Size > h.maxUploadSize {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "file_too_large",
			Message: fmt.Sprintf("File size exceeds maximum allowed (%d MB)", h.maxUploadSize/(1024*1024)),
		})
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !h.isAllowedFormat(ext) {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_format",
			Message: fmt.Sprintf("Unsupported file format. Allowed: %v", h.allowedFormats),
		})
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	image, err := h.service.UploadImage(
		c.Request.Context(),
		middleware.UserID(c),
		header.Filename,
		mimeType,
		header.Size,
		file,
	)

	if err != nil {
		if errors.Is(err, domain.ErrInvalidFormat) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:   "invalid_format",
				Message: "File is not a decodable image",
			})
			return
		}
		zlog.Logger.Error().Err(err).Msg("failed to upload image")
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "upload_failed",
			Message: "Failed to upload image",
		})
		return
	}

	c.JSON(http.StatusCreated, dto.MapImageToResponse(image, baseURL(c)))
}

// GetImage GET /api/v1/images/:id
func (h *ImageHandler) GetImage(c *ginext.Context) {
	image, err := h.service.GetImage(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondImageError(c, c.Param("id"), err)
		return
	}

	c.JSON(http.StatusOK, dto.MapImageToResponse(image, baseURL(c)))
}

// GetImageFile GET /api/v1/images/:id/file
func (h *ImageHandler) GetImageFile(c *ginext.Context) {
	id := c.Param("id")

	file, filename, err := h.service.GetImageFile(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		respondImageError(c, id, err)
		return
	}
	defer file.Close()

	c.Header("Content-Type", contentTypeFor(filename))
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%s", filename))

	written, err := io.Copy(c.Writer, file)
	if err != nil {
		zlog.Logger.Error().
			Err(err).
			Str("image_id", id).
			Int64("bytes_written", written).
			Msg("failed to write image to response")
		return
	}
}

// DeleteImage DELETE /api/v1/images/:id
func (h *ImageHandler) DeleteImage(c *ginext.Context) {
	id := c.Param("id")

	if err := h.service.DeleteImage(c.Request.Context(), middleware.UserID(c), id); err != nil {
		respondImageError(c, id, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListImages GET /api/v1/images
func (h *ImageHandler) ListImages(c *ginext.Context) {
	limit, offset := pagination(c)

	images, err := h.service.ListImages(c.Request.Context(), middleware.UserID(c), limit, offset)
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to list images")
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "server_error",
			Message: "Failed to retrieve images",
		})
		return
	}

	c.JSON(http.StatusOK, dto.MapImagesToResponse(images, baseURL(c), limit, offset))
}

func (h *ImageHandler) isAllowedFormat(ext string) bool {
	ext = strings.TrimPrefix(ext, ".")
	for _, allowed := range h.allowedFormats {
		if strings.EqualFold(ext, allowed) {
			return true
		}
	}
	return false
}

func respondImageError(c *ginext.Context, id string, err error) {
	if errors.Is(err, domain.ErrImageNotFound) {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error:   "not_found",
			Message: "Image not found",
		})
		return
	}
	zlog.Logger.Error().Err(err).Str("image_id", id).Msg("image request failed")
	c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
		Error:   "server_error",
		Message: "Failed to process image request",
	})
}

// Shared helpers for the http handlers.

func pagination(c *ginext.Context) (limit, offset int) {
	limit = 10
	if l := c.Query("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 {
			limit = val
		}
	}

	offset = 0
	if o := c.Query("offset"); o != "" {
		if val, err := strconv.Atoi(o); err == nil && val >= 0 {
			offset = val
		}
	}
	return limit, offset
}

func contentTypeFor(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".zip":
		return "application/zip"
	default:
		return "application/octet-stream"
	}
}

func baseURL(c *ginext.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, c.Request.Host)
}
