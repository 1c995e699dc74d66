package http

import (
	"errors"
	"net/http"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/prodpix/prodpix/internal/domain"
	"github.com/prodpix/prodpix/internal/dto"
	"github.com/prodpix/prodpix/internal/handler/middleware"
)

type SubscriptionHandler struct {
	service domain.SubscriptionService
}

func NewSubscriptionHandler(service domain.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{service: service}
}

func (h *SubscriptionHandler) RegisterRoutes(engine *ginext.Engine, auth ginext.HandlerFunc) {
	engine.GET("/api/v1/subscription", auth, h.GetSubscription)
	engine.PUT("/api/v1/subscription/plan", auth, h.ChangePlan)
	engine.POST("/api/v1/subscription/credits", auth, h.AddCredits)
	engine.GET("/api/v1/plans", h.ListPlans)
}

// GetSubscription GET /api/v1/subscription
func (h *SubscriptionHandler) GetSubscription(c *ginext.Context) {
	sub, err := h.service.GetSubscription(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondSubscriptionError(c, err)
		return
	}

	c.JSON(http.StatusOK, mapSubscription(sub))
}

// ChangePlan PUT /api/v1/subscription/plan
func (h *SubscriptionHandler) ChangePlan(c *ginext.Context) {
	var req dto.ChangePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	sub, err := h.service.ChangePlan(c.Request.Context(), middleware.UserID(c), domain.Plan(req.Plan))
	if err != nil {
		respondSubscriptionError(c, err)
		return
	}

	c.JSON(http.StatusOK, mapSubscription(sub))
}

// AddCredits POST /api/v1/subscription/credits
func (h *SubscriptionHandler) AddCredits(c *ginext.Context) {
	var req dto.AddCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	sub, err := h.service.AddCredits(c.Request.Context(), middleware.UserID(c), req.Credits)
	if err != nil {
		respondSubscriptionError(c, err)
		return
	}

	c.JSON(http.StatusOK, mapSubscription(sub))
}

// ListPlans GET /api/v1/plans
func (h *SubscriptionHandler) ListPlans(c *ginext.Context) {
	c.JSON(http.StatusOK, ginext.H{"plans": domain.Plans()})
}

func mapSubscription(sub *domain.Subscription) *dto.SubscriptionResponse {
	return &dto.SubscriptionResponse{
		UserID:         sub.UserID,
		Plan:           string(sub.Plan),
		ImagesPerMonth: sub.ImagesPerMonth,
		ImagesUsed:     sub.ImagesUsed,
		Credits:        sub.Credits,
		Remaining:      sub.Remaining(),
		PeriodStart:    sub.PeriodStart,
	}
}

func respondSubscriptionError(c *ginext.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidPlan):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_plan",
			Message: err.Error(),
		})
	case errors.Is(err, domain.ErrSubscriptionNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error:   "not_found",
			Message: err.Error(),
		})
	default:
		zlog.Logger.Error().Err(err).Msg("subscription request failed")
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "server_error",
			Message: "Failed to process subscription request",
		})
	}
}
