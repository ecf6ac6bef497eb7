package handler

import (
	"errors"

	"github.com/copytrade-hub/internal/middleware"
	"github.com/copytrade-hub/internal/repository"
	"github.com/copytrade-hub/internal/service"
	"github.com/copytrade-hub/pkg/response"
	"github.com/gin-gonic/gin"
)

// SubscriptionHandler handles subscription lifecycle and copy-settings
// API requests.
type SubscriptionHandler struct {
	subscriptionService *service.SubscriptionService
}

// NewSubscriptionHandler creates a new SubscriptionHandler
func NewSubscriptionHandler(subscriptionService *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
	}
}

// Subscribe subscribes the authenticated user to a trader
// POST /api/v1/subscriptions
func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	copierID := middleware.GetUserID(c)

	var req service.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	sub, err := h.subscriptionService.Subscribe(c.Request.Context(), copierID, &req)
	if err != nil {
		h.handleSubscriptionError(c, err)
		return
	}

	response.Created(c, sub)
}

// ListSubscriptions returns the authenticated user's subscriptions
// GET /api/v1/subscriptions
func (h *SubscriptionHandler) ListSubscriptions(c *gin.Context) {
	copierID := middleware.GetUserID(c)

	subs, err := h.subscriptionService.ListMine(c.Request.Context(), copierID)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, subs)
}

// Pause pauses a subscription
// POST /api/v1/subscriptions/:subscription_id/pause
func (h *SubscriptionHandler) Pause(c *gin.Context) {
	copierID := middleware.GetUserID(c)
	subID, err := parseIDParam(c, "subscription_id")
	if err != nil {
		response.BadRequest(c, "invalid subscription id")
		return
	}

	sub, err := h.subscriptionService.Pause(c.Request.Context(), copierID, subID)
	if err != nil {
		h.handleSubscriptionError(c, err)
		return
	}

	response.Success(c, sub)
}

// Resume resumes a paused subscription
// POST /api/v1/subscriptions/:subscription_id/resume
func (h *SubscriptionHandler) Resume(c *gin.Context) {
	copierID := middleware.GetUserID(c)
	subID, err := parseIDParam(c, "subscription_id")
	if err != nil {
		response.BadRequest(c, "invalid subscription id")
		return
	}

	sub, err := h.subscriptionService.Resume(c.Request.Context(), copierID, subID)
	if err != nil {
		h.handleSubscriptionError(c, err)
		return
	}

	response.Success(c, sub)
}

// Cancel terminally cancels a subscription
// DELETE /api/v1/subscriptions/:subscription_id
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	copierID := middleware.GetUserID(c)
	subID, err := parseIDParam(c, "subscription_id")
	if err != nil {
		response.BadRequest(c, "invalid subscription id")
		return
	}

	if err := h.subscriptionService.Cancel(c.Request.Context(), copierID, subID); err != nil {
		h.handleSubscriptionError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "subscription cancelled"})
}

// GetSettings returns the copy settings of an owned subscription
// GET /api/v1/subscriptions/:subscription_id/settings
func (h *SubscriptionHandler) GetSettings(c *gin.Context) {
	copierID := middleware.GetUserID(c)
	subID, err := parseIDParam(c, "subscription_id")
	if err != nil {
		response.BadRequest(c, "invalid subscription id")
		return
	}

	settings, err := h.subscriptionService.GetSettings(c.Request.Context(), copierID, subID)
	if err != nil {
		h.handleSubscriptionError(c, err)
		return
	}
	if settings == nil {
		response.NotFound(c, "no copy settings configured")
		return
	}

	response.Success(c, settings)
}

// SaveSettings creates or replaces the copy settings of an owned subscription
// PUT /api/v1/subscriptions/:subscription_id/settings
func (h *SubscriptionHandler) SaveSettings(c *gin.Context) {
	copierID := middleware.GetUserID(c)
	subID, err := parseIDParam(c, "subscription_id")
	if err != nil {
		response.BadRequest(c, "invalid subscription id")
		return
	}

	var req service.CopySettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	settings, err := h.subscriptionService.SaveSettings(c.Request.Context(), copierID, subID, &req)
	if err != nil {
		h.handleSubscriptionError(c, err)
		return
	}

	response.Success(c, settings)
}

// handleSubscriptionError handles common subscription errors
func (h *SubscriptionHandler) handleSubscriptionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSelfSubscription):
		response.BadRequest(c, "cannot subscribe to yourself")
	case errors.Is(err, service.ErrAlreadySubscribed):
		response.Conflict(c, "already subscribed to this trader")
	case errors.Is(err, service.ErrInvalidTransition):
		response.BadRequest(c, "invalid subscription status transition")
	case errors.Is(err, service.ErrInvalidSizingMode):
		response.BadRequest(c, "invalid sizing mode")
	case errors.Is(err, service.ErrInvalidCopyAmount):
		response.BadRequest(c, "copy amount must be positive")
	case errors.Is(err, service.ErrInvalidSizeBounds):
		response.BadRequest(c, "min trade size exceeds max trade size")
	case errors.Is(err, service.ErrInvalidLossCap):
		response.BadRequest(c, "max daily loss must be positive")
	case errors.Is(err, repository.ErrSubscriptionNotFound):
		response.NotFound(c, "subscription not found")
	case errors.Is(err, repository.ErrUserNotFound):
		response.NotFound(c, "trader not found")
	default:
		response.InternalError(c, err.Error())
	}
}

// RegisterRoutes registers subscription routes
func (h *SubscriptionHandler) RegisterRoutes(rg *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	subs := rg.Group("/subscriptions")
	subs.Use(authMiddleware)
	{
		subs.POST("", h.Subscribe)
		subs.GET("", h.ListSubscriptions)
		subs.POST("/:subscription_id/pause", h.Pause)
		subs.POST("/:subscription_id/resume", h.Resume)
		subs.DELETE("/:subscription_id", h.Cancel)
		subs.GET("/:subscription_id/settings", h.GetSettings)
		subs.PUT("/:subscription_id/settings", h.SaveSettings)
	}
}
