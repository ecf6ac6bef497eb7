package handler

import (
	"errors"
	"strconv"

	"github.com/copytrade-hub/internal/middleware"
	"github.com/copytrade-hub/internal/repository"
	"github.com/copytrade-hub/internal/service"
	"github.com/copytrade-hub/pkg/response"
	"github.com/gin-gonic/gin"
)

// TradeHandler handles trade submission, the trader's own trade CRUD,
// and the copier's copy-trade ledger reads.
type TradeHandler struct {
	tradeService *service.TradeService
}

// NewTradeHandler creates a new TradeHandler
func NewTradeHandler(tradeService *service.TradeService) *TradeHandler {
	return &TradeHandler{
		tradeService: tradeService,
	}
}

// SubmitTrade records a new trade and triggers fan-out in the background
// POST /api/v1/trades
func (h *TradeHandler) SubmitTrade(c *gin.Context) {
	traderID := middleware.GetUserID(c)

	var req service.SubmitTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	trade, err := h.tradeService.SubmitTrade(c.Request.Context(), traderID, &req)
	if err != nil {
		h.handleTradeError(c, err)
		return
	}

	response.Created(c, trade)
}

// ListTrades returns the authenticated trader's trades
// GET /api/v1/trades
func (h *TradeHandler) ListTrades(c *gin.Context) {
	traderID := middleware.GetUserID(c)
	page, pageSize := pagination(c)

	trades, total, err := h.tradeService.ListTrades(c.Request.Context(), traderID, page, pageSize)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.SuccessPaginated(c, trades, total, page, pageSize)
}

// GetTrade returns one trade
// GET /api/v1/trades/:trade_id
func (h *TradeHandler) GetTrade(c *gin.Context) {
	tradeID, err := parseIDParam(c, "trade_id")
	if err != nil {
		response.BadRequest(c, "invalid trade id")
		return
	}

	trade, err := h.tradeService.GetTrade(c.Request.Context(), tradeID)
	if err != nil {
		h.handleTradeError(c, err)
		return
	}

	response.Success(c, trade)
}

// UpdateTrade applies an owner's edit to a trade
// PUT /api/v1/trades/:trade_id
func (h *TradeHandler) UpdateTrade(c *gin.Context) {
	traderID := middleware.GetUserID(c)
	tradeID, err := parseIDParam(c, "trade_id")
	if err != nil {
		response.BadRequest(c, "invalid trade id")
		return
	}

	var req service.UpdateTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	trade, err := h.tradeService.UpdateTrade(c.Request.Context(), traderID, tradeID, &req)
	if err != nil {
		h.handleTradeError(c, err)
		return
	}

	response.Success(c, trade)
}

// DeleteTrade deletes an owner's trade
// DELETE /api/v1/trades/:trade_id
func (h *TradeHandler) DeleteTrade(c *gin.Context) {
	traderID := middleware.GetUserID(c)
	tradeID, err := parseIDParam(c, "trade_id")
	if err != nil {
		response.BadRequest(c, "invalid trade id")
		return
	}

	if err := h.tradeService.DeleteTrade(c.Request.Context(), traderID, tradeID); err != nil {
		h.handleTradeError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "trade deleted"})
}

// ListCopyTrades returns the authenticated copier's copy-trade ledger
// GET /api/v1/copy-trades
func (h *TradeHandler) ListCopyTrades(c *gin.Context) {
	copierID := middleware.GetUserID(c)
	page, pageSize := pagination(c)

	entries, total, err := h.tradeService.ListCopyTrades(c.Request.Context(), copierID, page, pageSize)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.SuccessPaginated(c, entries, total, page, pageSize)
}

// GetDailyLoss returns today's realized loss, the figure the risk gate
// compares against the configured cap
// GET /api/v1/copy-trades/daily-loss
func (h *TradeHandler) GetDailyLoss(c *gin.Context) {
	copierID := middleware.GetUserID(c)

	loss, err := h.tradeService.DailyLoss(c.Request.Context(), copierID)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, gin.H{"daily_loss": loss})
}

// handleTradeError handles common trade errors
func (h *TradeHandler) handleTradeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSameToken):
		response.BadRequest(c, "input and output tokens must differ")
	case errors.Is(err, service.ErrTradeNotOwned):
		response.Forbidden(c, "trade does not belong to you")
	case errors.Is(err, repository.ErrTradeNotFound):
		response.NotFound(c, "trade not found")
	default:
		response.InternalError(c, err.Error())
	}
}

// RegisterRoutes registers trade routes
func (h *TradeHandler) RegisterRoutes(rg *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	trades := rg.Group("/trades")
	trades.Use(authMiddleware)
	{
		trades.POST("", h.SubmitTrade)
		trades.GET("", h.ListTrades)
		trades.GET("/:trade_id", h.GetTrade)
		trades.PUT("/:trade_id", h.UpdateTrade)
		trades.DELETE("/:trade_id", h.DeleteTrade)
	}

	copyTrades := rg.Group("/copy-trades")
	copyTrades.Use(authMiddleware)
	{
		copyTrades.GET("", h.ListCopyTrades)
		copyTrades.GET("/daily-loss", h.GetDailyLoss)
	}
}

// pagination extracts page/page_size query params with defaults
func pagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

// parseIDParam parses a uint path parameter
func parseIDParam(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return uint(id), err
}
