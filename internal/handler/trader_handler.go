package handler

import (
	"errors"
	"strconv"

	"github.com/copytrade-hub/internal/middleware"
	"github.com/copytrade-hub/internal/service"
	"github.com/copytrade-hub/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// TraderHandler serves the public trader directory and the trader's own
// marketplace profile.
type TraderHandler struct {
	tradeService *service.TradeService
}

// NewTraderHandler creates a new TraderHandler
func NewTraderHandler(tradeService *service.TradeService) *TraderHandler {
	return &TraderHandler{
		tradeService: tradeService,
	}
}

// ListTraders returns the trader directory
// GET /api/v1/traders
func (h *TraderHandler) ListTraders(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	traders, err := h.tradeService.ListTraders(c.Request.Context(), limit)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, traders)
}

// GetTraderFeed returns a trader's recent trades
// GET /api/v1/traders/:trader_id/trades
func (h *TraderHandler) GetTraderFeed(c *gin.Context) {
	traderID, err := parseIDParam(c, "trader_id")
	if err != nil {
		response.BadRequest(c, "invalid trader id")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	trades, err := h.tradeService.RecentTrades(c.Request.Context(), traderID, limit)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, trades)
}

// SetMonthlyPrice sets the authenticated trader's subscription price
// PUT /api/v1/profile/price
func (h *TraderHandler) SetMonthlyPrice(c *gin.Context) {
	traderID := middleware.GetUserID(c)

	var req struct {
		MonthlyPrice decimal.Decimal `json:"monthly_price" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.tradeService.SetMonthlyPrice(c.Request.Context(), traderID, req.MonthlyPrice); err != nil {
		if errors.Is(err, service.ErrNegativePrice) {
			response.BadRequest(c, "monthly price cannot be negative")
			return
		}
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, gin.H{"monthly_price": req.MonthlyPrice})
}

// RegisterRoutes registers trader directory routes
func (h *TraderHandler) RegisterRoutes(rg *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	traders := rg.Group("/traders")
	{
		traders.GET("", h.ListTraders)
		traders.GET("/:trader_id/trades", h.GetTraderFeed)
	}

	profile := rg.Group("/profile")
	profile.Use(authMiddleware)
	{
		profile.PUT("/price", h.SetMonthlyPrice)
	}
}
