package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/copytrade-hub/internal/copytrading"
	"github.com/copytrade-hub/internal/models"
	"github.com/copytrade-hub/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrTradeNotOwned = errors.New("trade does not belong to this trader")
	ErrSameToken     = errors.New("input and output tokens must differ")
	ErrNegativePrice = errors.New("monthly price cannot be negative")
)

// TradeService handles trade submission and the trader's own CRUD. Trade
// submission is the ingress trigger of the propagation engine: once the
// trade row is durable, fan-out and the new-trade broadcast are handed to
// the background dispatcher and the submitting trader never waits on them.
type TradeService struct {
	tradeRepo     *repository.TradeRepository
	userRepo      *repository.UserRepository
	copyTradeRepo *repository.CopyTradeRepository
	coord         *copytrading.Coordinator
	writer        *copytrading.Writer
	dispatcher    *copytrading.Dispatcher
}

// NewTradeService creates a new TradeService
func NewTradeService(
	tradeRepo *repository.TradeRepository,
	userRepo *repository.UserRepository,
	copyTradeRepo *repository.CopyTradeRepository,
	coord *copytrading.Coordinator,
	writer *copytrading.Writer,
	dispatcher *copytrading.Dispatcher,
) *TradeService {
	return &TradeService{
		tradeRepo:     tradeRepo,
		userRepo:      userRepo,
		copyTradeRepo: copyTradeRepo,
		coord:         coord,
		writer:        writer,
		dispatcher:    dispatcher,
	}
}

// SubmitTradeRequest represents a trade submission
type SubmitTradeRequest struct {
	TokenIn    string               `json:"token_in" binding:"required,max=20"`
	TokenOut   string               `json:"token_out" binding:"required,max=20"`
	AmountIn   decimal.Decimal      `json:"amount_in" binding:"required"`
	AmountOut  decimal.Decimal      `json:"amount_out" binding:"required"`
	USDValue   *decimal.Decimal     `json:"usd_value"`
	TxHash     string               `json:"tx_hash" binding:"max=100"`
	Notes      string               `json:"notes" binding:"max=500"`
	ExecutedAt *time.Time           `json:"executed_at"`
}

// UpdateTradeRequest represents an owner's trade edit. Edits never
// revisit copy decisions already emitted for the trade.
type UpdateTradeRequest struct {
	USDValue *decimal.Decimal `json:"usd_value"`
	TxHash   *string          `json:"tx_hash" binding:"omitempty,max=100"`
	Notes    *string          `json:"notes" binding:"omitempty,max=500"`
}

// SubmitTrade persists a new trade and dispatches fan-out plus the
// new-trade broadcast in the background. Both are best-effort: their
// failures are logged and never surfaced to the submitting trader.
func (s *TradeService) SubmitTrade(ctx context.Context, traderID uint, req *SubmitTradeRequest) (*models.Trade, error) {
	if req.TokenIn == req.TokenOut {
		return nil, ErrSameToken
	}

	executedAt := time.Now()
	if req.ExecutedAt != nil {
		executedAt = *req.ExecutedAt
	}

	trade := &models.Trade{
		Ref:        uuid.New().String(),
		TraderID:   traderID,
		TokenIn:    req.TokenIn,
		TokenOut:   req.TokenOut,
		AmountIn:   req.AmountIn,
		AmountOut:  req.AmountOut,
		TxHash:     req.TxHash,
		Notes:      req.Notes,
		ExecutedAt: executedAt,
	}
	if req.USDValue != nil {
		trade.USDValue = decimal.NewNullDecimal(*req.USDValue)
	}

	if err := s.tradeRepo.Create(ctx, trade); err != nil {
		return nil, err
	}

	s.dispatchPropagation(trade)

	return trade, nil
}

// dispatchPropagation hands the persisted trade to the fan-out
// coordinator and the broadcast notifier, fire-and-forget.
func (s *TradeService) dispatchPropagation(trade *models.Trade) {
	s.dispatcher.Submit(fmt.Sprintf("fanout-trade-%d", trade.ID), func(ctx context.Context) error {
		res := s.coord.CopyTradeToSubscribers(ctx, trade)
		s.coord.LogResult(trade, res)
		return nil
	})

	s.dispatcher.Submit(fmt.Sprintf("broadcast-trade-%d", trade.ID), func(ctx context.Context) error {
		return s.writer.BroadcastNewTrade(ctx, trade)
	})
}

// GetTrade retrieves a single trade
func (s *TradeService) GetTrade(ctx context.Context, id uint) (*models.Trade, error) {
	return s.tradeRepo.GetByID(ctx, id)
}

// ListTrades retrieves a trader's trades with pagination
func (s *TradeService) ListTrades(ctx context.Context, traderID uint, page, pageSize int) ([]models.Trade, int64, error) {
	return s.tradeRepo.GetByTraderIDPaginated(ctx, traderID, page, pageSize)
}

// RecentTrades retrieves a trader's most recent trades for the public feed
func (s *TradeService) RecentTrades(ctx context.Context, traderID uint, limit int) ([]models.Trade, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.tradeRepo.GetRecentByTraderID(ctx, traderID, limit)
}

// UpdateTrade applies an owner's edit to their trade
func (s *TradeService) UpdateTrade(ctx context.Context, traderID, tradeID uint, req *UpdateTradeRequest) (*models.Trade, error) {
	trade, err := s.tradeRepo.GetByID(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if trade.TraderID != traderID {
		return nil, ErrTradeNotOwned
	}

	if req.USDValue != nil {
		trade.USDValue = decimal.NewNullDecimal(*req.USDValue)
	}
	if req.TxHash != nil {
		trade.TxHash = *req.TxHash
	}
	if req.Notes != nil {
		trade.Notes = *req.Notes
	}

	if err := s.tradeRepo.Update(ctx, trade); err != nil {
		return nil, err
	}
	return trade, nil
}

// ListTraders returns the trader directory, most-followed first
func (s *TradeService) ListTraders(ctx context.Context, limit int) ([]repository.TraderSummary, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.userRepo.ListTraders(ctx, limit)
}

// SetMonthlyPrice updates the trader's subscription price. Existing
// subscriptions keep their snapshotted price.
func (s *TradeService) SetMonthlyPrice(ctx context.Context, traderID uint, price decimal.Decimal) error {
	if price.IsNegative() {
		return ErrNegativePrice
	}
	user, err := s.userRepo.GetByID(ctx, traderID)
	if err != nil {
		return err
	}
	user.MonthlyPrice = price
	return s.userRepo.Update(ctx, user)
}

// ListCopyTrades retrieves a copier's copy-trade ledger with pagination
func (s *TradeService) ListCopyTrades(ctx context.Context, copierID uint, page, pageSize int) ([]models.CopyTrade, int64, error) {
	return s.copyTradeRepo.GetByCopierIDPaginated(ctx, copierID, page, pageSize)
}

// DailyLoss returns a copier's realized loss since local midnight,
// the same figure the risk gate compares against the daily cap.
func (s *TradeService) DailyLoss(ctx context.Context, copierID uint) (decimal.Decimal, error) {
	now := time.Now()
	since := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return s.copyTradeRepo.DailyRealizedLoss(ctx, copierID, since)
}

// DeleteTrade soft deletes an owner's trade. Historical copy-trade rows
// stay on the ledger.
func (s *TradeService) DeleteTrade(ctx context.Context, traderID, tradeID uint) error {
	trade, err := s.tradeRepo.GetByID(ctx, tradeID)
	if err != nil {
		return err
	}
	if trade.TraderID != traderID {
		return ErrTradeNotOwned
	}
	return s.tradeRepo.Delete(ctx, tradeID)
}
