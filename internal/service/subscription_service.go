package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/copytrade-hub/internal/models"
	"github.com/copytrade-hub/internal/repository"
	"github.com/shopspring/decimal"
)

var (
	ErrSelfSubscription   = errors.New("cannot subscribe to yourself")
	ErrAlreadySubscribed  = errors.New("already subscribed to this trader")
	ErrInvalidTransition  = errors.New("invalid subscription status transition")
	ErrInvalidSizingMode  = errors.New("invalid sizing mode")
	ErrInvalidCopyAmount  = errors.New("copy amount must be positive")
	ErrInvalidSizeBounds  = errors.New("min trade size exceeds max trade size")
	ErrInvalidLossCap     = errors.New("max daily loss must be positive")
)

// SubscriptionService handles the copier↔trader subscription lifecycle
// and per-subscription copy settings.
type SubscriptionService struct {
	subRepo          *repository.SubscriptionRepository
	userRepo         *repository.UserRepository
	notificationRepo *repository.NotificationRepository
}

// NewSubscriptionService creates a new SubscriptionService
func NewSubscriptionService(
	subRepo *repository.SubscriptionRepository,
	userRepo *repository.UserRepository,
	notificationRepo *repository.NotificationRepository,
) *SubscriptionService {
	return &SubscriptionService{
		subRepo:          subRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
	}
}

// SubscribeRequest represents a subscribe request
type SubscribeRequest struct {
	TraderID uint `json:"trader_id" binding:"required"`
}

// CopySettingsRequest represents a copy-settings upsert
type CopySettingsRequest struct {
	CopyEnabled    bool              `json:"copy_enabled"`
	SizingMode     models.SizingMode `json:"sizing_mode" binding:"required"`
	CopyAmount     decimal.Decimal   `json:"copy_amount" binding:"required"`
	MinTradeSize   *decimal.Decimal  `json:"min_trade_size"`
	MaxTradeSize   *decimal.Decimal  `json:"max_trade_size"`
	MaxDailyLoss   *decimal.Decimal  `json:"max_daily_loss"`
	StopLossPct    *decimal.Decimal  `json:"stop_loss_pct"`
	AllowedTokens  []string          `json:"allowed_tokens"`
	ExcludedTokens []string          `json:"excluded_tokens"`
}

// Subscribe creates an ACTIVE subscription snapshotting the trader's
// current monthly price, and notifies the trader.
func (s *SubscriptionService) Subscribe(ctx context.Context, copierID uint, req *SubscribeRequest) (*models.Subscription, error) {
	if copierID == req.TraderID {
		return nil, ErrSelfSubscription
	}

	trader, err := s.userRepo.GetByID(ctx, req.TraderID)
	if err != nil {
		return nil, err
	}

	exists, err := s.subRepo.ExistsOpen(ctx, copierID, req.TraderID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadySubscribed
	}

	copier, err := s.userRepo.GetByID(ctx, copierID)
	if err != nil {
		return nil, err
	}

	sub := &models.Subscription{
		CopierID:     copierID,
		TraderID:     req.TraderID,
		Status:       models.SubscriptionActive,
		MonthlyPrice: trader.MonthlyPrice,
	}
	if err := s.subRepo.Create(ctx, sub); err != nil {
		return nil, err
	}

	s.notifyLifecycle(ctx, trader.ID, models.NotificationSubscriptionStarted,
		fmt.Sprintf("%s subscribed to your trades", copier.Username))

	return sub, nil
}

// Pause pauses an ACTIVE subscription, removing it from fan-out until resumed
func (s *SubscriptionService) Pause(ctx context.Context, copierID, subID uint) (*models.Subscription, error) {
	return s.transition(ctx, copierID, subID, models.SubscriptionActive, models.SubscriptionPaused)
}

// Resume resumes a PAUSED subscription
func (s *SubscriptionService) Resume(ctx context.Context, copierID, subID uint) (*models.Subscription, error) {
	return s.transition(ctx, copierID, subID, models.SubscriptionPaused, models.SubscriptionActive)
}

func (s *SubscriptionService) transition(ctx context.Context, copierID, subID uint, from, to models.SubscriptionStatus) (*models.Subscription, error) {
	sub, err := s.subRepo.GetByIDAndCopierID(ctx, subID, copierID)
	if err != nil {
		return nil, err
	}
	if sub.Status != from {
		return nil, ErrInvalidTransition
	}
	if err := s.subRepo.UpdateStatus(ctx, sub.ID, to); err != nil {
		return nil, err
	}
	sub.Status = to
	return sub, nil
}

// Cancel terminally cancels a subscription: its end date is stamped and
// it never re-enters fan-out for that trader. The trader is notified.
func (s *SubscriptionService) Cancel(ctx context.Context, copierID, subID uint) error {
	sub, err := s.subRepo.GetByIDAndCopierID(ctx, subID, copierID)
	if err != nil {
		return err
	}
	if sub.Status == models.SubscriptionCancelled {
		return ErrInvalidTransition
	}
	if err := s.subRepo.Cancel(ctx, sub.ID, time.Now()); err != nil {
		return err
	}

	copier, err := s.userRepo.GetByID(ctx, copierID)
	if err == nil {
		s.notifyLifecycle(ctx, sub.TraderID, models.NotificationSubscriptionEnded,
			fmt.Sprintf("%s unsubscribed from your trades", copier.Username))
	}
	return nil
}

// ListMine retrieves a copier's subscriptions
func (s *SubscriptionService) ListMine(ctx context.Context, copierID uint) ([]models.Subscription, error) {
	return s.subRepo.GetByCopierID(ctx, copierID)
}

// GetSettings retrieves the copy settings of an owned subscription.
// Returns the subscription so callers can distinguish "no settings yet"
// from "not found".
func (s *SubscriptionService) GetSettings(ctx context.Context, copierID, subID uint) (*models.CopySettings, error) {
	sub, err := s.subRepo.GetByIDAndCopierID(ctx, subID, copierID)
	if err != nil {
		return nil, err
	}
	return sub.Settings, nil
}

// SaveSettings validates and upserts the copy settings of an owned
// subscription.
func (s *SubscriptionService) SaveSettings(ctx context.Context, copierID, subID uint, req *CopySettingsRequest) (*models.CopySettings, error) {
	if err := validateSettings(req); err != nil {
		return nil, err
	}

	sub, err := s.subRepo.GetByIDAndCopierID(ctx, subID, copierID)
	if err != nil {
		return nil, err
	}

	settings := sub.Settings
	if settings == nil {
		settings = &models.CopySettings{SubscriptionID: sub.ID}
	}
	settings.CopyEnabled = req.CopyEnabled
	settings.SizingMode = req.SizingMode
	settings.CopyAmount = req.CopyAmount
	settings.MinTradeSize = toNullDecimal(req.MinTradeSize)
	settings.MaxTradeSize = toNullDecimal(req.MaxTradeSize)
	settings.MaxDailyLoss = toNullDecimal(req.MaxDailyLoss)
	settings.StopLossPct = toNullDecimal(req.StopLossPct)
	settings.AllowedTokens = models.TokenList(req.AllowedTokens)
	settings.ExcludedTokens = models.TokenList(req.ExcludedTokens)

	if err := s.subRepo.SaveSettings(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func validateSettings(req *CopySettingsRequest) error {
	switch req.SizingMode {
	case models.SizingPercentage, models.SizingFixed, models.SizingProportional:
	default:
		return ErrInvalidSizingMode
	}
	if !req.CopyAmount.IsPositive() {
		return ErrInvalidCopyAmount
	}
	if req.MinTradeSize != nil && req.MaxTradeSize != nil && req.MinTradeSize.GreaterThan(*req.MaxTradeSize) {
		return ErrInvalidSizeBounds
	}
	if req.MaxDailyLoss != nil && !req.MaxDailyLoss.IsPositive() {
		return ErrInvalidLossCap
	}
	return nil
}

func toNullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

// notifyLifecycle best-effort notifies about a subscription lifecycle
// event; delivery failure never fails the lifecycle operation itself.
func (s *SubscriptionService) notifyLifecycle(ctx context.Context, userID uint, typ models.NotificationType, message string) {
	err := s.notificationRepo.Create(ctx, &models.Notification{
		UserID:  userID,
		Type:    typ,
		Message: message,
	})
	if err != nil {
		log.Printf("[subscription] lifecycle notification for user %d not delivered: %v", userID, err)
	}
}
