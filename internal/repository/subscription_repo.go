package repository

import (
	"context"
	"errors"
	"time"

	"github.com/copytrade-hub/internal/models"
	"gorm.io/gorm"
)

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
)

// SubscriptionRepository handles subscription and copy-settings data access
type SubscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new SubscriptionRepository
func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Create creates a new subscription
func (r *SubscriptionRepository) Create(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

// GetByID retrieves a subscription by ID with its settings
func (r *SubscriptionRepository) GetByID(ctx context.Context, id uint) (*models.Subscription, error) {
	var sub models.Subscription
	result := r.db.WithContext(ctx).Preload("Settings").First(&sub, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, result.Error
	}
	return &sub, nil
}

// GetByIDAndCopierID retrieves a subscription owned by a copier
func (r *SubscriptionRepository) GetByIDAndCopierID(ctx context.Context, id, copierID uint) (*models.Subscription, error) {
	var sub models.Subscription
	result := r.db.WithContext(ctx).Preload("Settings").
		Where("id = ? AND copier_id = ?", id, copierID).First(&sub)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, result.Error
	}
	return &sub, nil
}

// GetByCopierID retrieves all subscriptions for a copier
func (r *SubscriptionRepository) GetByCopierID(ctx context.Context, copierID uint) ([]models.Subscription, error) {
	var subs []models.Subscription
	result := r.db.WithContext(ctx).Preload("Settings").Preload("Trader").
		Where("copier_id = ?", copierID).
		Order("created_at DESC").
		Find(&subs)
	return subs, result.Error
}

// ActiveByTraderID retrieves all ACTIVE subscriptions for a trader with
// their copy settings preloaded. This is the fan-out working set.
func (r *SubscriptionRepository) ActiveByTraderID(ctx context.Context, traderID uint) ([]models.Subscription, error) {
	var subs []models.Subscription
	result := r.db.WithContext(ctx).Preload("Settings").
		Where("trader_id = ? AND status = ?", traderID, models.SubscriptionActive).
		Find(&subs)
	return subs, result.Error
}

// ExistsOpen checks for a non-cancelled subscription between a copier and trader
func (r *SubscriptionRepository) ExistsOpen(ctx context.Context, copierID, traderID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("copier_id = ? AND trader_id = ? AND status <> ?", copierID, traderID, models.SubscriptionCancelled).
		Count(&count).Error
	return count > 0, err
}

// UpdateStatus updates a subscription's status
func (r *SubscriptionRepository) UpdateStatus(ctx context.Context, id uint, status models.SubscriptionStatus) error {
	return r.db.WithContext(ctx).Model(&models.Subscription{}).Where("id = ?", id).
		Update("status", status).Error
}

// Cancel marks a subscription CANCELLED and stamps its terminal end date
func (r *SubscriptionRepository) Cancel(ctx context.Context, id uint, endedAt time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Subscription{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":   models.SubscriptionCancelled,
			"ended_at": endedAt,
		}).Error
}

// SaveSettings inserts or updates the copy settings for a subscription
func (r *SubscriptionRepository) SaveSettings(ctx context.Context, settings *models.CopySettings) error {
	return r.db.WithContext(ctx).Save(settings).Error
}

// CountActiveByTraderID counts a trader's active subscribers
func (r *SubscriptionRepository) CountActiveByTraderID(ctx context.Context, traderID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("trader_id = ? AND status = ?", traderID, models.SubscriptionActive).
		Count(&count).Error
	return count, err
}
