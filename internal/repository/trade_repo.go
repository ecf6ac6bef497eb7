package repository

import (
	"context"
	"errors"

	"github.com/copytrade-hub/internal/models"
	"gorm.io/gorm"
)

var (
	ErrTradeNotFound = errors.New("trade not found")
)

// TradeRepository handles trade data access
type TradeRepository struct {
	db *gorm.DB
}

// NewTradeRepository creates a new TradeRepository
func NewTradeRepository(db *gorm.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// Create creates a new trade
func (r *TradeRepository) Create(ctx context.Context, trade *models.Trade) error {
	return r.db.WithContext(ctx).Create(trade).Error
}

// GetByID retrieves a trade by ID
func (r *TradeRepository) GetByID(ctx context.Context, id uint) (*models.Trade, error) {
	var trade models.Trade
	result := r.db.WithContext(ctx).First(&trade, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTradeNotFound
		}
		return nil, result.Error
	}
	return &trade, nil
}

// GetByTraderIDPaginated retrieves a trader's trades with pagination
func (r *TradeRepository) GetByTraderIDPaginated(ctx context.Context, traderID uint, page, pageSize int) ([]models.Trade, int64, error) {
	var trades []models.Trade
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Trade{}).Where("trader_id = ?", traderID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	result := r.db.WithContext(ctx).Where("trader_id = ?", traderID).
		Order("executed_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&trades)

	return trades, total, result.Error
}

// GetRecentByTraderID retrieves a trader's most recent trades
func (r *TradeRepository) GetRecentByTraderID(ctx context.Context, traderID uint, limit int) ([]models.Trade, error) {
	var trades []models.Trade
	result := r.db.WithContext(ctx).Where("trader_id = ?", traderID).
		Order("executed_at DESC").
		Limit(limit).
		Find(&trades)
	return trades, result.Error
}

// Update updates a trade
func (r *TradeRepository) Update(ctx context.Context, trade *models.Trade) error {
	return r.db.WithContext(ctx).Save(trade).Error
}

// Delete soft deletes a trade. Historical copy-trade rows are an audit
// trail and are intentionally left untouched.
func (r *TradeRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Trade{}, id).Error
}

// CountByTraderID counts a trader's trades
func (r *TradeRepository) CountByTraderID(ctx context.Context, traderID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Trade{}).Where("trader_id = ?", traderID).Count(&count).Error
	return count, err
}
