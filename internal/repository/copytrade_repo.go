package repository

import (
	"context"
	"errors"
	"time"

	"github.com/copytrade-hub/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	// ErrCopyExists signals a (trade, copier) pair that already has a
	// ledger entry. Fan-out treats it as "already copied", not a failure.
	ErrCopyExists = errors.New("copy trade already recorded")
)

// CopyTradeRepository handles copy-trade ledger data access
type CopyTradeRepository struct {
	db *gorm.DB
}

// NewCopyTradeRepository creates a new CopyTradeRepository
func NewCopyTradeRepository(db *gorm.DB) *CopyTradeRepository {
	return &CopyTradeRepository{db: db}
}

// Create creates a new copy-trade ledger entry. Requires the gorm
// TranslateError option so unique violations surface as ErrDuplicatedKey.
func (r *CopyTradeRepository) Create(ctx context.Context, ct *models.CopyTrade) error {
	err := r.db.WithContext(ctx).Create(ct).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrCopyExists
	}
	return err
}

// GetByCopierIDPaginated retrieves a copier's ledger entries with pagination
func (r *CopyTradeRepository) GetByCopierIDPaginated(ctx context.Context, copierID uint, page, pageSize int) ([]models.CopyTrade, int64, error) {
	var entries []models.CopyTrade
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.CopyTrade{}).Where("copier_id = ?", copierID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	result := r.db.WithContext(ctx).Preload("Trade").
		Where("copier_id = ?", copierID).
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&entries)

	return entries, total, result.Error
}

// DailyRealizedLoss sums the magnitudes of a copier's negative settled
// profit/loss since the given instant. Unsettled rows (null profit_loss)
// contribute nothing.
func (r *CopyTradeRepository) DailyRealizedLoss(ctx context.Context, copierID uint, since time.Time) (decimal.Decimal, error) {
	var total struct {
		Sum decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&models.CopyTrade{}).
		Select("COALESCE(SUM(-profit_loss), 0) as sum").
		Where("copier_id = ? AND created_at >= ? AND profit_loss < 0", copierID, since).
		Scan(&total).Error
	return total.Sum, err
}

// GetTotalProfitLoss sums a copier's settled profit/loss
func (r *CopyTradeRepository) GetTotalProfitLoss(ctx context.Context, copierID uint) (decimal.Decimal, error) {
	var total struct {
		Sum decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&models.CopyTrade{}).
		Select("COALESCE(SUM(profit_loss), 0) as sum").
		Where("copier_id = ? AND profit_loss IS NOT NULL", copierID).
		Scan(&total).Error
	return total.Sum, err
}

// CountByTradeID counts ledger entries emitted for a trade
func (r *CopyTradeRepository) CountByTradeID(ctx context.Context, tradeID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CopyTrade{}).Where("trade_id = ?", tradeID).Count(&count).Error
	return count, err
}
