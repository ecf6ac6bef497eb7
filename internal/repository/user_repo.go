package repository

import (
	"context"
	"errors"

	"github.com/copytrade-hub/internal/models"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound = errors.New("user not found")
)

// UserRepository handles user data access
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	result := r.db.WithContext(ctx).First(&user, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

// GetByUsernameOrEmail retrieves a user by username or email
func (r *UserRepository) GetByUsernameOrEmail(ctx context.Context, identifier string) (*models.User, error) {
	var user models.User
	result := r.db.WithContext(ctx).Where("username = ? OR email = ?", identifier, identifier).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

// ExistsByUsername checks if a username is taken
func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

// ExistsByEmail checks if an email is taken
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

// Update updates a user
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// TraderSummary is one row of the trader directory
type TraderSummary struct {
	TraderID        uint   `json:"trader_id"`
	Username        string `json:"username"`
	MonthlyPrice    string `json:"monthly_price"`
	TradeCount      int64  `json:"trade_count"`
	SubscriberCount int64  `json:"subscriber_count"`
}

// ListTraders returns users who have published at least one trade, with
// trade and active-subscriber counts, most-followed first.
func (r *UserRepository) ListTraders(ctx context.Context, limit int) ([]TraderSummary, error) {
	var rows []TraderSummary
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Select("users.id AS trader_id, users.username, users.monthly_price, "+
			"COUNT(DISTINCT trades.id) AS trade_count, "+
			"COUNT(DISTINCT subscriptions.id) AS subscriber_count").
		Joins("JOIN trades ON trades.trader_id = users.id AND trades.deleted_at IS NULL").
		Joins("LEFT JOIN subscriptions ON subscriptions.trader_id = users.id AND subscriptions.status = ?",
			models.SubscriptionActive).
		Group("users.id, users.username, users.monthly_price").
		Order("subscriber_count DESC, trade_count DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
