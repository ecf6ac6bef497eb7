package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/copytrade-hub/internal/models"
	"github.com/copytrade-hub/internal/repository"
	"github.com/redis/go-redis/v9"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
)

// unreadCacheTTL bounds staleness of the cached unread counter; the
// counter is also invalidated on every read-state change.
const unreadCacheTTL = 30 * time.Second

// NotificationService handles the polled notification feed.
type NotificationService struct {
	notificationRepo *repository.NotificationRepository
	redis            *redis.Client
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(notificationRepo *repository.NotificationRepository, redisClient *redis.Client) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		redis:            redisClient,
	}
}

// List retrieves a user's notifications, newest first
func (s *NotificationService) List(ctx context.Context, userID uint, page, pageSize int) ([]models.Notification, int64, error) {
	return s.notificationRepo.GetByUserIDPaginated(ctx, userID, page, pageSize)
}

// UnreadCount returns a user's unread notification count, served from
// the redis cache when warm.
func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	key := unreadKey(userID)
	if cached, err := s.redis.Get(ctx, key).Int64(); err == nil {
		return cached, nil
	}

	count, err := s.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		return 0, err
	}
	// Cache failures are non-fatal; the count is already correct.
	s.redis.Set(ctx, key, count, unreadCacheTTL)
	return count, nil
}

// MarkRead marks one notification read
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uint) error {
	affected, err := s.notificationRepo.MarkRead(ctx, notificationID, userID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotificationNotFound
	}
	s.redis.Del(ctx, unreadKey(userID))
	return nil
}

// MarkAllRead marks all of a user's notifications read
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) error {
	if err := s.notificationRepo.MarkAllRead(ctx, userID); err != nil {
		return err
	}
	s.redis.Del(ctx, unreadKey(userID))
	return nil
}

func unreadKey(userID uint) string {
	return fmt.Sprintf("notifications:unread:%d", userID)
}
