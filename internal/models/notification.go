package models

import (
	"time"
)

// NotificationType represents the kind of user-facing event
type NotificationType string

const (
	NotificationNewTrade            NotificationType = "NEW_TRADE"
	NotificationSubscriptionStarted NotificationType = "SUBSCRIPTION_STARTED"
	NotificationSubscriptionEnded   NotificationType = "SUBSCRIPTION_ENDED"
	NotificationTradeCopied         NotificationType = "TRADE_COPIED"
	NotificationRiskAlert           NotificationType = "RISK_ALERT"
)

// Notification is a user-facing event record, polled by the client.
type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"index;not null" json:"user_id"`
	Type      NotificationType `gorm:"size:30;not null" json:"type"`
	Message   string           `gorm:"size:500;not null" json:"message"`
	Read      bool             `gorm:"not null;default:false;index" json:"read"`
	CreatedAt time.Time        `gorm:"index" json:"created_at"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"-"`
}

// TableName specifies the table name for Notification model
func (Notification) TableName() string {
	return "notifications"
}
