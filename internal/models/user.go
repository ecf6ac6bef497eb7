package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// User represents a registered user. Every user may both publish trades
// (as a trader) and subscribe to other traders (as a copier).
type User struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Username     string          `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email        string          `gorm:"uniqueIndex;size:100;not null" json:"email"`
	PasswordHash string          `gorm:"size:255;not null" json:"-"`
	MonthlyPrice decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"monthly_price"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	DeletedAt    gorm.DeletedAt  `gorm:"index" json:"-"`

	// Relations
	Trades        []Trade        `gorm:"foreignKey:TraderID" json:"trades,omitempty"`
	Subscriptions []Subscription `gorm:"foreignKey:CopierID" json:"subscriptions,omitempty"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}
