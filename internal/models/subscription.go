package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SubscriptionStatus represents the lifecycle state of a subscription
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "ACTIVE"
	SubscriptionPaused    SubscriptionStatus = "PAUSED"
	SubscriptionCancelled SubscriptionStatus = "CANCELLED"
)

// Subscription is a copier's relationship to one trader. Only ACTIVE
// subscriptions participate in trade fan-out. CANCELLED is terminal:
// EndedAt is set and the subscription never re-enters fan-out.
type Subscription struct {
	ID           uint               `gorm:"primaryKey" json:"id"`
	CopierID     uint               `gorm:"index;not null" json:"copier_id"`
	TraderID     uint               `gorm:"index;not null" json:"trader_id"`
	Status       SubscriptionStatus `gorm:"size:20;not null;default:'ACTIVE'" json:"status"`
	MonthlyPrice decimal.Decimal    `gorm:"type:decimal(10,2);not null" json:"monthly_price"`
	EndedAt      *time.Time         `json:"ended_at,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`

	// Relations
	Copier   User          `gorm:"foreignKey:CopierID" json:"-"`
	Trader   User          `gorm:"foreignKey:TraderID" json:"-"`
	Settings *CopySettings `gorm:"foreignKey:SubscriptionID;constraint:OnDelete:CASCADE" json:"settings,omitempty"`
}

// TableName specifies the table name for Subscription model
func (Subscription) TableName() string {
	return "subscriptions"
}

// SizingMode selects the formula used to compute a copy amount
type SizingMode string

const (
	SizingPercentage   SizingMode = "PERCENTAGE"   // usdValue * amount / 100
	SizingFixed        SizingMode = "FIXED"        // amount verbatim
	SizingProportional SizingMode = "PROPORTIONAL" // usdValue * amount
)

// TokenList is a set of token symbols stored as a JSON array column.
type TokenList []string

// Value implements driver.Valuer
func (l TokenList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner
func (l *TokenList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported token list type %T", value)
	}
}

// CopySettings is a subscriber's per-subscription copy policy, owned 1:1
// by its subscription and cascade-deleted with it. A subscription without
// settings is skipped by fan-out, never defaulted.
type CopySettings struct {
	ID             uint                `gorm:"primaryKey" json:"id"`
	SubscriptionID uint                `gorm:"uniqueIndex;not null" json:"subscription_id"`
	CopyEnabled    bool                `gorm:"not null;default:true" json:"copy_enabled"`
	SizingMode     SizingMode          `gorm:"size:20;not null;default:'PERCENTAGE'" json:"sizing_mode"`
	CopyAmount     decimal.Decimal     `gorm:"type:decimal(20,8);not null" json:"copy_amount"`
	MinTradeSize   decimal.NullDecimal `gorm:"type:decimal(20,8)" json:"min_trade_size"`
	MaxTradeSize   decimal.NullDecimal `gorm:"type:decimal(20,8)" json:"max_trade_size"`
	MaxDailyLoss   decimal.NullDecimal `gorm:"type:decimal(20,8)" json:"max_daily_loss"`
	StopLossPct    decimal.NullDecimal `gorm:"type:decimal(10,4)" json:"stop_loss_pct"`
	AllowedTokens  TokenList           `gorm:"type:text" json:"allowed_tokens"`
	ExcludedTokens TokenList           `gorm:"type:text" json:"excluded_tokens"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// TableName specifies the table name for CopySettings model
func (CopySettings) TableName() string {
	return "copy_settings"
}
