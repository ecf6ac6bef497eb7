package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Trade represents an on-chain swap published by a trader.
// The propagation engine never mutates a trade; the owning trader may edit
// or delete it through the trade CRUD API, but emitted copy decisions are
// never revisited.
type Trade struct {
	ID        uint                `gorm:"primaryKey" json:"id"`
	Ref       string              `gorm:"uniqueIndex;size:36;not null" json:"ref"`
	TraderID  uint                `gorm:"index;not null" json:"trader_id"`
	TokenIn   string              `gorm:"size:20;not null" json:"token_in"`
	TokenOut  string              `gorm:"size:20;not null" json:"token_out"`
	AmountIn  decimal.Decimal     `gorm:"type:decimal(36,18);not null" json:"amount_in"`
	AmountOut decimal.Decimal     `gorm:"type:decimal(36,18);not null" json:"amount_out"`
	USDValue  decimal.NullDecimal `gorm:"type:decimal(20,8)" json:"usd_value"`
	TxHash    string              `gorm:"size:100" json:"tx_hash,omitempty"`
	Notes     string              `gorm:"size:500" json:"notes,omitempty"`
	ExecutedAt time.Time          `gorm:"index" json:"executed_at"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
	DeletedAt  gorm.DeletedAt     `gorm:"index" json:"-"`

	// Relations
	Trader User `gorm:"foreignKey:TraderID" json:"-"`
}

// TableName specifies the table name for Trade model
func (Trade) TableName() string {
	return "trades"
}

// Pair returns the token pair in "IN→OUT" form for notification messages.
func (t *Trade) Pair() string {
	return t.TokenIn + "→" + t.TokenOut
}
