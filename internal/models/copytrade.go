package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CopyTrade is the immutable ledger entry for one fan-out decision to
// replicate a trade. ProfitLoss stays null until the settlement process
// fills it in. The (trade_id, copier_id) unique index makes fan-out
// re-invocation safe: a duplicate insert means the copy already exists.
// Rows are an audit trail and are never cascade-deleted with their trade.
type CopyTrade struct {
	ID         uint                `gorm:"primaryKey" json:"id"`
	TradeID    uint                `gorm:"not null;uniqueIndex:idx_copy_trades_trade_copier,priority:1;index" json:"trade_id"`
	CopierID   uint                `gorm:"not null;uniqueIndex:idx_copy_trades_trade_copier,priority:2;index" json:"copier_id"`
	Amount     decimal.Decimal     `gorm:"type:decimal(20,8);not null" json:"amount"`
	ProfitLoss decimal.NullDecimal `gorm:"type:decimal(20,8)" json:"profit_loss"`
	CreatedAt  time.Time           `gorm:"index" json:"created_at"`

	// Relations (back-references for reporting, not ownership)
	Trade  Trade `gorm:"foreignKey:TradeID" json:"-"`
	Copier User  `gorm:"foreignKey:CopierID" json:"-"`
}

// TableName specifies the table name for CopyTrade model
func (CopyTrade) TableName() string {
	return "copy_trades"
}
