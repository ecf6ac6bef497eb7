package copytrading

import (
	"context"
	"fmt"
	"log"

	"github.com/copytrade-hub/internal/models"
	"github.com/shopspring/decimal"
)

// CopyLedger persists copy-trade ledger entries.
type CopyLedger interface {
	Create(ctx context.Context, ct *models.CopyTrade) error
}

// NotificationStore persists notifications.
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	CreateBatch(ctx context.Context, ns []*models.Notification) error
}

// SubscriptionSource lists the active subscribers of a trader.
type SubscriptionSource interface {
	ActiveByTraderID(ctx context.Context, traderID uint) ([]models.Subscription, error)
}

// Writer records fan-out outcomes: copy-trade ledger entries and the
// notifications that accompany them. Writes are individually durable but
// not transactional with each other; a failure here is the per-subscriber
// error the coordinator isolates.
type Writer struct {
	copies        CopyLedger
	notifications NotificationStore
	subs          SubscriptionSource
	logger        *log.Logger
}

// NewWriter creates a new Writer.
func NewWriter(copies CopyLedger, notifications NotificationStore, subs SubscriptionSource, logger *log.Logger) *Writer {
	if logger == nil {
		logger = log.Default()
	}
	return &Writer{
		copies:        copies,
		notifications: notifications,
		subs:          subs,
		logger:        logger,
	}
}

// RecordCopy creates the ledger entry for one copy decision plus a
// TRADE_COPIED notification. ProfitLoss stays null until settlement.
func (w *Writer) RecordCopy(ctx context.Context, trade *models.Trade, copierID uint, amount decimal.Decimal) error {
	ct := &models.CopyTrade{
		TradeID:  trade.ID,
		CopierID: copierID,
		Amount:   amount,
	}
	if err := w.copies.Create(ctx, ct); err != nil {
		return err
	}

	n := &models.Notification{
		UserID:  copierID,
		Type:    models.NotificationTradeCopied,
		Message: fmt.Sprintf("Copied trade %s for %s USD", trade.Pair(), amount.StringFixed(2)),
	}
	if err := w.notifications.Create(ctx, n); err != nil {
		return fmt.Errorf("copy recorded but notification failed: %w", err)
	}
	return nil
}

// RiskAlert sends a RISK_ALERT notification to the copier. Alert delivery
// is best-effort; a write failure is logged and swallowed so it cannot
// mask the denial itself.
func (w *Writer) RiskAlert(ctx context.Context, copierID uint, message string) {
	n := &models.Notification{
		UserID:  copierID,
		Type:    models.NotificationRiskAlert,
		Message: message,
	}
	if err := w.notifications.Create(ctx, n); err != nil {
		w.logger.Printf("[writer] risk alert for copier %d not delivered: %v", copierID, err)
	}
}

// BroadcastNewTrade creates one NEW_TRADE notification per active
// subscriber of the trade's trader in a single batch write. It runs
// independently of fan-out and never gates trade recording.
func (w *Writer) BroadcastNewTrade(ctx context.Context, trade *models.Trade) error {
	subs, err := w.subs.ActiveByTraderID(ctx, trade.TraderID)
	if err != nil {
		return fmt.Errorf("load subscribers: %w", err)
	}
	if len(subs) == 0 {
		return nil
	}

	message := fmt.Sprintf("New trade from a trader you follow: %s", trade.Pair())
	notifications := make([]*models.Notification, 0, len(subs))
	for _, sub := range subs {
		notifications = append(notifications, &models.Notification{
			UserID:  sub.CopierID,
			Type:    models.NotificationNewTrade,
			Message: message,
		})
	}
	return w.notifications.CreateBatch(ctx, notifications)
}
