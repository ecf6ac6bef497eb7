package copytrading

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/copytrade-hub/internal/models"
	"github.com/shopspring/decimal"
)

// LossLedger reads a copier's settled daily losses.
type LossLedger interface {
	DailyRealizedLoss(ctx context.Context, copierID uint, since time.Time) (decimal.Decimal, error)
}

// AlertSink delivers risk alerts to a copier.
type AlertSink interface {
	RiskAlert(ctx context.Context, copierID uint, message string)
}

// RiskGate is the per-subscriber daily-loss circuit breaker. It is
// consulted before eligibility evaluation and denies further copying
// once the day's realized losses reach the configured cap.
type RiskGate struct {
	ledger LossLedger
	alerts AlertSink
	logger *log.Logger
	now    func() time.Time
}

// NewRiskGate creates a new RiskGate.
func NewRiskGate(ledger LossLedger, alerts AlertSink, logger *log.Logger) *RiskGate {
	if logger == nil {
		logger = log.Default()
	}
	return &RiskGate{
		ledger: ledger,
		alerts: alerts,
		logger: logger,
		now:    time.Now,
	}
}

// Allowed reports whether the copier may receive another copy today.
// No configured cap means always allowed. The cap boundary is inclusive:
// losses equal to the cap already deny. A failed ledger query fails
// closed for this copier only.
func (g *RiskGate) Allowed(ctx context.Context, copierID uint, settings *models.CopySettings) bool {
	if !settings.MaxDailyLoss.Valid {
		return true
	}

	loss, err := g.ledger.DailyRealizedLoss(ctx, copierID, startOfDay(g.now()))
	if err != nil {
		g.logger.Printf("[risk] daily loss query failed for copier %d: %v", copierID, err)
		return false
	}

	cap := settings.MaxDailyLoss.Decimal
	if loss.GreaterThanOrEqual(cap) {
		g.alerts.RiskAlert(ctx, copierID, fmt.Sprintf(
			"Daily loss limit reached: %s USD lost today against a cap of %s USD. Copying is paused until tomorrow.",
			loss.StringFixed(2), cap.StringFixed(2)))
		return false
	}
	return true
}

// startOfDay truncates t to midnight in the server's local time.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
