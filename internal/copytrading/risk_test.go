package copytrading_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/copytrade-hub/internal/copytrading"
	"github.com/copytrade-hub/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLossLedger struct {
	mu      sync.Mutex
	loss    decimal.Decimal
	err     error
	queries int
	since   time.Time
}

func (f *fakeLossLedger) DailyRealizedLoss(_ context.Context, _ uint, since time.Time) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	f.since = since
	return f.loss, f.err
}

type fakeAlertSink struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeAlertSink) RiskAlert(_ context.Context, _ uint, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, message)
}

func cappedSettings(cap string) *models.CopySettings {
	return &models.CopySettings{
		CopyEnabled:  true,
		SizingMode:   models.SizingPercentage,
		CopyAmount:   dec("50"),
		MaxDailyLoss: nullDec(cap),
	}
}

func TestRiskGateNoCapSkipsLedger(t *testing.T) {
	ledger := &fakeLossLedger{}
	alerts := &fakeAlertSink{}
	gate := copytrading.NewRiskGate(ledger, alerts, nil)

	settings := cappedSettings("100")
	settings.MaxDailyLoss = decimal.NullDecimal{}

	assert.True(t, gate.Allowed(context.Background(), 1, settings))
	assert.Zero(t, ledger.queries)
	assert.Empty(t, alerts.messages)
}

func TestRiskGateBoundaryInclusive(t *testing.T) {
	tests := []struct {
		name    string
		loss    string
		allowed bool
	}{
		{"one cent under the cap passes", "99.99", true},
		{"exactly at the cap denies", "100", false},
		{"over the cap denies", "250.50", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := &fakeLossLedger{loss: dec(tt.loss)}
			alerts := &fakeAlertSink{}
			gate := copytrading.NewRiskGate(ledger, alerts, nil)

			got := gate.Allowed(context.Background(), 1, cappedSettings("100"))
			assert.Equal(t, tt.allowed, got)
			if tt.allowed {
				assert.Empty(t, alerts.messages)
			} else {
				require.Len(t, alerts.messages, 1)
				assert.Contains(t, alerts.messages[0], "Daily loss limit reached")
			}
		})
	}
}

func TestRiskGateFailsClosedOnLedgerError(t *testing.T) {
	ledger := &fakeLossLedger{err: errors.New("connection reset")}
	alerts := &fakeAlertSink{}
	gate := copytrading.NewRiskGate(ledger, alerts, nil)

	assert.False(t, gate.Allowed(context.Background(), 1, cappedSettings("100")))
	// A query failure is not a cap breach: no alert goes out.
	assert.Empty(t, alerts.messages)
}

func TestRiskGateQueriesSinceLocalMidnight(t *testing.T) {
	ledger := &fakeLossLedger{loss: dec("0")}
	gate := copytrading.NewRiskGate(ledger, &fakeAlertSink{}, nil)

	require.True(t, gate.Allowed(context.Background(), 1, cappedSettings("100")))

	now := time.Now()
	wantMidnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	assert.True(t, ledger.since.Equal(wantMidnight),
		"want %v got %v", wantMidnight, ledger.since)
}

func TestRiskGateAlertsOnEveryDenial(t *testing.T) {
	ledger := &fakeLossLedger{loss: dec("150")}
	alerts := &fakeAlertSink{}
	gate := copytrading.NewRiskGate(ledger, alerts, nil)

	settings := cappedSettings("100")
	assert.False(t, gate.Allowed(context.Background(), 1, settings))
	assert.False(t, gate.Allowed(context.Background(), 1, settings))
	assert.Len(t, alerts.messages, 2)
}
