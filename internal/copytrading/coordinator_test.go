package copytrading_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/copytrade-hub/internal/copytrading"
	"github.com/copytrade-hub/internal/models"
	"github.com/copytrade-hub/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fanoutHarness struct {
	subs          *fakeSubscriptionSource
	copies        *fakeCopyLedger
	notifications *fakeNotificationStore
	ledger        *fakeLossLedger
	coord         *copytrading.Coordinator
}

func newFanoutHarness(subs []models.Subscription) *fanoutHarness {
	h := &fanoutHarness{
		subs:          &fakeSubscriptionSource{subs: subs},
		copies:        &fakeCopyLedger{},
		notifications: &fakeNotificationStore{},
		ledger:        &fakeLossLedger{},
	}
	writer := copytrading.NewWriter(h.copies, h.notifications, h.subs, nil)
	gate := copytrading.NewRiskGate(h.ledger, writer, nil)
	h.coord = copytrading.NewCoordinator(
		h.subs, gate, writer, copytrading.Evaluator{}, 4, time.Second, nil)
	return h
}

func activeSub(id, copierID uint, settings *models.CopySettings) models.Subscription {
	return models.Subscription{
		ID:       id,
		CopierID: copierID,
		TraderID: 10,
		Status:   models.SubscriptionActive,
		Settings: settings,
	}
}

func TestFanoutMixedEligibility(t *testing.T) {
	disabled := percentageSettings("50")
	disabled.CopyEnabled = false

	h := newFanoutHarness([]models.Subscription{
		activeSub(1, 100, percentageSettings("50")),
		activeSub(2, 200, disabled),
		activeSub(3, 300, nil),
	})

	res := h.coord.CopyTradeToSubscribers(context.Background(), tradeWithValue("1000"))

	assert.Equal(t, 1, res.Copied)
	assert.Equal(t, 2, res.Skipped)
	assert.Empty(t, res.Errors)

	require.Len(t, h.copies.entries, 1)
	assert.Equal(t, uint(100), h.copies.entries[0].CopierID)
	assert.True(t, h.copies.entries[0].Amount.Equal(dec("500")))
}

func TestFanoutIsolatesSubscriberFailure(t *testing.T) {
	h := newFanoutHarness([]models.Subscription{
		activeSub(1, 100, percentageSettings("50")),
		activeSub(2, 200, percentageSettings("25")),
		activeSub(3, 300, percentageSettings("10")),
	})
	h.copies.errFor = func(copierID uint) error {
		if copierID == 200 {
			return errors.New("insert timeout")
		}
		return nil
	}

	res := h.coord.CopyTradeToSubscribers(context.Background(), tradeWithValue("1000"))

	assert.Equal(t, 2, res.Copied)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, uint(200), res.Errors[0].CopierID)
	assert.Contains(t, res.Errors[0].Err, "insert timeout")

	// The other two copies landed despite the failure in the middle.
	assert.Len(t, h.copies.entries, 2)
}

func TestFanoutSubscriptionQueryFailure(t *testing.T) {
	h := newFanoutHarness(nil)
	h.subs.err = errors.New("db unreachable")

	res := h.coord.CopyTradeToSubscribers(context.Background(), tradeWithValue("1000"))

	assert.Zero(t, res.Copied)
	assert.Zero(t, res.Skipped)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Err, "db unreachable")
}

func TestFanoutNoSubscribers(t *testing.T) {
	h := newFanoutHarness(nil)

	res := h.coord.CopyTradeToSubscribers(context.Background(), tradeWithValue("1000"))

	assert.Zero(t, res.Copied)
	assert.Zero(t, res.Skipped)
	assert.Empty(t, res.Errors)
}

func TestFanoutDuplicateCopyIsSkippedNotFailed(t *testing.T) {
	h := newFanoutHarness([]models.Subscription{
		activeSub(1, 100, percentageSettings("50")),
	})
	h.copies.errFor = func(uint) error { return repository.ErrCopyExists }

	res := h.coord.CopyTradeToSubscribers(context.Background(), tradeWithValue("1000"))

	assert.Zero(t, res.Copied)
	assert.Equal(t, 1, res.Skipped)
	assert.Empty(t, res.Errors, "an existing copy is idempotent success, not an error")
}

func TestFanoutRiskDeniedSubscriberSkipped(t *testing.T) {
	capped := percentageSettings("50")
	capped.MaxDailyLoss = nullDec("100")

	h := newFanoutHarness([]models.Subscription{
		activeSub(1, 100, capped),
		activeSub(2, 200, percentageSettings("50")),
	})
	h.ledger.loss = dec("150")

	res := h.coord.CopyTradeToSubscribers(context.Background(), tradeWithValue("1000"))

	assert.Equal(t, 1, res.Copied)
	assert.Equal(t, 1, res.Skipped)
	assert.Empty(t, res.Errors)

	require.Len(t, h.copies.entries, 1)
	assert.Equal(t, uint(200), h.copies.entries[0].CopierID)

	// The denied copier got a risk alert but no copy notification.
	var alerts int
	for _, n := range h.notifications.created {
		if n.Type == models.NotificationRiskAlert {
			alerts++
			assert.Equal(t, uint(100), n.UserID)
		}
	}
	assert.Equal(t, 1, alerts)
}

func TestFanoutManySubscribersAllCopied(t *testing.T) {
	var subs []models.Subscription
	for i := uint(1); i <= 50; i++ {
		subs = append(subs, activeSub(i, i+1000, percentageSettings("10")))
	}
	h := newFanoutHarness(subs)

	res := h.coord.CopyTradeToSubscribers(context.Background(), tradeWithValue("1000"))

	assert.Equal(t, 50, res.Copied)
	assert.Zero(t, res.Skipped)
	assert.Empty(t, res.Errors)
	assert.Len(t, h.copies.entries, 50)
}
