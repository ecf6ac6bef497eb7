package copytrading_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/copytrade-hub/internal/copytrading"
	"github.com/copytrade-hub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCopyLedger struct {
	mu      sync.Mutex
	entries []models.CopyTrade
	// errFor returns the error to inject for a copier, nil for success.
	errFor func(copierID uint) error
}

func (f *fakeCopyLedger) Create(_ context.Context, ct *models.CopyTrade) error {
	if f.errFor != nil {
		if err := f.errFor(ct.CopierID); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *ct)
	return nil
}

type fakeNotificationStore struct {
	mu          sync.Mutex
	created     []models.Notification
	createErr   error
	batchErr    error
	batchWrites int
}

func (f *fakeNotificationStore) Create(_ context.Context, n *models.Notification) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, *n)
	return nil
}

func (f *fakeNotificationStore) CreateBatch(_ context.Context, ns []*models.Notification) error {
	if f.batchErr != nil {
		return f.batchErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchWrites++
	for _, n := range ns {
		f.created = append(f.created, *n)
	}
	return nil
}

type fakeSubscriptionSource struct {
	subs []models.Subscription
	err  error
}

func (f *fakeSubscriptionSource) ActiveByTraderID(_ context.Context, _ uint) ([]models.Subscription, error) {
	return f.subs, f.err
}

func TestWriterRecordCopy(t *testing.T) {
	copies := &fakeCopyLedger{}
	notifications := &fakeNotificationStore{}
	w := copytrading.NewWriter(copies, notifications, &fakeSubscriptionSource{}, nil)

	trade := tradeWithValue("1000")
	err := w.RecordCopy(context.Background(), trade, 42, dec("500"))
	require.NoError(t, err)

	require.Len(t, copies.entries, 1)
	assert.Equal(t, trade.ID, copies.entries[0].TradeID)
	assert.Equal(t, uint(42), copies.entries[0].CopierID)
	assert.True(t, copies.entries[0].Amount.Equal(dec("500")))
	assert.False(t, copies.entries[0].ProfitLoss.Valid, "profit stays null until settlement")

	require.Len(t, notifications.created, 1)
	assert.Equal(t, uint(42), notifications.created[0].UserID)
	assert.Equal(t, models.NotificationTradeCopied, notifications.created[0].Type)
	assert.Equal(t, "Copied trade ETH→USDC for 500.00 USD", notifications.created[0].Message)
}

func TestWriterRecordCopyNotificationFailure(t *testing.T) {
	copies := &fakeCopyLedger{}
	notifications := &fakeNotificationStore{createErr: errors.New("notifications table locked")}
	w := copytrading.NewWriter(copies, notifications, &fakeSubscriptionSource{}, nil)

	err := w.RecordCopy(context.Background(), tradeWithValue("1000"), 42, dec("500"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "copy recorded but notification failed")
	// The ledger entry survives the notification failure.
	assert.Len(t, copies.entries, 1)
}

func TestWriterRecordCopyLedgerFailure(t *testing.T) {
	copies := &fakeCopyLedger{errFor: func(uint) error { return errors.New("disk full") }}
	notifications := &fakeNotificationStore{}
	w := copytrading.NewWriter(copies, notifications, &fakeSubscriptionSource{}, nil)

	err := w.RecordCopy(context.Background(), tradeWithValue("1000"), 42, dec("500"))
	require.Error(t, err)
	assert.Empty(t, notifications.created, "no notification without a ledger entry")
}

func TestWriterRiskAlertSwallowsDeliveryFailure(t *testing.T) {
	notifications := &fakeNotificationStore{createErr: errors.New("down")}
	w := copytrading.NewWriter(&fakeCopyLedger{}, notifications, &fakeSubscriptionSource{}, nil)

	// Must not panic or surface the error.
	w.RiskAlert(context.Background(), 42, "Daily loss limit reached")
	assert.Empty(t, notifications.created)
}

func TestWriterBroadcastNewTrade(t *testing.T) {
	subs := &fakeSubscriptionSource{subs: []models.Subscription{
		{ID: 1, CopierID: 100, TraderID: 10, Status: models.SubscriptionActive},
		{ID: 2, CopierID: 200, TraderID: 10, Status: models.SubscriptionActive},
	}}
	notifications := &fakeNotificationStore{}
	w := copytrading.NewWriter(&fakeCopyLedger{}, notifications, subs, nil)

	err := w.BroadcastNewTrade(context.Background(), tradeWithValue("1000"))
	require.NoError(t, err)

	assert.Equal(t, 1, notifications.batchWrites, "one batch write for all subscribers")
	require.Len(t, notifications.created, 2)
	for i, copierID := range []uint{100, 200} {
		assert.Equal(t, copierID, notifications.created[i].UserID)
		assert.Equal(t, models.NotificationNewTrade, notifications.created[i].Type)
		assert.Contains(t, notifications.created[i].Message, "ETH→USDC")
	}
}

func TestWriterBroadcastNoSubscribers(t *testing.T) {
	notifications := &fakeNotificationStore{}
	w := copytrading.NewWriter(&fakeCopyLedger{}, notifications, &fakeSubscriptionSource{}, nil)

	require.NoError(t, w.BroadcastNewTrade(context.Background(), tradeWithValue("1000")))
	assert.Zero(t, notifications.batchWrites)
}
