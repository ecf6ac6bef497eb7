package copytrading_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/copytrade-hub/internal/copytrading"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherRunsSubmittedTask(t *testing.T) {
	d := copytrading.NewDispatcher(nil)

	done := make(chan struct{})
	d.Submit("test-task", func(ctx context.Context) error {
		close(done)
		return nil
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task never ran")
	}
	require.NoError(t, d.Shutdown(context.Background()))
}

func TestDispatcherDetachesFromCallerContext(t *testing.T) {
	d := copytrading.NewDispatcher(nil)

	ctxCh := make(chan context.Context, 1)
	d.Submit("ctx-probe", func(ctx context.Context) error {
		ctxCh <- ctx
		return nil
	})

	select {
	case ctx := <-ctxCh:
		_, hasDeadline := ctx.Deadline()
		assert.False(t, hasDeadline)
		assert.NoError(t, ctx.Err())
	case <-time.After(time.Second):
		t.Fatal("task never ran")
	}
	require.NoError(t, d.Shutdown(context.Background()))
}

func TestDispatcherSwallowsTaskError(t *testing.T) {
	d := copytrading.NewDispatcher(nil)

	d.Submit("failing-task", func(ctx context.Context) error {
		return errors.New("boom")
	})

	// Submit returns immediately and Shutdown still drains cleanly.
	require.NoError(t, d.Shutdown(context.Background()))
}

func TestDispatcherShutdownWaitsForInFlight(t *testing.T) {
	d := copytrading.NewDispatcher(nil)

	var finished atomic.Bool
	release := make(chan struct{})
	d.Submit("slow-task", func(ctx context.Context) error {
		<-release
		finished.Store(true)
		return nil
	})

	go func() {
		time.Sleep(50 * time.Millisecond)
		close(release)
	}()

	require.NoError(t, d.Shutdown(context.Background()))
	assert.True(t, finished.Load(), "shutdown returned before the task finished")
}

func TestDispatcherShutdownHonorsDeadline(t *testing.T) {
	d := copytrading.NewDispatcher(nil)

	release := make(chan struct{})
	defer close(release)
	d.Submit("stuck-task", func(ctx context.Context) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Shutdown(ctx), context.DeadlineExceeded)
}

func TestDispatcherDropsAfterShutdown(t *testing.T) {
	d := copytrading.NewDispatcher(nil)
	require.NoError(t, d.Shutdown(context.Background()))

	var ran atomic.Bool
	d.Submit("late-task", func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})

	time.Sleep(50 * time.Millisecond)
	assert.False(t, ran.Load(), "task submitted after shutdown must be dropped")
}
